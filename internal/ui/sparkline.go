package ui

// sparklineBlocks are block characters for 8-level vertical resolution (lowest to highest).
var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders the last width values of data. Data within 0-100 is
// drawn on a fixed percentage scale; anything else is scaled to its range.
func Sparkline(data []float64, width int) string {
	if width <= 0 || len(data) == 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	lo, hi := findMinMax(data)
	out := make([]rune, len(data))
	for i, v := range data {
		norm := 0.5
		if hi > lo {
			norm = (v - lo) / (hi - lo)
		}
		idx := int(norm * float64(len(sparklineBlocks)-1))
		out[i] = sparklineBlocks[clampInt(idx, len(sparklineBlocks)-1)]
	}
	return string(out)
}

// findMinMax returns the plotting range for data.
func findMinMax(data []float64) (lo, hi float64) {
	lo, hi = data[0], data[0]
	for _, v := range data {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo >= 0 && hi <= 100 {
		return 0, 100
	}
	return lo, hi
}

func clampInt(val, maxVal int) int {
	if val < 0 {
		return 0
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
