// Package cli wires configuration, samplers, the monitor engine and the
// display into the sysmon command.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "sysmon",
	Short: "Live host telemetry: CPU load and temperature, memory, GPU",
	Long: `Sample CPU load and per-core temperature, memory usage and GPU
utilization at a fixed interval and show a rolling history of each.

The first cycle calibrates: CPU temperature thresholds and total RAM are
captured once. A source that fails (for example nvidia-smi missing) only
freezes its own panel; everything else keeps updating.

Keyboard shortcuts:
  1 / c       CPU detail
  2 / m       Memory detail
  3 / g       GPU detail
  tab         Next family
  up / down   Scroll detail rows
  q / Ctrl+C  Quit

Examples:
  sysmon
  sysmon --interval 2s --history 120
  sysmon --no-gpu --json
  SYSMON_INTERVAL=10 sysmon --json-stream`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd)
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configFlag, "config", "", "config file (default ./sysmon.yaml or ~/.config/sysmon/config.yaml)")
	f.Int("history", 0, "observations retained per metric (default 59)")
	f.String("interval", "", "tick interval, e.g. 5s or 5 (default 5s)")
	f.String("load-window", "", "CPU load integration window (default 1s)")
	f.Bool("no-gpu", false, "disable GPU sampling")
	f.String("gpu-command", "", "GPU query tool (default nvidia-smi)")
	f.String("gpu-timeout", "", "GPU query timeout (default 3s)")
	f.Bool("json", false, "run the calibrating cycle, print the snapshot as JSON and exit")
	f.Bool("json-stream", false, "print one JSON snapshot per cycle until interrupted")
	f.String("log-file", "", "write diagnostics to this file while the dashboard runs")
	f.Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
