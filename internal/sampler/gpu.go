package sampler

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Dicklesworthstone/sysmon/internal/errors"
	"github.com/Dicklesworthstone/sysmon/internal/model"
)

const (
	// DefaultGPUCommand is the query tool invoked by the GPU sampler.
	DefaultGPUCommand = "nvidia-smi"
	// DefaultGPUTimeout bounds a single query.
	DefaultGPUTimeout = 3 * time.Second
)

// GPUFields are requested from the query tool, in this order.
var GPUFields = []string{
	"name",
	"pstate",
	"temperature.gpu",
	"utilization.gpu",
	"utilization.memory",
	"power.draw",
	"enforced.power.limit",
}

// GPU samples the first device reported by nvidia-smi.
type GPU struct {
	runner  Runner
	command string
	timeout time.Duration
	now     func() time.Time
}

// NewGPU creates a GPU sampler. Empty command or non-positive timeout use defaults.
func NewGPU(runner Runner, command string, timeout time.Duration) *GPU {
	if command == "" {
		command = DefaultGPUCommand
	}
	if timeout <= 0 {
		timeout = DefaultGPUTimeout
	}
	return &GPU{runner: runner, command: command, timeout: timeout, now: time.Now}
}

func (g *GPU) Family() model.Family { return model.FamilyGPU }

// Args returns the query tool arguments: header row plus one data row, no units in values.
func (g *GPU) Args() []string {
	return []string{
		"--query-gpu=" + strings.Join(GPUFields, ","),
		"--format=csv,nounits",
	}
}

// Sample runs one query. Anything on stderr, a failed run, or output that
// does not match the requested fields is reported as SourceUnavailable and
// the output is not parsed further.
func (g *GPU) Sample(ctx context.Context, _ bool) (Reading, error) {
	ts := g.now()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	stdout, stderr, err := g.runner.Run(ctx, g.command, g.Args()...)
	if msg := strings.TrimSpace(string(stderr)); msg != "" {
		return Reading{}, errors.SourceUnavailable(fmt.Errorf("%s", msg), g.command+" reported an error")
	}
	if err != nil {
		return Reading{}, errors.SourceUnavailable(err, g.command+" failed")
	}

	header, row, err := ParseQuery(stdout)
	if err != nil {
		return Reading{}, errors.SourceUnavailable(err, "malformed "+g.command+" output")
	}

	sample := model.NewSample(ts)
	for i, label := range header {
		cell := row[i]
		if v, err := strconv.ParseFloat(cell, 64); err == nil {
			sample.Set(label, v)
		} else {
			sample.SetText(label, cell)
		}
	}
	return Reading{Sample: sample}, nil
}

// ParseQuery splits query output into its header and first data row.
// The header must list GPUFields in order; each may carry a bracketed unit.
func ParseQuery(out []byte) (header, row []string, err error) {
	r := csv.NewReader(bytes.NewReader(out))
	r.TrimLeadingSpace = true

	header, err = r.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("empty output")
	}
	if err != nil {
		return nil, nil, err
	}
	row, err = r.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("missing data row")
	}
	if err != nil {
		return nil, nil, err
	}

	if len(header) != len(GPUFields) {
		return nil, nil, fmt.Errorf("expected %d columns, got %d", len(GPUFields), len(header))
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
		row[i] = strings.TrimSpace(row[i])
		if header[i] != GPUFields[i] && !strings.HasPrefix(header[i], GPUFields[i]+" [") {
			return nil, nil, fmt.Errorf("unexpected column %q at position %d, want %q", header[i], i, GPUFields[i])
		}
	}
	return header, row, nil
}
