package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/sysmon/internal/config"
	"github.com/Dicklesworthstone/sysmon/internal/logger"
	"github.com/Dicklesworthstone/sysmon/internal/model"
	"github.com/Dicklesworthstone/sysmon/internal/monitor"
	"github.com/Dicklesworthstone/sysmon/internal/sampler"
	"github.com/Dicklesworthstone/sysmon/internal/ui"
)

func runMonitor(cmd *cobra.Command) error {
	cfg, err := config.Load(configFlag, cmd.Flags())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	switch {
	case cfg.JSON:
		engine := buildEngine(cfg)
		return writeSnapshot(out, engine.RunCycle(ctx, true))
	case cfg.JSONStream:
		engine := buildEngine(cfg)
		return streamSnapshots(ctx, out, monitor.NewScheduler(engine, cfg.Interval, logger.New("[scheduler]", cfg.Log.Debug)))
	default:
		return runDashboard(ctx, cfg)
	}
}

// buildSamplers returns the samplers in cycle order: CPU, GPU, memory, network.
func buildSamplers(cfg config.Config) []sampler.Sampler {
	var host sampler.Host
	samplers := []sampler.Sampler{
		sampler.NewCPU(host, logger.New("[cpu]", cfg.Log.Debug),
			sampler.WithLoadWindow(cfg.CPU.LoadWindow),
			sampler.WithSensorPrefix(cfg.CPU.SensorPrefix)),
	}
	if cfg.GPU.Enabled {
		samplers = append(samplers, sampler.NewGPU(sampler.ExecRunner{}, cfg.GPU.Command, cfg.GPU.Timeout))
	}
	return append(samplers, sampler.NewMemory(host), sampler.Network{})
}

func buildEngine(cfg config.Config) *monitor.Engine {
	return monitor.NewEngine(buildSamplers(cfg), cfg.History,
		monitor.WithLogger(logger.New("[engine]", cfg.Log.Debug)))
}

func runDashboard(ctx context.Context, cfg config.Config) error {
	// The alt screen owns the terminal; diagnostics go to a file or nowhere.
	if cfg.Log.File != "" {
		f, err := tea.LogToFile(cfg.Log.File, "sysmon")
		if err != nil {
			return err
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	samplingCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	engine := buildEngine(cfg)
	selection := monitor.NewController(engine)
	scheduler := monitor.NewScheduler(engine, cfg.Interval, logger.New("[scheduler]", cfg.Log.Debug))

	go scheduler.Run(samplingCtx)
	err := ui.Run(ctx, ui.New(engine, selection, cancel))
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func writeSnapshot(w io.Writer, snap *model.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// streamSnapshots writes one JSON line per completed cycle until ctx is done.
func streamSnapshots(ctx context.Context, w io.Writer, s *monitor.Scheduler) error {
	enc := json.NewEncoder(w)
	for snap := range s.Stream(ctx) {
		if err := enc.Encode(snap); err != nil {
			return err
		}
	}
	return nil
}
