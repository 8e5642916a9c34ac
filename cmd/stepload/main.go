package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"stepload/internal/config"
	"stepload/internal/httpexec"
	"stepload/internal/logsink"
	"stepload/internal/monitor"
	"stepload/internal/ramp"
	"stepload/internal/ratelimit"
	"stepload/internal/stats"
)

const (
	ExitSuccess   = 0
	ExitRunFailed = 1
	ExitError     = 2
)

// errRunFailed marks a run that started but did not complete, so main can
// distinguish it from configuration/usage errors in the exit code.
var errRunFailed = errors.New("load run failed")

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "stepload",
		Short: "Stepped-concurrency HTTP load generator",
		Long: `stepload drives an HTTP endpoint with successive load steps of
increasing concurrency, reporting per-step throughput, latency and error
rate. It can optionally sample a Redis instance while the run is in
progress.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file (required)")
	_ = root.MarkFlagRequired("config")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, errRunFailed) {
			os.Exit(ExitRunFailed)
		}
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	sink, closeSink, err := logsink.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closeSink()

	runID := uuid.NewString()
	sink.Infof("run %s: %s %s, users %d..%d (+%d), %ds per step",
		runID, cfg.Method, cfg.URL, cfg.StartUsers, cfg.MaxUsers, cfg.IncrementBy, cfg.DurationPerStep)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The monitor starts before the ramp and is stopped on every exit
	// path, including aborted runs.
	if cfg.Monitor != nil {
		mon := monitor.New(cfg.Monitor, sink)
		if err := mon.Start(ctx); err != nil {
			return err
		}
		defer mon.Stop()
	}

	client := httpexec.NewClient(cfg.Timeout(), cfg.MaxUsers)
	exec := httpexec.New(client, cfg.Method, cfg.URL, cfg.Headers, cfg.Payload)
	ctrl := ramp.New(cfg, exec, sink, ratelimit.New(cfg.MaxRPS))

	summaries, runErr := ctrl.Run(ctx)

	if len(summaries) > 0 {
		stats.WriteText(os.Stdout, runID, summaries)
	}
	if runErr != nil {
		sink.Errorf("run %s aborted: %v", runID, runErr)
		return fmt.Errorf("%w: %v", errRunFailed, runErr)
	}
	sink.Infof("run %s complete: %d steps", runID, len(summaries))
	return nil
}
