package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/ajwerner/avltable/internal/addrspace"
	"github.com/ajwerner/avltable/internal/config"
	"github.com/ajwerner/avltable/internal/observability"
	"github.com/ajwerner/avltable/internal/workload"
	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// ErrUnexpectedOutcome is returned when a workload step did not fail or
// succeed as it declared.
var ErrUnexpectedOutcome = errors.New("unexpected step outcome")

type runCommand struct {
	configPath string
	serve      bool
}

func newRunCommand() *cobra.Command {
	rc := &runCommand{}
	cmd := &cobra.Command{
		Use:   "run <workload.yaml>",
		Short: "Replay a workload",
		Long: `Replay a workload against a fresh address space and print the steps
and the regions left reserved. With --serve, the metrics endpoint stays up
after the run until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: rc.run,
	}
	cmd.Flags().StringVarP(&rc.configPath, "config", "c", "", "Configuration file (default ./vadsim.yaml)")
	cmd.Flags().BoolVar(&rc.serve, "serve", false, "Keep serving metrics after the run")
	return cmd
}

func (rc *runCommand) run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(rc.configPath)
	if err != nil {
		return err
	}
	log, err := observability.NewLogger(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	w, err := workload.Load(args[0])
	if err != nil {
		return err
	}

	limits, err := cfg.AddressSpace.Limits()
	if err != nil {
		return err
	}
	opts := []addrspace.Option{addrspace.WithLogger(log)}
	if cfg.AddressSpace.Verify {
		opts = append(opts, addrspace.WithVerification())
	}

	var serveErr chan error
	if cfg.Metrics.Enabled {
		mp, handler, err := observability.NewPrometheus()
		if err != nil {
			return err
		}
		defer shutdownProvider(mp, log)
		m, err := observability.NewMetrics(mp.Meter("vadsim"), cfg.Metrics.Namespace)
		if err != nil {
			return err
		}
		opts = append(opts, addrspace.WithRecorder(m))

		serveCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		serveErr = make(chan error, 1)
		go func() { serveErr <- observability.Serve(serveCtx, cfg.Metrics.Addr, handler, log) }()
	}

	as, err := addrspace.New(limits, opts...)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "running workload", "workload", w.Name, "steps", len(w.Steps),
		"address_space", as.ID().String())

	rep, err := workload.Run(ctx, as, w)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderSteps(rep))
	fmt.Fprintln(out, renderRegions(as.List(0, 0), as.Stats()))

	if rc.serve && serveErr != nil {
		log.InfoContext(ctx, "run complete; serving metrics until interrupted")
		select {
		case <-ctx.Done():
		case err := <-serveErr:
			return err
		}
	}
	if n := rep.Unexpected(); n > 0 {
		return fmt.Errorf("%w: %d of %d steps", ErrUnexpectedOutcome, n, len(rep.Results))
	}
	return nil
}

func shutdownProvider(mp *sdkmetric.MeterProvider, log *slog.Logger) {
	if err := mp.Shutdown(context.Background()); err != nil {
		log.Warn("shutdown meter provider", "error", err)
	}
}
