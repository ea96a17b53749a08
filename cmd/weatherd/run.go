package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll and publish until interrupted",
	Long:  "Run a fetch cycle immediately, then once per poll interval until SIGINT or SIGTERM.",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := newDaemon(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	srv := d.healthServer()
	if srv != nil {
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				d.logger.Error("health server error", "error", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := d.pipeline.Run(ctx); err != nil {
			d.logger.Error("pipeline error", "error", err)
		}
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}
	d.logger.Info("shutting down")
	d.pipeline.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.cfg.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			d.logger.Error("health server shutdown error", "error", err)
		}
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		d.logger.Warn("poll cycle still in flight at shutdown deadline")
	}

	d.logger.Info("shutdown complete")
	return nil
}
