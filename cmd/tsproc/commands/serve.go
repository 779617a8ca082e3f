package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/hydro-tsproc/internal/adapter/httpadapter"
	"github.com/couchcryptid/hydro-tsproc/internal/printer"
	"github.com/couchcryptid/hydro-tsproc/internal/processor"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var runTimeout time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve script runs, health, readiness and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), runTimeout)
		},
	}
	cmd.Flags().DurationVar(&runTimeout, "run-timeout", 5*time.Minute, "maximum duration of one script run")
	return cmd
}

func serve(parent context.Context, runTimeout time.Duration) error {
	e, err := loadEnv()
	if err != nil {
		return printer.Error("Invalid configuration", err.Error(), "Check the environment variables.")
	}
	logger := e.logger

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := e.options(ctx, e.cfg.WorkingDir, true)
	if err != nil {
		return printer.Error("Cannot open datastores", err.Error(),
			"Verify DATASTORE_CONFIG and that each datastore is reachable.")
	}
	runner := processor.NewRunner(opts, e.cfg.MaxCommandFailures)
	srv := httpadapter.NewServer(e.cfg.HTTPAddr, runner, runTimeout, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("http server error", "error", err)
		stop()
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), e.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := runner.Close(); err != nil {
		logger.Error("datastore close error", "error", err)
	}

	logger.Info("shutdown complete", "runs", runner.Runs())
	return nil
}
