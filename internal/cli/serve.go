package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/camwork/internal/api"
	"github.com/ivlev/camwork/internal/store"
)

type serveOptions struct {
	port   int
	dbPath string
	faces  string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP synthesis API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.port, "port", rootOpts.Runtime.Port, "listen port on 127.0.0.1")
	cmd.Flags().StringVar(&opts.dbPath, "db", rootOpts.Runtime.DBPath, "SQLite database for persisted keyframes (empty disables persistence)")
	cmd.Flags().StringVar(&opts.faces, "faces", "", "sidecar file of face results for segments sent without an inline face")

	return cmd
}

func runServe(rootOpts *RootOptions, opts *serveOptions, cmd *cobra.Command) error {
	if opts.port < 1 || opts.port > 65535 {
		return NewExitError(ExitCommandError, "port must be between 1 and 65535")
	}
	logger := rootOpts.logger(cmd.ErrOrStderr())
	startTime := time.Now()

	synth, err := rootOpts.synthesizer(logger)
	if err != nil {
		return err
	}

	detector, err := detectorFor(opts.faces)
	if err != nil {
		return err
	}

	cfg := api.ServerConfig{
		Port:        opts.port,
		Synthesizer: synth,
		Detector:    detector,
		Logger:      logger,
		StartTime:   startTime,
	}
	if opts.dbPath != "" {
		st, err := store.Open(opts.dbPath, logger)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to open store", err)
		}
		defer st.Close()
		cfg.Store = st
	}

	server := api.NewServer(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitFailure, "HTTP server error", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}
