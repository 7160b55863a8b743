package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bodul/strands/internal/solve"
	"github.com/bodul/strands/internal/vision"
)

const (
	janitorInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

var commandServe = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	mainCommand.AddCommand(commandServe)
}

func serve(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := solve.NewClient(cfg.Solver.URL, cfg.Solver.Timeout)
	defer client.Close()

	var scanner vision.Scanner
	if cfg.Vision.Project != "" {
		vc, err := vision.NewClient(ctx, cfg.Vision)
		if err != nil {
			return fmt.Errorf("init vision client: %w", err)
		}
		defer vc.Close()
		scanner = vc
		logger.Info("vision client ready", zap.String("project", cfg.Vision.Project), zap.String("model", cfg.Vision.Model))
	} else {
		logger.Info("GCP_PROJECT_ID not set, photo import disabled")
	}

	srv := NewServer(NewStore(cfg.Board.Rows, cfg.Board.Cols, client), scanner, logger, cfg.Server)
	go srv.Janitor(ctx.Done(), janitorInterval, cfg.Server.SessionTTL)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started",
			zap.String("addr", cfg.Server.Addr),
			zap.String("solver", cfg.Solver.URL),
			zap.Int("rows", cfg.Board.Rows),
			zap.Int("cols", cfg.Board.Cols))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
