package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/server"
)

func newServeCmd(o *options) *cobra.Command {
	var (
		httpAddr string
		grpcAddr string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the validation HTTP API",
		Long:  "Serve the REST API (POST /validate, GET /status, /result, /download-pdf, /export, /health) with a background worker pool.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := common.LoadConfig()
			if httpAddr != "" {
				cfg.Server.HTTPAddr = httpAddr
			}
			if grpcAddr != "" {
				cfg.Server.GRPCAddr = grpcAddr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, o)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	cmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC health listen address (overrides GRPC_ADDR)")
	return cmd
}

func serve(ctx context.Context, cfg *common.Config, o *options) error {
	logger := newLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)
	logger.Info("serve.start",
		"http_addr", cfg.Server.HTTPAddr,
		"grpc_addr", cfg.Server.GRPCAddr,
		"backend", cfg.LLM.Backend,
		"model", cfg.LLM.Model,
		"mode", cfg.LLM.Mode,
		"job_store", cfg.Storage.JobStore,
	)

	a, err := buildApp(ctx, cfg, o, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var grpcLis net.Listener
	if cfg.Server.GRPCAddr != "" {
		if grpcLis, err = net.Listen("tcp", cfg.Server.GRPCAddr); err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
		}
	}

	errCh := make(chan error, 2)
	go func() { errCh <- a.http.ListenAndServe() }()

	var health *server.HealthServer
	if grpcLis != nil {
		health = server.NewHealthServer(a.pinger, logger)
		go func() { errCh <- health.Serve(grpcLis) }()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("serve.shutdown")
	case runErr = <-errCh:
		if runErr != nil {
			logger.Error("serve.stopped", "error", runErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		logger.Warn("serve.http_shutdown", "error", err)
	}
	if health != nil {
		health.Stop()
	}
	a.queue.Shutdown(shutdownCtx)
	logger.Info("serve.done")
	return runErr
}
