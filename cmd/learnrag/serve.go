package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"learnrag/internal/api"
	"learnrag/internal/ingest"
	"learnrag/internal/retrieval"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recommendation API over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	index, closeIndex, err := openIndex(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeIndex()

	if cfg.VectorStore.Type == "memory" {
		fetcher, err := newFetcher(ctx, cfg)
		if err != nil {
			return err
		}
		if _, err := ingest.NewPipeline(fetcher, index, logger).Rebuild(ctx, cfg.Sources); err != nil {
			return err
		}
	}
	if n, err := index.Count(ctx); err == nil && n == 0 {
		logger.Warn("index is empty; run `learnrag ingest` first")
	}

	engine := retrieval.NewEngine(index, logger)
	handler := api.NewHandler(engine, index, cfg.App, logger)
	router := api.NewRouter(handler, api.RouterOptions{
		Timeout:        cfg.Server.Timeout(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
