package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"qrisk/internal/api"
	"qrisk/internal/cache"
	"qrisk/internal/engine"
	"qrisk/internal/logging"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assessment HTTP API",
	Long: `Run an HTTP server exposing the assessment pipeline.

Endpoints:
  POST /v1/scan         {"url": "..."} -> full assessment as JSON
  POST /v1/scan/batch   {"urls": ["..."]} -> assessments in request order
  GET  /healthz         liveness probe

The server only serves local analysis. It never makes outbound
requests on behalf of a scanned URL.

Example:
  qrisk serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: from config, :8080)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}

	logger := logging.Init(cfg.Log)

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	var store cache.Cache
	if cfg.Cache.Enabled {
		store = cache.NewMemory(cfg.Cache.TTL)
	}

	srv := api.New(eng, store, cfg.Cache.TTL, logger)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
