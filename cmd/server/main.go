package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/remote-agent-terminal/patternrelay/internal/config"
	"github.com/remote-agent-terminal/patternrelay/internal/logging"
	"github.com/remote-agent-terminal/patternrelay/internal/metrics"
	"github.com/remote-agent-terminal/patternrelay/internal/transcript"
	"github.com/remote-agent-terminal/patternrelay/internal/ws"
)

const shutdownTimeout = 5 * time.Second

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "patternrelay-server",
		Short:        "WebSocket relay that broadcasts pattern commands to every client",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServer(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	return cmd
}

func run(ctx context.Context, cfg config.Server) error {
	logger := logging.New(logging.ProfileRuntime, "relay", os.Stdout)

	var recorder *transcript.Recorder
	if cfg.TranscriptPath != "" {
		var err error
		recorder, err = transcript.Open(cfg.TranscriptPath)
		if err != nil {
			return err
		}
		defer recorder.Close()
		if err := recorder.WriteHeader(cfg.Addr()); err != nil {
			return err
		}
	}

	m := metrics.New()
	wsService := ws.NewService(cfg, m, recorder, logger)
	defer wsService.Close()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), m.Middleware(logging.Component(logger, "http")))
	registerRoutes(r, cfg, wsService, m)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", "http://localhost"+cfg.Addr()).Msg("Serving")
		logger.Info().Str("addr", "ws://localhost"+cfg.Addr()+"/ws").Msg("WebSocket relay available")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")
	wsService.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return shutdown(shutdownCtx, srv, logger)
}

func registerRoutes(r *gin.Engine, cfg config.Server, wsService *ws.Service, m *metrics.Metrics) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"clients": wsService.Hub().ClientCount(),
		})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))
	wsService.Handler().RegisterRoutes(r)

	// Everything else is served from the static directory.
	r.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.StaticDir))))
}

func shutdown(ctx context.Context, srv *http.Server, logger zerolog.Logger) error {
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		return err
	}
	return nil
}
