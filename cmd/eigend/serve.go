package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"eigend/internal/app"
	"eigend/internal/config"
	"eigend/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and manage the inference server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(f.envFile); err != nil {
				return err
			}
			cfg, err := resolveConfig(cmd, f, os.Getenv)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, f)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, f *flags) error {
	log := newLogger(os.Stderr, cfg.LogLevel, f.pretty)

	a, err := app.New(cfg, app.Options{
		Logger:         &log,
		BundledCatalog: f.bundledCatalog,
		InMemoryStore:  f.inMemory,
		LlamaArgs:      f.llamaArgs,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Str("event", "close_failed").Err(err).Msg("shutdown")
		}
	}()

	httpapi.SetLogger(log)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetTurnTimeoutSeconds(int64(f.turnTimeout / time.Second))
	httpapi.SetCORSOptions(len(cfg.CORSOrigins) > 0, cfg.CORSOrigins,
		[]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		[]string{"Content-Type", "X-Log-Level", "X-Request-Id"})
	httpapi.SetRequestLogLevel(cfg.LogLevel)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           httpapi.NewMux(a),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("event", "listen").Str("addr", ln.Addr().String()).Str("models_dir", cfg.ModelsDir).Msg("eigend listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := a.Watch(gctx); err != nil {
			log.Warn().Str("event", "watch_failed").Err(err).Msg("models directory is not watched")
		}
		return nil
	})
	g.Go(func() error {
		if id := a.Boot(); id != "" {
			log.Info().Str("event", "boot").Str("model", id).Msg("starting llama-server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Str("event", "shutdown").Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
