package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pet-adoption/internal/domain/applog"
	"pet-adoption/internal/domain/lifecycle"
	"pet-adoption/internal/platform/metrics"
	"pet-adoption/internal/platform/tracing"
	"pet-adoption/internal/router"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Levanta la API HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := tracing.Setup(ctx, tracing.Options{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.ServiceName,
		})
		if err != nil {
			return err
		}
		defer func() {
			tctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if err := shutdownTracing(tctx); err != nil {
				log.Warn("tracing shutdown failed", map[string]any{"err": err.Error()})
			}
		}()

		store, err := openStore(ctx, cfg.Store, log)
		if err != nil {
			return err
		}
		defer store.Close()

		provider, err := newProvider(cfg.Settlement, log)
		if err != nil {
			return err
		}
		verifier, err := newVerifier(cfg.Auth, log)
		if err != nil {
			return err
		}

		m := metrics.New()
		coord := lifecycle.New(lifecycle.Options{
			Store:             store,
			Provider:          provider,
			Logger:            log,
			Metrics:           m,
			SettlementTimeout: cfg.Settlement.Timeout,
		})

		srv := &http.Server{
			Addr: cfg.HTTP.Addr,
			Handler: router.NewRouter(router.Options{
				AuthVerifier: verifier,
				Coordinator:  coord,
				Logger:       log,
				Metrics:      m,
				AppLogs:      applog.NewRecorder(store.AppLogs(), log, m.AppLogFailures),
			}),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}

		serverErrors := make(chan error, 1)
		go func() {
			log.Info("starting server", map[string]any{"addr": cfg.HTTP.Addr, "store": cfg.Store.Driver})
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
			log.Info("shutting down", nil)
		}

		sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown did not complete", map[string]any{"err": err.Error()})
			return srv.Close()
		}
		log.Info("server stopped", nil)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
