package main

import (
	"context"
	"fmt"

	"pet-adoption/internal/adapters/auth/odin"
	"pet-adoption/internal/adapters/settlement/httpsettle"
	"pet-adoption/internal/adapters/settlement/stub"
	"pet-adoption/internal/adapters/storage/memory"
	"pet-adoption/internal/adapters/storage/sqlstore"
	"pet-adoption/internal/domain/escrow"
	"pet-adoption/internal/platform/config"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/ports/auth"
	"pet-adoption/internal/ports/storage"

	"github.com/spf13/cobra"
)

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func newLogger(cfg config.Config) logger.Logger {
	return logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})
}

// openStore abre el store configurado. Con SQL y auto_migrate aplica migraciones.
func openStore(ctx context.Context, cfg config.Store, log logger.Logger) (storage.Store, error) {
	if cfg.Driver == config.StoreMemory {
		log.Warn("using in-memory store, data is lost on restart", nil)
		return memory.New(), nil
	}

	s, err := sqlstore.Open(ctx, sqlstore.Config{Driver: cfg.Driver, DSN: cfg.DSN})
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		applied, err := s.Migrate(ctx)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied", map[string]any{"driver": cfg.Driver, "count": len(applied)})
	}
	return s, nil
}

func newProvider(cfg config.Settlement, log logger.Logger) (escrow.Provider, error) {
	if cfg.URL == "" {
		log.Warn("settlement url not set, using stub provider", nil)
		return stub.New(), nil
	}
	p, err := httpsettle.New(httpsettle.Config{BaseURL: cfg.URL, Token: cfg.Token, Timeout: cfg.Timeout})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// newVerifier devuelve nil (modo dev con X-Debug-*) si Odin no está configurado.
func newVerifier(cfg config.Auth, log logger.Logger) (auth.AuthVerifier, error) {
	if cfg.OdinBaseURL == "" {
		log.Warn("odin not configured, accepting X-Debug-User-ID headers", nil)
		return nil, nil
	}
	client, err := odin.NewClient(odin.Config{
		BaseURL: cfg.OdinBaseURL,
		APIKey:  cfg.OdinAPIKey,
		Timeout: cfg.OdinTimeout,
	})
	if err != nil {
		return nil, err
	}
	return odin.NewVerifier(client), nil
}
