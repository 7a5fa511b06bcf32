package main

import (
	"errors"
	"fmt"

	"pet-adoption/internal/adapters/storage/sqlstore"
	"pet-adoption/internal/platform/config"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica las migraciones pendientes del store SQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Store.Driver == config.StoreMemory {
			return errors.New("migrate requires STORE_DRIVER sqlite or postgres")
		}
		log := newLogger(cfg)

		s, err := sqlstore.Open(cmd.Context(), sqlstore.Config{Driver: cfg.Store.Driver, DSN: cfg.Store.DSN})
		if err != nil {
			return err
		}
		defer s.Close()

		applied, err := s.Migrate(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range applied {
			log.Info("migration applied", map[string]any{"name": name})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", len(applied))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
