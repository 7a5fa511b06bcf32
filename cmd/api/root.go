package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pet-adoption",
	Short: "Servicio de adopciones, custodias temporales y escrow",
	Long: `pet-adoption expone por HTTP el ciclo de vida de adopciones y custodias temporales,
con fondos retenidos en escrow y un log de eventos append-only.`,
	SilenceUsage: true,
}

// Execute corre el comando raíz y sale con 1 ante error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Archivo YAML de configuración (por defecto CONFIG_FILE)")
}
