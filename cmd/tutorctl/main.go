// Package main is the tutorkb operator CLI. It works directly against the
// configured data directory, without a running server.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tutorkb/internal/app"
	"github.com/dgallion1/tutorkb/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "tutorctl",
	Short: "Ingest course material and ask questions against a tutorkb store",
	Long: `tutorctl reads the same configuration as the tutorkb server (.env,
TUTORKB_CONFIG and environment variables) and operates on its data
directory directly. Do not run it while the server is writing to a JSON
store: the files have no cross-process locking.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "", "data directory (overrides DATA_DIR)")
	rootCmd.PersistentFlags().String("backend", "", "store backend, json or sqlite (overrides STORE_BACKEND)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log pipeline progress to stderr")

	rootCmd.AddCommand(ingestCmd, askCmd, stateCmd)
}

// openApp loads configuration, applies flag overrides and builds the app.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.StoreBackend = v
	}

	level := slog.LevelError
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	a, err := app.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return a, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
