package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sidlawliet/whiteroom-mentor/internal/config"
	"github.com/sidlawliet/whiteroom-mentor/internal/observability"
	"github.com/spf13/cobra"
)

var (
	userFlag    string
	storageFlag string
	verbose     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wrctl",
		Short: "Terminal client for the White Room mentor",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			observability.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "identity to act as (required)")
	rootCmd.PersistentFlags().StringVar(&storageFlag, "storage", "", "override STORAGE_BACKEND (memory, gorm, redis)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig applies CLI flag overrides on top of the environment.
func loadConfig() (config.Config, error) {
	if userFlag == "" {
		return config.Config{}, fmt.Errorf("--user is required")
	}
	cfg := config.Load()
	if storageFlag != "" {
		cfg.StorageBackend = storageFlag
	}
	return cfg, nil
}
