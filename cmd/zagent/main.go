// Package main implements the zagent CLI: an interactive coding assistant
// with a compacting conversation memory persisted per project.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"zagent/internal/config"
	"zagent/internal/logging"
)

var (
	configDir string
	verbose   bool

	logger   *zap.Logger
	cfg      config.Config
	settings config.Settings
	fileEnv  map[string]string
)

var rootCmd = &cobra.Command{
	Use:   "zagent",
	Short: "zagent - a coding assistant with compacting conversation memory",
	Long: `zagent is an interactive coding assistant CLI.

Conversation history is kept in a bounded window: when the window grows past
its size budget, older turns are summarized and evicted while recent turns
stay verbatim. Each project directory gets its own persisted context under
the config directory, and evicted turns remain searchable in the archive.

Run without arguments to start an interactive chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configDir == "" {
			dir, err := config.DefaultConfigDir()
			if err != nil {
				return err
			}
			configDir = dir
		}
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		// Interactive chat logs to a file so stdout stays clean.
		opts := logging.Options{Verbose: verbose}
		if cmd.CalledAs() == "zagent" {
			opts.ConfigDir = configDir
		}
		var err error
		logger, err = logging.New(opts)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if cfg, err = config.Load(configDir); err != nil {
			return err
		}
		if settings, err = config.LoadSettings(configDir); err != nil {
			return err
		}
		if fileEnv, err = config.LoadProviderEnv(configDir); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.config/zagent)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(archiveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
