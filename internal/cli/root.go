// Package cli defines the cobra commands of the onestep binary.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/onestep/internal/config"
	"github.com/PabloGalante/onestep/internal/observability"
)

var (
	configPath string
	logLevel   string
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "onestep",
	Short: "A body-double companion that gets you through one tiny step at a time",
	Long: `onestep keeps you company while you work on a task: it suggests a tiny
first step, checks in when you go quiet and saves every finished task to
your wins journal.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default $ONESTEP_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(stepCmd)
}

// loadConfig reads the config and sets up logging. Interactive commands pass
// textLogs so log lines go to stderr in a readable form.
func loadConfig(logOut io.Writer, textLogs bool) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	format := cfg.Log.Format
	if textLogs {
		format = "text"
	}
	observability.Init(logOut, cfg.Log.Level, format)
	return cfg, nil
}
