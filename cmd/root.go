package cmd

import (
	"context"
	"fmt"
	"os"

	"chesswager/config"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "chesswager",
	Short:         "Reconcile chess wagers against game archives and settle stakes",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfg != nil {
			return nil
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		if err := configureLogging(loaded); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command with ctx
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(settleCmd)
	rootCmd.AddCommand(migrateCmd)
}

// configureLogging applies the level and format to the global logrus logger
func configureLogging(c *config.Config) error {
	level := c.LogLevel
	if level == "" {
		level = "info"
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(parsed)
	log.SetOutput(os.Stderr)

	switch c.LogFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
