// Package cli wires the twarcsql commands.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twarcsql/twarcsql/engine/infra/postgres"
	"github.com/twarcsql/twarcsql/pkg/config"
	"github.com/twarcsql/twarcsql/pkg/logger"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "twarcsql",
		Short: "Load twarc Twitter archives into PostgreSQL",
		Long: "twarcsql loads flat-file twarc archives (JSONL search pages) into a\n" +
			"normalized PostgreSQL schema: tweets, authors, reference mappings and\n" +
			"entity mappings, deduplicated across reloads.",
		SilenceUsage:      true,
		PersistentPreRunE: setupContext,
	}
	root.PersistentFlags().String("config", "", "YAML configuration file")
	root.PersistentFlags().String("env-file", "", "dotenv file loaded before environment resolution")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("log-json", false, "emit logs as JSON")
	root.PersistentFlags().Bool("log-source", false, "annotate logs with source locations")

	root.AddCommand(
		DBCmd(),
		LoadCmd(),
	)
	return root
}

// setupContext loads configuration and logging once for every command and
// stores both on the command context.
func setupContext(cmd *cobra.Command, _ []string) error {
	logLevel, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.SetupLogger(logLevel, logJSON, logSource)

	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return fmt.Errorf("failed to get env-file flag: %w", err)
	}
	loader := config.NewLoader()
	loader.ConfigFile = configFile
	loader.EnvFile = envFile
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	// The flag wins over the configured level only when given explicitly.
	if !cmd.Flags().Changed("log-level") && cfg.Runtime.LogLevel != logLevel {
		log = logger.SetupLogger(cfg.Runtime.LogLevel, logJSON, logSource)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithConfig(ctx, cfg)
	cmd.SetContext(ctx)
	return nil
}

// databaseConfig maps the loaded configuration onto the driver config.
func databaseConfig(cfg *config.Config) *postgres.Config {
	return &postgres.Config{
		ConnString:  cfg.Database.ConnString,
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password.Value(),
		DBName:      cfg.Database.DBName,
		SSLMode:     cfg.Database.SSLMode,
		AdminDBName: cfg.Database.AdminDBName,
	}
}
