package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/twarcsql/twarcsql/engine/infra/postgres"
	"github.com/twarcsql/twarcsql/pkg/config"
	"github.com/twarcsql/twarcsql/pkg/logger"
)

func DBCmd() *cobra.Command {
	db := &cobra.Command{
		Use:   "db",
		Short: "Manage the archive database",
	}
	db.AddCommand(
		dbCreateCmd(),
		dbDropCmd(),
		dbMigrateCmd(),
		dbHealthCmd(),
	)
	return db
}

func dbCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the archive database and apply migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logger.FromContext(ctx)
			cfg := databaseConfig(config.FromContext(ctx))
			ifNotExists, err := cmd.Flags().GetBool("if-not-exists")
			if err != nil {
				return err
			}
			if ifNotExists {
				return postgres.EnsureDatabase(ctx, cfg)
			}
			if err := postgres.CreateDatabase(ctx, cfg); err != nil {
				if errors.Is(err, postgres.ErrDatabaseExists) {
					log.Error("Database already exists, use --if-not-exists to proceed", "name", cfg.DBName)
				}
				return err
			}
			return postgres.ApplyMigrations(ctx, cfg.DSN())
		},
	}
	cmd.Flags().Bool("if-not-exists", false, "succeed when the database already exists")
	return cmd
}

func dbDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop",
		Short: "Drop the archive database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := databaseConfig(config.FromContext(ctx))
			_, err := postgres.DropDatabase(ctx, cfg)
			return err
		},
	}
}

func dbMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := databaseConfig(config.FromContext(ctx))
			return postgres.ApplyMigrations(ctx, cfg.DSN())
		},
	}
}

func dbHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database connectivity and report stored tweets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logger.FromContext(ctx)
			cfg := databaseConfig(config.FromContext(ctx))
			store, err := postgres.NewStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close(ctx)
			if err := store.HealthCheck(ctx); err != nil {
				return err
			}
			counts, err := postgres.NewArchiveRepo(store.Pool()).TableCounts(ctx)
			if err != nil {
				return err
			}
			log.Info("Database healthy",
				"name", cfg.DBName,
				"tweets", counts["tweet"],
				"authors", counts["author"],
				"runs", counts["ingest_run"],
				"rows", counts.Total())
			return nil
		},
	}
}
