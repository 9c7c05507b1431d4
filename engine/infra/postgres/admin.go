package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/twarcsql/twarcsql/pkg/logger"
)

// ErrDatabaseExists reports an attempt to create a database that is
// already present.
var ErrDatabaseExists = errors.New("postgres: database already exists")

// pgIdentifier quotes a database name for use in CREATE/DROP DATABASE,
// which cannot take bind parameters.
func pgIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// DatabaseExists reports whether the configured database exists, checked
// through the maintenance database.
func DatabaseExists(ctx context.Context, cfg *Config) (bool, error) {
	conn, err := pgx.Connect(ctx, cfg.AdminDSN())
	if err != nil {
		return false, fmt.Errorf("postgres: connect to maintenance db: %w", err)
	}
	defer conn.Close(ctx)
	var exists bool
	err = conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)",
		cfg.DBName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: check database %s: %w", cfg.DBName, err)
	}
	return exists, nil
}

// CreateDatabase creates the configured database. It returns
// ErrDatabaseExists when the database is already present.
func CreateDatabase(ctx context.Context, cfg *Config) error {
	log := logger.FromContext(ctx)
	exists, err := DatabaseExists(ctx, cfg)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDatabaseExists, cfg.DBName)
	}
	conn, err := pgx.Connect(ctx, cfg.AdminDSN())
	if err != nil {
		return fmt.Errorf("postgres: connect to maintenance db: %w", err)
	}
	defer conn.Close(ctx)
	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgIdentifier(cfg.DBName)); err != nil {
		return fmt.Errorf("postgres: create database %s: %w", cfg.DBName, err)
	}
	log.Info("Database created", "db_name", cfg.DBName)
	return nil
}

// DropDatabase drops the configured database when present. Dropping a
// missing database is not an error; the call reports whether the
// database is gone afterwards.
func DropDatabase(ctx context.Context, cfg *Config) (bool, error) {
	log := logger.FromContext(ctx)
	exists, err := DatabaseExists(ctx, cfg)
	if err != nil {
		return false, err
	}
	if !exists {
		log.Warn("Database does not exist", "db_name", cfg.DBName)
		return true, nil
	}
	conn, err := pgx.Connect(ctx, cfg.AdminDSN())
	if err != nil {
		return false, fmt.Errorf("postgres: connect to maintenance db: %w", err)
	}
	defer conn.Close(ctx)
	if _, err := conn.Exec(ctx, "DROP DATABASE "+pgIdentifier(cfg.DBName)+" WITH (FORCE)"); err != nil {
		return false, fmt.Errorf("postgres: drop database %s: %w", cfg.DBName, err)
	}
	log.Info("Database dropped", "db_name", cfg.DBName)
	stillThere, err := DatabaseExists(ctx, cfg)
	if err != nil {
		return false, err
	}
	return !stillThere, nil
}

// EnsureDatabase creates the configured database when missing and applies
// migrations either way, so a fresh environment is load-ready in one call.
func EnsureDatabase(ctx context.Context, cfg *Config) error {
	log := logger.FromContext(ctx)
	if err := CreateDatabase(ctx, cfg); err != nil {
		if !errors.Is(err, ErrDatabaseExists) {
			return err
		}
		log.Info("Database already exists, applying migrations", "db_name", cfg.DBName)
	}
	return ApplyMigrations(ctx, cfg.DSN())
}
