package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	t.Run("Should load defaults when no sources are configured", func(t *testing.T) {
		cfg, err := NewLoader().Load()
		require.NoError(t, err)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, "5432", cfg.Database.Port)
		assert.Equal(t, "twarcsql", cfg.Database.DBName)
		assert.Equal(t, "postgres", cfg.Database.AdminDBName)
		assert.Equal(t, 1000, cfg.Ingest.BatchSize)
		assert.Equal(t, "search", cfg.Ingest.Endpoint)
	})

	t.Run("Should apply YAML file over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "twarcsql.yaml")
		content := "database:\n  name: archive\n  host: db.internal\ningest:\n  batch_size: 250\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		loader := NewLoader()
		loader.ConfigFile = path
		cfg, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, "archive", cfg.Database.DBName)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 250, cfg.Ingest.BatchSize)
		// untouched keys keep defaults
		assert.Equal(t, "5432", cfg.Database.Port)
	})

	t.Run("Should apply environment over YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "twarcsql.yaml")
		require.NoError(t, os.WriteFile(path, []byte("database:\n  name: from_yaml\n"), 0o600))
		t.Setenv("DB_NAME", "from_env")
		t.Setenv("DB_PASSWORD", "hunter2")

		loader := NewLoader()
		loader.ConfigFile = path
		cfg, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, "from_env", cfg.Database.DBName)
		assert.Equal(t, "hunter2", cfg.Database.Password.Value())
	})

	t.Run("Should load dotenv file into environment resolution", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "DB_USER=twarc\nDB_PORT=5433\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		loader := NewLoader()
		loader.EnvFile = path
		cfg, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, "twarc", cfg.Database.User)
		assert.Equal(t, "5433", cfg.Database.Port)
	})

	t.Run("Should fail when env file does not exist", func(t *testing.T) {
		loader := NewLoader()
		loader.EnvFile = filepath.Join(t.TempDir(), "missing.env")
		_, err := loader.Load()
		assert.Error(t, err)
	})

	t.Run("Should fail validation for unknown log level", func(t *testing.T) {
		t.Setenv("RUNTIME_LOG_LEVEL", "verbose")
		_, err := NewLoader().Load()
		assert.Error(t, err)
	})

	t.Run("Should fail validation for non-positive worker count", func(t *testing.T) {
		t.Setenv("INGEST_WORKERS", "0")
		_, err := NewLoader().Load()
		assert.Error(t, err)
	})
}

func TestSensitiveString(t *testing.T) {
	t.Run("Should redact non-empty values in String", func(t *testing.T) {
		s := SensitiveString("secret-password-123")
		assert.Equal(t, "[REDACTED]", s.String())
	})

	t.Run("Should return empty string for empty values", func(t *testing.T) {
		s := SensitiveString("")
		assert.Equal(t, "", s.String())
	})

	t.Run("Should return actual value from Value", func(t *testing.T) {
		s := SensitiveString("my-secret")
		assert.Equal(t, "my-secret", s.Value())
	})
}

func TestFromContext(t *testing.T) {
	t.Run("Should return attached config", func(t *testing.T) {
		cfg := Default()
		cfg.Database.DBName = "attached"
		ctx := ContextWithConfig(t.Context(), cfg)
		assert.Equal(t, "attached", FromContext(ctx).Database.DBName)
	})

	t.Run("Should fall back to defaults", func(t *testing.T) {
		assert.Equal(t, "twarcsql", FromContext(t.Context()).Database.DBName)
	})
}
