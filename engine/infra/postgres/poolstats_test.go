package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolStatsCollector(t *testing.T) {
	// A pool does not dial until a connection is acquired, so stats can be
	// collected without a reachable server.
	pool, err := pgxpool.New(context.Background(), "postgresql://u:p@localhost:5432/unused")
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	t.Run("Should expose every pool statistic", func(t *testing.T) {
		collector := NewPoolStatsCollector(pool)
		assert.Equal(t, 7, testutil.CollectAndCount(collector))
	})
	t.Run("Should register on a fresh registry", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		require.NoError(t, registry.Register(NewPoolStatsCollector(pool)))
		families, err := registry.Gather()
		require.NoError(t, err)
		assert.Len(t, families, 7)
	})
}
