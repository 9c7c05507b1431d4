package ingest

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twarcsql/twarcsql/engine/infra/postgres"
)

func TestMetrics(t *testing.T) {
	t.Run("Should count pages, files and parse errors", func(t *testing.T) {
		m := NewMetrics()
		m.RecordPage()
		m.RecordPage()
		m.RecordFile("loaded")
		m.RecordFile("failed")
		m.RecordParseError()

		assert.Equal(t, 2.0, testutil.ToFloat64(m.pagesTotal))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.filesTotal.WithLabelValues("loaded")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.filesTotal.WithLabelValues("failed")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.parseErrors))
	})
	t.Run("Should count inserted rows per table", func(t *testing.T) {
		m := NewMetrics()
		m.RecordInserted(postgres.Counts{"tweet": 5, "author": 2})
		m.RecordInserted(postgres.Counts{"tweet": 3})

		assert.Equal(t, 8.0, testutil.ToFloat64(m.rowsInserted.WithLabelValues("tweet")))
		assert.Equal(t, 2.0, testutil.ToFloat64(m.rowsInserted.WithLabelValues("author")))
	})
	t.Run("Should observe flush durations and retries", func(t *testing.T) {
		m := NewMetrics()
		m.ObserveFlush(50 * time.Millisecond)
		m.RecordFlushRetry()

		assert.Equal(t, 1.0, testutil.ToFloat64(m.flushRetries))
		count, err := testutil.GatherAndCount(m.Registry(), "twarcsql_flush_duration_seconds")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
	t.Run("Should serve the registry over HTTP", func(t *testing.T) {
		m := NewMetrics()
		assert.NotNil(t, m.Handler())
	})
}
