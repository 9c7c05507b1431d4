package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twarcsql/twarcsql/engine/infra/postgres"
	"github.com/twarcsql/twarcsql/engine/tweet"
)

type fakeRepo struct {
	mu       sync.Mutex
	failures int

	flushes int
	tweets  int
	authors int
	runs    []*tweet.RunRow
}

func (f *fakeRepo) UpsertRows(_ context.Context, rows *tweet.Rows) (postgres.Counts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("connection reset")
	}
	f.tweets += len(rows.Tweets)
	f.authors += len(rows.Authors)
	return postgres.Counts{
		"tweet":  int64(len(rows.Tweets)),
		"author": int64(len(rows.Authors)),
	}, nil
}

func (f *fakeRepo) RecordRun(_ context.Context, run *tweet.RunRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return nil
}

func pageLine(tweetID, authorID string) string {
	return `{"data":[{"id":"` + tweetID + `","text":"hello","author_id":"` + authorID + `"}],` +
		`"includes":{"users":[{"id":"` + authorID + `","username":"someone"}]},` +
		`"__twarc":{"url":"https://api.twitter.com/2/tweets/search/all","version":"2.12.0",` +
		`"retrieved_at":"2023-03-01T12:00:00+00:00"}}`
}

func writeArchive(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestPipeline_Run(t *testing.T) {
	t.Run("Should load a file and record a run with twarc provenance", func(t *testing.T) {
		dir := t.TempDir()
		path := writeArchive(t, dir, "search.jsonl", pageLine("1", "10"), pageLine("2", "10"))
		repo := &fakeRepo{}
		pipeline := NewPipeline(repo, nil, Options{})

		summary, err := pipeline.Run(context.Background(), []string{path})
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Files)
		assert.Equal(t, int64(2), summary.Pages)
		assert.Equal(t, int64(2), summary.Inserted["tweet"])

		require.Len(t, repo.runs, 1)
		run := repo.runs[0]
		assert.NoError(t, uuid.Validate(run.RunID))
		assert.Equal(t, path, run.File)
		assert.Equal(t, "https://api.twitter.com/2/tweets/search/all", run.RequestURL)
		assert.Equal(t, "2.12.0", run.Version)
		require.NotNil(t, run.RetrievedAt)
		assert.Equal(t, 2023, run.RetrievedAt.Year())
	})

	t.Run("Should flush whenever the batch reaches the configured size", func(t *testing.T) {
		dir := t.TempDir()
		// Each page yields one tweet and one author row.
		path := writeArchive(t, dir, "search.jsonl",
			pageLine("1", "10"), pageLine("2", "11"), pageLine("3", "12"))
		repo := &fakeRepo{}
		pipeline := NewPipeline(repo, nil, Options{BatchSize: 2})

		_, err := pipeline.Run(context.Background(), []string{path})
		require.NoError(t, err)
		assert.Equal(t, 3, repo.flushes)
		assert.Equal(t, 3, repo.tweets)
		assert.Equal(t, 3, repo.authors)
	})

	t.Run("Should load every archive in a directory", func(t *testing.T) {
		dir := t.TempDir()
		writeArchive(t, dir, "b.jsonl", pageLine("2", "10"))
		writeArchive(t, dir, "a.jsonl", pageLine("1", "10"))
		repo := &fakeRepo{}
		pipeline := NewPipeline(repo, nil, Options{Workers: 2})

		summary, err := pipeline.Run(context.Background(), []string{dir})
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Files)
		assert.Equal(t, int64(2), summary.Pages)
		assert.Len(t, repo.runs, 2)
	})

	t.Run("Should retry a failed flush and keep going", func(t *testing.T) {
		dir := t.TempDir()
		path := writeArchive(t, dir, "search.jsonl", pageLine("1", "10"))
		repo := &fakeRepo{failures: 1}
		pipeline := NewPipeline(repo, nil, Options{FlushRetries: 2})

		summary, err := pipeline.Run(context.Background(), []string{path})
		require.NoError(t, err)
		assert.Equal(t, 2, repo.flushes)
		assert.Equal(t, int64(1), summary.Inserted["tweet"])
	})

	t.Run("Should fail the run when flush retries are exhausted", func(t *testing.T) {
		dir := t.TempDir()
		path := writeArchive(t, dir, "search.jsonl", pageLine("1", "10"))
		repo := &fakeRepo{failures: 5}
		pipeline := NewPipeline(repo, nil, Options{FlushRetries: 1})

		_, err := pipeline.Run(context.Background(), []string{path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "flushing batch")
		assert.Empty(t, repo.runs)
	})

	t.Run("Should reject a malformed archive with its line number", func(t *testing.T) {
		dir := t.TempDir()
		path := writeArchive(t, dir, "search.jsonl", pageLine("1", "10"), "{not json")
		repo := &fakeRepo{}
		pipeline := NewPipeline(repo, nil, Options{})

		_, err := pipeline.Run(context.Background(), []string{path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})
}

func TestExpandPaths(t *testing.T) {
	t.Run("Should list JSONL archives in a directory sorted by name", func(t *testing.T) {
		dir := t.TempDir()
		writeArchive(t, dir, "b.jsonl", pageLine("1", "10"))
		writeArchive(t, dir, "a.json", pageLine("2", "10"))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

		files, err := ExpandPaths([]string{dir})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a.json"),
			filepath.Join(dir, "b.jsonl"),
		}, files)
	})

	t.Run("Should error when no archives are found", func(t *testing.T) {
		dir := t.TempDir()
		_, err := ExpandPaths([]string{dir})
		assert.ErrorIs(t, err, ErrNoArchives)
	})

	t.Run("Should error on a missing path", func(t *testing.T) {
		_, err := ExpandPaths([]string{filepath.Join(t.TempDir(), "missing.jsonl")})
		require.Error(t, err)
	})
}
