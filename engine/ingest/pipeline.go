// Package ingest drives archive files through normalization into storage.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/twarcsql/twarcsql/engine/archive"
	"github.com/twarcsql/twarcsql/engine/infra/postgres"
	"github.com/twarcsql/twarcsql/engine/tweet"
	"github.com/twarcsql/twarcsql/pkg/logger"
)

// ErrNoArchives reports that the given paths yielded no archive files.
var ErrNoArchives = errors.New("ingest: no archive files found")

const flushBackoffBase = 500 * time.Millisecond

// Repository is the storage surface the pipeline writes through.
type Repository interface {
	UpsertRows(ctx context.Context, rows *tweet.Rows) (postgres.Counts, error)
	RecordRun(ctx context.Context, run *tweet.RunRow) error
}

// Options tunes a pipeline run.
type Options struct {
	// Workers bounds the number of files loaded concurrently.
	Workers int
	// BatchSize is the row count that triggers a flush.
	BatchSize int
	// FlushRetries is the number of retry attempts after a failed flush.
	FlushRetries int
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 1000
	}
	if o.FlushRetries < 0 {
		o.FlushRetries = 0
	}
	return o
}

// Summary aggregates what a run loaded across all files.
type Summary struct {
	Files    int
	Pages    int64
	Inserted postgres.Counts
}

// Pipeline loads twarc archives into storage: one worker per file, pages
// normalized and accumulated into batches, batches flushed transactionally.
type Pipeline struct {
	repo    Repository
	metrics *Metrics
	opts    Options
}

func NewPipeline(repo Repository, metrics *Metrics, opts Options) *Pipeline {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Pipeline{repo: repo, metrics: metrics, opts: opts.withDefaults()}
}

// Run loads every archive under the given paths. Directories contribute
// their JSONL files, non-recursively and in name order. The first failing
// file cancels the run.
func (p *Pipeline) Run(ctx context.Context, paths []string) (*Summary, error) {
	files, err := ExpandPaths(paths)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	log.Info("Loading archives", "files", len(files), "workers", p.opts.Workers)

	summary := &Summary{Inserted: postgres.Counts{}}
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for _, file := range files {
		g.Go(func() error {
			pages, counts, err := p.loadFile(ctx, file)
			if err != nil {
				p.metrics.RecordFile("failed")
				return fmt.Errorf("loading %s: %w", file, err)
			}
			p.metrics.RecordFile("loaded")
			mu.Lock()
			summary.Files++
			summary.Pages += pages
			mergeCounts(summary.Inserted, counts)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info("Archives loaded",
		"files", summary.Files,
		"pages", summary.Pages,
		"rows", summary.Inserted.Total())
	return summary, nil
}

func (p *Pipeline) loadFile(ctx context.Context, path string) (int64, postgres.Counts, error) {
	log := logger.FromContext(ctx)
	log.Debug("Loading archive file", "file", path)

	reader, err := archive.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer reader.Close()

	run := &tweet.RunRow{
		RunID:     uuid.NewString(),
		File:      path,
		StartedAt: time.Now().UTC(),
	}
	counts := postgres.Counts{}
	batch := &tweet.Rows{}
	var pages int64
	for {
		if err := ctx.Err(); err != nil {
			return pages, nil, err
		}
		page, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			p.metrics.RecordParseError()
			return pages, nil, err
		}
		pages++
		p.metrics.RecordPage()
		if pages == 1 {
			run.RequestURL = page.Meta.URL
			run.Version = page.Meta.Version
			if !page.Meta.RetrievedAt.IsZero() {
				retrieved := page.Meta.RetrievedAt
				run.RetrievedAt = &retrieved
			}
		}
		rows, err := tweet.NormalizePage(page)
		if err != nil {
			p.metrics.RecordParseError()
			return pages, nil, fmt.Errorf("line %d: %w", reader.Line(), err)
		}
		batch.Append(rows)
		if batch.Len() >= p.opts.BatchSize {
			if err := p.flush(ctx, batch, counts); err != nil {
				return pages, nil, err
			}
		}
	}
	if batch.Len() > 0 {
		if err := p.flush(ctx, batch, counts); err != nil {
			return pages, nil, err
		}
	}
	if err := p.repo.RecordRun(ctx, run); err != nil {
		return pages, nil, err
	}
	log.Debug("Archive file loaded", "file", path, "pages", pages, "rows", counts.Total())
	return pages, counts, nil
}

// flush writes the batch with exponential backoff and resets it on success.
func (p *Pipeline) flush(ctx context.Context, batch *tweet.Rows, counts postgres.Counts) error {
	start := time.Now()
	attempt := 0
	backoff := retry.WithMaxRetries(uint64(p.opts.FlushRetries), retry.NewExponential(flushBackoffBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if attempt > 0 {
			p.metrics.RecordFlushRetry()
		}
		attempt++
		inserted, err := p.repo.UpsertRows(ctx, batch)
		if err != nil {
			return retry.RetryableError(err)
		}
		p.metrics.RecordInserted(inserted)
		mergeCounts(counts, inserted)
		return nil
	})
	p.metrics.ObserveFlush(time.Since(start))
	if err != nil {
		return fmt.Errorf("flushing batch: %w", err)
	}
	batch.Reset()
	return nil
}

// ExpandPaths resolves files and directories into the list of archive
// files to load. Directories are scanned non-recursively for .jsonl and
// .json entries.
func ExpandPaths(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("ingest: stat %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("ingest: read dir %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(entry.Name())) {
			case ".jsonl", ".json":
				files = append(files, filepath.Join(path, entry.Name()))
			}
		}
	}
	if len(files) == 0 {
		return nil, ErrNoArchives
	}
	sort.Strings(files)
	return files, nil
}

func mergeCounts(dst, src postgres.Counts) {
	for table, n := range src {
		dst[table] += n
	}
}
