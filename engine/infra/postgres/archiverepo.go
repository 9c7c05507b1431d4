package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/twarcsql/twarcsql/engine/tweet"
	"github.com/twarcsql/twarcsql/pkg/logger"
)

// ErrTweetNotFound reports a lookup for a tweet id that is not stored.
var ErrTweetNotFound = errors.New("postgres: tweet not found")

// Postgres caps bind parameters per statement at 65535; chunk multi-row
// inserts below that with headroom.
const maxParamsPerInsert = 60000

// DB is the minimal database interface ArchiveRepo depends on (pgxpool or pgxmock).
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// execer is the subset shared by DB and pgx.Tx that inserts need.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Counts tracks rows actually inserted per table during a flush.
// Duplicates skipped by ON CONFLICT DO NOTHING are not counted.
type Counts map[string]int64

// Total sums the per-table counts.
func (c Counts) Total() int64 {
	var total int64
	for _, n := range c {
		total += n
	}
	return total
}

// ArchiveRepo persists normalized archive rows. All writes are
// INSERT ... ON CONFLICT DO NOTHING so reloading a file, or loading
// overlapping collections, never duplicates rows.
type ArchiveRepo struct {
	db DB
}

func NewArchiveRepo(db DB) *ArchiveRepo {
	return &ArchiveRepo{db: db}
}

// UpsertRows writes a batch inside a single transaction, ordered so
// foreign keys resolve: authors before tweets, tweets before mappings.
func (r *ArchiveRepo) UpsertRows(ctx context.Context, rows *tweet.Rows) (Counts, error) {
	if rows == nil || rows.Len() == 0 {
		return Counts{}, nil
	}
	counts := Counts{}
	err := r.withTransaction(ctx, func(tx pgx.Tx) error {
		return insertAllTables(ctx, tx, rows, counts)
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// RecordRun stores the provenance row for a loaded file.
func (r *ArchiveRepo) RecordRun(ctx context.Context, run *tweet.RunRow) error {
	query := `
        INSERT INTO ingest_run (run_id, file, request_url, twarc_version, retrieved_at, started_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (run_id) DO NOTHING
    `
	_, err := r.db.Exec(ctx, query,
		run.RunID, run.File, run.RequestURL, run.Version, run.RetrievedAt, run.StartedAt)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// GetTweet retrieves a stored tweet by id.
func (r *ArchiveRepo) GetTweet(ctx context.Context, id string) (*tweet.Row, error) {
	query := `
        SELECT id, created_at, text, possibly_sensitive, conversation_id, author_id,
               reply_settings, lang, in_reply_to_user_id, tweet_type,
               retweet_count, reply_count, like_count, quote_count, impression_count
        FROM tweet WHERE id = $1
    `
	var row tweet.Row
	if err := pgxscan.Get(ctx, r.db, &row, query, id); err != nil {
		if pgxscan.NotFound(err) || errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTweetNotFound
		}
		return nil, fmt.Errorf("scanning tweet: %w", err)
	}
	return &row, nil
}

// ListTweetsByAuthor retrieves stored tweets for an author, newest first.
func (r *ArchiveRepo) ListTweetsByAuthor(ctx context.Context, authorID string, limit int) ([]*tweet.Row, error) {
	sb := squirrel.Select(
		"id", "created_at", "text", "possibly_sensitive", "conversation_id", "author_id",
		"reply_settings", "lang", "in_reply_to_user_id", "tweet_type",
		"retweet_count", "reply_count", "like_count", "quote_count", "impression_count",
	).
		From("tweet").
		Where(squirrel.Eq{"author_id": authorID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar)
	if limit > 0 {
		sb = sb.Limit(uint64(limit))
	}
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	var rows []*tweet.Row
	if err := pgxscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("scanning tweets: %w", err)
	}
	return rows, nil
}

// CountTweets reports the number of stored tweets.
func (r *ArchiveRepo) CountTweets(ctx context.Context) (int64, error) {
	return r.CountRows(ctx, "tweet")
}

// archiveTables lists every table the loader writes, in FK priority order.
var archiveTables = []string{
	"author",
	"tweet",
	"retweeted_tweet_mapping",
	"quoted_tweet_mapping",
	"replied_to_tweet_mapping",
	"hashtags_tweet_mapping",
	"cashtags_tweet_mapping",
	"urls_tweet_mapping",
	"mentions_tweet_mapping",
	"annotations_tweet_mapping",
	"media",
	"place",
	"poll",
	"ingest_error",
	"ingest_run",
}

// CountRows reports the number of rows in one archive table.
func (r *ArchiveRepo) CountRows(ctx context.Context, table string) (int64, error) {
	if !slices.Contains(archiveTables, table) {
		return 0, fmt.Errorf("postgres: unknown table %q", table)
	}
	var count int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return count, nil
}

// TableCounts reports row counts for every archive table.
func (r *ArchiveRepo) TableCounts(ctx context.Context) (Counts, error) {
	counts := Counts{}
	for _, table := range archiveTables {
		count, err := r.CountRows(ctx, table)
		if err != nil {
			return nil, err
		}
		counts[table] = count
	}
	return counts, nil
}

// withTransaction runs fn inside a transaction with rollback on error or panic.
func (r *ArchiveRepo) withTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, txErr := r.db.Begin(ctx)
	if txErr != nil {
		return fmt.Errorf("beginning transaction: %w", txErr)
	}
	log := logger.FromContext(ctx)
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error("Failed to rollback transaction", "error", rbErr)
			}
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error("Failed to rollback transaction", "error", rbErr)
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("commit transaction: %w", commitErr)
		}
	}()
	return fn(tx)
}

// insertAllTables writes every table of a batch in FK priority order.
func insertAllTables(ctx context.Context, tx pgx.Tx, rows *tweet.Rows, counts Counts) error {
	inserts := []struct {
		table string
		cols  []string
		vals  [][]any
	}{
		{"author", authorColumns, authorValues(rows.Authors)},
		{"tweet", tweetColumns, tweetValues(rows.Tweets)},
		{"retweeted_tweet_mapping", referenceColumns, referenceValues(rows.Retweets)},
		{"quoted_tweet_mapping", referenceColumns, referenceValues(rows.Quotes)},
		{"replied_to_tweet_mapping", replyColumns, replyValues(rows.Replies)},
		{"hashtags_tweet_mapping", tagColumns, tagValues(rows.Hashtags)},
		{"cashtags_tweet_mapping", tagColumns, tagValues(rows.Cashtags)},
		{"urls_tweet_mapping", urlColumns, urlValues(rows.URLs)},
		{"mentions_tweet_mapping", mentionColumns, mentionValues(rows.Mentions)},
		{"annotations_tweet_mapping", annotationColumns, annotationValues(rows.Annotations)},
		{"media", mediaColumns, mediaValues(rows.Media)},
		{"place", placeColumns, placeValues(rows.Places)},
		{"poll", pollColumns, pollValues(rows.Polls)},
		{"ingest_error", errorColumns, errorValues(rows.Errors)},
	}
	for _, ins := range inserts {
		inserted, err := insertBatch(ctx, tx, ins.table, ins.cols, ins.vals)
		if err != nil {
			return err
		}
		if inserted > 0 {
			counts[ins.table] += inserted
		}
	}
	return nil
}

// insertBatch issues chunked multi-row ON CONFLICT DO NOTHING inserts.
func insertBatch(ctx context.Context, db execer, table string, cols []string, vals [][]any) (int64, error) {
	if len(vals) == 0 {
		return 0, nil
	}
	chunkSize := maxParamsPerInsert / len(cols)
	var inserted int64
	for start := 0; start < len(vals); start += chunkSize {
		end := min(start+chunkSize, len(vals))
		sb := squirrel.Insert(table).
			Columns(cols...).
			Suffix("ON CONFLICT DO NOTHING").
			PlaceholderFormat(squirrel.Dollar)
		for _, row := range vals[start:end] {
			sb = sb.Values(row...)
		}
		query, args, err := sb.ToSql()
		if err != nil {
			return inserted, fmt.Errorf("building insert for %s: %w", table, err)
		}
		tag, err := db.Exec(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("inserting into %s: %w", table, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}
