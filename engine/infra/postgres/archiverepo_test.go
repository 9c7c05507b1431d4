package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twarcsql/twarcsql/engine/tweet"
)

func setupRepoTest(t *testing.T) (pgxmock.PgxPoolIface, *ArchiveRepo) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewArchiveRepo(mock)
}

// anyArgs matches a multi-row insert carrying n bind parameters.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestArchiveRepo_UpsertRows(t *testing.T) {
	t.Run("Should skip the database entirely for an empty batch", func(t *testing.T) {
		mock, repo := setupRepoTest(t)
		counts, err := repo.UpsertRows(context.Background(), &tweet.Rows{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), counts.Total())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("Should insert authors before tweets before mappings in one transaction", func(t *testing.T) {
		mock, repo := setupRepoTest(t)
		rows := &tweet.Rows{
			Authors:  []tweet.AuthorRow{{ID: "10", Username: "alice"}},
			Tweets:   []tweet.Row{{ID: "1", AuthorID: "10", Text: "hi"}},
			Retweets: []tweet.ReferenceRow{{ID: "1", TweetID: "9"}},
			Hashtags: []tweet.TagRow{{TweetID: "1", Tag: "go", Start: 0, End: 3}},
		}
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO author").
			WithArgs(anyArgs(len(authorColumns))...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO tweet").
			WithArgs(anyArgs(len(tweetColumns))...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO retweeted_tweet_mapping").
			WithArgs("1", "9").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO hashtags_tweet_mapping").
			WithArgs("1", "go", 0, 3).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		counts, err := repo.UpsertRows(context.Background(), rows)
		require.NoError(t, err)
		assert.Equal(t, int64(4), counts.Total())
		assert.Equal(t, int64(1), counts["author"])
		assert.Equal(t, int64(1), counts["hashtags_tweet_mapping"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("Should not count rows skipped by conflict resolution", func(t *testing.T) {
		mock, repo := setupRepoTest(t)
		rows := &tweet.Rows{
			Tweets: []tweet.Row{{ID: "1"}, {ID: "1"}},
		}
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO tweet").
			WithArgs(anyArgs(2 * len(tweetColumns))...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		counts, err := repo.UpsertRows(context.Background(), rows)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts["tweet"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("Should roll back the transaction when an insert fails", func(t *testing.T) {
		mock, repo := setupRepoTest(t)
		rows := &tweet.Rows{
			Authors: []tweet.AuthorRow{{ID: "10"}},
		}
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO author").
			WithArgs(anyArgs(len(authorColumns))...).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := repo.UpsertRows(context.Background(), rows)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inserting into author")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("Should surface a commit failure instead of reporting success", func(t *testing.T) {
		mock, repo := setupRepoTest(t)
		rows := &tweet.Rows{
			Tweets: []tweet.Row{{ID: "1"}},
		}
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO tweet").
			WithArgs(anyArgs(len(tweetColumns))...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit().
			WillReturnError(errors.New("server closed the connection unexpectedly"))

		counts, err := repo.UpsertRows(context.Background(), rows)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "commit transaction")
		assert.Nil(t, counts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestArchiveRepo_RecordRun(t *testing.T) {
	t.Run("Should persist a provenance row for a loaded file", func(t *testing.T) {
		mock, repo := setupRepoTest(t)
		retrieved := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
		run := &tweet.RunRow{
			RunID:       "8b5e29d2-5a56-4aa0-a778-0f8c2f1b7c55",
			File:        "archive.jsonl",
			RequestURL:  "https://api.twitter.com/2/tweets/search/all",
			Version:     "2.12.0",
			RetrievedAt: &retrieved,
			StartedAt:   retrieved.Add(time.Hour),
		}
		mock.ExpectExec("INSERT INTO ingest_run").
			WithArgs(run.RunID, run.File, run.RequestURL, run.Version, run.RetrievedAt, run.StartedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.RecordRun(context.Background(), run))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestArchiveRepo_GetTweet(t *testing.T) {
	tweetCols := []string{
		"id", "created_at", "text", "possibly_sensitive", "conversation_id", "author_id",
		"reply_settings", "lang", "in_reply_to_user_id", "tweet_type",
		"retweet_count", "reply_count", "like_count", "quote_count", "impression_count",
	}
	t.Run("Should return the stored tweet", func(t *testing.T) {
		mock, repo := setupRepoTest(t)
		created := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT (.+) FROM tweet WHERE id = \\$1").
			WithArgs("1001").
			WillReturnRows(pgxmock.NewRows(tweetCols).AddRow(
				"1001", &created, "hello", false, "1001", "10",
				"everyone", "en", (*string)(nil), tweet.TypeQuoted,
				3, 1, 7, 0, 42,
			))

		got, err := repo.GetTweet(context.Background(), "1001")
		require.NoError(t, err)
		assert.Equal(t, "hello", got.Text)
		assert.Equal(t, tweet.TypeQuoted, got.TweetType)
		assert.Nil(t, got.InReplyToUserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("Should return ErrTweetNotFound for an unknown id", func(t *testing.T) {
		mock, repo := setupRepoTest(t)
		mock.ExpectQuery("SELECT (.+) FROM tweet WHERE id = \\$1").
			WithArgs("999").
			WillReturnRows(pgxmock.NewRows(tweetCols))

		_, err := repo.GetTweet(context.Background(), "999")
		assert.ErrorIs(t, err, ErrTweetNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestArchiveRepo_ListTweetsByAuthor(t *testing.T) {
	t.Run("Should list an author's tweets newest first with a limit", func(t *testing.T) {
		mock, repo := setupRepoTest(t)
		cols := []string{
			"id", "created_at", "text", "possibly_sensitive", "conversation_id", "author_id",
			"reply_settings", "lang", "in_reply_to_user_id", "tweet_type",
			"retweet_count", "reply_count", "like_count", "quote_count", "impression_count",
		}
		newer := time.Date(2023, 3, 2, 0, 0, 0, 0, time.UTC)
		older := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT (.+) FROM tweet WHERE author_id = \\$1 ORDER BY created_at DESC LIMIT 2").
			WithArgs("10").
			WillReturnRows(pgxmock.NewRows(cols).
				AddRow("2", &newer, "b", false, "2", "10", "everyone", "en", (*string)(nil), 0, 0, 0, 0, 0, 0).
				AddRow("1", &older, "a", false, "1", "10", "everyone", "en", (*string)(nil), 0, 0, 0, 0, 0, 0))

		got, err := repo.ListTweetsByAuthor(context.Background(), "10", 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "2", got[0].ID)
		assert.Equal(t, "1", got[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestArchiveRepo_CountTweets(t *testing.T) {
	t.Run("Should count stored tweets", func(t *testing.T) {
		mock, repo := setupRepoTest(t)
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM tweet").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(12)))

		count, err := repo.CountTweets(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(12), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestArchiveRepo_CountRows(t *testing.T) {
	t.Run("Should reject tables outside the archive schema", func(t *testing.T) {
		_, repo := setupRepoTest(t)
		_, err := repo.CountRows(context.Background(), "pg_catalog.pg_user")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown table")
	})
	t.Run("Should count rows in a mapping table", func(t *testing.T) {
		mock, repo := setupRepoTest(t)
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM hashtags_tweet_mapping").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

		count, err := repo.CountRows(context.Background(), "hashtags_tweet_mapping")
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
