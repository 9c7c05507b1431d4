package postgres

import "github.com/twarcsql/twarcsql/engine/tweet"

// Column lists and value mappers for the batch inserts. start and end are
// reserved words in Postgres and stay quoted.

var authorColumns = []string{
	"id", "name", "username", "created_at", "description", "location",
	"verified", "protected", "url", "profile_image_url",
	"followers_count", "following_count", "tweet_count", "listed_count",
}

func authorValues(rows []tweet.AuthorRow) [][]any {
	vals := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		vals = append(vals, []any{
			r.ID, r.Name, r.Username, r.CreatedAt, r.Description, r.Location,
			r.Verified, r.Protected, r.URL, r.ProfileImageURL,
			r.FollowersCount, r.FollowingCount, r.TweetCount, r.ListedCount,
		})
	}
	return vals
}

var tweetColumns = []string{
	"id", "created_at", "text", "possibly_sensitive", "conversation_id",
	"author_id", "reply_settings", "lang", "in_reply_to_user_id", "tweet_type",
	"retweet_count", "reply_count", "like_count", "quote_count", "impression_count",
}

func tweetValues(rows []tweet.Row) [][]any {
	vals := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		vals = append(vals, []any{
			r.ID, r.CreatedAt, r.Text, r.PossiblySensitive, r.ConversationID,
			r.AuthorID, r.ReplySettings, r.Lang, r.InReplyToUserID, r.TweetType,
			r.RetweetCount, r.ReplyCount, r.LikeCount, r.QuoteCount, r.ImpressionCount,
		})
	}
	return vals
}

var referenceColumns = []string{"id", "tweet_id"}

func referenceValues(rows []tweet.ReferenceRow) [][]any {
	vals := make([][]any, 0, len(rows))
	for _, r := range rows {
		vals = append(vals, []any{r.ID, r.TweetID})
	}
	return vals
}

var replyColumns = []string{"id", "tweet_id", "in_reply_to_user_id"}

func replyValues(rows []tweet.ReplyRow) [][]any {
	vals := make([][]any, 0, len(rows))
	for _, r := range rows {
		vals = append(vals, []any{r.ID, r.TweetID, r.InReplyToUserID})
	}
	return vals
}

var tagColumns = []string{"tweet_id", "tag", `"start"`, `"end"`}

func tagValues(rows []tweet.TagRow) [][]any {
	vals := make([][]any, 0, len(rows))
	for _, r := range rows {
		vals = append(vals, []any{r.TweetID, r.Tag, r.Start, r.End})
	}
	return vals
}

var urlColumns = []string{"tweet_id", "url", `"start"`, `"end"`, "expanded_url", "display_url", "media_key"}

func urlValues(rows []tweet.URLRow) [][]any {
	vals := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		vals = append(vals, []any{r.TweetID, r.URL, r.Start, r.End, r.ExpandedURL, r.DisplayURL, r.MediaKey})
	}
	return vals
}

var mentionColumns = []string{"tweet_id", "username", `"start"`, `"end"`, "author_id"}

func mentionValues(rows []tweet.MentionRow) [][]any {
	vals := make([][]any, 0, len(rows))
	for _, r := range rows {
		vals = append(vals, []any{r.TweetID, r.Username, r.Start, r.End, r.AuthorID})
	}
	return vals
}

var annotationColumns = []string{"tweet_id", `"start"`, `"end"`, "probability", "type", "normalized_text"}

func annotationValues(rows []tweet.AnnotationRow) [][]any {
	vals := make([][]any, 0, len(rows))
	for _, r := range rows {
		vals = append(vals, []any{r.TweetID, r.Start, r.End, r.Probability, r.Type, r.NormalizedText})
	}
	return vals
}

var mediaColumns = []string{
	"media_key", "type", "url", "duration_ms", "height", "width",
	"preview_image_url", "alt_text", "view_count",
}

func mediaValues(rows []tweet.MediaRow) [][]any {
	vals := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		vals = append(vals, []any{
			r.MediaKey, r.Type, r.URL, r.DurationMS, r.Height, r.Width,
			r.PreviewImageURL, r.AltText, r.ViewCount,
		})
	}
	return vals
}

var placeColumns = []string{"id", "full_name", "name", "country", "country_code", "place_type"}

func placeValues(rows []tweet.PlaceRow) [][]any {
	vals := make([][]any, 0, len(rows))
	for _, r := range rows {
		vals = append(vals, []any{r.ID, r.FullName, r.Name, r.Country, r.CountryCode, r.PlaceType})
	}
	return vals
}

var pollColumns = []string{"id", "duration_minutes", "end_datetime", "voting_status", "options"}

func pollValues(rows []tweet.PollRow) [][]any {
	vals := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		vals = append(vals, []any{r.ID, r.DurationMinutes, r.EndDatetime, r.VotingStatus, r.Options})
	}
	return vals
}

var errorColumns = []string{"value", "detail", "title", "resource_type", "resource_id", "parameter", "type"}

func errorValues(rows []tweet.ErrorRow) [][]any {
	vals := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		vals = append(vals, []any{r.Value, r.Detail, r.Title, r.ResourceType, r.ResourceID, r.Parameter, r.Type})
	}
	return vals
}
