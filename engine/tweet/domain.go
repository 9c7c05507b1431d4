package tweet

import "time"

// Normalized rows for the archive schema. The layout is an opinionated
// normalization of the API v2 tweet object: one row per tweet and author,
// reference mapping tables for retweets/quotes/replies, and one mapping
// table per entity kind keyed by (tweet_id, start).

// Tweet type flags. A tweet starts as original and accumulates one flag
// per referenced tweet, so a quote that is also a reply carries 4.
const (
	TypeOriginal  = 0
	TypeQuoted    = 1
	TypeRetweeted = 2
	TypeRepliedTo = 3
)

// Row is a tweet table row.
type Row struct {
	ID                string     `db:"id"`
	CreatedAt         *time.Time `db:"created_at"`
	Text              string     `db:"text"`
	PossiblySensitive bool       `db:"possibly_sensitive"`
	ConversationID    string     `db:"conversation_id"`
	AuthorID          string     `db:"author_id"`
	ReplySettings     string     `db:"reply_settings"`
	Lang              string     `db:"lang"`
	InReplyToUserID   *string    `db:"in_reply_to_user_id"`
	TweetType         int        `db:"tweet_type"`
	RetweetCount      int        `db:"retweet_count"`
	ReplyCount        int        `db:"reply_count"`
	LikeCount         int        `db:"like_count"`
	QuoteCount        int        `db:"quote_count"`
	ImpressionCount   int        `db:"impression_count"`
}

// AuthorRow is an author table row.
type AuthorRow struct {
	ID              string     `db:"id"`
	Name            string     `db:"name"`
	Username        string     `db:"username"`
	CreatedAt       *time.Time `db:"created_at"`
	Description     string     `db:"description"`
	Location        string     `db:"location"`
	Verified        bool       `db:"verified"`
	Protected       bool       `db:"protected"`
	URL             string     `db:"url"`
	ProfileImageURL string     `db:"profile_image_url"`
	FollowersCount  int        `db:"followers_count"`
	FollowingCount  int        `db:"following_count"`
	TweetCount      int        `db:"tweet_count"`
	ListedCount     int        `db:"listed_count"`
}

// ReferenceRow maps a tweet to the tweet it retweets or quotes. ID is the
// referencing tweet; TweetID may point at a deleted tweet and carries no
// foreign key.
type ReferenceRow struct {
	ID      string `db:"id"`
	TweetID string `db:"tweet_id"`
}

// ReplyRow maps a reply to the tweet and user it replies to.
type ReplyRow struct {
	ID              string `db:"id"`
	TweetID         string `db:"tweet_id"`
	InReplyToUserID string `db:"in_reply_to_user_id"`
}

// TagRow is a hashtag or cashtag occurrence inside a tweet.
type TagRow struct {
	TweetID string `db:"tweet_id"`
	Tag     string `db:"tag"`
	Start   int    `db:"start"`
	End     int    `db:"end"`
}

// URLRow is a URL occurrence inside a tweet.
type URLRow struct {
	TweetID     string  `db:"tweet_id"`
	URL         string  `db:"url"`
	Start       int     `db:"start"`
	End         int     `db:"end"`
	ExpandedURL string  `db:"expanded_url"`
	DisplayURL  string  `db:"display_url"`
	MediaKey    *string `db:"media_key"`
}

// MentionRow is an @mention occurrence inside a tweet.
type MentionRow struct {
	TweetID  string `db:"tweet_id"`
	Username string `db:"username"`
	Start    int    `db:"start"`
	End      int    `db:"end"`
	AuthorID string `db:"author_id"`
}

// AnnotationRow is a context annotation occurrence inside a tweet.
type AnnotationRow struct {
	TweetID        string  `db:"tweet_id"`
	Start          int     `db:"start"`
	End            int     `db:"end"`
	Probability    float64 `db:"probability"`
	Type           string  `db:"type"`
	NormalizedText string  `db:"normalized_text"`
}

// MediaRow is a media table row.
type MediaRow struct {
	MediaKey        string `db:"media_key"`
	Type            string `db:"type"`
	URL             string `db:"url"`
	DurationMS      int    `db:"duration_ms"`
	Height          int    `db:"height"`
	Width           int    `db:"width"`
	PreviewImageURL string `db:"preview_image_url"`
	AltText         string `db:"alt_text"`
	ViewCount       int    `db:"view_count"`
}

// PlaceRow is a place table row.
type PlaceRow struct {
	ID          string `db:"id"`
	FullName    string `db:"full_name"`
	Name        string `db:"name"`
	Country     string `db:"country"`
	CountryCode string `db:"country_code"`
	PlaceType   string `db:"place_type"`
}

// PollRow is a poll table row. Options are persisted as JSONB.
type PollRow struct {
	ID              string     `db:"id"`
	DurationMinutes int        `db:"duration_minutes"`
	EndDatetime     *time.Time `db:"end_datetime"`
	VotingStatus    string     `db:"voting_status"`
	Options         []byte     `db:"options"`
}

// ErrorRow is an ingest_error table row recording a partial API error.
type ErrorRow struct {
	Value        string `db:"value"`
	Detail       string `db:"detail"`
	Title        string `db:"title"`
	ResourceType string `db:"resource_type"`
	ResourceID   string `db:"resource_id"`
	Parameter    string `db:"parameter"`
	Type         string `db:"type"`
}

// RunRow is an ingest_run provenance row: one per loaded file, carrying
// the twarc request metadata of the file's first page.
type RunRow struct {
	RunID       string     `db:"run_id"`
	File        string     `db:"file"`
	RequestURL  string     `db:"request_url"`
	Version     string     `db:"twarc_version"`
	RetrievedAt *time.Time `db:"retrieved_at"`
	StartedAt   time.Time  `db:"started_at"`
}

// Rows accumulates normalized rows across pages until they are flushed.
type Rows struct {
	Authors     []AuthorRow
	Tweets      []Row
	Retweets    []ReferenceRow
	Quotes      []ReferenceRow
	Replies     []ReplyRow
	Hashtags    []TagRow
	Cashtags    []TagRow
	URLs        []URLRow
	Mentions    []MentionRow
	Annotations []AnnotationRow
	Media       []MediaRow
	Places      []PlaceRow
	Polls       []PollRow
	Errors      []ErrorRow
}

// Len reports the total number of accumulated rows.
func (r *Rows) Len() int {
	return len(r.Authors) + len(r.Tweets) +
		len(r.Retweets) + len(r.Quotes) + len(r.Replies) +
		len(r.Hashtags) + len(r.Cashtags) + len(r.URLs) +
		len(r.Mentions) + len(r.Annotations) +
		len(r.Media) + len(r.Places) + len(r.Polls) + len(r.Errors)
}

// Append merges other into r.
func (r *Rows) Append(other *Rows) {
	if other == nil {
		return
	}
	r.Authors = append(r.Authors, other.Authors...)
	r.Tweets = append(r.Tweets, other.Tweets...)
	r.Retweets = append(r.Retweets, other.Retweets...)
	r.Quotes = append(r.Quotes, other.Quotes...)
	r.Replies = append(r.Replies, other.Replies...)
	r.Hashtags = append(r.Hashtags, other.Hashtags...)
	r.Cashtags = append(r.Cashtags, other.Cashtags...)
	r.URLs = append(r.URLs, other.URLs...)
	r.Mentions = append(r.Mentions, other.Mentions...)
	r.Annotations = append(r.Annotations, other.Annotations...)
	r.Media = append(r.Media, other.Media...)
	r.Places = append(r.Places, other.Places...)
	r.Polls = append(r.Polls, other.Polls...)
	r.Errors = append(r.Errors, other.Errors...)
}

// Reset empties r while keeping allocated capacity.
func (r *Rows) Reset() {
	r.Authors = r.Authors[:0]
	r.Tweets = r.Tweets[:0]
	r.Retweets = r.Retweets[:0]
	r.Quotes = r.Quotes[:0]
	r.Replies = r.Replies[:0]
	r.Hashtags = r.Hashtags[:0]
	r.Cashtags = r.Cashtags[:0]
	r.URLs = r.URLs[:0]
	r.Mentions = r.Mentions[:0]
	r.Annotations = r.Annotations[:0]
	r.Media = r.Media[:0]
	r.Places = r.Places[:0]
	r.Polls = r.Polls[:0]
	r.Errors = r.Errors[:0]
}
