package tweet

import "time"

// Wire objects for the Twitter API v2 search endpoint, as captured by
// twarc. A flat-file archive is one JSON page per line; every page
// carries the requested tweets in data, expansions in includes, partial
// errors, and the __twarc request metadata twarc appends.

// Page is a single line of a twarc JSONL archive.
type Page struct {
	Data     []TweetObject `json:"data"`
	Includes Includes      `json:"includes"`
	Errors   []ErrorObject `json:"errors"`
	Meta     TwarcMeta     `json:"__twarc"`
}

// Includes carries the expansion objects referenced by the page's tweets.
type Includes struct {
	Users  []UserObject  `json:"users"`
	Tweets []TweetObject `json:"tweets"`
	Media  []MediaObject `json:"media"`
	Places []PlaceObject `json:"places"`
	Polls  []PollObject  `json:"polls"`
}

// TwarcMeta is the request provenance twarc attaches to every page.
type TwarcMeta struct {
	URL         string    `json:"url"`
	Version     string    `json:"version"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// TweetObject is a Twitter API v2 tweet.
type TweetObject struct {
	ID                string            `json:"id"`
	Text              string            `json:"text"`
	CreatedAt         *time.Time        `json:"created_at"`
	AuthorID          string            `json:"author_id"`
	ConversationID    string            `json:"conversation_id"`
	PossiblySensitive bool              `json:"possibly_sensitive"`
	ReplySettings     string            `json:"reply_settings"`
	Lang              string            `json:"lang"`
	InReplyToUserID   string            `json:"in_reply_to_user_id"`
	PublicMetrics     TweetMetrics      `json:"public_metrics"`
	ReferencedTweets  []ReferencedTweet `json:"referenced_tweets"`
	Entities          *Entities         `json:"entities"`
	Attachments       *Attachments      `json:"attachments"`
	Geo               *GeoRef           `json:"geo"`
}

// TweetMetrics is the public_metrics block of a tweet.
type TweetMetrics struct {
	RetweetCount    int `json:"retweet_count"`
	ReplyCount      int `json:"reply_count"`
	LikeCount       int `json:"like_count"`
	QuoteCount      int `json:"quote_count"`
	ImpressionCount int `json:"impression_count"`
}

// ReferencedTweet links a tweet to the tweet it retweets, quotes, or
// replies to. The referenced id may point at a deleted tweet.
type ReferencedTweet struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Reference types used by the API.
const (
	RefQuoted    = "quoted"
	RefRetweeted = "retweeted"
	RefRepliedTo = "replied_to"
)

// Entities groups the span-annotated entities of a tweet or description.
type Entities struct {
	Hashtags    []TagEntity        `json:"hashtags"`
	Cashtags    []TagEntity        `json:"cashtags"`
	URLs        []URLEntity        `json:"urls"`
	Mentions    []MentionEntity    `json:"mentions"`
	Annotations []AnnotationEntity `json:"annotations"`
}

// TagEntity is a hashtag or cashtag span.
type TagEntity struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Tag   string `json:"tag"`
}

// URLEntity is a URL span.
type URLEntity struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
	DisplayURL  string `json:"display_url"`
	MediaKey    string `json:"media_key"`
}

// MentionEntity is an @mention span.
type MentionEntity struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Username string `json:"username"`
	ID       string `json:"id"`
}

// AnnotationEntity is a context annotation span.
type AnnotationEntity struct {
	Start          int     `json:"start"`
	End            int     `json:"end"`
	Probability    float64 `json:"probability"`
	Type           string  `json:"type"`
	NormalizedText string  `json:"normalized_text"`
}

// Attachments holds keys of attached media and polls.
type Attachments struct {
	MediaKeys []string `json:"media_keys"`
	PollIDs   []string `json:"poll_ids"`
}

// GeoRef points a tweet at a place expansion.
type GeoRef struct {
	PlaceID string `json:"place_id"`
}

// UserObject is a Twitter API v2 user.
type UserObject struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Username        string      `json:"username"`
	CreatedAt       *time.Time  `json:"created_at"`
	Description     string      `json:"description"`
	Location        string      `json:"location"`
	Verified        bool        `json:"verified"`
	Protected       bool        `json:"protected"`
	URL             string      `json:"url"`
	ProfileImageURL string      `json:"profile_image_url"`
	PublicMetrics   UserMetrics `json:"public_metrics"`
}

// UserMetrics is the public_metrics block of a user.
type UserMetrics struct {
	FollowersCount int `json:"followers_count"`
	FollowingCount int `json:"following_count"`
	TweetCount     int `json:"tweet_count"`
	ListedCount    int `json:"listed_count"`
}

// MediaObject is a Twitter API v2 media expansion.
type MediaObject struct {
	MediaKey        string       `json:"media_key"`
	Type            string       `json:"type"`
	URL             string       `json:"url"`
	DurationMS      int          `json:"duration_ms"`
	Height          int          `json:"height"`
	Width           int          `json:"width"`
	PreviewImageURL string       `json:"preview_image_url"`
	AltText         string       `json:"alt_text"`
	PublicMetrics   MediaMetrics `json:"public_metrics"`
}

// MediaMetrics is the public_metrics block of a media object.
type MediaMetrics struct {
	ViewCount int `json:"view_count"`
}

// PlaceObject is a Twitter API v2 place expansion.
type PlaceObject struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	Name        string `json:"name"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	PlaceType   string `json:"place_type"`
}

// PollObject is a Twitter API v2 poll expansion.
type PollObject struct {
	ID              string       `json:"id"`
	DurationMinutes int          `json:"duration_minutes"`
	EndDatetime     *time.Time   `json:"end_datetime"`
	VotingStatus    string       `json:"voting_status"`
	Options         []PollOption `json:"options"`
}

// PollOption is one choice of a poll.
type PollOption struct {
	Position int    `json:"position"`
	Label    string `json:"label"`
	Votes    int    `json:"votes"`
}

// ErrorObject is a partial error reported for an unavailable resource
// (deleted tweet, suspended user) inside an otherwise successful page.
type ErrorObject struct {
	Value        string `json:"value"`
	Detail       string `json:"detail"`
	Title        string `json:"title"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	Parameter    string `json:"parameter"`
	Type         string `json:"type"`
}
