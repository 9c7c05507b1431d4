package tweet

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NormalizePage fans a decoded page out into normalized rows. Tweets come
// from both data and includes.tweets (referenced tweets are ingested like
// requested ones); users fill the author table; media, places, polls and
// partial errors are carried through to their own tables.
func NormalizePage(page *Page) (*Rows, error) {
	if page == nil {
		return nil, fmt.Errorf("normalize: nil page")
	}
	rows := &Rows{}
	for i := range page.Data {
		if err := normalizeTweet(&page.Data[i], rows); err != nil {
			return nil, err
		}
	}
	for i := range page.Includes.Tweets {
		if err := normalizeTweet(&page.Includes.Tweets[i], rows); err != nil {
			return nil, err
		}
	}
	for i := range page.Includes.Users {
		rows.Authors = append(rows.Authors, normalizeUser(&page.Includes.Users[i]))
	}
	for i := range page.Includes.Media {
		m := &page.Includes.Media[i]
		rows.Media = append(rows.Media, MediaRow{
			MediaKey:        m.MediaKey,
			Type:            m.Type,
			URL:             m.URL,
			DurationMS:      m.DurationMS,
			Height:          m.Height,
			Width:           m.Width,
			PreviewImageURL: m.PreviewImageURL,
			AltText:         m.AltText,
			ViewCount:       m.PublicMetrics.ViewCount,
		})
	}
	for i := range page.Includes.Places {
		p := &page.Includes.Places[i]
		rows.Places = append(rows.Places, PlaceRow{
			ID:          p.ID,
			FullName:    p.FullName,
			Name:        p.Name,
			Country:     p.Country,
			CountryCode: p.CountryCode,
			PlaceType:   p.PlaceType,
		})
	}
	for i := range page.Includes.Polls {
		row, err := normalizePoll(&page.Includes.Polls[i])
		if err != nil {
			return nil, err
		}
		rows.Polls = append(rows.Polls, row)
	}
	for i := range page.Errors {
		e := &page.Errors[i]
		rows.Errors = append(rows.Errors, ErrorRow{
			Value:        e.Value,
			Detail:       e.Detail,
			Title:        e.Title,
			ResourceType: e.ResourceType,
			ResourceID:   e.ResourceID,
			Parameter:    e.Parameter,
			Type:         e.Type,
		})
	}
	return rows, nil
}

func normalizeTweet(obj *TweetObject, rows *Rows) error {
	if obj.ID == "" {
		return fmt.Errorf("normalize: tweet without id")
	}
	var inReplyTo *string
	if obj.InReplyToUserID != "" {
		v := obj.InReplyToUserID
		inReplyTo = &v
	}
	row := Row{
		ID:                obj.ID,
		CreatedAt:         obj.CreatedAt,
		Text:              sanitizeText(obj.Text),
		PossiblySensitive: obj.PossiblySensitive,
		ConversationID:    obj.ConversationID,
		AuthorID:          obj.AuthorID,
		ReplySettings:     obj.ReplySettings,
		Lang:              obj.Lang,
		InReplyToUserID:   inReplyTo,
		TweetType:         TypeOriginal,
		RetweetCount:      obj.PublicMetrics.RetweetCount,
		ReplyCount:        obj.PublicMetrics.ReplyCount,
		LikeCount:         obj.PublicMetrics.LikeCount,
		QuoteCount:        obj.PublicMetrics.QuoteCount,
		ImpressionCount:   obj.PublicMetrics.ImpressionCount,
	}
	// Each type contributes its flag at most once, however many
	// references of that type the tweet carries.
	var quoted, retweeted, repliedTo bool
	for _, ref := range obj.ReferencedTweets {
		switch ref.Type {
		case RefQuoted:
			rows.Quotes = append(rows.Quotes, ReferenceRow{ID: obj.ID, TweetID: ref.ID})
			if !quoted {
				row.TweetType += TypeQuoted
				quoted = true
			}
		case RefRetweeted:
			rows.Retweets = append(rows.Retweets, ReferenceRow{ID: obj.ID, TweetID: ref.ID})
			if !retweeted {
				row.TweetType += TypeRetweeted
				retweeted = true
			}
		case RefRepliedTo:
			rows.Replies = append(rows.Replies, ReplyRow{
				ID:              obj.ID,
				TweetID:         ref.ID,
				InReplyToUserID: obj.InReplyToUserID,
			})
			if !repliedTo {
				row.TweetType += TypeRepliedTo
				repliedTo = true
			}
		}
	}
	normalizeEntities(obj, rows)
	rows.Tweets = append(rows.Tweets, row)
	return nil
}

func normalizeEntities(obj *TweetObject, rows *Rows) {
	if obj.Entities == nil {
		return
	}
	for _, h := range obj.Entities.Hashtags {
		rows.Hashtags = append(rows.Hashtags, TagRow{TweetID: obj.ID, Tag: h.Tag, Start: h.Start, End: h.End})
	}
	for _, c := range obj.Entities.Cashtags {
		rows.Cashtags = append(rows.Cashtags, TagRow{TweetID: obj.ID, Tag: c.Tag, Start: c.Start, End: c.End})
	}
	for _, u := range obj.Entities.URLs {
		var mediaKey *string
		if u.MediaKey != "" {
			v := u.MediaKey
			mediaKey = &v
		}
		rows.URLs = append(rows.URLs, URLRow{
			TweetID:     obj.ID,
			URL:         u.URL,
			Start:       u.Start,
			End:         u.End,
			ExpandedURL: u.ExpandedURL,
			DisplayURL:  u.DisplayURL,
			MediaKey:    mediaKey,
		})
	}
	for _, m := range obj.Entities.Mentions {
		rows.Mentions = append(rows.Mentions, MentionRow{
			TweetID:  obj.ID,
			Username: m.Username,
			Start:    m.Start,
			End:      m.End,
			AuthorID: m.ID,
		})
	}
	for _, a := range obj.Entities.Annotations {
		rows.Annotations = append(rows.Annotations, AnnotationRow{
			TweetID:        obj.ID,
			Start:          a.Start,
			End:            a.End,
			Probability:    a.Probability,
			Type:           a.Type,
			NormalizedText: a.NormalizedText,
		})
	}
}

func normalizeUser(obj *UserObject) AuthorRow {
	return AuthorRow{
		ID:              obj.ID,
		Name:            obj.Name,
		Username:        obj.Username,
		CreatedAt:       obj.CreatedAt,
		Description:     sanitizeText(obj.Description),
		Location:        obj.Location,
		Verified:        obj.Verified,
		Protected:       obj.Protected,
		URL:             obj.URL,
		ProfileImageURL: obj.ProfileImageURL,
		FollowersCount:  obj.PublicMetrics.FollowersCount,
		FollowingCount:  obj.PublicMetrics.FollowingCount,
		TweetCount:      obj.PublicMetrics.TweetCount,
		ListedCount:     obj.PublicMetrics.ListedCount,
	}
}

func normalizePoll(obj *PollObject) (PollRow, error) {
	options, err := json.Marshal(obj.Options)
	if err != nil {
		return PollRow{}, fmt.Errorf("normalize: poll %s options: %w", obj.ID, err)
	}
	return PollRow{
		ID:              obj.ID,
		DurationMinutes: obj.DurationMinutes,
		EndDatetime:     obj.EndDatetime,
		VotingStatus:    obj.VotingStatus,
		Options:         options,
	}, nil
}

// sanitizeText strips NUL bytes, which Postgres TEXT columns reject.
func sanitizeText(s string) string {
	if !strings.ContainsRune(s, '\x00') {
		return s
	}
	return strings.ReplaceAll(s, "\x00", "�")
}
