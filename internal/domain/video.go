package domain

import "time"

// SearchMode selects how a scrape query is interpreted
type SearchMode string

const (
	// SearchModeKeyword searches the full-text search page
	SearchModeKeyword SearchMode = "keyword"

	// SearchModeHashtag browses a hashtag listing page
	SearchModeHashtag SearchMode = "hashtag"
)

// Creator holds the source-site identity of a video author.
// Handle is the natural key used for creator-account matching.
type Creator struct {
	ExternalUserID string
	Handle         string
	DisplayName    string
	AvatarURL      string
	Verified       bool
}

// AudioTrack is best-effort music metadata for a video
type AudioTrack struct {
	Title  string
	Artist string
}

// Engagement holds public counters for a video. Values are zero when the
// source does not expose them, never a synthesized placeholder.
type Engagement struct {
	Likes    int64
	Comments int64
	Shares   int64
	Views    int64
}

// CreatorStats holds best-effort counters for a creator profile. Only
// available from the video-detail page, zero elsewhere.
type CreatorStats struct {
	Followers int64
	Following int64
	Likes     int64
	Videos    int64
}

// VideoRecord is the ephemeral result of one extraction. It is produced by
// the extraction engine and consumed immediately by the import pipeline;
// it is never persisted as-is.
type VideoRecord struct {
	// ExternalID is the source platform's video identifier
	ExternalID string

	// SourceURL is the permalink the record was extracted from
	SourceURL string

	// MediaURL is the direct video locator; empty when extraction could
	// not resolve it (callers must treat empty as unusable, not an error)
	MediaURL string

	// ThumbnailURL is the cover image locator, possibly empty
	ThumbnailURL string

	// Caption is the free-text description, possibly empty
	Caption string

	Creator      Creator
	Audio        AudioTrack
	Engagement   Engagement
	CreatorStats CreatorStats

	// CapturedAt is when the extraction happened, not the source publish
	// time unless that was reliably available
	CapturedAt time.Time
}
