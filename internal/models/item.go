package models

import (
	"fmt"
	"time"
)

// Platform identifies a supported content source.
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
)

// Platforms lists every supported platform in partition order.
var Platforms = []Platform{PlatformTikTok, PlatformInstagram, PlatformYouTube}

// ParsePlatform validates a raw platform string.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range Platforms {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported platform %q", s)
}

// ContentItem is the canonical deduplicated record for one scraped post.
// ID is derived from (platform, account name, article) and never changes
// once the row is created; it is the only deduplication mechanism.
type ContentItem struct {
	ID          string
	Platform    Platform
	AccountURL  string
	AccountName string
	ContentURL  string
	SourceID    string
	Title       string
	PostedAt    time.Time
	Views       int
	Likes       int
	Comments    int
	Shares      int
	// Article holds one or more comma-joined marketplace codes. Items
	// without a recoverable article are dropped before they reach storage.
	Article     string
	CollectedAt time.Time
	LastUpdated time.Time
}

// TrackedAccount is the configuration and per-account state for one
// monitored blogger account.
type TrackedAccount struct {
	Platform    Platform `json:"platform" validate:"required"`
	AccountURL  string   `json:"accountUrl" validate:"required,url"`
	AccountName string   `json:"accountName"`

	// LastCheckedAt is zero when the account has never been collected.
	LastCheckedAt time.Time `json:"lastCheckedAt,omitempty"`

	// WindowFrom/WindowTo override the global aggregation window when set.
	WindowFrom time.Time `json:"windowFrom,omitempty"`
	WindowTo   time.Time `json:"windowTo,omitempty"`

	// RowIndex is the account's position in the accounts sheet, used to
	// write LastCheckedAt back. Not part of the account identity.
	RowIndex int `json:"-"`
}

// AccountWindowMetric is one aggregate fact per (account, window). The four
// identity fields are compared at date granularity; recomputation with the
// same identity overwrites the stored fact.
type AccountWindowMetric struct {
	Platform      Platform
	AccountURL    string
	WindowFrom    time.Time
	WindowTo      time.Time
	TotalViews    int
	TotalLikes    int
	TotalComments int
	TotalShares   int
	ItemCount     int
	LastUpdated   time.Time
}

// RawRecord is one loosely-typed post as delivered by a platform source.
// Numeric and timestamp fields keep whatever representation the source
// provided; the normalizer coerces them.
type RawRecord struct {
	SourceID    string
	Title       string
	Text        string
	ContentURL  string
	AccountName string
	AccountURL  string
	PostedAt    any
	Views       any
	Likes       any
	Comments    any
	Shares      any
}
