// Package normalize maps raw per-platform scrape records into canonical
// content items, dropping records that cannot be identified or that carry
// no article code.
package normalize

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/okarpachev/promopulse/internal/article"
	"github.com/okarpachev/promopulse/internal/identity"
	"github.com/okarpachev/promopulse/internal/models"
	"github.com/okarpachev/promopulse/internal/util"
)

// ErrSkip marks a record that is dropped on purpose: missing identifying
// fields or no recoverable article. Not a failure; callers tally it.
var ErrSkip = errors.New("record skipped")

// ArticleResolver is an optional last-ditch extractor consulted when the
// pattern cascade finds nothing. A nil resolver disables the fallback.
type ArticleResolver interface {
	ExtractArticle(ctx context.Context, text string) (string, bool, error)
}

// Normalizer converts raw records for one ingestion batch. Every item in a
// batch shares the same collectedAt/lastUpdated stamp.
type Normalizer struct {
	now      time.Time
	resolver ArticleResolver
}

// NewBatch starts a normalization batch stamped with the current wall clock.
func NewBatch(resolver ArticleResolver) *Normalizer {
	return &Normalizer{now: time.Now().UTC(), resolver: resolver}
}

// Item maps one raw record to a ContentItem. Returns ErrSkip for records
// that are dropped (no identity, or no article in caption or title).
func (n *Normalizer) Item(ctx context.Context, platform models.Platform, raw models.RawRecord) (*models.ContentItem, error) {
	if !hasRequiredFields(platform, raw) {
		return nil, ErrSkip
	}

	art, ok := article.Find(raw.Text, raw.Title)
	if !ok {
		art, ok = n.resolveFallback(ctx, raw)
	}
	if !ok {
		return nil, ErrSkip
	}

	item := &models.ContentItem{
		ID:          identity.Key(platform, raw.AccountName, art),
		Platform:    platform,
		AccountURL:  raw.AccountURL,
		AccountName: raw.AccountName,
		ContentURL:  raw.ContentURL,
		SourceID:    raw.SourceID,
		Title:       raw.Title,
		PostedAt:    util.CoerceTime(raw.PostedAt, n.now),
		Views:       util.CoerceInt(raw.Views),
		Likes:       util.CoerceInt(raw.Likes),
		Comments:    util.CoerceInt(raw.Comments),
		Shares:      util.CoerceInt(raw.Shares),
		Article:     art,
		CollectedAt: n.now,
		LastUpdated: n.now,
	}
	return item, nil
}

// resolveFallback consults the AI resolver, if any. Resolver errors are not
// fatal to the record; it is simply skipped like any other no-article item.
func (n *Normalizer) resolveFallback(ctx context.Context, raw models.RawRecord) (string, bool) {
	if n.resolver == nil {
		return "", false
	}
	text := raw.Text
	if strings.TrimSpace(text) == "" {
		text = raw.Title
	}
	art, found, err := n.resolver.ExtractArticle(ctx, text)
	if err != nil {
		slog.Warn("AI article fallback failed", "source_id", raw.SourceID, "error", err)
		return "", false
	}
	return art, found
}

// hasRequiredFields applies the per-platform identity policy. Video
// platforms always carry a source ID; instagram sometimes only exposes the
// shortcode URL.
func hasRequiredFields(platform models.Platform, raw models.RawRecord) bool {
	switch platform {
	case models.PlatformInstagram:
		return strings.TrimSpace(raw.SourceID) != "" || strings.TrimSpace(raw.ContentURL) != ""
	default:
		// A record lacking both an identifier and a title is unusable.
		return strings.TrimSpace(raw.SourceID) != "" || strings.TrimSpace(raw.Title) != ""
	}
}
