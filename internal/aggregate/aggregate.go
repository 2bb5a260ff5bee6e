// Package aggregate computes windowed engagement sums for tracked accounts.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/okarpachev/promopulse/internal/match"
	"github.com/okarpachev/promopulse/internal/models"
)

// ItemLister provides a range read of every stored item in one platform
// partition.
type ItemLister interface {
	ListItems(ctx context.Context, platform models.Platform) ([]models.ContentItem, error)
}

// Window is an inclusive calendar-date range. Both bounds are required for
// aggregation; a zero bound means "not configured".
type Window struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the window is unconfigured.
func (w Window) IsZero() bool {
	return w.From.IsZero() || w.To.IsZero()
}

// Aggregator scans a platform partition and sums engagement for one
// account's matched items.
type Aggregator struct {
	store         ItemLister
	defaultWindow Window
}

func New(store ItemLister, defaultWindow Window) *Aggregator {
	return &Aggregator{store: store, defaultWindow: defaultWindow}
}

// ResolveWindow picks the account's override window when set, otherwise the
// global default. ok is false when neither is configured.
func (a *Aggregator) ResolveWindow(account *models.TrackedAccount) (Window, bool) {
	w := Window{From: account.WindowFrom, To: account.WindowTo}
	if w.IsZero() {
		w = a.defaultWindow
	}
	if w.IsZero() {
		return Window{}, false
	}
	return w, true
}

// Aggregate sums views, likes, comments and shares for the account's
// matched items whose postedAt falls inside the window, inclusive at date
// granularity. Swapped bounds are reordered, never an error. Returns
// (nil, nil) when the window is unresolvable or when no stored item
// matched in range: "no data" is deliberately distinct from a zero-valued
// fact.
func (a *Aggregator) Aggregate(ctx context.Context, account *models.TrackedAccount) (*models.AccountWindowMetric, error) {
	window, ok := a.ResolveWindow(account)
	if !ok {
		slog.Debug("No aggregation window configured, skipping", "account", account.AccountURL)
		return nil, nil
	}

	from, to := NormalizeBounds(window.From, window.To)

	items, err := a.store.ListItems(ctx, account.Platform)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s items: %w", account.Platform, err)
	}

	metric := &models.AccountWindowMetric{
		Platform:   account.Platform,
		AccountURL: account.AccountURL,
		WindowFrom: from,
		WindowTo:   to,
	}
	for i := range items {
		item := &items[i]
		heuristic, matched := match.Match(item, account)
		if !matched {
			continue
		}
		if item.PostedAt.Before(from) || item.PostedAt.After(to) {
			continue
		}
		slog.Debug("Matched item for aggregation",
			"account", account.AccountURL, "item", item.ID, "heuristic", heuristic)
		metric.TotalViews += item.Views
		metric.TotalLikes += item.Likes
		metric.TotalComments += item.Comments
		metric.TotalShares += item.Shares
		metric.ItemCount++
	}

	if metric.ItemCount == 0 {
		return nil, nil
	}
	metric.LastUpdated = time.Now().UTC()
	return metric, nil
}

// NormalizeBounds orders the bounds and widens them to whole days: from
// becomes 00:00:00 of its date, to becomes the last nanosecond of its date.
func NormalizeBounds(from, to time.Time) (time.Time, time.Time) {
	if from.After(to) {
		from, to = to, from
	}
	from = StartOfDay(from)
	to = EndOfDay(to)
	return from, to
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
