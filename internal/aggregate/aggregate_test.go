package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okarpachev/promopulse/internal/models"
)

type fakeItemLister struct {
	items []models.ContentItem
	err   error
}

func (f *fakeItemLister) ListItems(ctx context.Context, platform models.Platform) ([]models.ContentItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.ContentItem
	for _, it := range f.items {
		if it.Platform == platform {
			out = append(out, it)
		}
	}
	return out, nil
}

func day(d int) time.Time {
	return time.Date(2026, 7, d, 0, 0, 0, 0, time.UTC)
}

func item(postedDay int, views, likes int) models.ContentItem {
	return models.ContentItem{
		ID:          "tiktok-SHO-WB204512",
		Platform:    models.PlatformTikTok,
		AccountName: "shopbrand",
		PostedAt:    time.Date(2026, 7, postedDay, 15, 30, 0, 0, time.UTC),
		Views:       views,
		Likes:       likes,
		Comments:    1,
		Shares:      1,
	}
}

func account() *models.TrackedAccount {
	return &models.TrackedAccount{
		Platform:    models.PlatformTikTok,
		AccountURL:  "https://www.tiktok.com/@shopbrand",
		AccountName: "shopbrand",
		WindowFrom:  day(1),
		WindowTo:    day(10),
	}
}

func TestAggregate(t *testing.T) {
	store := &fakeItemLister{items: []models.ContentItem{
		item(1, 100, 10),  // first window day, counted
		item(10, 200, 20), // last window day, inclusive
		item(11, 999, 99), // day after the window, excluded
	}}
	agg := New(store, Window{})

	metric, err := agg.Aggregate(context.Background(), account())
	if err != nil {
		t.Fatalf("Aggregate() returned unexpected error: %v", err)
	}
	if metric == nil {
		t.Fatal("Aggregate() returned nil metric, want sums")
	}
	if metric.ItemCount != 2 {
		t.Errorf("ItemCount = %d, want 2", metric.ItemCount)
	}
	if metric.TotalViews != 300 {
		t.Errorf("TotalViews = %d, want 300", metric.TotalViews)
	}
	if metric.TotalLikes != 30 {
		t.Errorf("TotalLikes = %d, want 30", metric.TotalLikes)
	}
	if metric.TotalComments != 2 || metric.TotalShares != 2 {
		t.Errorf("TotalComments/Shares = %d/%d, want 2/2", metric.TotalComments, metric.TotalShares)
	}
}

func TestAggregate_SwappedBoundsEquivalent(t *testing.T) {
	store := &fakeItemLister{items: []models.ContentItem{item(5, 100, 10)}}
	agg := New(store, Window{})

	acc := account()
	acc.WindowFrom, acc.WindowTo = acc.WindowTo, acc.WindowFrom

	metric, err := agg.Aggregate(context.Background(), acc)
	if err != nil {
		t.Fatalf("Aggregate() returned unexpected error: %v", err)
	}
	if metric == nil || metric.ItemCount != 1 {
		t.Fatalf("swapped bounds should aggregate identically, got %+v", metric)
	}
	if !metric.WindowFrom.Equal(StartOfDay(day(1))) || !metric.WindowTo.Equal(EndOfDay(day(10))) {
		t.Errorf("bounds not reordered: from %v to %v", metric.WindowFrom, metric.WindowTo)
	}
}

func TestAggregate_NoWindowConfigured(t *testing.T) {
	store := &fakeItemLister{items: []models.ContentItem{item(5, 100, 10)}}
	agg := New(store, Window{})

	acc := account()
	acc.WindowFrom, acc.WindowTo = time.Time{}, time.Time{}

	metric, err := agg.Aggregate(context.Background(), acc)
	if err != nil {
		t.Fatalf("Aggregate() returned unexpected error: %v", err)
	}
	if metric != nil {
		t.Errorf("expected nil metric without a window, got %+v", metric)
	}
}

func TestAggregate_DefaultWindowFallback(t *testing.T) {
	store := &fakeItemLister{items: []models.ContentItem{item(5, 100, 10)}}
	agg := New(store, Window{From: day(1), To: day(10)})

	acc := account()
	acc.WindowFrom, acc.WindowTo = time.Time{}, time.Time{}

	metric, err := agg.Aggregate(context.Background(), acc)
	if err != nil {
		t.Fatalf("Aggregate() returned unexpected error: %v", err)
	}
	if metric == nil || metric.ItemCount != 1 {
		t.Fatalf("expected the global default window to apply, got %+v", metric)
	}
}

func TestAggregate_NoMatchesYieldsNoMetric(t *testing.T) {
	other := item(5, 100, 10)
	other.AccountName = "someoneelse"
	store := &fakeItemLister{items: []models.ContentItem{other}}
	agg := New(store, Window{})

	metric, err := agg.Aggregate(context.Background(), account())
	if err != nil {
		t.Fatalf("Aggregate() returned unexpected error: %v", err)
	}
	if metric != nil {
		t.Errorf("zero matched items must yield an absent metric, got %+v", metric)
	}
}

func TestAggregate_StoreError(t *testing.T) {
	agg := New(&fakeItemLister{err: errors.New("quota")}, Window{})

	_, err := agg.Aggregate(context.Background(), account())
	if err == nil {
		t.Fatal("expected store errors to propagate")
	}
}

func TestNormalizeBounds(t *testing.T) {
	from, to := NormalizeBounds(
		time.Date(2026, 7, 10, 18, 45, 0, 0, time.UTC),
		time.Date(2026, 7, 1, 6, 15, 0, 0, time.UTC),
	)
	if !from.Equal(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v, want midnight of the earlier date", from)
	}
	if !to.Equal(time.Date(2026, 7, 10, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)) {
		t.Errorf("to = %v, want end of the later date", to)
	}
}
