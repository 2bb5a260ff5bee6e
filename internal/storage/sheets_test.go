package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/okarpachev/promopulse/internal/models"
)

// fakeValues is an in-memory valuesAPI. Tabs are keyed by name and each tab
// starts with a header row, matching the live sheet layout.
type fakeValues struct {
	tabs    map[string][][]any
	getErr  error
	updates []string
	appends []string
}

func newFakeValues(tabNames ...string) *fakeValues {
	tabs := make(map[string][][]any)
	for _, name := range tabNames {
		tabs[name] = [][]any{{"header"}}
	}
	return &fakeValues{tabs: tabs}
}

func tabOf(rangeStr string) (string, string) {
	parts := strings.SplitN(rangeStr, "!", 2)
	return parts[0], parts[1]
}

func (f *fakeValues) Get(ctx context.Context, readRange string) ([][]any, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	tab, _ := tabOf(readRange)
	return f.tabs[tab], nil
}

func (f *fakeValues) Update(ctx context.Context, writeRange string, rows [][]any) error {
	f.updates = append(f.updates, writeRange)
	tab, cells := tabOf(writeRange)
	var rowIndex int
	if _, err := fmt.Sscanf(cells, "A%d", &rowIndex); err != nil {
		// Single-cell writes like "D3" update one column in place.
		var col rune
		if _, err := fmt.Sscanf(cells, "%c%d", &col, &rowIndex); err != nil {
			return fmt.Errorf("unsupported range %s", writeRange)
		}
		f.tabs[tab][rowIndex-1][int(col-'A')] = rows[0][0]
		return nil
	}
	f.tabs[tab][rowIndex-1] = rows[0]
	return nil
}

func (f *fakeValues) Append(ctx context.Context, writeRange string, rows [][]any) error {
	f.appends = append(f.appends, writeRange)
	tab, _ := tabOf(writeRange)
	f.tabs[tab] = append(f.tabs[tab], rows...)
	return nil
}

func testItem() *models.ContentItem {
	return &models.ContentItem{
		ID:          "tiktok-SHO-WB204512",
		Platform:    models.PlatformTikTok,
		AccountURL:  "https://www.tiktok.com/@shopbrand",
		AccountName: "shopbrand",
		ContentURL:  "https://www.tiktok.com/@shopbrand/video/v1",
		SourceID:    "v1",
		Title:       "Check out WB204512!",
		PostedAt:    time.Date(2026, 7, 5, 12, 0, 0, 0, time.UTC),
		Views:       100,
		Likes:       10,
		Article:     "WB204512",
		CollectedAt: time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC),
		LastUpdated: time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC),
	}
}

func TestUpsertItem_AppendsThenUpdates(t *testing.T) {
	values := newFakeValues("tiktok")
	client := &Client{values: values, spreadsheetID: "test"}
	ctx := context.Background()

	item := testItem()
	if err := client.UpsertItem(ctx, item); err != nil {
		t.Fatalf("first UpsertItem failed: %v", err)
	}
	if len(values.appends) != 1 {
		t.Fatalf("expected 1 append for a new id, got %d", len(values.appends))
	}

	// Same id again with fresher stats: must update in place, not append.
	item.Views = 250
	item.LastUpdated = item.LastUpdated.Add(time.Hour)
	if err := client.UpsertItem(ctx, item); err != nil {
		t.Fatalf("second UpsertItem failed: %v", err)
	}
	if len(values.appends) != 1 {
		t.Errorf("re-upsert appended a duplicate row, appends = %d", len(values.appends))
	}
	if len(values.updates) != 1 {
		t.Fatalf("expected 1 in-place update, got %d", len(values.updates))
	}

	items, err := client.ListItems(ctx, models.PlatformTikTok)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected exactly one row after re-upsert, got %d", len(items))
	}
	if items[0].Views != 250 {
		t.Errorf("Views = %d, want updated 250", items[0].Views)
	}
}

func TestUpsertItem_PreservesCollectedAt(t *testing.T) {
	values := newFakeValues("tiktok")
	client := &Client{values: values, spreadsheetID: "test"}
	ctx := context.Background()

	item := testItem()
	originalCollected := item.CollectedAt
	if err := client.UpsertItem(ctx, item); err != nil {
		t.Fatalf("first UpsertItem failed: %v", err)
	}

	later := *item
	later.CollectedAt = originalCollected.Add(48 * time.Hour)
	later.Views = 999
	if err := client.UpsertItem(ctx, &later); err != nil {
		t.Fatalf("second UpsertItem failed: %v", err)
	}

	items, err := client.ListItems(ctx, models.PlatformTikTok)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if !items[0].CollectedAt.Equal(originalCollected) {
		t.Errorf("CollectedAt = %v, want original %v kept across updates",
			items[0].CollectedAt, originalCollected)
	}
}

func TestListItems_SkipsUndecodableRows(t *testing.T) {
	values := newFakeValues("tiktok")
	client := &Client{values: values, spreadsheetID: "test"}
	ctx := context.Background()

	if err := client.UpsertItem(ctx, testItem()); err != nil {
		t.Fatalf("UpsertItem failed: %v", err)
	}
	// A half-written row without an article must not poison the read.
	values.tabs["tiktok"] = append(values.tabs["tiktok"], []any{"tiktok-BAD-", "", "", "", "", "", "", 0, 0, 0, 0, ""})

	items, err := client.ListItems(ctx, models.PlatformTikTok)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected the bad row to be skipped, got %d items", len(items))
	}
}

func TestMarkAccountChecked(t *testing.T) {
	values := newFakeValues(accountsTab)
	client := &Client{values: values, spreadsheetID: "test"}
	ctx := context.Background()

	account := &models.TrackedAccount{
		Platform:   models.PlatformTikTok,
		AccountURL: "https://www.tiktok.com/@shopbrand",
	}
	if err := client.AppendAccount(ctx, account); err != nil {
		t.Fatalf("AppendAccount failed: %v", err)
	}

	checkedAt := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	if err := client.MarkAccountChecked(ctx, account, checkedAt); err != nil {
		t.Fatalf("MarkAccountChecked failed: %v", err)
	}

	accounts, err := client.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	if !accounts[0].LastCheckedAt.Equal(checkedAt) {
		t.Errorf("LastCheckedAt = %v, want %v", accounts[0].LastCheckedAt, checkedAt)
	}
	if accounts[0].RowIndex != firstDataRow {
		t.Errorf("RowIndex = %d, want %d", accounts[0].RowIndex, firstDataRow)
	}
}

func TestMarkAccountChecked_NotFound(t *testing.T) {
	values := newFakeValues(accountsTab)
	client := &Client{values: values, spreadsheetID: "test"}

	account := &models.TrackedAccount{AccountURL: "https://www.tiktok.com/@ghost"}
	err := client.MarkAccountChecked(context.Background(), account, time.Now())
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestUpsertMetric_IdentityOverwrite(t *testing.T) {
	values := newFakeValues(metricsTab)
	client := &Client{values: values, spreadsheetID: "test"}
	ctx := context.Background()

	metric := &models.AccountWindowMetric{
		Platform:    models.PlatformTikTok,
		AccountURL:  "https://www.tiktok.com/@shopbrand",
		WindowFrom:  time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		WindowTo:    time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		TotalViews:  100,
		ItemCount:   2,
		LastUpdated: time.Now().UTC(),
	}
	if err := client.UpsertMetric(ctx, metric); err != nil {
		t.Fatalf("first UpsertMetric failed: %v", err)
	}

	// Recomputing the same window replaces the fact.
	metric.TotalViews = 350
	if err := client.UpsertMetric(ctx, metric); err != nil {
		t.Fatalf("second UpsertMetric failed: %v", err)
	}
	if got := len(values.tabs[metricsTab]) - 1; got != 1 {
		t.Errorf("expected 1 metric row for one identity, got %d", got)
	}

	// A different window is a new fact.
	other := *metric
	other.WindowTo = other.WindowTo.AddDate(0, 0, 7)
	if err := client.UpsertMetric(ctx, &other); err != nil {
		t.Fatalf("third UpsertMetric failed: %v", err)
	}
	if got := len(values.tabs[metricsTab]) - 1; got != 2 {
		t.Errorf("expected 2 metric rows for two windows, got %d", got)
	}
}

func TestListItems_ReadError(t *testing.T) {
	values := newFakeValues("tiktok")
	values.getErr = errors.New("quota exceeded")
	client := &Client{values: values, spreadsheetID: "test"}

	if _, err := client.ListItems(context.Background(), models.PlatformTikTok); err == nil {
		t.Fatal("expected read errors to propagate")
	}
}
