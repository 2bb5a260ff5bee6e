// Package storage adapts the Google Sheets row store. Each platform gets
// its own tab of content-item rows, tracked accounts live in the accounts
// tab and aggregate facts in the metrics tab. The sheet has no native
// uniqueness, so every upsert scans the partition for the key first and
// then either rewrites the row in place or appends a new one.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/okarpachev/promopulse/internal/models"
	"github.com/okarpachev/promopulse/internal/util"
)

const (
	accountsTab = "accounts"
	metricsTab  = "metrics"

	// Data starts on row 2; row 1 is the header.
	firstDataRow = 2

	itemColumns    = "A:N"
	accountColumns = "A:F"
	metricColumns  = "A:J"
)

// ErrAccountNotFound is returned when an account's row cannot be located by
// its URL.
var ErrAccountNotFound = errors.New("tracked account not found")

// valuesAPI is the slice of the Sheets values surface the adapter needs:
// range read, point update and append.
type valuesAPI interface {
	Get(ctx context.Context, readRange string) ([][]any, error)
	Update(ctx context.Context, writeRange string, rows [][]any) error
	Append(ctx context.Context, writeRange string, rows [][]any) error
}

// Client is the row-store adapter.
type Client struct {
	values        valuesAPI
	spreadsheetID string
}

// New connects to the spreadsheet. Credentials resolve via Application
// Default Credentials unless overridden with opts.
func New(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets.NewService: %w", err)
	}
	return &Client{
		// The Sheets API quota is 60 reads and 60 writes per minute per
		// user; one request a second stays safely under both.
		values:        &sheetsValues{svc: svc, spreadsheetID: spreadsheetID, limiter: rate.NewLimiter(rate.Limit(1), 3)},
		spreadsheetID: spreadsheetID,
	}, nil
}

// ListItems range-reads every content item stored in the platform's tab.
// Rows that fail to decode are skipped with a warning rather than failing
// the read.
func (c *Client) ListItems(ctx context.Context, platform models.Platform) ([]models.ContentItem, error) {
	rows, err := c.values.Get(ctx, fmt.Sprintf("%s!%s", platform, itemColumns))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s partition: %w", platform, err)
	}

	items := make([]models.ContentItem, 0, len(rows))
	for i, row := range dataRows(rows) {
		item, decodeErr := itemFromRow(platform, row)
		if decodeErr != nil {
			logDecodeError(platform, firstDataRow+i, decodeErr)
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}

// UpsertItem writes the item into its platform tab: an existing row with
// the same id is overwritten column for column, otherwise a new row is
// appended. Exactly one row per id exists after the call.
func (c *Client) UpsertItem(ctx context.Context, item *models.ContentItem) error {
	tab := string(item.Platform)
	rows, err := c.values.Get(ctx, fmt.Sprintf("%s!%s", tab, itemColumns))
	if err != nil {
		return fmt.Errorf("failed to scan %s partition for %s: %w", tab, item.ID, err)
	}

	for i, row := range dataRows(rows) {
		if cellString(row, colItemID) != item.ID {
			continue
		}
		rowIndex := firstDataRow + i
		writeRange := fmt.Sprintf("%s!A%d:N%d", tab, rowIndex, rowIndex)
		// Keep the original collectedAt; everything else is mutable.
		stamped := *item
		if created := cellTime(row, colItemCollectedAt); !created.IsZero() {
			stamped.CollectedAt = created
		}
		if err := c.values.Update(ctx, writeRange, [][]any{rowFromItem(&stamped)}); err != nil {
			return fmt.Errorf("failed to update row %d for %s: %w", rowIndex, item.ID, err)
		}
		return nil
	}

	if err := c.values.Append(ctx, fmt.Sprintf("%s!%s", tab, itemColumns), [][]any{rowFromItem(item)}); err != nil {
		return fmt.Errorf("failed to append item %s: %w", item.ID, err)
	}
	return nil
}

// ListAccounts reads every tracked account, recording each row's position
// so LastCheckedAt can be written back later.
func (c *Client) ListAccounts(ctx context.Context) ([]models.TrackedAccount, error) {
	rows, err := c.values.Get(ctx, fmt.Sprintf("%s!%s", accountsTab, accountColumns))
	if err != nil {
		return nil, fmt.Errorf("failed to read tracked accounts: %w", err)
	}

	accounts := make([]models.TrackedAccount, 0, len(rows))
	for i, row := range dataRows(rows) {
		account, decodeErr := accountFromRow(row)
		if decodeErr != nil {
			logDecodeError(accountsTab, firstDataRow+i, decodeErr)
			continue
		}
		account.RowIndex = firstDataRow + i
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

// AppendAccount adds a newly registered account row.
func (c *Client) AppendAccount(ctx context.Context, account *models.TrackedAccount) error {
	row := rowFromAccount(account)
	if err := c.values.Append(ctx, fmt.Sprintf("%s!%s", accountsTab, accountColumns), [][]any{row}); err != nil {
		return fmt.Errorf("failed to append account %s: %w", account.AccountURL, err)
	}
	return nil
}

// MarkAccountChecked locates the account's row by its URL and stamps
// lastCheckedAt. Location by URL (not by the cached row index) keeps the
// write correct even if rows were inserted since the account list was read.
func (c *Client) MarkAccountChecked(ctx context.Context, account *models.TrackedAccount, checkedAt time.Time) error {
	rows, err := c.values.Get(ctx, fmt.Sprintf("%s!%s", accountsTab, accountColumns))
	if err != nil {
		return fmt.Errorf("failed to scan accounts for %s: %w", account.AccountURL, err)
	}

	for i, row := range dataRows(rows) {
		if cellString(row, colAccountURL) != account.AccountURL {
			continue
		}
		rowIndex := firstDataRow + i
		writeRange := fmt.Sprintf("%s!D%d", accountsTab, rowIndex)
		cell := []any{checkedAt.UTC().Format(time.RFC3339)}
		if err := c.values.Update(ctx, writeRange, [][]any{cell}); err != nil {
			return fmt.Errorf("failed to stamp lastCheckedAt for %s: %w", account.AccountURL, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrAccountNotFound, account.AccountURL)
}

// UpsertMetric writes one aggregate fact, keyed by (platform, accountUrl,
// windowFrom, windowTo) at date granularity. Recomputing the same window
// overwrites the previous fact.
func (c *Client) UpsertMetric(ctx context.Context, metric *models.AccountWindowMetric) error {
	rows, err := c.values.Get(ctx, fmt.Sprintf("%s!%s", metricsTab, metricColumns))
	if err != nil {
		return fmt.Errorf("failed to scan metrics: %w", err)
	}

	for i, row := range dataRows(rows) {
		if !metricIdentityMatches(row, metric) {
			continue
		}
		rowIndex := firstDataRow + i
		writeRange := fmt.Sprintf("%s!A%d:J%d", metricsTab, rowIndex, rowIndex)
		if err := c.values.Update(ctx, writeRange, [][]any{rowFromMetric(metric)}); err != nil {
			return fmt.Errorf("failed to update metric row %d: %w", rowIndex, err)
		}
		return nil
	}

	if err := c.values.Append(ctx, fmt.Sprintf("%s!%s", metricsTab, metricColumns), [][]any{rowFromMetric(metric)}); err != nil {
		return fmt.Errorf("failed to append metric for %s: %w", metric.AccountURL, err)
	}
	return nil
}

func metricIdentityMatches(row []any, metric *models.AccountWindowMetric) bool {
	return cellString(row, colMetricPlatform) == string(metric.Platform) &&
		cellString(row, colMetricAccountURL) == metric.AccountURL &&
		cellString(row, colMetricWindowFrom) == dateOnly(metric.WindowFrom) &&
		cellString(row, colMetricWindowTo) == dateOnly(metric.WindowTo)
}

// dataRows strips the header row.
func dataRows(rows [][]any) [][]any {
	if len(rows) < firstDataRow {
		return nil
	}
	return rows[firstDataRow-1:]
}

// sheetsValues is the live implementation of valuesAPI. All calls go
// through the rate limiter and the shared retry helper; transient Sheets
// quota errors resolve themselves within a couple of attempts.
type sheetsValues struct {
	svc           *sheets.Service
	spreadsheetID string
	limiter       *rate.Limiter
}

const maxRetries = 2

func (s *sheetsValues) Get(ctx context.Context, readRange string) ([][]any, error) {
	var rows [][]any
	err := util.RetryWithBackoff(ctx, maxRetries, func(int) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
		if err != nil {
			return err
		}
		rows = resp.Values
		return nil
	})
	return rows, err
}

func (s *sheetsValues) Update(ctx context.Context, writeRange string, rows [][]any) error {
	body := &sheets.ValueRange{Values: rows}
	return util.RetryWithBackoff(ctx, maxRetries, func(int) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, writeRange, body).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
}

func (s *sheetsValues) Append(ctx context.Context, writeRange string, rows [][]any) error {
	body := &sheets.ValueRange{Values: rows}
	return util.RetryWithBackoff(ctx, maxRetries, func(int) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, writeRange, body).
			ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		return err
	})
}
