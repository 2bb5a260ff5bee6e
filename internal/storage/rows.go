package storage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/okarpachev/promopulse/internal/models"
	"github.com/okarpachev/promopulse/internal/util"
)

// Column positions inside the platform item tabs (A..N).
const (
	colItemID = iota
	colItemAccountURL
	colItemAccountName
	colItemContentURL
	colItemSourceID
	colItemTitle
	colItemPostedAt
	colItemViews
	colItemLikes
	colItemComments
	colItemShares
	colItemArticle
	colItemCollectedAt
	colItemLastUpdated
)

// Column positions inside the accounts tab (A..F).
const (
	colAccountPlatform = iota
	colAccountURL
	colAccountName
	colAccountLastChecked
	colAccountWindowFrom
	colAccountWindowTo
)

// Column positions inside the metrics tab (A..J).
const (
	colMetricPlatform = iota
	colMetricAccountURL
	colMetricWindowFrom
	colMetricWindowTo
	colMetricViews
	colMetricLikes
	colMetricComments
	colMetricShares
	colMetricItemCount
	colMetricLastUpdated
)

const dateLayout = "2006-01-02"

func rowFromItem(item *models.ContentItem) []any {
	return []any{
		item.ID,
		item.AccountURL,
		item.AccountName,
		item.ContentURL,
		item.SourceID,
		item.Title,
		item.PostedAt.UTC().Format(time.RFC3339),
		item.Views,
		item.Likes,
		item.Comments,
		item.Shares,
		item.Article,
		item.CollectedAt.UTC().Format(time.RFC3339),
		item.LastUpdated.UTC().Format(time.RFC3339),
	}
}

func itemFromRow(platform models.Platform, row []any) (*models.ContentItem, error) {
	id := cellString(row, colItemID)
	if id == "" {
		return nil, fmt.Errorf("row has no id")
	}
	article := cellString(row, colItemArticle)
	if article == "" {
		return nil, fmt.Errorf("row %s has no article", id)
	}
	return &models.ContentItem{
		ID:          id,
		Platform:    platform,
		AccountURL:  cellString(row, colItemAccountURL),
		AccountName: cellString(row, colItemAccountName),
		ContentURL:  cellString(row, colItemContentURL),
		SourceID:    cellString(row, colItemSourceID),
		Title:       cellString(row, colItemTitle),
		PostedAt:    cellTime(row, colItemPostedAt),
		Views:       cellInt(row, colItemViews),
		Likes:       cellInt(row, colItemLikes),
		Comments:    cellInt(row, colItemComments),
		Shares:      cellInt(row, colItemShares),
		Article:     article,
		CollectedAt: cellTime(row, colItemCollectedAt),
		LastUpdated: cellTime(row, colItemLastUpdated),
	}, nil
}

func rowFromAccount(account *models.TrackedAccount) []any {
	return []any{
		string(account.Platform),
		account.AccountURL,
		account.AccountName,
		formatTimeCell(account.LastCheckedAt, time.RFC3339),
		formatTimeCell(account.WindowFrom, dateLayout),
		formatTimeCell(account.WindowTo, dateLayout),
	}
}

func accountFromRow(row []any) (*models.TrackedAccount, error) {
	platform, err := models.ParsePlatform(cellString(row, colAccountPlatform))
	if err != nil {
		return nil, err
	}
	accountURL := cellString(row, colAccountURL)
	if accountURL == "" {
		return nil, fmt.Errorf("account row has no url")
	}
	return &models.TrackedAccount{
		Platform:      platform,
		AccountURL:    accountURL,
		AccountName:   cellString(row, colAccountName),
		LastCheckedAt: cellTime(row, colAccountLastChecked),
		WindowFrom:    cellTime(row, colAccountWindowFrom),
		WindowTo:      cellTime(row, colAccountWindowTo),
	}, nil
}

func rowFromMetric(metric *models.AccountWindowMetric) []any {
	return []any{
		string(metric.Platform),
		metric.AccountURL,
		dateOnly(metric.WindowFrom),
		dateOnly(metric.WindowTo),
		metric.TotalViews,
		metric.TotalLikes,
		metric.TotalComments,
		metric.TotalShares,
		metric.ItemCount,
		metric.LastUpdated.UTC().Format(time.RFC3339),
	}
}

func dateOnly(t time.Time) string {
	return t.Format(dateLayout)
}

func formatTimeCell(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(layout)
}

func cellString(row []any, col int) string {
	if col >= len(row) || row[col] == nil {
		return ""
	}
	if s, ok := row[col].(string); ok {
		return s
	}
	return fmt.Sprint(row[col])
}

func cellInt(row []any, col int) int {
	if col >= len(row) {
		return 0
	}
	return util.CoerceInt(row[col])
}

// cellTime decodes a timestamp cell. Empty cells come back as the zero
// time, which callers treat as "not set".
func cellTime(row []any, col int) time.Time {
	s := cellString(row, col)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t
	}
	return time.Time{}
}

func logDecodeError(partition any, rowIndex int, err error) {
	slog.Warn("Skipping undecodable row", "partition", fmt.Sprint(partition), "row", rowIndex, "error", err)
}
