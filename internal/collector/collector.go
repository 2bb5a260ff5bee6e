// Package collector runs the collection cycle: decide which tracked
// accounts are due, pull their raw records, normalize and upsert the
// resulting items, stamp the accounts, and refresh each account's window
// metric. Failures are contained at account and item granularity; only a
// failure to list the accounts aborts a cycle.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okarpachev/promopulse/internal/models"
	"github.com/okarpachev/promopulse/internal/normalize"
	"github.com/okarpachev/promopulse/internal/scraper"
)

// ErrCycleRunning is returned when a cycle is requested while another is
// still in flight. The scheduler and the manual trigger share one run lock.
var ErrCycleRunning = errors.New("collection cycle already running")

// fetchConcurrency bounds the parallel raw-fetch phase. Upserts themselves
// stay sequential per account to keep read-modify-write safe against the
// row store.
const fetchConcurrency = 3

type Collector struct {
	store    Store
	sources  scraper.Registry
	agg      Aggregator
	resolver normalize.ArticleResolver

	runMu sync.Mutex

	intervalMu sync.RWMutex
	interval   time.Duration
}

func New(store Store, sources scraper.Registry, agg Aggregator, resolver normalize.ArticleResolver, checkInterval time.Duration) *Collector {
	return &Collector{
		store:    store,
		sources:  sources,
		agg:      agg,
		resolver: resolver,
		interval: checkInterval,
	}
}

// Interval returns the current due threshold.
func (c *Collector) Interval() time.Duration {
	c.intervalMu.RLock()
	defer c.intervalMu.RUnlock()
	return c.interval
}

// SetInterval changes the due threshold for subsequent cycles.
func (c *Collector) SetInterval(d time.Duration) {
	c.intervalMu.Lock()
	c.interval = d
	c.intervalMu.Unlock()
}

// Due reports whether the account should be collected this cycle.
func (c *Collector) Due(account *models.TrackedAccount, now time.Time) bool {
	if account.LastCheckedAt.IsZero() {
		return true
	}
	return now.Sub(account.LastCheckedAt) >= c.Interval()
}

// RunCycle executes one collection cycle. Returns ErrCycleRunning if
// another cycle holds the run lock.
func (c *Collector) RunCycle(ctx context.Context) error {
	if !c.runMu.TryLock() {
		return ErrCycleRunning
	}
	defer c.runMu.Unlock()
	return c.runCycleLocked(ctx)
}

// maxCycleDuration bounds a background cycle started through StartCycle.
const maxCycleDuration = 10 * time.Minute

// StartCycle acquires the run lock synchronously and runs the cycle in the
// background, so callers learn about a conflicting cycle immediately. The
// cycle outlives the caller's request but not maxCycleDuration. The manual
// trigger endpoint uses this; the scheduler runs RunCycle inline.
func (c *Collector) StartCycle(parent context.Context) error {
	if !c.runMu.TryLock() {
		return ErrCycleRunning
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), maxCycleDuration)
	go func() {
		defer c.runMu.Unlock()
		defer cancel()
		if err := c.runCycleLocked(ctx); err != nil {
			slog.Error("Collection cycle failed", "error", err)
		}
	}()
	return nil
}

func (c *Collector) runCycleLocked(ctx context.Context) error {
	accounts, err := c.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tracked accounts: %w", err)
	}

	now := time.Now().UTC()
	var due []*models.TrackedAccount
	for i := range accounts {
		if c.Due(&accounts[i], now) {
			due = append(due, &accounts[i])
		}
	}
	slog.Info("Starting collection cycle", "accounts", len(accounts), "due", len(due))
	if len(due) == 0 {
		return nil
	}

	fetched := c.fetchAll(ctx, due)

	for i, account := range due {
		if fetched[i].err != nil {
			slog.Error("Fetch failed, skipping account this cycle",
				"platform", account.Platform, "account", account.AccountURL, "error", fetched[i].err)
			continue
		}
		c.processAccount(ctx, account, fetched[i].records)
	}

	slog.Info("Collection cycle finished", "due", len(due))
	return nil
}

type fetchResult struct {
	records []models.RawRecord
	err     error
}

// fetchAll pulls raw records for every due account with bounded
// concurrency. Fetching is read-only against remote platforms, so it is
// safe to parallelize ahead of the sequential upsert phase.
func (c *Collector) fetchAll(ctx context.Context, due []*models.TrackedAccount) []fetchResult {
	results := make([]fetchResult, len(due))
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for i, account := range due {
		i, account := i, account
		g.Go(func() error {
			source, err := c.sources.ForPlatform(account.Platform)
			if err != nil {
				results[i] = fetchResult{err: err}
				return nil
			}
			records, err := source.Fetch(groupCtx, account)
			results[i] = fetchResult{records: records, err: err}
			return nil // per-account fetch failures never fail the group
		})
	}
	_ = g.Wait()
	return results
}

// processAccount normalizes and upserts one account's records, stamps the
// account, and refreshes its window metric.
func (c *Collector) processAccount(ctx context.Context, account *models.TrackedAccount, records []models.RawRecord) {
	batch := normalize.NewBatch(c.resolver)
	var processed, skipped, failed int

	for _, raw := range records {
		item, err := batch.Item(ctx, account.Platform, raw)
		if errors.Is(err, normalize.ErrSkip) {
			skipped++
			continue
		}
		if err != nil {
			slog.Warn("Failed to normalize record", "source_id", raw.SourceID, "error", err)
			skipped++
			continue
		}
		// Sequential on purpose: the row store's read-modify-write is not
		// atomic, and the next due cycle retries anything that failed here.
		if err := c.store.UpsertItem(ctx, item); err != nil {
			slog.Error("Failed to upsert item", "id", item.ID, "error", err)
			failed++
			continue
		}
		processed++
	}
	slog.Info("Account processed",
		"platform", account.Platform, "account", account.AccountURL,
		"processed", processed, "skipped", skipped, "failed", failed)

	checkedAt := time.Now().UTC()
	if err := c.store.MarkAccountChecked(ctx, account, checkedAt); err != nil {
		slog.Error("Failed to stamp lastCheckedAt", "account", account.AccountURL, "error", err)
	} else {
		account.LastCheckedAt = checkedAt
	}

	c.refreshMetric(ctx, account)
}

// refreshMetric recomputes and stores the account's window metric.
// Aggregation is best-effort relative to ingestion: failures are logged and
// contained.
func (c *Collector) refreshMetric(ctx context.Context, account *models.TrackedAccount) {
	metric, err := c.agg.Aggregate(ctx, account)
	if err != nil {
		slog.Error("Window aggregation failed", "account", account.AccountURL, "error", err)
		return
	}
	if metric == nil {
		slog.Debug("No metric for account", "account", account.AccountURL)
		return
	}
	if err := c.store.UpsertMetric(ctx, metric); err != nil {
		slog.Error("Failed to upsert metric", "account", account.AccountURL, "error", err)
	}
}

// RecomputeAll refreshes window metrics for every tracked account without
// fetching anything new.
func (c *Collector) RecomputeAll(ctx context.Context) error {
	accounts, err := c.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tracked accounts: %w", err)
	}
	for i := range accounts {
		c.refreshMetric(ctx, &accounts[i])
	}
	slog.Info("Recomputed window metrics", "accounts", len(accounts))
	return nil
}
