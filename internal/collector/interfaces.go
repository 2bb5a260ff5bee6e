package collector

import (
	"context"
	"time"

	"github.com/okarpachev/promopulse/internal/models"
)

// Store abstracts the row store for the collection cycle.
type Store interface {
	ListAccounts(ctx context.Context) ([]models.TrackedAccount, error)
	MarkAccountChecked(ctx context.Context, account *models.TrackedAccount, checkedAt time.Time) error
	UpsertItem(ctx context.Context, item *models.ContentItem) error
	UpsertMetric(ctx context.Context, metric *models.AccountWindowMetric) error
}

// Aggregator computes the windowed metric for one account, or nil when no
// window resolves or nothing matched.
type Aggregator interface {
	Aggregate(ctx context.Context, account *models.TrackedAccount) (*models.AccountWindowMetric, error)
}
