package ports

import (
	"context"

	"klineChart/internal/domain"
)

// FeedLoader retrieves the static kline feed as positional records, oldest first.
type FeedLoader interface {
	Load(ctx context.Context) ([]domain.RawRecord, error)
}
