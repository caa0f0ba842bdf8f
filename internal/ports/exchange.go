package ports

import (
	"context"
	"time"

	"klineChart/internal/domain"
)

// KlineSource defines the interface for pulling historical klines from an exchange.
// It feeds the static data file; the chart itself never talks to an exchange.
type KlineSource interface {
	// Ping checks the connectivity to the exchange API.
	Ping(ctx context.Context) error

	// GetServerTime retrieves the current server time from the exchange.
	GetServerTime(ctx context.Context) (time.Time, error)

	// GetKlinesRange fetches every kline for symbol/interval opening within [start, end],
	// oldest first.
	GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]domain.Kline, error)
}
