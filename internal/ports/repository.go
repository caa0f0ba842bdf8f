package ports

import (
	"context"

	"klineChart/internal/domain"
)

// KlineArchive defines the interface for storing raw klines between feed exports.
type KlineArchive interface {
	// SaveKlines inserts or replaces the given klines and returns how many rows were written.
	SaveKlines(ctx context.Context, symbol, interval string, klines []domain.Kline) (int, error)
	// FindKlines returns the newest limit klines, oldest first. limit <= 0 returns all.
	FindKlines(ctx context.Context, symbol, interval string, limit int) ([]domain.Kline, error)
	// LatestOpenTime returns the open time of the newest archived kline.
	// The boolean is false when nothing is archived yet.
	LatestOpenTime(ctx context.Context, symbol, interval string) (int64, bool, error)
}
