package indicators

import (
	"context"

	"klineChart/internal/domain"
)

// Indicator represents a technical indicator computed over a kline series.
// The result is aligned index-for-index with the input.
type Indicator interface {
	// Calculate computes the indicator series for the given price data
	Calculate(ctx context.Context, klines []domain.Kline) (domain.MovingAverageSeries, error)

	// RequiredDataPoints returns the number of klines needed before the first value appears
	RequiredDataPoints() int

	// Name returns the name of the indicator, used as its chart series name
	Name() string
}

// IndicatorConfig holds common configuration for indicators
type IndicatorConfig struct {
	Period int
}

// BaseIndicator provides common functionality for indicators
type BaseIndicator struct {
	Config IndicatorConfig
}

// RequiredDataPoints returns the minimum number of klines needed for calculation
func (b *BaseIndicator) RequiredDataPoints() int {
	return b.Config.Period
}

// ComputeAll runs every indicator against the same klines. Each call is independent.
func ComputeAll(ctx context.Context, klines []domain.Kline, inds ...Indicator) ([]domain.MovingAverageSeries, error) {
	out := make([]domain.MovingAverageSeries, 0, len(inds))
	for _, ind := range inds {
		s, err := ind.Calculate(ctx, klines)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
