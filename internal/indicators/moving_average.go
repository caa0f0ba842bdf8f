package indicators

import (
	"context"
	"fmt"
	"strings"

	"klineChart/internal/domain"
	"klineChart/internal/ports"
)

// MovingAverageType defines the type of moving average
type MovingAverageType string

const (
	// SimpleMovingAverage represents a simple moving average
	SimpleMovingAverage MovingAverageType = "SMA"
	// ExponentialMovingAverage represents an exponential moving average
	ExponentialMovingAverage MovingAverageType = "EMA"
)

// ParseMovingAverageType converts a config string into a MovingAverageType.
func ParseMovingAverageType(s string) (MovingAverageType, error) {
	switch t := MovingAverageType(strings.ToUpper(strings.TrimSpace(s))); t {
	case SimpleMovingAverage, ExponentialMovingAverage:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported moving average type: %q", s)
	}
}

// MovingAverageConfig holds configuration for moving average indicators
type MovingAverageConfig struct {
	IndicatorConfig
	Type MovingAverageType
}

// MovingAverage implements both SMA and EMA indicators
type MovingAverage struct {
	BaseIndicator
	config MovingAverageConfig
}

// NewMovingAverage creates a new moving average indicator instance
func NewMovingAverage(config MovingAverageConfig) *MovingAverage {
	return &MovingAverage{
		BaseIndicator: BaseIndicator{Config: config.IndicatorConfig},
		config:        config,
	}
}

// NewMovingAverages builds one indicator per period, all of the same type.
func NewMovingAverages(maType MovingAverageType, periods ...int) []Indicator {
	out := make([]Indicator, 0, len(periods))
	for _, p := range periods {
		out = append(out, NewMovingAverage(MovingAverageConfig{
			IndicatorConfig: IndicatorConfig{Period: p},
			Type:            maType,
		}))
	}
	return out
}

// Name returns the series name: "MA5" for a 5-period SMA, "EMA5" for the EMA.
func (m *MovingAverage) Name() string {
	if m.config.Type == SimpleMovingAverage {
		return fmt.Sprintf("MA%d", m.Config.Period)
	}
	return fmt.Sprintf("%s%d", m.config.Type, m.Config.Period)
}

// Calculate computes the moving average series based on the configured type
func (m *MovingAverage) Calculate(ctx context.Context, klines []domain.Kline) (domain.MovingAverageSeries, error) {
	if err := ctx.Err(); err != nil {
		return domain.MovingAverageSeries{}, fmt.Errorf("%s: %w: %w", m.Name(), ports.ErrContextCanceled, err)
	}

	var (
		series domain.MovingAverageSeries
		err    error
	)
	switch m.config.Type {
	case SimpleMovingAverage:
		series, err = ComputeMovingAverage(klines, m.Config.Period)
	case ExponentialMovingAverage:
		series, err = computeEMA(klines, m.Config.Period)
	default:
		return domain.MovingAverageSeries{}, fmt.Errorf("unsupported moving average type: %s", m.config.Type)
	}
	if err != nil {
		return domain.MovingAverageSeries{}, err
	}
	series.Name = m.Name()
	return series, nil
}

// ComputeMovingAverage computes the simple moving average of close prices.
// Entries before index window-1 are sentinels; every other entry is the mean of the
// window closes ending at that index. Each window is summed afresh so that an
// unparsable close only affects the windows containing it.
func ComputeMovingAverage(klines []domain.Kline, window int) (domain.MovingAverageSeries, error) {
	if window < 1 {
		return domain.MovingAverageSeries{}, fmt.Errorf("%w: got %d", ports.ErrInvalidWindow, window)
	}

	closes := closePrices(klines)
	points := make([]domain.MAPoint, len(closes))
	for i := range closes {
		if i < window-1 {
			continue
		}
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += closes[j]
		}
		points[i] = domain.MAPoint{Value: sum / float64(window), Valid: true}
	}

	return domain.MovingAverageSeries{
		Name:   fmt.Sprintf("MA%d", window),
		Window: window,
		Points: points,
	}, nil
}

// computeEMA seeds with the SMA of the first window closes, then applies the EMA recurrence.
func computeEMA(klines []domain.Kline, window int) (domain.MovingAverageSeries, error) {
	seed, err := ComputeMovingAverage(klines, window)
	if err != nil {
		return domain.MovingAverageSeries{}, err
	}
	if len(klines) < window {
		return seed, nil
	}

	closes := closePrices(klines)
	multiplier := 2.0 / float64(window+1)
	points := seed.Points
	ema := points[window-1].Value
	for i := window; i < len(closes); i++ {
		ema = (closes[i]-ema)*multiplier + ema
		points[i] = domain.MAPoint{Value: ema, Valid: true}
	}

	seed.Name = fmt.Sprintf("EMA%d", window)
	return seed, nil
}

func closePrices(klines []domain.Kline) []float64 {
	closes := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close()
	}
	return closes
}
