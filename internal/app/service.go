package app

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"klineChart/config"
	"klineChart/internal/domain"
	"klineChart/internal/feed"
	"klineChart/internal/indicators"
	"klineChart/internal/metrics"
	"klineChart/internal/ports"
)

// ChartService owns the chart's dataset: it runs the loader, reshapes the records,
// computes the averages and publishes the result as one immutable snapshot.
type ChartService struct {
	cfg        *config.Config
	logger     ports.Logger
	loader     ports.FeedLoader
	indicators []indicators.Indicator
	source     string // metrics label for the loader

	// State fields
	mu      sync.RWMutex // Protects dataset; one writer per load, many readers
	dataset domain.Dataset
}

// NewChartService creates a new application service instance.
func NewChartService(
	cfg *config.Config,
	logger ports.Logger,
	loader ports.FeedLoader,
	inds []indicators.Indicator,
) (*ChartService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || loader == nil {
		return nil, fmt.Errorf("missing required dependencies for ChartService")
	}
	for _, ind := range inds {
		if ind.RequiredDataPoints() < 1 {
			return nil, fmt.Errorf("indicator %s: %w", ind.Name(), ports.ErrInvalidWindow)
		}
	}

	source := "file"
	if cfg.FeedURL != "" {
		source = "http"
	}

	return &ChartService{
		cfg:        cfg,
		logger:     logger,
		loader:     loader,
		indicators: inds,
		source:     source,
	}, nil
}

// Dataset returns the current snapshot. Callers must treat it as read-only.
func (s *ChartService) Dataset() domain.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Refresh runs the loader once and publishes the new dataset. On failure the
// previous dataset stays in place and the error is logged and returned.
func (s *ChartService) Refresh(ctx context.Context) (err error) {
	start := time.Now()
	var count int
	defer func() {
		metrics.ObserveFeedLoad(s.source, count, time.Since(start), err)
	}()

	records, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to load kline feed, keeping previous dataset", map[string]interface{}{"source": s.source})
		return fmt.Errorf("load feed: %w", err)
	}

	klines := feed.Reshape(records)
	averages, err := indicators.ComputeAll(ctx, klines, s.indicators...)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to compute moving averages, keeping previous dataset")
		return fmt.Errorf("compute averages: %w", err)
	}

	for _, avg := range averages {
		if n := unparsable(avg); n > 0 {
			s.logger.Warn(ctx, "Moving average has gaps from unparsable closes", map[string]interface{}{
				"series":    avg.Name,
				"gaps":      n,
				"sentinels": avg.SentinelCount(),
			})
		}
	}

	count = len(klines)
	ds := domain.Dataset{Klines: klines, Averages: averages, LoadedAt: time.Now()}

	s.mu.Lock()
	s.dataset = ds
	s.mu.Unlock()

	s.logger.Info(ctx, "Kline dataset loaded", map[string]interface{}{
		"source":  s.source,
		"klines":  count,
		"series":  len(averages),
		"elapsed": time.Since(start).String(),
	})
	return nil
}

// unparsable counts the entries past the warm-up that still carry no number.
func unparsable(avg domain.MovingAverageSeries) int {
	n := 0
	for _, p := range avg.Points {
		if p.Valid && math.IsNaN(p.Value) {
			n++
		}
	}
	return n
}

// Start loads the dataset and then blocks, refreshing on SIGHUP, until the context
// is cancelled or SIGINT/SIGTERM arrives. A failed load is not fatal; the chart
// simply stays blank until a later refresh succeeds.
func (s *ChartService) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting Chart Service...")

	// Handle refresh and graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return s.run(ctx, sigCh)
}

func (s *ChartService) run(ctx context.Context, sigCh <-chan os.Signal) error {
	_ = s.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Main context cancelled, stopping Chart Service")
			return nil
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				s.logger.Info(ctx, "Received refresh signal", map[string]interface{}{"signal": sig.String()})
				_ = s.Refresh(ctx)
				continue
			}
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			return nil
		}
	}
}
