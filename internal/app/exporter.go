package app

import (
	"context"
	"fmt"
	"time"

	"klineChart/internal/domain"
	"klineChart/internal/feed"
	"klineChart/internal/ports"
	"klineChart/internal/utils"
)

// ExportConfig selects what the exporter pulls and how much of it is published.
type ExportConfig struct {
	Symbol    string
	Interval  string
	FetchDays int // history pulled on the first run, when the archive is empty
	FeedLimit int // newest rows written to the feed document
	DataFile  string
	CSVFile   string // optional CSV copy of the exported rows
}

// FeedExporter produces the static feed: it extends the raw kline archive from the
// exchange and writes the newest rows out as the chart's data document.
type FeedExporter struct {
	cfg     ExportConfig
	logger  ports.Logger
	source  ports.KlineSource
	archive ports.KlineArchive
	now     func() time.Time
}

// NewFeedExporter creates an exporter.
func NewFeedExporter(cfg ExportConfig, logger ports.Logger, source ports.KlineSource, archive ports.KlineArchive) (*FeedExporter, error) {
	if logger == nil || source == nil || archive == nil {
		return nil, fmt.Errorf("missing required dependencies for FeedExporter")
	}
	if cfg.Symbol == "" || cfg.Interval == "" || cfg.DataFile == "" {
		return nil, fmt.Errorf("symbol, interval and data file are required")
	}
	if cfg.FetchDays <= 0 {
		return nil, fmt.Errorf("fetch days must be positive, got %d", cfg.FetchDays)
	}
	return &FeedExporter{cfg: cfg, logger: logger, source: source, archive: archive, now: time.Now}, nil
}

// Sync fetches klines newer than the archive holds and stores them. The newest
// archived kline is fetched again because it may still have been open last time.
func (e *FeedExporter) Sync(ctx context.Context) (int, error) {
	end := e.now()
	start := end.AddDate(0, 0, -e.cfg.FetchDays)

	latest, ok, err := e.archive.LatestOpenTime(ctx, e.cfg.Symbol, e.cfg.Interval)
	if err != nil {
		return 0, fmt.Errorf("failed to read archive state: %w", err)
	}
	if ok {
		start = time.UnixMilli(latest)
	}

	fields := map[string]interface{}{
		"symbol":   e.cfg.Symbol,
		"interval": e.cfg.Interval,
		"start":    start.UTC().Format(time.RFC3339),
		"end":      end.UTC().Format(time.RFC3339),
	}
	e.logger.Info(ctx, "Fetching klines", fields)

	klines, err := e.source.GetKlinesRange(ctx, e.cfg.Symbol, e.cfg.Interval, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch klines: %w", err)
	}
	n, err := e.archive.SaveKlines(ctx, e.cfg.Symbol, e.cfg.Interval, klines)
	if err != nil {
		return 0, fmt.Errorf("failed to archive klines: %w", err)
	}
	e.logger.Info(ctx, "Klines archived", map[string]interface{}{"symbol": e.cfg.Symbol, "count": n})
	return n, nil
}

// Export writes the newest FeedLimit archived klines as the feed document, and as
// CSV when a CSV file is configured.
func (e *FeedExporter) Export(ctx context.Context) ([]domain.Kline, error) {
	klines, err := e.archive.FindKlines(ctx, e.cfg.Symbol, e.cfg.Interval, e.cfg.FeedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to read archived klines: %w", err)
	}

	body, err := feed.Encode(klines)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feed: %w", err)
	}
	if err := utils.WriteFileAtomic(e.cfg.DataFile, body); err != nil {
		return nil, fmt.Errorf("failed to write feed: %w", err)
	}
	e.logger.Info(ctx, "Feed exported", map[string]interface{}{"path": e.cfg.DataFile, "count": len(klines)})

	if e.cfg.CSVFile != "" {
		if err := utils.WriteKlinesToCSV(klines, e.cfg.CSVFile); err != nil {
			return nil, fmt.Errorf("failed to write CSV: %w", err)
		}
		e.logger.Info(ctx, "CSV exported", map[string]interface{}{"path": e.cfg.CSVFile})
	}
	return klines, nil
}

// Run performs one Sync followed by one Export.
func (e *FeedExporter) Run(ctx context.Context) error {
	if _, err := e.Sync(ctx); err != nil {
		return err
	}
	_, err := e.Export(ctx)
	return err
}
