package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"klineChart/config"
	"klineChart/internal/adapters/feedclient"
	"klineChart/internal/adapters/logger"
	"klineChart/internal/app"
	"klineChart/internal/chart"
	"klineChart/internal/indicators"
)

type renderOptions struct {
	feed     string
	out      string
	engine   string
	windows  []int
	maType   string
	title    string
	timezone string
	width    int
	height   int
	strict   bool
	timeout  time.Duration
	logLevel string
}

func newRootCmd() *cobra.Command {
	defaults := chart.DefaultSettings()
	opts := renderOptions{}

	cmd := &cobra.Command{
		Use:   "render_chart",
		Short: "Render the kline chart with moving-average overlays into a file",
		Example: `  render_chart --feed ./data/data.json --out chart.html
  render_chart --feed https://example.com/data.json --engine png --out chart.png --windows 7,25`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.feed, "feed", "./data/data.json", "feed URL or file path")
	flags.StringVarP(&opts.out, "out", "o", "chart.html", "output file")
	flags.StringVar(&opts.engine, "engine", "html", "rendering engine: html or png")
	flags.IntSliceVar(&opts.windows, "windows", []int{5, 10, 20, 30}, "moving average windows")
	flags.StringVar(&opts.maType, "type", string(indicators.SimpleMovingAverage), "moving average type: SMA or EMA")
	flags.StringVar(&opts.title, "title", defaults.Title, "chart title")
	flags.StringVar(&opts.timezone, "timezone", "Local", "time zone for the month-day labels")
	flags.IntVar(&opts.width, "width", defaults.Width, "surface width in pixels")
	flags.IntVar(&opts.height, "height", defaults.Height, "surface height in pixels")
	flags.BoolVar(&opts.strict, "strict", false, "reject malformed feed records")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "HTTP feed timeout")
	flags.StringVar(&opts.logLevel, "log-level", "INFO", "log level")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func render(ctx context.Context, opts renderOptions) (err error) {
	maType, err := indicators.ParseMovingAverageType(opts.maType)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", opts.timezone, err)
	}
	engine, err := chart.NewEngine(opts.engine)
	if err != nil {
		return err
	}

	appLogger, err := logger.New(logger.Options{Level: logger.ParseLevel(opts.logLevel)})
	if err != nil {
		return err
	}
	defer func() { _ = appLogger.Sync() }()

	cfg := &config.Config{StrictRecords: opts.strict, FetchTimeout: opts.timeout}
	if strings.HasPrefix(opts.feed, "http://") || strings.HasPrefix(opts.feed, "https://") {
		cfg.FeedURL = opts.feed
	} else {
		cfg.DataFile = opts.feed
	}
	loader := feedclient.New(cfg.FeedURL, cfg.DataFile, cfg.FetchTimeout, cfg.StrictRecords)

	svc, err := app.NewChartService(cfg, appLogger, loader, indicators.NewMovingAverages(maType, opts.windows...))
	if err != nil {
		return err
	}
	if err := svc.Refresh(ctx); err != nil {
		return err
	}
	ds := svc.Dataset()
	if ds.IsEmpty() {
		return fmt.Errorf("feed %s holds no klines", opts.feed)
	}

	presenter, err := chart.NewPresenter(chart.PresenterConfig{
		Engine:  engine,
		Surface: chart.NewFileSurface("main", opts.width, opts.height, opts.out),
		Settings: chart.Settings{
			Title:    opts.title,
			Location: loc,
			Width:    opts.width,
			Height:   opts.height,
		},
		Logger: appLogger,
	})
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, presenter.Close()) }()

	if err := presenter.Render(ctx, ds); err != nil {
		return err
	}
	appLogger.Info(ctx, "Chart written", map[string]interface{}{
		"path":   opts.out,
		"engine": engine.Name(),
		"klines": len(ds.Klines),
	})
	return nil
}
