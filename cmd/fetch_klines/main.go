package main

import (
	"context"
	"log" // Use standard log only for fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"klineChart/config"
	"klineChart/internal/adapters/binanceclient"
	"klineChart/internal/adapters/logger"
	"klineChart/internal/adapters/sqlite"
	"klineChart/internal/app"
)

var csvFile string

var rootCmd = &cobra.Command{
	Use:   "fetch_klines",
	Short: "Archive klines from Binance and export the chart's static feed",
	Long: `fetch_klines extends the SQLite kline archive with everything newer than its
latest row (or FETCH_DAYS of history on the first run), then writes the newest
FEED_LIMIT klines to DATA_FILE in the 12-column feed format.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&csvFile, "csv", "", "also write the exported klines to this CSV file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("FATAL: Failed to load configuration: %v", err)
		return err
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, OutputFile: cfg.LogFile})
	if err != nil {
		log.Printf("FATAL: Failed to initialize logger: %v", err)
		return err
	}
	defer func() { _ = appLogger.Sync() }()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance client")
		return err
	}
	if err := binanceClient.Ping(ctx); err != nil {
		appLogger.Error(ctx, err, "FATAL: Binance API is not reachable")
		return err
	}
	appLogger.Info(ctx, "Binance client initialized")

	// 4. Initialize Repository (kline archive)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.ArchiveDBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize kline archive")
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing kline archive")
		}
	}()

	// 5. Sync the archive and export the feed
	exporter, err := app.NewFeedExporter(app.ExportConfig{
		Symbol:    cfg.Symbol,
		Interval:  cfg.Interval,
		FetchDays: cfg.FetchDays,
		FeedLimit: cfg.FeedLimit,
		DataFile:  cfg.DataFile,
		CSVFile:   csvFile,
	}, appLogger, binanceClient, repo)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize feed exporter")
		return err
	}
	if err := exporter.Run(ctx); err != nil {
		appLogger.Error(ctx, err, "Feed export failed")
		return err
	}
	return nil
}
