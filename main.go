package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"

	"klineChart/config"
	"klineChart/internal/adapters/feedclient"
	"klineChart/internal/adapters/httpserver"
	"klineChart/internal/adapters/logger"
	"klineChart/internal/app"
	"klineChart/internal/chart"
	"klineChart/internal/indicators"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, OutputFile: cfg.LogFile})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Feed Loader
	loader := feedclient.New(cfg.FeedURL, cfg.DataFile, cfg.FetchTimeout, cfg.StrictRecords)
	appLogger.Info(context.Background(), "Feed loader initialized", map[string]interface{}{
		"url":    cfg.FeedURL,
		"file":   cfg.DataFile,
		"strict": cfg.StrictRecords,
	})

	// 4. Initialize Indicators
	inds := indicators.NewMovingAverages(cfg.MAType, cfg.MAPeriods...)

	// 5. Initialize Application Service
	chartService, err := app.NewChartService(cfg, appLogger, loader, inds)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize chart service")
		log.Fatalf("FATAL: Failed to initialize chart service: %v", err)
	}
	appLogger.Info(context.Background(), "Chart service initialized")

	// 6. Initialize HTTP Server
	if cfg.LogLevel > logger.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	server, err := httpserver.New(httpserver.Options{
		Addr:     cfg.ListenAddr,
		DataFile: cfg.DataFile,
		Settings: chart.Settings{
			Title:    cfg.ChartTitle,
			Location: cfg.LabelLocation,
			Width:    cfg.ChartWidth,
			Height:   cfg.ChartHeight,
		},
	}, appLogger, chartService)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize HTTP server")
		log.Fatalf("FATAL: Failed to initialize HTTP server: %v", err)
	}

	// 7. Start the Server and the Service
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var serverErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		serverErr = server.Run(ctx)
		cancel() // a dead listener stops the service too
	}()

	serviceErr := chartService.Start(ctx)
	cancel()
	wg.Wait()

	if err := multierr.Combine(serviceErr, serverErr); err != nil {
		appLogger.Error(context.Background(), err, "Chart server exited with error")
		_ = appLogger.Sync()
		log.Fatalf("FATAL: Chart server exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
