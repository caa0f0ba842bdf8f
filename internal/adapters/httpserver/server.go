// Package httpserver serves the chart page, its PNG rendition and the data behind them.
package httpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"klineChart/internal/chart"
	"klineChart/internal/domain"
	"klineChart/internal/metrics"
	"klineChart/internal/ports"
)

const (
	surfaceID       = "main"
	shutdownTimeout = 5 * time.Second
)

// DatasetProvider exposes the current dataset snapshot.
type DatasetProvider interface {
	Dataset() domain.Dataset
}

// Options configures the server.
type Options struct {
	Addr     string
	DataFile string // static feed document published at /data.json
	Settings chart.Settings
}

// Server is the chart's HTTP surface. Every render request gets its own presenter
// and engine instance.
type Server struct {
	opts   Options
	logger ports.Logger
	data   DatasetProvider
	router *gin.Engine
}

// New creates the server and registers its routes.
func New(opts Options, logger ports.Logger, data DatasetProvider) (*Server, error) {
	if logger == nil || data == nil {
		return nil, fmt.Errorf("missing required dependencies for Server")
	}

	r := gin.New()
	s := &Server{opts: opts, logger: logger, data: data, router: r}

	r.Use(gin.Recovery(), s.logRequests())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		AllowMethods:  []string{"GET"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/", s.handlePage)
	r.GET("/chart.png", s.handlePNG)
	r.GET("/data.json", s.handleFeedFile)

	r.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/api/klines", s.handleKlines)
	r.GET("/api/chart/option", s.handleOption)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s, nil
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.opts.Addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": s.opts.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info(ctx, "HTTP server stopped")
	return nil
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug(c.Request.Context(), "HTTP request", map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		})
	}
}

// handlePage serves the interactive page. Before any data has loaded the page
// carries an empty surface and no chart.
func (s *Server) handlePage(c *gin.Context) {
	var buf bytes.Buffer
	surface := chart.NewWriterSurface(surfaceID, s.opts.Settings.Width, s.opts.Settings.Height, &buf)

	rendered, err := s.render(c.Request.Context(), chart.NewHTMLEngine(), surface)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !rendered {
		if err := chart.WriteBlankPage(&buf, surface, s.opts.Settings.Title); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handlePNG(c *gin.Context) {
	var buf bytes.Buffer
	surface := chart.NewWriterSurface(surfaceID, s.opts.Settings.Width, s.opts.Settings.Height, &buf)

	rendered, err := s.render(c.Request.Context(), chart.NewPNGEngine(), surface)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !rendered {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ports.ErrNoData.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// render draws the current dataset once and releases the instance before returning.
func (s *Server) render(ctx context.Context, engine chart.Engine, surface chart.Surface) (bool, error) {
	p, err := chart.NewPresenter(chart.PresenterConfig{
		Engine:   engine,
		Surface:  surface,
		Settings: s.opts.Settings,
		Logger:   s.logger,
		OnRender: metrics.ObserveRender,
	})
	if err != nil {
		return false, err
	}

	if err := p.Render(ctx, s.data.Dataset()); err != nil {
		s.logger.Error(ctx, err, "Failed to render chart", map[string]interface{}{"engine": engine.Name()})
		return false, err
	}
	rendered := p.State() == chart.StateRendered
	if err := p.Close(); err != nil {
		s.logger.Error(ctx, err, "Failed to dispose chart instance", map[string]interface{}{"engine": engine.Name()})
		return false, err
	}
	return rendered, nil
}

func (s *Server) handleFeedFile(c *gin.Context) {
	if s.opts.DataFile == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": ports.ErrNotFound.Error()})
		return
	}
	if _, err := os.Stat(s.opts.DataFile); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": ports.ErrNotFound.Error()})
		return
	}
	c.Header("Content-Type", "application/json")
	c.File(s.opts.DataFile)
}

func (s *Server) handleKlines(c *gin.Context) {
	c.JSON(http.StatusOK, s.data.Dataset())
}

func (s *Server) handleOption(c *gin.Context) {
	ds := s.data.Dataset()
	if ds.IsEmpty() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ports.ErrNoData.Error()})
		return
	}
	c.JSON(http.StatusOK, chart.BuildOption(s.opts.Settings, ds))
}
