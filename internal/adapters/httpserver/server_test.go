package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klineChart/internal/chart"
	"klineChart/internal/domain"
	"klineChart/internal/indicators"
	"klineChart/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticDataset struct {
	ds domain.Dataset
}

func (s staticDataset) Dataset() domain.Dataset { return s.ds }

func loadedDataset(t *testing.T) domain.Dataset {
	t.Helper()
	klines := []domain.Kline{
		{OpenTime: 1709769600000, OpenPrice: "10", HighPrice: "12", LowPrice: "9", ClosePrice: "11"},
		{OpenTime: 1709856000000, OpenPrice: "11", HighPrice: "13", LowPrice: "10", ClosePrice: "12"},
	}
	avgs, err := indicators.ComputeAll(context.Background(), klines,
		indicators.NewMovingAverages(indicators.SimpleMovingAverage, 1, 2)...)
	require.NoError(t, err)
	return domain.Dataset{Klines: klines, Averages: avgs, LoadedAt: time.Now()}
}

func newTestServer(t *testing.T, ds domain.Dataset, dataFile string) http.Handler {
	t.Helper()
	settings := chart.DefaultSettings()
	settings.Location = time.UTC
	srv, err := New(Options{DataFile: dataFile, Settings: settings}, ports.NopLogger{}, staticDataset{ds})
	require.NoError(t, err)
	return srv.Handler()
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.ServeHTTP(w, req)
	return w
}

func TestNew_MissingDependencies(t *testing.T) {
	_, err := New(Options{}, nil, staticDataset{})
	assert.Error(t, err)
	_, err = New(Options{}, ports.NopLogger{}, nil)
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	w := get(newTestServer(t, domain.Dataset{}, ""), "/api/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestPage_Rendered(t *testing.T) {
	w := get(newTestServer(t, loadedDataset(t), ""), "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	assert.Contains(t, body, "echarts.init")
	assert.Contains(t, body, `"legend":{"data":["Day","MA1","MA2"]}`)
	assert.Contains(t, body, `"data":["3-7","3-8"]`)
}

func TestPage_BlankWhenIdle(t *testing.T) {
	w := get(newTestServer(t, domain.Dataset{}, ""), "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<div id="main"`)
	assert.NotContains(t, w.Body.String(), "echarts.init")
}

func TestChartPNG(t *testing.T) {
	w := get(newTestServer(t, loadedDataset(t), ""), "/chart.png")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = get(newTestServer(t, domain.Dataset{}, ""), "/chart.png")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestKlinesAPI(t *testing.T) {
	w := get(newTestServer(t, loadedDataset(t), ""), "/api/klines")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Klines   []domain.Kline `json:"klines"`
		Averages []struct {
			Name   string            `json:"name"`
			Points []json.RawMessage `json:"points"`
		} `json:"averages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got.Klines, 2)
	require.Len(t, got.Averages, 2)
	assert.Equal(t, "MA2", got.Averages[1].Name)
	assert.Equal(t, `"-"`, string(got.Averages[1].Points[0]))
	assert.Equal(t, `11.5`, string(got.Averages[1].Points[1]))
}

func TestChartOptionAPI(t *testing.T) {
	w := get(newTestServer(t, loadedDataset(t), ""), "/api/chart/option")
	require.Equal(t, http.StatusOK, w.Code)

	var opt map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opt))
	assert.JSONEq(t, `{"text":"Bitcoin Trend","left":0}`, string(opt["title"]))

	w = get(newTestServer(t, domain.Dataset{}, ""), "/api/chart/option")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestFeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	doc := `[[1709769600000,"10","12","9","11","100",1709855999999,"1000",50,"60","600","0"]]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	w := get(newTestServer(t, domain.Dataset{}, path), "/data.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, doc, w.Body.String())

	w = get(newTestServer(t, domain.Dataset{}, filepath.Join(t.TempDir(), "missing.json")), "/data.json")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, loadedDataset(t), "")
	get(h, "/chart.png")

	w := get(h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "klinechart_renders_total")
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	settings := chart.DefaultSettings()
	srv, err := New(Options{Addr: "127.0.0.1:0", Settings: settings}, ports.NopLogger{}, staticDataset{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
