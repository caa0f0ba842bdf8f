// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultError   = "error"
)

var (
	feedLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klinechart_feed_loads_total",
			Help: "Number of feed loads by source and result",
		},
		[]string{"source", "result"},
	)

	feedLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "klinechart_feed_load_duration_seconds",
			Help:    "Feed load latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	feedRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "klinechart_feed_records",
			Help: "Number of klines in the published dataset",
		},
	)

	rendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klinechart_renders_total",
			Help: "Number of chart renders by engine and result",
		},
		[]string{"engine", "result"},
	)
)

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// ObserveFeedLoad records one loader run. The records gauge only moves on success,
// since a failed load keeps the previous dataset.
func ObserveFeedLoad(source string, records int, took time.Duration, err error) {
	feedLoadsTotal.WithLabelValues(source, result(err)).Inc()
	feedLoadDuration.WithLabelValues(source).Observe(took.Seconds())
	if err == nil {
		feedRecords.Set(float64(records))
	}
}

// ObserveRender records one render attempt. Its signature matches the presenter's
// OnRender hook.
func ObserveRender(engine string, err error) {
	rendersTotal.WithLabelValues(engine, result(err)).Inc()
}
