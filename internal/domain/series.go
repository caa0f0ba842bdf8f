package domain

import (
	"math"
	"strconv"
	"time"
)

// Sentinel is the textual placeholder for "no value". Chart engines render it as a gap.
const Sentinel = "-"

// PricePoint is the candlestick tuple in [open, close, low, high] order.
type PricePoint [4]float64

func (p PricePoint) Open() float64  { return p[0] }
func (p PricePoint) Close() float64 { return p[1] }
func (p PricePoint) Low() float64   { return p[2] }
func (p PricePoint) High() float64  { return p[3] }

// MarshalJSON encodes the tuple as a JSON array. NaN and Inf become the sentinel,
// since JSON has no representation for them.
func (p PricePoint) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 64)
	buf = append(buf, '[')
	for i, v := range p {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendNumber(buf, v)
	}
	buf = append(buf, ']')
	return buf, nil
}

// MAPoint is one moving-average entry. Valid is false while the window is not yet full.
type MAPoint struct {
	Value float64
	Valid bool
}

// MarshalJSON encodes the point as a number, or the sentinel when there is no value.
func (p MAPoint) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte(`"` + Sentinel + `"`), nil
	}
	return appendNumber(nil, p.Value), nil
}

// MovingAverageSeries is aligned index-for-index with the klines it was computed from.
type MovingAverageSeries struct {
	Name   string    `json:"name"`
	Window int       `json:"window"`
	Points []MAPoint `json:"points"`
}

// SentinelCount returns the number of entries that carry no value.
func (s MovingAverageSeries) SentinelCount() int {
	n := 0
	for _, p := range s.Points {
		if !p.Valid {
			n++
		}
	}
	return n
}

// Dataset is the state of one load: the klines and every average computed from them.
// It is replaced as a whole on refresh and never mutated after publication.
type Dataset struct {
	Klines   []Kline               `json:"klines"`
	Averages []MovingAverageSeries `json:"averages"`
	LoadedAt time.Time             `json:"loadedAt"`
}

// IsEmpty reports whether the dataset holds no klines.
func (d Dataset) IsEmpty() bool {
	return len(d.Klines) == 0
}

func appendNumber(buf []byte, v float64) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(buf, `"`+Sentinel+`"`...)
	}
	return strconv.AppendFloat(buf, v, 'f', -1, 64)
}
