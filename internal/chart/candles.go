package chart

import (
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"klineChart/internal/domain"
)

var _ gochart.Series = (*candlestickSeries)(nil)

// Same colours ECharts uses by default for rising and falling candles.
var (
	risingColor  = drawing.ColorFromHex("eb5454")
	fallingColor = drawing.ColorFromHex("47b262")
)

// candlestickSeries draws [open, close, low, high] tuples as body-and-wick glyphs.
// X values are kline indexes; indexes outside [from, to) are skipped. The series
// provides no values of its own, so the chart's ranges must be set explicitly.
type candlestickSeries struct {
	name        string
	points      []domain.PricePoint
	from, to    int
	barMaxWidth int
}

func (cs *candlestickSeries) GetName() string { return cs.name }

func (cs *candlestickSeries) GetStyle() gochart.Style {
	return gochart.Style{StrokeWidth: 1.0, StrokeColor: risingColor}
}

func (cs *candlestickSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }

func (cs *candlestickSeries) Validate() error { return nil }

func (cs *candlestickSeries) Render(r gochart.Renderer, box gochart.Box, xrange, yrange gochart.Range, _ gochart.Style) {
	halfWidth := (xrange.Translate(1) - xrange.Translate(0)) * 35 / 100
	if limit := cs.barMaxWidth / 2; limit > 0 && halfWidth > limit {
		halfWidth = limit
	}
	if halfWidth < 1 {
		halfWidth = 1
	}

	for i := cs.from; i < cs.to; i++ {
		p := cs.points[i]
		if !finite(p.Open(), p.Close(), p.Low(), p.High()) {
			continue
		}

		color := risingColor
		if p.Close() < p.Open() {
			color = fallingColor
		}
		x := box.Left + xrange.Translate(float64(i))
		yOf := func(v float64) int { return box.Bottom - yrange.Translate(v) }

		r.SetStrokeColor(color)
		r.SetStrokeWidth(1)
		r.MoveTo(x, yOf(p.High()))
		r.LineTo(x, yOf(p.Low()))
		r.Stroke()

		top, bottom := yOf(math.Max(p.Open(), p.Close())), yOf(math.Min(p.Open(), p.Close()))
		if bottom-top < 1 {
			bottom = top + 1
		}
		r.SetStrokeColor(color)
		r.SetFillColor(color)
		r.MoveTo(x-halfWidth, top)
		r.LineTo(x+halfWidth, top)
		r.LineTo(x+halfWidth, bottom)
		r.LineTo(x-halfWidth, bottom)
		r.LineTo(x-halfWidth, top)
		r.Close()
		r.FillStroke()
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
