package chart

import (
	"fmt"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"klineChart/internal/domain"
)

const maxPNGTicks = 12

var overlayColors = []drawing.Color{
	drawing.ColorFromHex("5470c6"),
	drawing.ColorFromHex("91cc75"),
	drawing.ColorFromHex("fac858"),
	drawing.ColorFromHex("73c0de"),
	drawing.ColorFromHex("9a60b4"),
}

// PNGEngine rasterises an option with go-chart. It honours the first dataZoom
// window so the image shows what the interactive chart shows on load.
type PNGEngine struct{}

// NewPNGEngine creates a PNG engine.
func NewPNGEngine() *PNGEngine {
	return &PNGEngine{}
}

func (e *PNGEngine) Name() string { return "png" }

func (e *PNGEngine) Init(surface Surface) (Instance, error) {
	inst := &pngInstance{}
	if err := inst.acquire(surface); err != nil {
		return nil, fmt.Errorf("png engine init: %w", err)
	}
	return inst, nil
}

type pngInstance struct {
	instanceBase
}

func (i *pngInstance) SetOption(opt *Option) error {
	if err := i.checkAlive(); err != nil {
		return err
	}
	if opt == nil {
		return fmt.Errorf("png engine: nil option")
	}
	width, height := i.surface.Size()
	c, err := buildCanvas(opt, width, height)
	if err != nil {
		return err
	}
	if err := c.Render(gochart.PNG, i.target); err != nil {
		return fmt.Errorf("png engine: render: %w", err)
	}
	return nil
}

// buildCanvas translates the option into a go-chart chart.
func buildCanvas(opt *Option, width, height int) (*gochart.Chart, error) {
	candles, ok := opt.CandlestickSeries()
	if !ok || len(candles.Candles) == 0 {
		return nil, fmt.Errorf("png engine: option has no candlestick data")
	}
	n := len(candles.Candles)

	from, to := 0, n
	if len(opt.DataZoom) > 0 {
		from, to = zoomWindow(n, opt.DataZoom[0].Start, opt.DataZoom[0].End)
	}

	c := &gochart.Chart{
		Title:  opt.Title.Text,
		Width:  width,
		Height: height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Ticks: categoryTicks(opt.XAxis.Data, from, to),
		},
		YAxis: gochart.YAxis{
			Range: priceRange(opt, from, to),
		},
	}

	c.Series = append(c.Series, &candlestickSeries{
		name:        candles.Name,
		points:      candles.Candles,
		from:        from,
		to:          to,
		barMaxWidth: candles.BarMaxWidth,
	})

	overlay := 0
	for _, s := range opt.Series {
		if s.Type != "line" {
			continue
		}
		xs, ys := linePoints(s.Line, from, to)
		color := overlayColors[overlay%len(overlayColors)]
		overlay++
		if len(xs) == 0 {
			continue
		}
		c.Series = append(c.Series, gochart.ContinuousSeries{
			Name: s.Name,
			Style: gochart.Style{
				StrokeColor: color.WithAlpha(uint8(255 * lineOpacity(s))),
				StrokeWidth: 1.5,
			},
			XValues: xs,
			YValues: ys,
		})
	}

	c.Elements = []gochart.Renderable{gochart.LegendLeft(c)}
	return c, nil
}

// zoomWindow converts percentage bounds into a non-empty [from, to) index window.
func zoomWindow(n int, start, end float64) (int, int) {
	start = math.Max(0, math.Min(100, start))
	end = math.Max(start, math.Min(100, end))
	from := int(math.Floor(float64(n) * start / 100))
	to := int(math.Ceil(float64(n) * end / 100))
	if from >= n {
		from = n - 1
	}
	if to <= from {
		to = from + 1
	}
	return from, to
}

// categoryTicks spreads at most maxPNGTicks labels across the window. go-chart
// derives the x range from the outermost ticks, so two unlabelled ticks half a
// slot outside the window give every category the same width.
func categoryTicks(labels []string, from, to int) []gochart.Tick {
	step := (to - from + maxPNGTicks - 1) / maxPNGTicks
	if step < 1 {
		step = 1
	}
	ticks := make([]gochart.Tick, 0, maxPNGTicks+3)
	ticks = append(ticks, gochart.Tick{Value: float64(from) - 0.5})
	for i := from; i < to && i < len(labels); i += step {
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: labels[i]})
	}
	return append(ticks, gochart.Tick{Value: float64(to) - 0.5})
}

// priceRange covers every finite low/high and overlay value in the window,
// padded by 1% on both sides.
func priceRange(opt *Option, from, to int) *gochart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	observe := func(v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for _, s := range opt.Series {
		for i := from; i < to; i++ {
			switch {
			case s.Type == "candlestick" && i < len(s.Candles):
				observe(s.Candles[i].Low())
				observe(s.Candles[i].High())
			case s.Type == "line" && i < len(s.Line) && s.Line[i].Valid:
				observe(s.Line[i].Value)
			}
		}
	}
	if math.IsInf(lo, 1) {
		return &gochart.ContinuousRange{Min: 0, Max: 1}
	}
	pad := (hi - lo) * 0.01
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.01, 1)
	}
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// linePoints keeps the in-window entries that carry a finite value. Sentinel and NaN
// entries are dropped, so the line starts where the window first fills.
func linePoints(points []domain.MAPoint, from, to int) ([]float64, []float64) {
	var xs, ys []float64
	for i := from; i < to && i < len(points); i++ {
		p := points[i]
		if !p.Valid || !finite(p.Value) {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, p.Value)
	}
	return xs, ys
}

func lineOpacity(s Series) float64 {
	if s.LineStyle == nil || s.LineStyle.Opacity <= 0 || s.LineStyle.Opacity > 1 {
		return 1
	}
	return s.LineStyle.Opacity
}
