package chart

import (
	"encoding/json"
	"fmt"
	"time"

	"klineChart/internal/domain"
)

// CandlestickSeriesName is the legend name of the price series.
const CandlestickSeriesName = "Day"

// Option is the declarative chart configuration handed to an engine.
// Its JSON form is an ECharts option object.
type Option struct {
	Title    Title      `json:"title"`
	Tooltip  Tooltip    `json:"tooltip"`
	Legend   Legend     `json:"legend"`
	Grid     Grid       `json:"grid"`
	XAxis    XAxis      `json:"xAxis"`
	YAxis    YAxis      `json:"yAxis"`
	DataZoom []DataZoom `json:"dataZoom"`
	Series   []Series   `json:"series"`
}

type Title struct {
	Text string `json:"text"`
	Left int    `json:"left"`
}

type AxisPointer struct {
	Type string `json:"type"`
}

type Tooltip struct {
	Trigger     string      `json:"trigger"`
	AxisPointer AxisPointer `json:"axisPointer"`
}

type Legend struct {
	Data []string `json:"data"`
}

type Grid struct {
	Left   string `json:"left"`
	Right  string `json:"right"`
	Bottom string `json:"bottom"`
	Top    string `json:"top"`
}

type AxisLine struct {
	OnZero bool `json:"onZero"`
}

type Toggle struct {
	Show bool `json:"show"`
}

type XAxis struct {
	Type        string   `json:"type"`
	Data        []string `json:"data"`
	BoundaryGap bool     `json:"boundaryGap"`
	AxisLine    AxisLine `json:"axisLine"`
	SplitLine   Toggle   `json:"splitLine"`
}

type YAxis struct {
	Scale       bool       `json:"scale"`
	BoundaryGap [2]float64 `json:"boundaryGap"`
	SplitArea   Toggle     `json:"splitArea"`
}

type DataZoom struct {
	Type  string  `json:"type"`
	Show  bool    `json:"show,omitempty"`
	Top   string  `json:"top,omitempty"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type LineStyle struct {
	Opacity float64 `json:"opacity"`
}

// Series is one entry of the option's series list. Candles is set for the
// candlestick series, Line for the moving-average overlays.
type Series struct {
	Name        string              `json:"name"`
	Type        string              `json:"type"`
	BarMaxWidth int                 `json:"barMaxWidth,omitempty"`
	Smooth      bool                `json:"smooth,omitempty"`
	LineStyle   *LineStyle          `json:"lineStyle,omitempty"`
	Candles     []domain.PricePoint `json:"-"`
	Line        []domain.MAPoint    `json:"-"`
}

// MarshalJSON emits whichever data slice the series carries under "data".
func (s Series) MarshalJSON() ([]byte, error) {
	type plain Series
	var data any = s.Line
	if s.Type == "candlestick" {
		data = s.Candles
	}
	return json.Marshal(struct {
		plain
		Data any `json:"data"`
	}{plain: plain(s), Data: data})
}

// Settings are the presentation knobs that do not come from the data.
type Settings struct {
	Title    string
	Location *time.Location
	Width    int
	Height   int
}

// DefaultSettings matches the stock "Bitcoin Trend" chart.
func DefaultSettings() Settings {
	return Settings{
		Title:    "Bitcoin Trend",
		Location: time.Local,
		Width:    1280,
		Height:   384,
	}
}

// Labels builds one "month-day" category label per kline, in loc.
func Labels(klines []domain.Kline, loc *time.Location) []string {
	if loc == nil {
		loc = time.Local
	}
	labels := make([]string, len(klines))
	for i, k := range klines {
		t := k.OpenAt().In(loc)
		labels[i] = fmt.Sprintf("%d-%d", int(t.Month()), t.Day())
	}
	return labels
}

// PricePoints builds the candlestick tuples in kline order.
func PricePoints(klines []domain.Kline) []domain.PricePoint {
	points := make([]domain.PricePoint, len(klines))
	for i, k := range klines {
		points[i] = k.PricePoint()
	}
	return points
}

// BuildOption assembles the full chart option for a dataset.
func BuildOption(settings Settings, ds domain.Dataset) *Option {
	legend := []string{CandlestickSeriesName}
	series := []Series{{
		Name:        CandlestickSeriesName,
		Type:        "candlestick",
		BarMaxWidth: 20,
		Candles:     PricePoints(ds.Klines),
	}}
	for _, avg := range ds.Averages {
		legend = append(legend, avg.Name)
		series = append(series, Series{
			Name:      avg.Name,
			Type:      "line",
			Smooth:    true,
			LineStyle: &LineStyle{Opacity: 0.5},
			Line:      avg.Points,
		})
	}

	return &Option{
		Title: Title{Text: settings.Title, Left: 0},
		Tooltip: Tooltip{
			Trigger:     "axis",
			AxisPointer: AxisPointer{Type: "cross"},
		},
		Legend: Legend{Data: legend},
		Grid:   Grid{Left: "10%", Right: "10%", Bottom: "15%", Top: "10%"},
		XAxis: XAxis{
			Type:        "category",
			Data:        Labels(ds.Klines, settings.Location),
			BoundaryGap: true,
			AxisLine:    AxisLine{OnZero: false},
			SplitLine:   Toggle{Show: false},
		},
		YAxis: YAxis{
			Scale:       true,
			BoundaryGap: [2]float64{0.01, 0.01},
			SplitArea:   Toggle{Show: true},
		},
		DataZoom: []DataZoom{
			{Type: "inside", Start: 50, End: 100},
			{Type: "slider", Show: true, Top: "90%", Start: 50, End: 100},
		},
		Series: series,
	}
}

// CandlestickSeries returns the price series of the option, if present.
func (o *Option) CandlestickSeries() (Series, bool) {
	for _, s := range o.Series {
		if s.Type == "candlestick" {
			return s, true
		}
	}
	return Series{}, false
}
