package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestKline_PricePointOrder(t *testing.T) {
	k := Kline{OpenPrice: "10", HighPrice: "12", LowPrice: "9", ClosePrice: "11"}

	p := k.PricePoint()
	assert.Equal(t, PricePoint{10, 11, 9, 12}, p)
	assert.Equal(t, 10.0, p.Open())
	assert.Equal(t, 11.0, p.Close())
	assert.Equal(t, 9.0, p.Low())
	assert.Equal(t, 12.0, p.High())
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		isNaN bool
	}{
		{name: "integer", input: "42", want: 42},
		{name: "decimal", input: "64123.45000000", want: 64123.45},
		{name: "empty", input: "", isNaN: true},
		{name: "garbage", input: "abc", isNaN: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.input)
			if tt.isNaN {
				assert.True(t, math.IsNaN(got), "expected NaN, got %v", got)
				return
			}
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPricePoint_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(PricePoint{10, 11.5, 9, math.NaN()})
	require.NoError(t, err)
	assert.JSONEq(t, `[10, 11.5, 9, "-"]`, string(b))
}

func TestMAPoint_MarshalJSON(t *testing.T) {
	series := []MAPoint{{}, {Value: 11.5, Valid: true}, {Value: math.NaN(), Valid: true}}

	b, err := json.Marshal(series)
	require.NoError(t, err)
	assert.Equal(t, `["-",11.5,"-"]`, string(b))
}

func TestKline_Row(t *testing.T) {
	k := Kline{
		OpenTime:                 0,
		OpenPrice:                "10",
		HighPrice:                "12",
		LowPrice:                 "9",
		ClosePrice:               "11",
		Volume:                   "100",
		CloseTime:                60000,
		QuoteAssetVolume:         "1100",
		NumberOfTrades:           5,
		TakerBuyBaseAssetVolume:  "50",
		TakerBuyQuoteAssetVolume: "550",
	}

	row := k.Row()
	require.Len(t, row, RawRecordWidth)

	b, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `[0,"10","12","9","11","100",60000,"1100",5,"50","550","0"]`, string(b))
}

func TestRawRecord_FieldOutOfRange(t *testing.T) {
	rec := RawRecord(gjson.Parse(`[1, "2"]`).Array())

	assert.Equal(t, int64(1), rec.Field(ColOpenTime).Int())
	assert.Equal(t, "2", rec.Field(ColOpenPrice).String())
	assert.False(t, rec.Field(ColClosePrice).Exists())
	assert.Equal(t, "", rec.Field(ColClosePrice).String())
	assert.False(t, rec.Field(-1).Exists())
}

func TestMovingAverageSeries_SentinelCount(t *testing.T) {
	s := MovingAverageSeries{Points: []MAPoint{{}, {}, {Value: 1, Valid: true}}}
	assert.Equal(t, 2, s.SentinelCount())
	assert.True(t, Dataset{}.IsEmpty())
}
