package domain

import (
	"math"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// RawRecordWidth is the number of positional columns in a feed row.
const RawRecordWidth = 12

// Column positions of a RawRecord.
const (
	ColOpenTime = iota
	ColOpenPrice
	ColHighPrice
	ColLowPrice
	ColClosePrice
	ColVolume
	ColCloseTime
	ColQuoteAssetVolume
	ColNumberOfTrades
	ColTakerBuyBaseAssetVolume
	ColTakerBuyQuoteAssetVolume
	ColUnused
)

// RawRecord is one positional kline row exactly as delivered by the feed.
// Reading a column past the end yields the zero gjson.Result ("" / 0).
type RawRecord []gjson.Result

// Field returns the value at column i, or the zero result if the row is too short.
func (r RawRecord) Field(i int) gjson.Result {
	if i < 0 || i >= len(r) {
		return gjson.Result{}
	}
	return r[i]
}

// Kline represents a single candlestick interval with named fields.
// Prices and volumes are kept as decimal strings to preserve the feed's precision.
type Kline struct {
	OpenTime                 int64  `json:"openTime"`                 // Open time in milliseconds
	OpenPrice                string `json:"openPrice"`                // Opening price
	HighPrice                string `json:"highPrice"`                // Highest price
	LowPrice                 string `json:"lowPrice"`                 // Lowest price
	ClosePrice               string `json:"closePrice"`               // Closing price
	Volume                   string `json:"volume"`                   // Base asset volume
	CloseTime                int64  `json:"closeTime"`                // Close time in milliseconds
	QuoteAssetVolume         string `json:"quoteAssetVolume"`         // Quote asset volume
	NumberOfTrades           int64  `json:"numberOfTrades"`           // Number of trades
	TakerBuyBaseAssetVolume  string `json:"takerBuyBaseAssetVolume"`  // Taker buy base asset volume
	TakerBuyQuoteAssetVolume string `json:"takerBuyQuoteAssetVolume"` // Taker buy quote asset volume
}

// OpenAt returns the open time as a time.Time in the local zone.
func (k Kline) OpenAt() time.Time {
	return time.UnixMilli(k.OpenTime)
}

// Close returns the parsed close price, NaN if it cannot be parsed.
func (k Kline) Close() float64 {
	return ParsePrice(k.ClosePrice)
}

// PricePoint returns the candlestick tuple for this kline.
func (k Kline) PricePoint() PricePoint {
	return PricePoint{
		ParsePrice(k.OpenPrice),
		ParsePrice(k.ClosePrice),
		ParsePrice(k.LowPrice),
		ParsePrice(k.HighPrice),
	}
}

// Row converts the kline back into its 12-column wire form.
func (k Kline) Row() []any {
	return []any{
		k.OpenTime,
		k.OpenPrice,
		k.HighPrice,
		k.LowPrice,
		k.ClosePrice,
		k.Volume,
		k.CloseTime,
		k.QuoteAssetVolume,
		k.NumberOfTrades,
		k.TakerBuyBaseAssetVolume,
		k.TakerBuyQuoteAssetVolume,
		"0",
	}
}

// ParsePrice parses a decimal string into a float64. Anything unparsable is NaN.
func ParsePrice(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
