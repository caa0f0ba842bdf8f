// Package feed turns the static kline feed into domain klines and back.
//
// The feed is a JSON array of 12-column positional rows, oldest first:
//
//	[[openTime, "open", "high", "low", "close", "volume", closeTime,
//	  "quoteVolume", trades, "takerBuyBase", "takerBuyQuote", "unused"], ...]
package feed

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"klineChart/internal/domain"
	"klineChart/internal/ports"
)

// Decode parses a feed document into positional records.
// Rows are not validated here; see Validate.
func Decode(body []byte) ([]domain.RawRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode feed: %w: invalid JSON", ports.ErrFeedMalformed)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, fmt.Errorf("decode feed: %w: top-level value is %s", ports.ErrFeedMalformed, doc.Type)
	}

	rows := doc.Array()
	records := make([]domain.RawRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.RawRecord(row.Array()))
	}
	return records, nil
}

// Reshape maps every positional record onto a named Kline, preserving order.
// Field 11 is dropped. Missing or mistyped columns come through as zero values,
// which later parse to NaN rather than failing the whole feed.
func Reshape(records []domain.RawRecord) []domain.Kline {
	klines := make([]domain.Kline, len(records))
	for i, r := range records {
		klines[i] = domain.Kline{
			OpenTime:                 r.Field(domain.ColOpenTime).Int(),
			OpenPrice:                r.Field(domain.ColOpenPrice).String(),
			HighPrice:                r.Field(domain.ColHighPrice).String(),
			LowPrice:                 r.Field(domain.ColLowPrice).String(),
			ClosePrice:               r.Field(domain.ColClosePrice).String(),
			Volume:                   r.Field(domain.ColVolume).String(),
			CloseTime:                r.Field(domain.ColCloseTime).Int(),
			QuoteAssetVolume:         r.Field(domain.ColQuoteAssetVolume).String(),
			NumberOfTrades:           r.Field(domain.ColNumberOfTrades).Int(),
			TakerBuyBaseAssetVolume:  r.Field(domain.ColTakerBuyBaseAssetVolume).String(),
			TakerBuyQuoteAssetVolume: r.Field(domain.ColTakerBuyQuoteAssetVolume).String(),
		}
	}
	return klines
}

// Encode writes klines back out in the feed's positional form.
func Encode(klines []domain.Kline) ([]byte, error) {
	rows := make([][]any, len(klines))
	for i, k := range klines {
		rows[i] = k.Row()
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}
	return b, nil
}
