package feed

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"klineChart/internal/domain"
	"klineChart/internal/ports"
)

var (
	integerColumns = []int{domain.ColOpenTime, domain.ColCloseTime, domain.ColNumberOfTrades}
	decimalColumns = []int{
		domain.ColOpenPrice, domain.ColHighPrice, domain.ColLowPrice, domain.ColClosePrice,
		domain.ColVolume, domain.ColQuoteAssetVolume,
		domain.ColTakerBuyBaseAssetVolume, domain.ColTakerBuyQuoteAssetVolume,
	}
)

// Validate checks every record's arity and column types.
// It reports the first offending record.
func Validate(records []domain.RawRecord) error {
	for i, r := range records {
		if err := validateRecord(r); err != nil {
			return fmt.Errorf("record %d: %w: %v", i, ports.ErrInvalidRecord, err)
		}
	}
	return nil
}

func validateRecord(r domain.RawRecord) error {
	if len(r) != domain.RawRecordWidth {
		return fmt.Errorf("expected %d fields, got %d", domain.RawRecordWidth, len(r))
	}
	for _, col := range integerColumns {
		f := r[col]
		if f.Type != gjson.Number || float64(f.Int()) != f.Num {
			return fmt.Errorf("field %d: expected integer, got %q", col, f.Raw)
		}
	}
	for _, col := range decimalColumns {
		f := r[col]
		if f.Type != gjson.String {
			return fmt.Errorf("field %d: expected decimal string, got %q", col, f.Raw)
		}
		if _, err := decimal.NewFromString(f.Str); err != nil {
			return fmt.Errorf("field %d: %w", col, err)
		}
	}
	return nil
}
