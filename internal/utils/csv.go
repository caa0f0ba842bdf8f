package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"klineChart/internal/domain"
)

var csvHeader = []string{
	"open_time", "open", "high", "low", "close", "volume", "close_time",
	"quote_asset_volume", "number_of_trades", "taker_buy_base_asset_volume", "taker_buy_quote_asset_volume",
}

// WriteKlinesToCSV writes one row per kline with RFC3339 UTC timestamps.
func WriteKlinesToCSV(klines []domain.Kline, filename string) (err error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", filename, err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, file.Close()) }()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, k := range klines {
		if err := writer.Write([]string{
			k.OpenAt().UTC().Format(time.RFC3339),
			k.OpenPrice,
			k.HighPrice,
			k.LowPrice,
			k.ClosePrice,
			k.Volume,
			time.UnixMilli(k.CloseTime).UTC().Format(time.RFC3339),
			k.QuoteAssetVolume,
			strconv.FormatInt(k.NumberOfTrades, 10),
			k.TakerBuyBaseAssetVolume,
			k.TakerBuyQuoteAssetVolume,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFileAtomic replaces filename with data via a temp file and rename, so a
// reader of the static feed never sees a half-written document.
func WriteFileAtomic(filename string, data []byte) (err error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory '%s': %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, os.Remove(tmp.Name()))
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return multierr.Append(fmt.Errorf("write %s: %w", tmp.Name(), err), tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("rename to %s: %w", filename, err)
	}
	return nil
}
