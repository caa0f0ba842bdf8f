package utils

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klineChart/internal/domain"
)

func TestWriteKlinesToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "klines.csv")
	klines := []domain.Kline{{
		OpenTime:                 1709769600000,
		OpenPrice:                "10.5",
		HighPrice:                "12",
		LowPrice:                 "9",
		ClosePrice:               "11",
		Volume:                   "100",
		CloseTime:                1709855999999,
		QuoteAssetVolume:         "1000",
		NumberOfTrades:           50,
		TakerBuyBaseAssetVolume:  "60",
		TakerBuyQuoteAssetVolume: "600",
	}}

	require.NoError(t, WriteKlinesToCSV(klines, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		"2024-03-07T00:00:00Z", "10.5", "12", "9", "11", "100", "2024-03-07T23:59:59Z",
		"1000", "50", "60", "600",
	}, rows[1])
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data", "data.json")

	require.NoError(t, WriteFileAtomic(path, []byte(`[]`)))
	require.NoError(t, WriteFileAtomic(path, []byte(`[[1]]`)))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[[1]]`, string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
