package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"klineChart/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

const day = int64(86_400_000)

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	repo, err := NewRepository(Config{
		DBPath: filepath.Join(t.TempDir(), "archive", "test.db"),
		Logger: &mockLogger{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func makeKlines(first int64, n int) []domain.Kline {
	klines := make([]domain.Kline, n)
	for i := range klines {
		open := first + int64(i)*day
		klines[i] = domain.Kline{
			OpenTime:                 open,
			OpenPrice:                fmt.Sprintf("%d.00", 100+i),
			HighPrice:                fmt.Sprintf("%d.50", 101+i),
			LowPrice:                 fmt.Sprintf("%d.50", 99+i),
			ClosePrice:               fmt.Sprintf("%d.25", 100+i),
			Volume:                   "10.000",
			CloseTime:                open + day - 1,
			QuoteAssetVolume:         "1000.0",
			NumberOfTrades:           int64(10 + i),
			TakerBuyBaseAssetVolume:  "5.0",
			TakerBuyQuoteAssetVolume: "500.0",
		}
	}
	return klines
}

func TestNewRepository(t *testing.T) {
	_, err := NewRepository(Config{})
	assert.Error(t, err)

	repo := setupTestDB(t)
	assert.NotNil(t, repo)
}

func TestRepository_SaveAndFindKlines(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	klines := makeKlines(1709251200000, 5)

	n, err := repo.SaveKlines(ctx, "BTCUSDT", "1d", klines)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	got, err := repo.FindKlines(ctx, "BTCUSDT", "1d", 0)
	require.NoError(t, err)
	assert.Equal(t, klines, got, "round trip must keep every field and the order")

	newest, err := repo.FindKlines(ctx, "BTCUSDT", "1d", 2)
	require.NoError(t, err)
	assert.Equal(t, klines[3:], newest)

	other, err := repo.FindKlines(ctx, "BTCUSDT", "1h", 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRepository_SaveKlinesUpserts(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	klines := makeKlines(1709251200000, 3)

	_, err := repo.SaveKlines(ctx, "BTCUSDT", "1d", klines)
	require.NoError(t, err)

	updated := klines[2]
	updated.ClosePrice = "999.99"
	more := append([]domain.Kline{updated}, makeKlines(klines[2].OpenTime+day, 2)...)
	_, err = repo.SaveKlines(ctx, "BTCUSDT", "1d", more)
	require.NoError(t, err)

	got, err := repo.FindKlines(ctx, "BTCUSDT", "1d", 0)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "999.99", got[2].ClosePrice)
}

func TestRepository_SaveNothing(t *testing.T) {
	repo := setupTestDB(t)

	n, err := repo.SaveKlines(context.Background(), "BTCUSDT", "1d", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRepository_LatestOpenTime(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	_, ok, err := repo.LatestOpenTime(ctx, "BTCUSDT", "1d")
	require.NoError(t, err)
	assert.False(t, ok)

	klines := makeKlines(1709251200000, 4)
	_, err = repo.SaveKlines(ctx, "BTCUSDT", "1d", klines)
	require.NoError(t, err)

	latest, ok, err := repo.LatestOpenTime(ctx, "BTCUSDT", "1d")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, klines[3].OpenTime, latest)
}

func TestRepository_CanceledContext(t *testing.T) {
	repo := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.SaveKlines(ctx, "BTCUSDT", "1d", makeKlines(1709251200000, 1))
	assert.Error(t, err)
}
