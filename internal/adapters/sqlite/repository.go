package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"

	"klineChart/internal/domain"
	"klineChart/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var _ ports.KlineArchive = (*Repository)(nil)

// Repository implements the ports.KlineArchive interface using SQLite.
// It stores raw exchange rows only; nothing computed from them is persisted.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/klines.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("%w: failed to open database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		err = fmt.Errorf("%w: failed to ping database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// A single connection serialises writers, which SQLite requires anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Debug(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS klines (
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		open_time INTEGER NOT NULL,
		open_price TEXT NOT NULL,
		high_price TEXT NOT NULL,
		low_price TEXT NOT NULL,
		close_price TEXT NOT NULL,
		volume TEXT NOT NULL,
		close_time INTEGER NOT NULL,
		quote_asset_volume TEXT NOT NULL,
		number_of_trades INTEGER NOT NULL,
		taker_buy_base_asset_volume TEXT NOT NULL,
		taker_buy_quote_asset_volume TEXT NOT NULL,
		PRIMARY KEY (symbol, interval, open_time)
	);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// SaveKlines upserts the klines in one transaction. A kline already archived under
// the same open time is replaced, so the still-open latest candle gets corrected
// on the next run.
func (r *Repository) SaveKlines(ctx context.Context, symbol, interval string, klines []domain.Kline) (n int, err error) {
	if len(klines) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin transaction: %v", ports.ErrUpdateFailed, err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	const query = `
	INSERT OR REPLACE INTO klines (
		symbol, interval, open_time, open_price, high_price, low_price, close_price, volume,
		close_time, quote_asset_volume, number_of_trades,
		taker_buy_base_asset_volume, taker_buy_quote_asset_volume
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%w: prepare kline insert: %v", ports.ErrUpdateFailed, err)
	}
	defer stmt.Close()

	for _, k := range klines {
		if _, err = stmt.ExecContext(ctx,
			symbol, interval, k.OpenTime, k.OpenPrice, k.HighPrice, k.LowPrice, k.ClosePrice, k.Volume,
			k.CloseTime, k.QuoteAssetVolume, k.NumberOfTrades,
			k.TakerBuyBaseAssetVolume, k.TakerBuyQuoteAssetVolume,
		); err != nil {
			return 0, fmt.Errorf("%w: insert kline %s/%s@%d: %v", ports.ErrUpdateFailed, symbol, interval, k.OpenTime, err)
		}
		n++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit klines: %v", ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Klines archived", map[string]interface{}{"symbol": symbol, "interval": interval, "count": n})
	return n, nil
}

// FindKlines returns the newest limit klines in ascending open-time order.
func (r *Repository) FindKlines(ctx context.Context, symbol, interval string, limit int) ([]domain.Kline, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	const query = `
	SELECT open_time, open_price, high_price, low_price, close_price, volume,
	       close_time, quote_asset_volume, number_of_trades,
	       taker_buy_base_asset_volume, taker_buy_quote_asset_volume
	FROM (
		SELECT * FROM klines
		WHERE symbol = ? AND interval = ?
		ORDER BY open_time DESC
		LIMIT ?
	)
	ORDER BY open_time ASC`

	rows, err := r.db.QueryContext(ctx, query, symbol, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query klines for %s/%s: %v", ports.ErrQueryFailed, symbol, interval, err)
	}
	defer rows.Close()

	klines := make([]domain.Kline, 0)
	for rows.Next() {
		var k domain.Kline
		if err := rows.Scan(
			&k.OpenTime, &k.OpenPrice, &k.HighPrice, &k.LowPrice, &k.ClosePrice, &k.Volume,
			&k.CloseTime, &k.QuoteAssetVolume, &k.NumberOfTrades,
			&k.TakerBuyBaseAssetVolume, &k.TakerBuyQuoteAssetVolume,
		); err != nil {
			return nil, fmt.Errorf("%w: scan kline row: %v", ports.ErrQueryFailed, err)
		}
		klines = append(klines, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate kline rows: %v", ports.ErrQueryFailed, err)
	}
	return klines, nil
}

// LatestOpenTime returns the newest archived open time for symbol/interval.
func (r *Repository) LatestOpenTime(ctx context.Context, symbol, interval string) (int64, bool, error) {
	const query = `SELECT MAX(open_time) FROM klines WHERE symbol = ? AND interval = ?`

	var latest sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, symbol, interval).Scan(&latest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("%w: latest open time for %s/%s: %v", ports.ErrQueryFailed, symbol, interval, err)
	}
	if !latest.Valid {
		return 0, false, nil
	}
	return latest.Int64, true, nil
}
