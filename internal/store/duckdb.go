package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"github.com/rxtech-lab/argo-router/pkg/marketdata/provider"
	"go.uber.org/zap"
)

const createBarsTable = `
	CREATE TABLE IF NOT EXISTS bars (
		id TEXT,
		time TIMESTAMP NOT NULL,
		symbol TEXT NOT NULL,
		open DOUBLE,
		high DOUBLE,
		low DOUBLE,
		close DOUBLE,
		volume DOUBLE,
		trade_count BIGINT,
		vwap DOUBLE,
		added_on TIMESTAMP DEFAULT current_timestamp,
		PRIMARY KEY (symbol, time)
	)
`

var barColumns = []string{"id", "time", "symbol", "open", "high", "low", "close", "volume", "trade_count", "vwap", "added_on"}

// upsertSuffix makes the latest insert for a (symbol, time) pair win.
const upsertSuffix = `ON CONFLICT (symbol, time) DO UPDATE SET
	id = excluded.id,
	open = excluded.open,
	high = excluded.high,
	low = excluded.low,
	close = excluded.close,
	volume = excluded.volume,
	trade_count = excluded.trade_count,
	vwap = excluded.vwap,
	added_on = excluded.added_on`

// DuckDBStore keeps bars in a DuckDB file and can export them to parquet on close.
type DuckDBStore struct {
	cfg       config.StoreConfig
	logger    *logger.Logger
	sq        squirrel.StatementBuilderType
	refresher refresher

	mu sync.Mutex
	db *sql.DB
}

var _ Store = (*DuckDBStore)(nil)

func NewDuckDBStore(cfg config.StoreConfig, history provider.HistoryProvider, log *logger.Logger) *DuckDBStore {
	if log == nil {
		log = logger.NewNop()
	}

	log = log.Named("duckdb")

	return &DuckDBStore{
		cfg:    cfg,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		refresher: refresher{
			cfg:     cfg.Refresh,
			history: history,
			logger:  log,
			now:     time.Now,
		},
		mu: sync.Mutex{},
		db: nil,
	}
}

func (s *DuckDBStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	s.logger.Debug("Opening DuckDB store", zap.String("path", s.cfg.Path))

	db, err := sql.Open("duckdb", s.cfg.Path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to open DuckDB", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to connect to DuckDB", err)
	}

	if _, err := db.ExecContext(ctx, createBarsTable); err != nil {
		db.Close()

		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create bars table", err)
	}

	s.db = db

	return nil
}

// Close exports the bars table when ExportParquet is set, then closes the database.
func (s *DuckDBStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	var exportErr error

	if s.cfg.ExportParquet != "" {
		path := strings.ReplaceAll(s.cfg.ExportParquet, "'", "''")

		_, exportErr = s.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM bars ORDER BY symbol, time) TO '%s' (FORMAT PARQUET)`, path))
		if exportErr != nil {
			exportErr = errors.Wrap(errors.ErrCodeWriteFailed, "failed to export to Parquet", exportErr)
		} else {
			s.logger.Info("Exported bars to parquet", zap.String("path", s.cfg.ExportParquet))
		}
	}

	err := s.db.Close()
	s.db = nil

	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to close DuckDB", err)
	}

	return exportErr
}

func (s *DuckDBStore) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, errors.New(errors.ErrCodeStoreClosed, "store is not open")
	}

	return s.db, nil
}

func (s *DuckDBStore) QueryRecentCloses(ctx context.Context, symbol string, count int) ([]float64, error) {
	if count <= 0 {
		return nil, nil
	}

	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	query, args, err := s.sq.
		Select("close").
		From("bars").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("time DESC").
		Limit(uint64(count)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query closes", err)
	}
	defer rows.Close()

	closes := make([]float64, 0, count)

	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan close", err)
		}

		closes = append(closes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read closes", err)
	}

	// Newest first from the query; callers want oldest first
	for i, j := 0, len(closes)-1; i < j; i, j = i+1, j-1 {
		closes[i], closes[j] = closes[j], closes[i]
	}

	return closes, nil
}

func (s *DuckDBStore) AppendBar(ctx context.Context, bar types.Bar) error {
	return s.AppendBars(ctx, []types.Bar{bar})
}

// AppendBars upserts bars in one transaction.
func (s *DuckDBStore) AppendBars(ctx context.Context, bars []types.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	db, err := s.conn()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}

	now := time.Now().UTC()

	for _, bar := range bars {
		query, args, err := s.sq.
			Insert("bars").
			Columns(barColumns...).
			Values(
				uuid.New().String(),
				bar.Time.UTC(),
				bar.Symbol,
				bar.Open,
				bar.High,
				bar.Low,
				bar.Close,
				bar.Volume,
				nullable(bar.TradeCount),
				nullable(bar.VWAP),
				now,
			).
			Suffix(upsertSuffix).
			ToSql()
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrap(errors.ErrCodeWriteFailed, "failed to build insert", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()

			return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to insert bar %s@%s", bar.Symbol, bar.Time)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit bars", err)
	}

	return nil
}

func (s *DuckDBStore) latest(ctx context.Context, symbol string) (time.Time, bool, error) {
	db, err := s.conn()
	if err != nil {
		return time.Time{}, false, err
	}

	query, args, err := s.sq.
		Select("MAX(time)").
		From("bars").
		Where(squirrel.Eq{"symbol": symbol}).
		ToSql()
	if err != nil {
		return time.Time{}, false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var last sql.NullTime
	if err := db.QueryRowContext(ctx, query, args...).Scan(&last); err != nil {
		return time.Time{}, false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query latest bar", err)
	}

	return last.Time, last.Valid, nil
}

func (s *DuckDBStore) Refresh(ctx context.Context) error {
	return s.refresher.run(ctx, s.latest, s.AppendBars)
}

// Count returns the number of stored bars for symbol.
func (s *DuckDBStore) Count(ctx context.Context, symbol string) (int, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}

	query, args, err := s.sq.
		Select("COUNT(*)").
		From("bars").
		Where(squirrel.Eq{"symbol": symbol}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}
