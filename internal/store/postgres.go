package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/logger"
	"github.com/rxtech-lab/argo-router/internal/types"
	"github.com/rxtech-lab/argo-router/pkg/errors"
	"github.com/rxtech-lab/argo-router/pkg/marketdata/provider"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// barRecord is the gorm model of a stored bar.
type barRecord struct {
	ID         string    `gorm:"type:uuid"`
	Time       time.Time `gorm:"primaryKey;autoCreateTime:false"`
	Symbol     string    `gorm:"primaryKey"`
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	TradeCount *int64
	VWAP       *float64 `gorm:"column:vwap"`
	AddedOn    time.Time
}

func (barRecord) TableName() string {
	return "bars"
}

func toRecord(bar types.Bar, addedOn time.Time) barRecord {
	var tradeCount *int64
	if v, err := bar.TradeCount.Take(); err == nil {
		tradeCount = &v
	}

	var vwap *float64
	if v, err := bar.VWAP.Take(); err == nil {
		vwap = &v
	}

	return barRecord{
		ID:         uuid.New().String(),
		Time:       bar.Time.UTC(),
		Symbol:     bar.Symbol,
		Open:       bar.Open,
		High:       bar.High,
		Low:        bar.Low,
		Close:      bar.Close,
		Volume:     bar.Volume,
		TradeCount: tradeCount,
		VWAP:       vwap,
		AddedOn:    addedOn,
	}
}

// PostgresStore keeps bars in PostgreSQL through gorm.
type PostgresStore struct {
	cfg       config.StoreConfig
	logger    *logger.Logger
	refresher refresher

	mu sync.Mutex
	db *gorm.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(cfg config.StoreConfig, history provider.HistoryProvider, log *logger.Logger) *PostgresStore {
	if log == nil {
		log = logger.NewNop()
	}

	log = log.Named("postgres")

	return &PostgresStore{
		cfg:    cfg,
		logger: log,
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

func (s *PostgresStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	//nolint:exhaustruct // gorm.Config has many optional fields
	db, err := gorm.Open(postgres.Open(s.cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to connect to PostgreSQL", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to get PostgreSQL connection", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()

		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to ping PostgreSQL", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&barRecord{}); err != nil {
		sqlDB.Close()

		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to migrate bars table", err)
	}

	s.logger.Debug("Opened PostgreSQL store")
	s.db = db

	return nil
}

func (s *PostgresStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	s.db = nil

	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to get PostgreSQL connection", err)
	}

	if err := sqlDB.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to close PostgreSQL", err)
	}

	return nil
}

func (s *PostgresStore) conn(ctx context.Context) (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, errors.New(errors.ErrCodeStoreClosed, "store is not open")
	}

	return s.db.WithContext(ctx), nil
}

func (s *PostgresStore) QueryRecentCloses(ctx context.Context, symbol string, count int) ([]float64, error) {
	if count <= 0 {
		return nil, nil
	}

	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var closes []float64

	err = db.Model(&barRecord{}).
		Where("symbol = ?", symbol).
		Order("time DESC").
		Limit(count).
		Pluck("close", &closes).Error
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query closes", err)
	}

	for i, j := 0, len(closes)-1; i < j; i, j = i+1, j-1 {
		closes[i], closes[j] = closes[j], closes[i]
	}

	return closes, nil
}

func (s *PostgresStore) AppendBar(ctx context.Context, bar types.Bar) error {
	return s.AppendBars(ctx, []types.Bar{bar})
}

func (s *PostgresStore) AppendBars(ctx context.Context, bars []types.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	records := make([]barRecord, 0, len(bars))

	// A batch must not hit the same row twice in one statement
	index := make(map[string]int, len(bars))

	for _, bar := range bars {
		record := toRecord(bar, now)
		key := record.Symbol + "|" + record.Time.String()

		if i, ok := index[key]; ok {
			records[i] = record

			continue
		}

		index[key] = len(records)
		records = append(records, record)
	}

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "time"}},
		UpdateAll: true,
	}).CreateInBatches(records, 500).Error
	if err != nil {
		s.logger.Warn("failed to upsert bars", zap.Int("bars", len(records)), zap.Error(err))

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to upsert bars", err)
	}

	return nil
}

func (s *PostgresStore) latest(ctx context.Context, symbol string) (time.Time, bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return time.Time{}, false, err
	}

	var record barRecord

	result := db.Where("symbol = ?", symbol).Order("time DESC").Limit(1).Find(&record)
	if result.Error != nil {
		return time.Time{}, false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query latest bar", result.Error)
	}

	if result.RowsAffected == 0 {
		return time.Time{}, false, nil
	}

	return record.Time, true, nil
}

func (s *PostgresStore) Refresh(ctx context.Context) error {
	return s.refresher.run(ctx, s.latest, s.AppendBars)
}
