// Package bulk загружает коллекции сущностей во временные таблицы
// средствами массовой вставки СУБД и управляет жизненным циклом этих таблиц.
//
// Основной сценарий:
//
//	db := bulk.New(adapter, bulk.WithLogger(logger))
//	s, _ := db.Session(ctx)
//	defer s.Close()
//
//	q, err := bulk.InsertIntoTempTable(ctx, s, slices.Values(customers), nil)
//	defer q.Close(ctx)
//	rows, err := q.Where("balance > ?", 100).All(ctx)
//
// Временные таблицы видны только в своей сессии, поэтому все операции
// над ними выполняются через одну и ту же Session.
package bulk

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/entity"
	"github.com/ruslano69/tdtp-bulk/pkg/retry"
)

// DB связывает адаптер СУБД, реестр сущностей и логгер
type DB struct {
	adapter  adapters.Adapter
	registry *entity.Registry
	logger   zerolog.Logger

	connectRetry retry.Config
}

// Option настраивает DB
type Option func(*DB)

// WithLogger задает логгер (по умолчанию zerolog.Nop())
func WithLogger(logger zerolog.Logger) Option {
	return func(db *DB) {
		db.logger = logger
	}
}

// WithRegistry задает реестр сущностей
func WithRegistry(r *entity.Registry) Option {
	return func(db *DB) {
		db.registry = r
	}
}

// WithConnectRetry включает повторные попытки подключения в Open
func WithConnectRetry(cfg retry.Config) Option {
	return func(db *DB) {
		db.connectRetry = cfg
	}
}

// New создает DB поверх подключенного адаптера
// Реестр по умолчанию использует схему из конфигурации подключения
func New(adapter adapters.Adapter, opts ...Option) *DB {
	db := &DB{
		adapter: adapter,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(db)
	}
	if db.registry == nil {
		db.registry = entity.NewRegistry("")
	}
	return db
}

// Open создает адаптер через глобальную фабрику и подключается
// Ошибки конфигурации не повторяются даже с WithConnectRetry
func Open(ctx context.Context, cfg adapters.Config, opts ...Option) (*DB, error) {
	opts = append([]Option{WithRegistry(entity.NewRegistry(cfg.Schema))}, opts...)
	db := New(nil, opts...)

	policy := db.connectRetry
	onRetry := policy.OnRetry
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		db.logger.Warn().Err(err).
			Str("type", cfg.Type).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("connect failed, retrying")
		if onRetry != nil {
			onRetry(attempt, err, delay)
		}
	}
	retryer, err := retry.NewRetryer(policy)
	if err != nil {
		return nil, err
	}

	err = retryer.Do(ctx, func(ctx context.Context) error {
		adapter, err := adapters.New(ctx, cfg)
		if err != nil {
			if cfg.Validate() != nil || !adapters.IsRegistered(cfg.Type) {
				return retry.Permanent(err)
			}
			return err
		}
		db.adapter = adapter
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Adapter возвращает адаптер СУБД
func (db *DB) Adapter() adapters.Adapter {
	return db.adapter
}

// Registry возвращает реестр сущностей
func (db *DB) Registry() *entity.Registry {
	return db.registry
}

// Logger возвращает логгер
func (db *DB) Logger() *zerolog.Logger {
	return &db.logger
}

// Session берет из пула отдельное физическое подключение
// Вызывающий обязан закрыть сессию
func (db *DB) Session(ctx context.Context) (*Session, error) {
	pool := db.adapter.DB()
	if pool == nil {
		return nil, adapters.ErrNotConnected
	}
	conn, err := pool.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &Session{db: db, conn: conn}, nil
}

// Close закрывает адаптер
func (db *DB) Close(ctx context.Context) error {
	return db.adapter.Close(ctx)
}
