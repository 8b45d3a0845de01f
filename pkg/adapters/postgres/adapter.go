package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/adapters/base"
)

// Compile-time check: Adapter должен реализовывать интерфейс adapters.Adapter
var (
	_ adapters.Adapter            = (*Adapter)(nil)
	_ adapters.RowVersionProvider = (*Adapter)(nil)
)

// maxIdentifierLength - NAMEDATALEN-1, длиннее PostgreSQL молча обрезает
const maxIdentifierLength = 63

var dialect = base.Dialect{
	QuoteOpen:           `"`,
	QuoteClose:          `"`,
	MaxIdentifierLength: maxIdentifierLength,
	TempSchema:          tempSchema,
}

// Регистрация адаптера в глобальной фабрике
func init() {
	adapters.Register("postgres", func() adapters.Adapter {
		return NewAdapter()
	}, "postgresql", "pg")
}

// Adapter представляет адаптер для работы с PostgreSQL
// Реализует интерфейс adapters.Adapter
//
// Соединения берутся из pgxpool, database/sql обертка нужна сессиям:
// временная таблица видна только на своем соединении
type Adapter struct {
	pool   *pgxpool.Pool
	db     *sql.DB
	schema string // public, custom, etc.
	base.Dialect
}

// NewAdapter создает неподключенный адаптер
func NewAdapter() *Adapter {
	return &Adapter{Dialect: dialect}
}

// Connect устанавливает подключение к PostgreSQL
// Реализует интерфейс adapters.Adapter
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	dsn, err := applySSL(cfg.DSN, cfg.SSL)
	if err != nil {
		return err
	}

	// Парсим connection string
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse connection string: %w", err)
	}

	// Настраиваем pool из конфига
	if cfg.MaxConns > 0 {
		config.MaxConns = int32(cfg.MaxConns)
	} else {
		config.MaxConns = 10 // default
	}

	if cfg.MinConns > 0 {
		config.MinConns = int32(cfg.MinConns)
	} else {
		config.MinConns = 2 // default
	}

	// Создаем connection pool
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверяем подключение
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.pool = pool
	a.db = stdlib.OpenDBFromPool(pool)
	a.schema = cfg.Schema
	if a.schema == "" {
		a.schema = "public" // default schema
	}

	return nil
}

// applySSL добавляет параметры SSL из конфига в строку подключения
// Поддерживаются URL (postgresql://...) и key=value формы
func applySSL(dsn string, ssl adapters.SSLConfig) (string, error) {
	params := [][2]string{
		{"sslmode", ssl.Mode},
		{"sslcert", ssl.CertPath},
		{"sslkey", ssl.KeyPath},
		{"sslrootcert", ssl.CAPath},
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid connection url: %w", err)
		}
		q := u.Query()
		for _, p := range params {
			if p[1] != "" {
				q.Set(p[0], p[1])
			}
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	for _, p := range params {
		if p[1] != "" {
			dsn += fmt.Sprintf(" %s='%s'", p[0], strings.ReplaceAll(p[1], "'", `\'`))
		}
	}
	return strings.TrimSpace(dsn), nil
}

// Close закрывает connection pool
// Реализует интерфейс adapters.Adapter
func (a *Adapter) Close(ctx context.Context) error {
	var err error
	if a.db != nil {
		err = a.db.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return err
}

// Ping проверяет доступность БД
// Реализует интерфейс adapters.Adapter
func (a *Adapter) Ping(ctx context.Context) error {
	if a.pool == nil {
		return adapters.ErrNotConnected
	}
	return a.pool.Ping(ctx)
}

// GetDatabaseType возвращает тип СУБД
// Реализует интерфейс adapters.Adapter
func (a *Adapter) GetDatabaseType() string {
	return "postgres"
}

// DB возвращает database/sql обертку над пулом
func (a *Adapter) DB() *sql.DB {
	return a.db
}

// Pool возвращает *pgxpool.Pool для прямого доступа
func (a *Adapter) Pool() *pgxpool.Pool {
	return a.pool
}

// Schema возвращает текущую схему
func (a *Adapter) Schema() string {
	return a.schema
}

// GetDatabaseVersion возвращает версию PostgreSQL
// Реализует интерфейс adapters.Adapter
func (a *Adapter) GetDatabaseVersion(ctx context.Context) (string, error) {
	if a.pool == nil {
		return "", adapters.ErrNotConnected
	}
	var version string
	if err := a.pool.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

// MinActiveRowVersion возвращает xmin текущего снимка: все транзакции
// с меньшим номером завершены
func (a *Adapter) MinActiveRowVersion(ctx context.Context, s adapters.Session) (uint64, error) {
	var xmin int64
	err := s.QueryRowContext(ctx, "SELECT pg_snapshot_xmin(pg_current_snapshot())::text::bigint").Scan(&xmin)
	if err != nil {
		return 0, fmt.Errorf("failed to query snapshot xmin: %w", err)
	}
	return uint64(xmin), nil
}
