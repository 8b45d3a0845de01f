package mysql

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"os"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/adapters/base"
)

// AdapterType идентификатор MySQL адаптера
const AdapterType = "mysql"

// maxIdentifierLength - предел длины имени таблицы MySQL
const maxIdentifierLength = 64

// Compile-time check: Adapter должен реализовывать интерфейс adapters.Adapter
var _ adapters.Adapter = (*Adapter)(nil)

var dialect = base.Dialect{
	QuoteOpen:           "`",
	QuoteClose:          "`",
	MaxIdentifierLength: maxIdentifierLength,
}

// Adapter реализует adapters.Adapter для MySQL и MariaDB
type Adapter struct {
	db     *sql.DB
	config adapters.Config
	base.Dialect

	// localInfile - сервер принимает LOAD DATA LOCAL INFILE
	localInfile bool
}

func init() {
	// Регистрируем MySQL адаптер в фабрике
	adapters.Register(AdapterType, func() adapters.Adapter {
		return NewAdapter()
	}, "mariadb")
}

// NewAdapter создает неподключенный адаптер
func NewAdapter() *Adapter {
	return &Adapter{Dialect: dialect}
}

// Connect подключается к MySQL базе данных
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	mc, err := driverConfig(cfg)
	if err != nil {
		return err
	}

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return fmt.Errorf("failed to create connector: %w", err)
	}
	db := sql.OpenDB(connector)

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		db.SetMaxIdleConns(cfg.MinConns)
	}

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = db
	a.config = cfg
	a.localInfile = detectLocalInfile(ctx, db)
	if !a.localInfile {
		log.Warn().Msg("mysql: local_infile is disabled on server, bulk copy falls back to INSERT")
	}

	return nil
}

// driverConfig разбирает DSN и дополняет его настройками из конфига
func driverConfig(cfg adapters.Config) (*mysql.Config, error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}

	// временные колонки читаются в time.Time
	mc.ParseTime = true
	if cfg.Timeout > 0 {
		mc.Timeout = cfg.Timeout
	}

	tlsCfg, err := tlsConfig(cfg.SSL)
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		mc.TLS = tlsCfg
	}
	return mc, nil
}

// tlsConfig строит *tls.Config по режиму SSL
// nil - оставить то, что задано в DSN
func tlsConfig(ssl adapters.SSLConfig) (*tls.Config, error) {
	switch ssl.Mode {
	case "", "disable":
		return nil, nil
	case "require":
		return &tls.Config{InsecureSkipVerify: true}, nil // require: шифрование без проверки сертификата
	}

	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if ssl.CAPath != "" {
		pem, err := os.ReadFile(ssl.CAPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", ssl.CAPath)
		}
		cfg.RootCAs = pool
	}
	if ssl.CertPath != "" && ssl.KeyPath != "" {
		cert, err := tls.LoadX509KeyPair(ssl.CertPath, ssl.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// detectLocalInfile проверяет глобальную переменную local_infile
func detectLocalInfile(ctx context.Context, db *sql.DB) bool {
	var enabled bool
	if err := db.QueryRowContext(ctx, "SELECT @@GLOBAL.local_infile").Scan(&enabled); err != nil {
		log.Debug().Err(err).Msg("mysql: failed to read local_infile")
		return false
	}
	return enabled
}

// Close закрывает соединение с базой данных
func (a *Adapter) Close(ctx context.Context) error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Ping проверяет соединение с базой данных
func (a *Adapter) Ping(ctx context.Context) error {
	if a.db == nil {
		return adapters.ErrNotConnected
	}
	return a.db.PingContext(ctx)
}

// DB возвращает пул подключений
func (a *Adapter) DB() *sql.DB {
	return a.db
}

// GetDatabaseType возвращает тип адаптера
func (a *Adapter) GetDatabaseType() string {
	return AdapterType
}

// GetDatabaseVersion возвращает версию MySQL
func (a *Adapter) GetDatabaseVersion(ctx context.Context) (string, error) {
	if a.db == nil {
		return "", adapters.ErrNotConnected
	}
	var version string
	err := a.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version)
	if err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}
