package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/denisenkom/go-mssqldb" // MS SQL Server driver
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/adapters/base"
)

// AdapterType is the canonical factory name.
const AdapterType = "mssql"

// Compile-time check
var (
	_ adapters.Adapter            = (*Adapter)(nil)
	_ adapters.RowVersionProvider = (*Adapter)(nil)
	_ adapters.ScanTargetWrapper  = (*Adapter)(nil)
)

// Compatibility levels
const (
	CompatSQL2012 = 110 // SQL Server 2012
	CompatSQL2016 = 130 // SQL Server 2016: DROP TABLE IF EXISTS
)

// maxTempTableName - SQL Server limits local temp table names to 116 characters.
const maxTempTableName = 116

var dialect = base.Dialect{
	QuoteOpen:           "[",
	QuoteClose:          "]",
	MaxIdentifierLength: maxTempTableName,
	TempPrefix:          "#",
}

// Adapter implements the adapters.Adapter interface for Microsoft SQL Server.
type Adapter struct {
	db     *sql.DB
	config adapters.Config
	base.Dialect

	// Version information
	serverVersion    int    // Major version: 11=2012, 13=2016, 14=2017, 15=2019, 16=2022
	serverVersionStr string // Full version string
	compatLevel      int    // Database compatibility level: 110=2012, 130=2016, etc.
}

func init() {
	// Register MS SQL Server adapter in factory
	adapters.Register(AdapterType, func() adapters.Adapter {
		return NewAdapter()
	}, "sqlserver")
}

// NewAdapter returns an unconnected adapter.
func NewAdapter() *Adapter {
	return &Adapter{Dialect: dialect}
}

// Connect implements adapters.Adapter interface.
// Connects to MS SQL Server and detects the server version.
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	// Open database connection
	db, err := sql.Open("mssql", cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		db.SetMaxIdleConns(cfg.MinConns)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = db
	a.config = cfg

	// Detect server version and compatibility level
	if err := a.detectCompatibility(ctx); err != nil {
		db.Close()
		a.db = nil
		return fmt.Errorf("failed to detect compatibility: %w", err)
	}

	if a.compatLevel < CompatSQL2012 {
		log.Warn().
			Str("server", a.getServerVersionName()).
			Int("compatibility_level", a.compatLevel).
			Msg("mssql: compatibility level below SQL Server 2012 is not supported")
	}

	return nil
}

// detectCompatibility detects SQL Server version and database compatibility level.
func (a *Adapter) detectCompatibility(ctx context.Context) error {
	// 1. Detect server version
	var version string
	err := a.db.QueryRowContext(ctx, "SELECT CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128))").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to get server version: %w", err)
	}

	a.serverVersionStr = version
	a.serverVersion = parseServerVersion(version)

	// 2. Detect database compatibility level
	err = a.db.QueryRowContext(ctx, `
		SELECT compatibility_level
		FROM sys.databases
		WHERE name = DB_NAME()
	`).Scan(&a.compatLevel)
	if err != nil {
		return fmt.Errorf("failed to get compatibility level: %w", err)
	}

	return nil
}

// parseServerVersion parses SQL Server version string to major version number.
// Examples:
//   - "11.0.2100.60" → 11 (SQL Server 2012)
//   - "13.0.5026.0"  → 13 (SQL Server 2016)
//   - "15.0.2000.5"  → 15 (SQL Server 2019)
func parseServerVersion(version string) int {
	parts := strings.Split(version, ".")
	if len(parts) == 0 {
		return 0
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}

	return major
}

// getServerVersionName returns human-readable server version name.
func (a *Adapter) getServerVersionName() string {
	switch a.serverVersion {
	case 11:
		return "SQL Server 2012"
	case 12:
		return "SQL Server 2014"
	case 13:
		return "SQL Server 2016"
	case 14:
		return "SQL Server 2017"
	case 15:
		return "SQL Server 2019"
	case 16:
		return "SQL Server 2022"
	default:
		return fmt.Sprintf("SQL Server (version %d)", a.serverVersion)
	}
}

// supportsDropIfExists - DROP TABLE IF EXISTS appeared in SQL Server 2016
func (a *Adapter) supportsDropIfExists() bool {
	return a.compatLevel >= CompatSQL2016
}

// Close closes the database connection.
func (a *Adapter) Close(ctx context.Context) error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (a *Adapter) Ping(ctx context.Context) error {
	if a.db == nil {
		return adapters.ErrNotConnected
	}
	return a.db.PingContext(ctx)
}

// DB returns the connection pool.
func (a *Adapter) DB() *sql.DB {
	return a.db
}

// GetDatabaseType returns the adapter type.
func (a *Adapter) GetDatabaseType() string {
	return AdapterType
}

// GetDatabaseVersion returns the SQL Server version string.
func (a *Adapter) GetDatabaseVersion(ctx context.Context) (string, error) {
	if a.db == nil {
		return "", adapters.ErrNotConnected
	}
	return fmt.Sprintf("%s %s (compatibility level %d)",
		a.getServerVersionName(), a.serverVersionStr, a.compatLevel), nil
}

// MinActiveRowVersion returns the lowest active rowversion of the database.
// Rows with a version below it are committed and visible to every reader.
func (a *Adapter) MinActiveRowVersion(ctx context.Context, s adapters.Session) (uint64, error) {
	var raw []byte
	if err := s.QueryRowContext(ctx, "SELECT MIN_ACTIVE_ROWVERSION()").Scan(&raw); err != nil {
		return 0, fmt.Errorf("failed to query MIN_ACTIVE_ROWVERSION: %w", err)
	}
	return decodeRowVersion(raw)
}
