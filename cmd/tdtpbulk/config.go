package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/bulk"
	"github.com/ruslano69/tdtp-bulk/pkg/retry"
)

// Config represents the main configuration structure
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Load     LoadConfig     `yaml:"load,omitempty"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Type        string        `yaml:"type"`                   // sqlite, postgres, mssql, mysql
	DSN         string        `yaml:"dsn,omitempty"`          // Full connection string, overrides the fields below
	Host        string        `yaml:"host,omitempty"`         // For network databases
	Port        int           `yaml:"port,omitempty"`         // Database port
	Database    string        `yaml:"database,omitempty"`     // Database name or file path
	User        string        `yaml:"user,omitempty"`         // Username
	Password    string        `yaml:"password,omitempty"`     // Password
	Schema      string        `yaml:"schema,omitempty"`       // Default schema (postgres, mssql)
	WindowsAuth bool          `yaml:"windows_auth,omitempty"` // MS SQL Windows authentication
	SSLMode     string        `yaml:"sslmode,omitempty"`      // disable, require, verify-ca, verify-full
	MaxConns    int           `yaml:"max_conns,omitempty"`
	MinConns    int           `yaml:"min_conns,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`

	ConnectRetry retry.Config `yaml:"connect_retry,omitempty"` // Reconnect policy while the server is starting
}

// LoadConfig contains bulk copy settings
type LoadConfig struct {
	BatchSize        int           `yaml:"batch_size,omitempty"`        // Rows per bulk copy operation, 0 - all rows at once
	Timeout          time.Duration `yaml:"timeout,omitempty"`           // Limit for the whole copy
	Buffered         bool          `yaml:"buffered,omitempty"`          // Read each batch into memory before copying
	TableLock        bool          `yaml:"table_lock,omitempty"`        // MS SQL TABLOCK
	CheckConstraints bool          `yaml:"check_constraints,omitempty"` // MS SQL CHECK_CONSTRAINTS
	FireTriggers     bool          `yaml:"fire_triggers,omitempty"`     // MS SQL FIRE_TRIGGERS
	KeepNulls        bool          `yaml:"keep_nulls,omitempty"`        // MS SQL KEEP_NULLS
}

// LoadConfigFile loads configuration from YAML file
// ${VAR} references are expanded from the environment (.env is loaded before)
func LoadConfigFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return &config, nil
}

// SaveConfig saves configuration to YAML file
// An existing file is overwritten only with force
func SaveConfig(filename string, config *Config, force bool) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if !force {
		if _, err := os.Stat(filename); err == nil {
			return fmt.Errorf("config file %s already exists", filename)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check config file: %w", err)
		}
	}

	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.Database.Type == "" {
		return fmt.Errorf("database.type is required")
	}
	if !adapters.IsRegistered(c.Database.Type) {
		return fmt.Errorf("unknown database type %q (available types: %v)", c.Database.Type, adapters.GetRegisteredTypes())
	}
	if c.Database.DSN == "" && c.Database.Database == "" {
		return fmt.Errorf("database.dsn or database.database is required")
	}
	if c.Load.BatchSize < 0 {
		return fmt.Errorf("load.batch_size must not be negative")
	}
	if err := c.Database.ConnectRetry.Validate(); err != nil {
		return fmt.Errorf("database.connect_retry: %w", err)
	}
	return c.Database.AdapterConfig().Validate()
}

// CreateSampleConfig creates sample configuration for different database types
// Passwords reference ${DB_PASSWORD} so secrets stay in the environment or .env
func CreateSampleConfig(dbType string) (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{Type: adapters.Resolve(dbType)},
		Load: LoadConfig{
			BatchSize: 10000,
			Timeout:   10 * time.Minute,
		},
	}

	switch config.Database.Type {
	case "postgres":
		config.Database.Host = "localhost"
		config.Database.Port = 5432
		config.Database.Database = "mydb"
		config.Database.User = "postgres"
		config.Database.Password = "${DB_PASSWORD}"
		config.Database.Schema = "public"
		config.Database.SSLMode = "disable"
		config.Database.ConnectRetry = retry.EnableRetry(5, time.Second)

	case "mssql":
		config.Database.Host = "localhost"
		config.Database.Port = 1433
		config.Database.Database = "mydb"
		config.Database.User = "sa"
		config.Database.Password = "${DB_PASSWORD}"
		config.Load.TableLock = true
		config.Database.ConnectRetry = retry.EnableRetry(5, time.Second)

	case "sqlite":
		config.Database.Database = "database.db"

	case "mysql":
		config.Database.Host = "localhost"
		config.Database.Port = 3306
		config.Database.Database = "mydb"
		config.Database.User = "root"
		config.Database.Password = "${DB_PASSWORD}"
		config.Database.ConnectRetry = retry.EnableRetry(5, time.Second)

	default:
		return nil, fmt.Errorf("unknown database type %q", dbType)
	}

	return config, nil
}

// BuildDSN constructs database connection string from config
func (c *DatabaseConfig) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}

	hostPort := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))

	switch adapters.Resolve(c.Type) {
	case "postgres":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.User, c.Password),
			Host:   hostPort,
			Path:   "/" + c.Database,
		}
		q := url.Values{}
		if c.Schema != "" {
			q.Set("search_path", c.Schema)
		}
		u.RawQuery = q.Encode()
		return u.String()

	case "mssql":
		q := url.Values{}
		q.Set("database", c.Database)
		u := url.URL{Scheme: "sqlserver", Host: hostPort}
		if c.WindowsAuth {
			q.Set("integrated security", "SSPI")
		} else {
			u.User = url.UserPassword(c.User, c.Password)
		}
		u.RawQuery = q.Encode()
		return u.String()

	case "sqlite":
		return c.Database

	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = hostPort
		mc.DBName = c.Database
		return mc.FormatDSN()

	default:
		return ""
	}
}

// AdapterConfig converts settings into adapters.Config
func (c *DatabaseConfig) AdapterConfig() adapters.Config {
	return adapters.Config{
		Type:     c.Type,
		DSN:      c.BuildDSN(),
		Schema:   c.Schema,
		Timeout:  c.Timeout,
		MaxConns: c.MaxConns,
		MinConns: c.MinConns,
		SSL:      adapters.SSLConfig{Mode: c.SSLMode},
	}
}

// CopyOptions converts load settings into bulk copy options
func (l *LoadConfig) CopyOptions() bulk.CopyOptions {
	return bulk.CopyOptions{
		BatchSize:        l.BatchSize,
		Timeout:          l.Timeout,
		EnableStreaming:  !l.Buffered,
		TableLock:        l.TableLock,
		CheckConstraints: l.CheckConstraints,
		FireTriggers:     l.FireTriggers,
		KeepNulls:        l.KeepNulls,
	}
}

// openDB connects through the adapter factory with the configured retry policy
func openDB(ctx context.Context, cfg *Config, opts ...bulk.Option) (*bulk.DB, error) {
	opts = append([]bulk.Option{bulk.WithConnectRetry(cfg.Database.ConnectRetry)}, opts...)
	return bulk.Open(ctx, cfg.Database.AdapterConfig(), opts...)
}
