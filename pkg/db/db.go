package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrNoDatabase is returned when operations run before Connect.
var ErrNoDatabase = errors.New("no database connection")

// Config represents database connection configuration
type Config struct {
	Type     string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	// DSN overrides the discrete fields when set.
	DSN string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// QueryTimeout bounds every round trip to the store.
	QueryTimeout time.Duration
}

// SetDefaults sets default values for the configuration if they are not set
func (c *Config) SetDefaults() {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = 30 * time.Second
	}
}

// Database is the read-only handle shared across all calls. It issues
// independent queries; there is no shared cursor or transaction state.
type Database interface {
	Select(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error)
	Ping(ctx context.Context) error
	Connect() error
	Close() error
	DriverName() string
}

type database struct {
	config     Config
	db         *sql.DB
	driverName string
	dsn        string
}

// NewDatabase creates a new database handle based on the provided
// configuration. Connect must be called before use.
func NewDatabase(config Config) (Database, error) {
	config.SetDefaults()

	var driverName, dsn string
	switch config.Type {
	case "mysql":
		driverName = "mysql"
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			config.User, config.Password, config.Host, config.Port, config.Name)
	case "postgres":
		driverName = "postgres"
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			config.Host, config.Port, config.User, config.Password, config.Name)
	case "sqlite":
		driverName = "sqlite"
		dsn = config.Name
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	if config.DSN != "" {
		dsn = config.DSN
	}

	return &database{
		config:     config,
		driverName: driverName,
		dsn:        dsn,
	}, nil
}

// Connect opens the connection pool and verifies connectivity.
func (d *database) Connect() error {
	handle, err := sql.Open(d.driverName, d.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	handle.SetMaxOpenConns(d.config.MaxOpenConns)
	handle.SetMaxIdleConns(d.config.MaxIdleConns)
	handle.SetConnMaxLifetime(d.config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := handle.PingContext(ctx); err != nil {
		if closeErr := handle.Close(); closeErr != nil {
			return fmt.Errorf("failed to ping database: %w (close: %v)", err, closeErr)
		}
		return fmt.Errorf("failed to ping database: %w", err)
	}

	d.db = handle
	return nil
}

// Select runs one bounded read and scans all rows into maps. Byte slices are
// converted to strings so results serialize as JSON text rather than base64.
func (d *database) Select(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	if d.db == nil {
		return nil, ErrNoDatabase
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.QueryTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows)
}

// Ping checks database connectivity.
func (d *database) Ping(ctx context.Context) error {
	if d.db == nil {
		return ErrNoDatabase
	}
	return d.db.PingContext(ctx)
}

// Close closes the connection pool.
func (d *database) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// DriverName returns the name of the database driver in use.
func (d *database) DriverName() string {
	return d.driverName
}

func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]map[string]interface{}, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}

	return results, rows.Err()
}
