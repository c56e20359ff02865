// Package database provides PostgreSQL connection management and schema
// migrations.
package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds database connection configuration.
type Config struct {
	// Enabled is false when the API should run without a database.
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host" validate:"required_if=Enabled true"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	User            string        `koanf:"user" validate:"required_if=Enabled true"`
	Password        string        `koanf:"password"`
	Database        string        `koanf:"name" validate:"required_if=Enabled true"`
	SSLMode         string        `koanf:"ssl_mode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"min=1,max=1000"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0,max=1000"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	// Migrate applies pending schema migrations on startup.
	Migrate bool `koanf:"migrate"`
}

// DefaultConfig returns the configuration used by the local compose stack.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		Host:            "postgres",
		Port:            5432,
		User:            "travelrecap",
		Password:        "travelrecap_password",
		Database:        "travelrecap",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		Migrate:         true,
	}
}

// ConnectionString returns the PostgreSQL connection string.
func (c Config) ConnectionString() string {
	return c.url("postgres")
}

// MigrationURL returns the connection string understood by the pgx/v5
// migrate driver.
func (c Config) MigrationURL() string {
	return c.url("pgx5")
}

func (c Config) url(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Connect creates a new database connection pool.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns) //nolint:gosec // MaxOpenConns is bounded by config validation
	poolConfig.MinConns = int32(cfg.MaxIdleConns) //nolint:gosec // MaxIdleConns is bounded by config validation
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
