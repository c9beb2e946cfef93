package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"socialhub/internal/config"
)

// Init opens the configured relational database, verifies the connection
// and makes sure the tables exist.
func Init(ctx context.Context, cfg config.Config, log *slog.Logger) (*sql.DB, error) {
	driverName, dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns / 2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DBQueryTimeout)
	defer cancel()

	// 接続テスト
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := EnsureSchema(ctx, db, cfg.DBDriver); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("db.connected", "driver", cfg.DBDriver, "host", cfg.DBHost, "name", cfg.DBName)
	return db, nil
}

// DSN returns the database/sql driver name and connection string for cfg.
func DSN(cfg config.Config) (string, string, error) {
	addr := net.JoinHostPort(cfg.DBHost, cfg.DBPort)

	switch cfg.DBDriver {
	case config.DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.DBUser
		mc.Passwd = cfg.DBPassword
		mc.Net = "tcp"
		mc.Addr = addr
		mc.DBName = cfg.DBName
		mc.ParseTime = true
		mc.Loc = time.UTC
		return "mysql", mc.FormatDSN(), nil

	case config.DriverPostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
			Host:     addr,
			Path:     "/" + cfg.DBName,
			RawQuery: "sslmode=disable",
		}
		return "pgx", u.String(), nil

	default:
		return "", "", fmt.Errorf("database: unsupported driver %q", cfg.DBDriver)
	}
}
