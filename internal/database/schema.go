package database

import (
	"context"
	"database/sql"
	"fmt"

	"socialhub/internal/config"
)

// Tables are created when missing. Existing tables are never altered.
// Logins compare byte for byte on every driver, so MySQL uses utf8mb4_bin.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		login VARCHAR(191) COLLATE utf8mb4_bin NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		description TEXT NULL,
		avatar_url VARCHAR(255) NOT NULL DEFAULT '',
		is_profile_complete BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME(6) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
	`CREATE TABLE IF NOT EXISTS posts (
		id_post BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		date DATETIME(6) NOT NULL,
		description TEXT NOT NULL,
		image_url VARCHAR(255) NOT NULL,
		INDEX idx_posts_user (user_id),
		CONSTRAINT fk_posts_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
	`CREATE TABLE IF NOT EXISTS messages (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		sender VARCHAR(191) COLLATE utf8mb4_bin NOT NULL,
		receiver VARCHAR(191) COLLATE utf8mb4_bin NOT NULL,
		body TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_messages_pair (sender, receiver, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		login TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		description TEXT NULL,
		avatar_url TEXT NOT NULL DEFAULT '',
		is_profile_complete BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id_post BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		date TIMESTAMPTZ NOT NULL,
		description TEXT NOT NULL,
		image_url TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_user ON posts (user_id)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		sender TEXT NOT NULL,
		receiver TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages (sender, receiver, created_at)`,
}

// EnsureSchema creates the users, posts and messages tables for driver.
func EnsureSchema(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case config.DriverMySQL:
		stmts = mysqlSchema
	case config.DriverPostgres:
		stmts = postgresSchema
	default:
		return fmt.Errorf("database: unsupported driver %q", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
