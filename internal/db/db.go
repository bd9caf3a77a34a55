package db

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

const driverName = "sqlite"

const userSchema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL
);`

const gameResultSchema = `
CREATE TABLE IF NOT EXISTS game_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	player_id TEXT NOT NULL,
	board_size INTEGER NOT NULL,
	difficulty TEXT NOT NULL,
	human_mark TEXT NOT NULL,
	winner TEXT NOT NULL DEFAULT '',
	is_draw INTEGER NOT NULL DEFAULT 0,
	moves INTEGER NOT NULL,
	finished_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_results_player ON game_results (player_id, finished_at);`

// Connect opens the SQLite database at path. ":memory:" gives a private
// in-memory database; the pool is then limited to one connection so every
// query sees the same database.
func Connect(path string) (*sqlx.DB, error) {
	pool, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if path == ":memory:" {
		pool.SetMaxOpenConns(1)
	}
	return pool, nil
}

// InitializeDB enables foreign keys and creates the schema if needed.
func InitializeDB(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, userSchema); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	if _, err := db.ExecContext(ctx, gameResultSchema); err != nil {
		return fmt.Errorf("failed to create game_results table: %w", err)
	}

	slog.InfoContext(ctx, "DB connection initialized and schema verified.")
	return nil
}
