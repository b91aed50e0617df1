package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Схема владеет всеми store-инвариантами: уникальность email и названия
// спорта, обязательность полей сессии, запрет дубликатов в составе
// (PRIMARY KEY в session_players), согласованность статуса и причины отмены.
var schemaStatements = []string{
	`DO $$ BEGIN
		CREATE TYPE user_role AS ENUM ('player', 'admin');
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN
		CREATE TYPE session_status AS ENUM ('active', 'cancelled');
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS users (
		id            SERIAL PRIMARY KEY,
		first_name    TEXT NOT NULL,
		last_name     TEXT NOT NULL DEFAULT '',
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          user_role NOT NULL DEFAULT 'player',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sports (
		id       SERIAL PRIMARY KEY,
		name     TEXT NOT NULL UNIQUE,
		logo_key TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id                          SERIAL PRIMARY KEY,
		sport_id                    INTEGER NOT NULL REFERENCES sports (id),
		created_by                  INTEGER NOT NULL REFERENCES users (id),
		additional_players_required INTEGER NOT NULL DEFAULT 0 CHECK (additional_players_required >= 0),
		team_names                  TEXT[] NOT NULL DEFAULT '{}',
		date                        TIMESTAMPTZ NOT NULL,
		venue                       TEXT NOT NULL,
		status                      session_status NOT NULL DEFAULT 'active',
		cancel_reason               TEXT,
		created_at                  TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK ((status = 'cancelled') = (cancel_reason IS NOT NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS session_players (
		session_id INTEGER NOT NULL REFERENCES sessions (id),
		user_id    INTEGER NOT NULL REFERENCES users (id),
		joined_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (session_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions (status)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_created_by ON sessions (created_by)`,
	`CREATE INDEX IF NOT EXISTS idx_session_players_user ON session_players (user_id)`,
}

// EnsureSchema применяет схему идемпотентно при старте приложения.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
