package store

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// schema is applied in order on every Open. Statements must be idempotent.
// {{serial}} expands to the dialect's auto-increment primary key.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS revoked_tokens (
		jti        TEXT PRIMARY KEY,
		expires_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS training_sessions (
		id             TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		tense          TEXT NOT NULL,
		difficulty     TEXT NOT NULL,
		status         TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed')),
		started_at     TIMESTAMP NOT NULL,
		completed_at   TIMESTAMP,
		final_feedback TEXT,
		created_at     TIMESTAMP NOT NULL,
		updated_at     TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_training_sessions_user
		ON training_sessions (user_id, started_at)`,
	`CREATE TABLE IF NOT EXISTS rounds (
		id             TEXT PRIMARY KEY,
		session_id     TEXT NOT NULL REFERENCES training_sessions (id) ON DELETE CASCADE,
		round_number   INTEGER NOT NULL CHECK (round_number BETWEEN 1 AND 3),
		started_at     TIMESTAMP NOT NULL,
		completed_at   TIMESTAMP,
		score          INTEGER CHECK (score BETWEEN 0 AND 10),
		round_feedback TEXT,
		UNIQUE (session_id, round_number)
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id              TEXT PRIMARY KEY,
		round_id        TEXT NOT NULL REFERENCES rounds (id) ON DELETE CASCADE,
		question_number INTEGER NOT NULL CHECK (question_number BETWEEN 1 AND 10),
		question_text   TEXT NOT NULL,
		options         TEXT NOT NULL,
		correct_answer  TEXT NOT NULL,
		UNIQUE (round_id, question_number)
	)`,
	`CREATE TABLE IF NOT EXISTS user_answers (
		id              TEXT PRIMARY KEY,
		question_id     TEXT NOT NULL UNIQUE REFERENCES questions (id) ON DELETE CASCADE,
		session_id      TEXT NOT NULL REFERENCES training_sessions (id) ON DELETE CASCADE,
		selected_answer TEXT NOT NULL,
		is_correct      BOOLEAN NOT NULL,
		answered_at     TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS question_reports (
		id          TEXT PRIMARY KEY,
		question_id TEXT NOT NULL REFERENCES questions (id) ON DELETE CASCADE,
		user_id     TEXT NOT NULL,
		comment     TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'reviewed', 'resolved')),
		created_at  TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            {{serial}},
		created_at    TIMESTAMP NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       BOOLEAN NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_llm_request_events_created
		ON llm_request_events (created_at)`,
}

func migrate(db *sqlx.DB) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	for i, stmt := range schema {
		stmt = strings.ReplaceAll(stmt, "{{serial}}", serial)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
