// internal/adapter/storage/toolcall_store.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"tokscope/internal/domain/audit"
)

// Schema creates the audit table when missing
const Schema = `
	CREATE TABLE IF NOT EXISTS tool_calls (
		id          UUID PRIMARY KEY,
		tool        TEXT NOT NULL,
		transport   TEXT NOT NULL,
		post_ref    TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL,
		error_text  TEXT NOT NULL DEFAULT '',
		duration_ms BIGINT NOT NULL,
		started_at  TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS tool_calls_started_at_idx ON tool_calls (started_at DESC);
`

const maxRecentCalls = 500

// DB is the subset of *pgxpool.Pool used by the store
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// ToolCallStore implements audit storage for tool invocations
type ToolCallStore struct {
	db DB
}

// NewToolCallStore creates a new tool call store
func NewToolCallStore(db DB) *ToolCallStore {
	return &ToolCallStore{
		db: db,
	}
}

// Migrate applies Schema
func (s *ToolCallStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("error applying schema: %w", err)
	}
	return nil
}

// RecordCall saves a tool invocation
func (s *ToolCallStore) RecordCall(ctx context.Context, c audit.ToolCall) error {
	query := `
		INSERT INTO tool_calls (
			id, tool, transport, post_ref, status, error_text, duration_ms, started_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (id) DO NOTHING
	`

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.StartedAt.IsZero() {
		c.StartedAt = time.Now()
	}
	if c.Status == "" {
		c.Status = audit.StatusOK
	}

	_, err := s.db.Exec(
		ctx,
		query,
		c.ID,
		c.Tool,
		c.Transport,
		c.PostRef,
		c.Status,
		c.ErrorText,
		c.Duration.Milliseconds(),
		c.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

// RecentCalls returns the latest invocations, optionally for one tool
func (s *ToolCallStore) RecentCalls(ctx context.Context, tool string, limit int) ([]audit.ToolCall, error) {
	if limit <= 0 || limit > maxRecentCalls {
		limit = maxRecentCalls
	}

	query := `
		SELECT id, tool, transport, post_ref, status, error_text, duration_ms, started_at
		FROM tool_calls
	`
	args := []interface{}{}
	if tool != "" {
		query += " WHERE tool = $1"
		args = append(args, tool)
	}
	query += fmt.Sprintf(" ORDER BY started_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	calls := []audit.ToolCall{}
	for rows.Next() {
		var c audit.ToolCall
		var durationMs int64

		err := rows.Scan(
			&c.ID,
			&c.Tool,
			&c.Transport,
			&c.PostRef,
			&c.Status,
			&c.ErrorText,
			&durationMs,
			&c.StartedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning tool call: %w", err)
		}
		c.Duration = time.Duration(durationMs) * time.Millisecond

		calls = append(calls, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tool calls: %w", err)
	}

	return calls, nil
}
