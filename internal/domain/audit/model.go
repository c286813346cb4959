// internal/domain/audit/model.go

package audit

import (
	"context"
	"time"
)

// Call outcome
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ToolCall records one tool invocation. Results are never stored.
type ToolCall struct {
	ID        string        `json:"id"`
	Tool      string        `json:"tool"`
	Transport string        `json:"transport"`
	PostRef   string        `json:"post_ref,omitempty"`
	Status    string        `json:"status"`
	ErrorText string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	StartedAt time.Time     `json:"started_at"`
}

// Recorder persists tool invocations
type Recorder interface {
	RecordCall(ctx context.Context, call ToolCall) error
}

// Reader lists recorded invocations, newest first
type Reader interface {
	RecentCalls(ctx context.Context, tool string, limit int) ([]ToolCall, error)
}
