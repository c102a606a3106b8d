package llm

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/sitka/services/datatypes"
	"github.com/AleutianAI/sitka/services/vault"
)

const (
	// maxStoredEvents caps the on-disk fallback history.
	maxStoredEvents = 50

	// maxReportedEvents caps what Recent returns to callers.
	maxReportedEvents = 20
)

// FallbackEvent is the audit record of one backend-to-backend transition
// during a failed generation attempt.
type FallbackEvent struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	FromBackend datatypes.Kind `json:"fromBackend"`
	ToBackend   datatypes.Kind `json:"toBackend"`
	Reason      string         `json:"reason"`
}

// FallbackLog is the bounded, persisted fallback-event history.
//
// # Description
//
// Append-only, capped at the 50 most recent events; queries see at most
// the 20 most recent. Every append persists the full history through the
// vault's atomic write primitive under the log's own mutex (the shared
// document's queue is not involved: distinct file, same discipline).
//
// Persistence failures are logged and non-fatal; the in-memory history
// stays authoritative for the session.
//
// # Thread Safety
//
// Safe for concurrent use.
type FallbackLog struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	events []FallbackEvent
}

// OpenFallbackLog loads the history at path. A missing or corrupt file
// starts an empty log; that is never an error.
func OpenFallbackLog(path string, logger *slog.Logger) *FallbackLog {
	if logger == nil {
		logger = slog.Default()
	}
	l := &FallbackLog{path: path, logger: logger}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &l.events); err != nil {
			logger.Warn("fallback history corrupt, starting empty",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			l.events = nil
		}
	}
	return l
}

// Append records one fallback transition and persists the history.
func (l *FallbackLog) Append(from, to datatypes.Kind, reason string) FallbackEvent {
	event := FallbackEvent{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		FromBackend: from,
		ToBackend:   to,
		Reason:      reason,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
	if len(l.events) > maxStoredEvents {
		l.events = l.events[len(l.events)-maxStoredEvents:]
	}
	l.persistLocked()

	fallbacksTotal.WithLabelValues(string(from), string(to)).Inc()
	return event
}

// Recent returns the most recent events, newest first, at most 20.
func (l *FallbackLog) Recent() []FallbackEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.events)
	if n > maxReportedEvents {
		n = maxReportedEvents
	}
	out := make([]FallbackEvent, n)
	for i := 0; i < n; i++ {
		out[i] = l.events[len(l.events)-1-i]
	}
	return out
}

// Len returns the number of stored events.
func (l *FallbackLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// persistLocked writes the full history atomically. Caller holds l.mu.
func (l *FallbackLog) persistLocked() {
	if l.path == "" {
		return
	}
	data, err := json.MarshalIndent(l.events, "", "  ")
	if err == nil {
		err = vault.Write(l.path, data, true)
	}
	if err != nil {
		l.logger.Warn("fallback history write failed",
			slog.String("path", l.path),
			slog.String("error", err.Error()),
		)
	}
}
