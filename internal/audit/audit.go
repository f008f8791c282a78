// Package audit provides an append-only JSONL trail of access and analysis events.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// EventType represents the type of audit event.
type EventType string

const (
	EventLogin          EventType = "LOGIN"
	EventLogout         EventType = "LOGOUT"
	EventAuthFailed     EventType = "AUTH_FAILED"
	EventCodeIssued     EventType = "CODE_ISSUED"
	EventCodeRevoked    EventType = "CODE_REVOKED"
	EventAnalysisRun    EventType = "ANALYSIS_RUN"
	EventHistoryCleared EventType = "HISTORY_CLEARED"
)

// Event is a single audit log entry.
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	EventType EventType              `json:"event_type"`
	Role      string                 `json:"role,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Success   bool                   `json:"success"`
	ErrorMsg  string                 `json:"error,omitempty"`
}

// Logger appends audit events to a rotating JSONL file.
type Logger struct {
	writer *lumberjack.Logger
	mu     sync.Mutex
}

// NewLogger creates an audit logger writing under logDir.
func NewLogger(logDir string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}
	return &Logger{
		writer: &lumberjack.Logger{
			Filename:   filepath.Join(logDir, "audit.jsonl"),
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     90, // days
			Compress:   true,
		},
	}, nil
}

// Log appends one event. Audit failures are swallowed: the trail is
// best effort and must never fail the triggering action.
func (l *Logger) Log(eventType EventType, role string, success bool, errMsg string, details map[string]interface{}) {
	if l == nil {
		return
	}

	event := Event{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Role:      role,
		Details:   details,
		Success:   success,
		ErrorMsg:  errMsg,
	}

	line, err := json.Marshal(event)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer.Write(append(line, '\n'))
}

// Close closes the underlying writer.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	return l.writer.Close()
}
