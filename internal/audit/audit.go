// Package audit writes a JSONL trail of anonymization runs. Entries
// record what was done, never the matched text itself.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry describes one analyze or anonymize run.
type Entry struct {
	Timestamp    string         `json:"timestamp"`
	Operation    string         `json:"operation"`
	Backend      string         `json:"backend"`
	Style        string         `json:"style,omitempty"`
	TextChars    int            `json:"text_chars"`
	EntityCounts map[string]int `json:"entity_counts,omitempty"`
}

// Logger records audit entries.
type Logger interface {
	Log(entry Entry) error
}

// JSONLLogger appends entries to a newline-delimited JSON file.
type JSONLLogger struct {
	path string
	mu   sync.Mutex
}

// NewJSONLLogger ensures the log file exists and is writable.
func NewJSONLLogger(path string) (*JSONLLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create audit log: %w", err)
	}
	_ = f.Close()
	return &JSONLLogger{path: path}, nil
}

// Log appends one entry, stamping it with the current UTC time.
func (l *JSONLLogger) Log(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Nop discards entries. Used when auditing is disabled.
type Nop struct{}

func (Nop) Log(Entry) error { return nil }
