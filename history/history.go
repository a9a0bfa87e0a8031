package history

import (
	"context"
	"errors"
	"fmt"
	"os/user"
	"strings"
	"time"
)

const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusUnchanged = "unchanged"
)

// ErrListUnsupported is returned by recorders that only publish
var ErrListUnsupported = errors.New("history backend does not support listing")

// Record is one apply run
type Record struct {
	ID            int64         `json:"id,omitempty"`
	Manifest      string        `json:"manifest"`
	Checksum      string        `json:"checksum"`
	AppliedAt     time.Time     `json:"applied_at"`
	ExecutionTime time.Duration `json:"execution_time"`
	ExecutedBy    string        `json:"executed_by"`
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	Statements    int           `json:"statements"`
	Summary       string        `json:"summary,omitempty"`
}

// Recorder stores apply history
type Recorder interface {
	Record(ctx context.Context, r Record) error
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Config selects and addresses a backend
type Config struct {
	Type    string
	DSN     string
	Brokers []string
	Topic   string
}

// Open connects the configured backend. Type "none" (or empty) yields a nil Recorder.
func Open(ctx context.Context, cfg Config) (Recorder, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "none":
		return nil, nil
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN)
	case "sqlite":
		return OpenSQLite(ctx, cfg.DSN)
	case "kafka":
		return NewKafka(cfg.Brokers, cfg.Topic)
	}
	return nil, fmt.Errorf("unknown history type %q (expected none, postgres, sqlite or kafka)", cfg.Type)
}

// CurrentUser names the OS account running the apply
func CurrentUser() string {
	current, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return current.Username
}
