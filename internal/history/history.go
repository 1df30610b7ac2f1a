// Package history keeps an audit trail of every notification the monitor
// dispatched (or failed to dispatch). It is an operational aid: the
// fingerprint store, not this log, drives change detection.
package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var ErrDisabled = errors.New("history disabled")

// Entry kinds.
const (
	KindAvailable = "available"
	KindChanged   = "changed"
	KindHeartbeat = "heartbeat"
)

// Entry records one dispatched notification. Keep it compact and
// schema-stable.
type Entry struct {
	At    time.Time `json:"at"`
	Kind  string    `json:"kind"`
	URL   string    `json:"url,omitempty"`
	Text  string    `json:"text"`
	Error string    `json:"error,omitempty"`
}

// Recorder is the minimal audit API used by the watch loop.
type Recorder interface {
	Append(ctx context.Context, e Entry) error
	Close() error
}

// Config configures history persistence.
//
// Driver values:
//   - "file":   append-only JSON Lines
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Open initializes the configured recorder.
// It returns (nil, nil) if history is disabled.
func Open(cfg Config, log zerolog.Logger) (Recorder, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
}
