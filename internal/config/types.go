package config

// Config is the full startup configuration.
//
// It is loaded once at process start and never reloaded; changing the set of
// monitored pages requires a restart.
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Monitor  MonitorConfig  `json:"monitor"`
	Logging  LoggingConfig  `json:"logging"`
	History  *HistoryConfig `json:"history,omitempty"`
}

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`

	// RatePerSec caps outgoing sends per second. Defaults to 1, which is
	// well under Telegram's per-chat limits.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// MonitorConfig controls what is watched and how often.
type MonitorConfig struct {
	URLs []string `json:"urls"`

	// PollIntervalSeconds is the sleep between poll cycles. Default 300.
	PollIntervalSeconds int `json:"poll_interval_seconds,omitempty"`

	// HeartbeatTimes are "HH:MM" wall-clock instants (in Timezone) at which
	// a "no changes" message is sent if a cycle boundary lands on that
	// minute. Default ["12:00", "18:00"].
	HeartbeatTimes []string `json:"heartbeat_times,omitempty"`

	// Timezone for heartbeat matching. Default "Europe/Moscow".
	Timezone string `json:"timezone,omitempty"`

	// Sentinel is the literal phrase whose absence from a page means the
	// tickets went on sale. Default "Билеты появятся позже".
	Sentinel string `json:"sentinel,omitempty"`

	// StatePath is the JSON file holding last-seen page fingerprints.
	// Default "./page_hashes.json".
	StatePath string `json:"state_path,omitempty"`

	// MaxConcurrency bounds parallel fetches within one cycle. Default 4.
	MaxConcurrency int `json:"max_concurrency,omitempty"`

	// FetchTimeout is a Go duration string (e.g. "30s") for a single HTTP
	// request. Default "30s".
	FetchTimeout string `json:"fetch_timeout,omitempty"`

	// RecoverySleepSeconds is the pause after an unexpected cycle failure
	// before the loop resumes. Default 60.
	RecoverySleepSeconds int `json:"recovery_sleep_seconds,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// HistoryConfig controls the optional notification audit log.
//
// Driver values:
//   - "file":   append-only JSON Lines
//   - "sqlite": SQLite database file
//
// If the section is omitted or Driver is empty/"none", history is disabled.
type HistoryConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}
