package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults mirror the values the tool originally shipped with.
const (
	DefaultPollIntervalSeconds  = 300
	DefaultRecoverySleepSeconds = 60
	DefaultTimezone             = "Europe/Moscow"
	DefaultSentinel             = "Билеты появятся позже"
	DefaultStatePath            = "./page_hashes.json"
	DefaultMaxConcurrency       = 4
	DefaultFetchTimeout         = 30 * time.Second
)

// Env override names. The config file wins only when these are unset.
const (
	EnvToken  = "TELEGRAM_BOT_TOKEN"
	EnvChatID = "TELEGRAM_CHAT_ID"
)

// Load reads, decodes and validates the config at path.
// Unknown fields are rejected so typos surface at startup rather than as
// silently ignored settings.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, _, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated documents)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		c.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvChatID)); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Telegram.RatePerSec <= 0 {
		c.Telegram.RatePerSec = 1
	}
	if c.Monitor.PollIntervalSeconds <= 0 {
		c.Monitor.PollIntervalSeconds = DefaultPollIntervalSeconds
	}
	if c.Monitor.RecoverySleepSeconds <= 0 {
		c.Monitor.RecoverySleepSeconds = DefaultRecoverySleepSeconds
	}
	if len(c.Monitor.HeartbeatTimes) == 0 {
		c.Monitor.HeartbeatTimes = []string{"12:00", "18:00"}
	}
	if strings.TrimSpace(c.Monitor.Timezone) == "" {
		c.Monitor.Timezone = DefaultTimezone
	}
	if c.Monitor.Sentinel == "" {
		c.Monitor.Sentinel = DefaultSentinel
	}
	if strings.TrimSpace(c.Monitor.StatePath) == "" {
		c.Monitor.StatePath = DefaultStatePath
	}
	if c.Monitor.MaxConcurrency <= 0 {
		c.Monitor.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate rejects configs the daemon cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required (or set %s)", EnvToken)
	}
	if c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id is required (or set %s)", EnvChatID)
	}
	if len(c.Monitor.URLs) == 0 {
		return fmt.Errorf("monitor.urls must list at least one page")
	}
	for _, raw := range c.Monitor.URLs {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("monitor.urls: %q is not an absolute URL", raw)
		}
	}
	if _, err := time.LoadLocation(c.Monitor.Timezone); err != nil {
		return fmt.Errorf("monitor.timezone: %w", err)
	}
	if _, err := ParseDurationOrDefault("monitor.fetch_timeout", c.Monitor.FetchTimeout, DefaultFetchTimeout); err != nil {
		return err
	}
	if c.History != nil {
		switch d := strings.ToLower(strings.TrimSpace(c.History.Driver)); d {
		case "", "none":
		case "file", "sqlite", "sqlite3":
			if strings.TrimSpace(c.History.Path) == "" {
				return fmt.Errorf("history.path is required for driver %q", d)
			}
		default:
			return fmt.Errorf("history.driver: unknown driver %q", c.History.Driver)
		}
		if _, err := ParseDurationField("history.busy_timeout", c.History.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}

// PollInterval returns the cycle sleep as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Monitor.PollIntervalSeconds) * time.Second
}

// RecoverySleep returns the post-failure pause as a duration.
func (c *Config) RecoverySleep() time.Duration {
	return time.Duration(c.Monitor.RecoverySleepSeconds) * time.Second
}

// FetchTimeout returns the per-request timeout, falling back to the default.
// Validate has already checked the string parses.
func (c *Config) FetchTimeout() time.Duration {
	d, err := ParseDurationOrDefault("monitor.fetch_timeout", c.Monitor.FetchTimeout, DefaultFetchTimeout)
	if err != nil {
		return DefaultFetchTimeout
	}
	return d
}
