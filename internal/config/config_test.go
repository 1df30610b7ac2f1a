package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalYAML = `
telegram:
  token: "123:abc"
  chat_id: -100500
monitor:
  urls:
    - https://example.org/afisha
`

// clearEnv shields a test from ambient bot credentials.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvToken, "")
	t.Setenv(EnvChatID, "")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "config.yaml", minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Monitor.PollIntervalSeconds != DefaultPollIntervalSeconds {
		t.Errorf("PollIntervalSeconds = %d, want %d", cfg.Monitor.PollIntervalSeconds, DefaultPollIntervalSeconds)
	}
	if got, want := cfg.PollInterval(), 300*time.Second; got != want {
		t.Errorf("PollInterval() = %v, want %v", got, want)
	}
	if cfg.Monitor.Sentinel != DefaultSentinel {
		t.Errorf("Sentinel = %q, want default", cfg.Monitor.Sentinel)
	}
	if cfg.Monitor.Timezone != DefaultTimezone {
		t.Errorf("Timezone = %q, want %q", cfg.Monitor.Timezone, DefaultTimezone)
	}
	if got := cfg.Monitor.HeartbeatTimes; len(got) != 2 || got[0] != "12:00" || got[1] != "18:00" {
		t.Errorf("HeartbeatTimes = %v, want [12:00 18:00]", got)
	}
	if cfg.Monitor.StatePath != DefaultStatePath {
		t.Errorf("StatePath = %q, want %q", cfg.Monitor.StatePath, DefaultStatePath)
	}
	if cfg.FetchTimeout() != DefaultFetchTimeout {
		t.Errorf("FetchTimeout() = %v, want %v", cfg.FetchTimeout(), DefaultFetchTimeout)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	clearEnv(t)
	body := minimalYAML + "\nchek_interval: 10\n"
	if _, err := Load(writeConfig(t, "config.yaml", body)); err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}

func TestLoadValidation(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing token",
			body: "telegram:\n  chat_id: 1\nmonitor:\n  urls: [\"https://a.example\"]\n",
			want: "telegram.token",
		},
		{
			name: "missing chat id",
			body: "telegram:\n  token: t\nmonitor:\n  urls: [\"https://a.example\"]\n",
			want: "telegram.chat_id",
		},
		{
			name: "no urls",
			body: "telegram:\n  token: t\n  chat_id: 1\nmonitor:\n  urls: []\n",
			want: "monitor.urls",
		},
		{
			name: "relative url",
			body: "telegram:\n  token: t\n  chat_id: 1\nmonitor:\n  urls: [\"/afisha\"]\n",
			want: "not an absolute URL",
		},
		{
			name: "bad timezone",
			body: "telegram:\n  token: t\n  chat_id: 1\nmonitor:\n  urls: [\"https://a.example\"]\n  timezone: Mars/Olympus\n",
			want: "monitor.timezone",
		},
		{
			name: "bad history driver",
			body: "telegram:\n  token: t\n  chat_id: 1\nmonitor:\n  urls: [\"https://a.example\"]\nhistory:\n  driver: postgres\n  path: x\n",
			want: "history.driver",
		},
		{
			name: "history path required",
			body: "telegram:\n  token: t\n  chat_id: 1\nmonitor:\n  urls: [\"https://a.example\"]\nhistory:\n  driver: sqlite\n  path: \"\"\n",
			want: "history.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.yaml", tt.body))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvToken, "env-token")
	t.Setenv(EnvChatID, "42")

	body := "telegram:\n  token: file-token\n  chat_id: 1\nmonitor:\n  urls: [\"https://a.example\"]\n"
	cfg, err := Load(writeConfig(t, "config.yaml", body))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Errorf("Token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Telegram.ChatID != 42 {
		t.Errorf("ChatID = %d, want 42", cfg.Telegram.ChatID)
	}
}

func TestLoadJSON(t *testing.T) {
	clearEnv(t)
	body := `{"telegram":{"token":"t","chat_id":7},"monitor":{"urls":["https://a.example"]}}`
	cfg, err := Load(writeConfig(t, "config.json", body))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.ChatID != 7 {
		t.Errorf("ChatID = %d, want 7", cfg.Telegram.ChatID)
	}
}
