package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"

	"ticketwatch/internal/config"
	"ticketwatch/internal/hashstore"
	"ticketwatch/internal/history"
	"ticketwatch/internal/logging"
	"ticketwatch/internal/notify"
	"ticketwatch/internal/page"
	"ticketwatch/internal/watch"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logging.New(logging.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console || !cfg.Logging.File.Enabled,
		File: logging.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	defer closeLog()

	loc, err := time.LoadLocation(cfg.Monitor.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	schedule, err := watch.ParseSchedule(cfg.Monitor.HeartbeatTimes, loc)
	if err != nil {
		return fmt.Errorf("heartbeat schedule: %w", err)
	}

	telegram, err := notify.NewTelegram(notify.TelegramConfig{
		Token:      cfg.Telegram.Token,
		ChatID:     cfg.Telegram.ChatID,
		RatePerSec: cfg.Telegram.RatePerSec,
	}, log)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	recorder, err := openHistory(cfg, log)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if recorder != nil {
		defer recorder.Close()
	}

	store := hashstore.New(cfg.Monitor.StatePath, log)
	checker := page.NewChecker(cfg.FetchTimeout(), log)

	watcher := watch.New(watch.Config{
		URLs:           cfg.Monitor.URLs,
		Sentinel:       cfg.Monitor.Sentinel,
		PollInterval:   cfg.PollInterval(),
		RecoverySleep:  cfg.RecoverySleep(),
		MaxConcurrency: cfg.Monitor.MaxConcurrency,
	}, store, checker, telegram, recorder, schedule, log)

	notifySystemd(ctx, log)

	log.Info().Str("config", cfgPath).Str("timezone", cfg.Monitor.Timezone).Msg("ticketwatch starting")
	err = watcher.Run(ctx)
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil && ctx.Err() != nil {
		// Clean signal shutdown.
		log.Info().Msg("ticketwatch stopped")
		return nil
	}
	return err
}

func openHistory(cfg *config.Config, log zerolog.Logger) (history.Recorder, error) {
	if cfg.History == nil {
		return nil, nil
	}
	busy, err := config.ParseDurationField("history.busy_timeout", cfg.History.BusyTimeout)
	if err != nil {
		return nil, err
	}
	return history.Open(history.Config{
		Driver:      cfg.History.Driver,
		Path:        cfg.History.Path,
		BusyTimeout: busy,
	}, log)
}

// notifySystemd reports readiness and, when the unit has WatchdogSec set,
// keeps pinging the watchdog at half its interval.
func notifySystemd(ctx context.Context, log zerolog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		log.Warn().Err(err).Msg("sd_notify failed")
		return
	}
	if !sent {
		return // not running under systemd
	}

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	}()
}
