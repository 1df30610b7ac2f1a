package watch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ticketwatch/internal/history"
	"ticketwatch/internal/notify"
	"ticketwatch/internal/page"
)

// Fetcher fetches one page and reduces it to text + fingerprint.
type Fetcher interface {
	Check(ctx context.Context, url string) (page.Result, error)
}

// Store is the fingerprint persistence the watcher needs.
type Store interface {
	FileExists() bool
	Load() error
	Get(url string) (string, bool)
	Set(url, fingerprint string)
	Put(url, fingerprint string) error
	Save() error
}

// Config carries the already-validated monitor settings.
type Config struct {
	URLs           []string
	Sentinel       string
	PollInterval   time.Duration
	RecoverySleep  time.Duration
	MaxConcurrency int
}

// Watcher drives the poll loop: fetch every page, evaluate against stored
// fingerprints, dispatch notifications, then check heartbeat slots.
type Watcher struct {
	cfg      Config
	store    Store
	fetcher  Fetcher
	notifier notify.Notifier
	recorder history.Recorder // may be nil
	schedule Schedule
	log      zerolog.Logger

	now func() time.Time // test seam
}

func New(cfg Config, store Store, fetcher Fetcher, notifier notify.Notifier, recorder history.Recorder, schedule Schedule, log zerolog.Logger) *Watcher {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	return &Watcher{
		cfg:      cfg,
		store:    store,
		fetcher:  fetcher,
		notifier: notifier,
		recorder: recorder,
		schedule: schedule,
		log:      log.With().Str("component", "watch").Logger(),
		now:      time.Now,
	}
}

// Run prepares the store (load or first-run bootstrap) and then loops until
// ctx is cancelled. Transient failures never escape: anything unexpected is
// logged and followed by the recovery sleep.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.prepare(ctx); err != nil {
		return err
	}

	w.log.Info().
		Int("pages", len(w.cfg.URLs)).
		Dur("interval", w.cfg.PollInterval).
		Int("heartbeat_slots", w.schedule.Len()).
		Msg("monitoring started")

	for {
		err := w.cycle(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		sleep := w.cfg.PollInterval
		if err != nil {
			w.log.Error().Err(err).Dur("recovery_sleep", w.cfg.RecoverySleep).Msg("cycle failed, resuming after pause")
			sleep = w.cfg.RecoverySleep
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// prepare loads the durable state, or on a true first run (no state file)
// collects initial fingerprints for every page without notifying anyone.
func (w *Watcher) prepare(ctx context.Context) error {
	if w.store.FileExists() {
		if err := w.store.Load(); err != nil {
			return err
		}
		w.log.Info().Msg("fingerprint state loaded")
		return nil
	}

	w.log.Info().Msg("no fingerprint state found, collecting initial fingerprints")
	results := w.fetchAll(ctx)
	for i, url := range w.cfg.URLs {
		if results[i].err != nil {
			w.log.Warn().Err(results[i].err).Str("url", url).Msg("initial fetch failed, page starts unseen")
			continue
		}
		w.store.Set(url, results[i].res.Fingerprint)
		w.log.Info().Str("url", url).Msg("initial fingerprint recorded")
	}
	if err := w.store.Save(); err != nil {
		w.log.Error().Err(err).Msg("saving initial fingerprints failed, keeping them in memory")
	}
	return ctx.Err()
}

// cycle runs one full poll pass plus the heartbeat check. Panics inside the
// pass are converted to errors so the outer loop can recover.
func (w *Watcher) cycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("cycle panicked")
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()

	results := w.fetchAll(ctx)
	for i, url := range w.cfg.URLs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if results[i].err != nil {
			w.log.Warn().Err(results[i].err).Str("url", url).Msg("check skipped this cycle")
			continue
		}
		w.safeEvaluate(ctx, url, results[i].res)
	}

	w.heartbeat(ctx)
	return ctx.Err()
}

type checkResult struct {
	res page.Result
	err error
}

// fetchAll fans the fetches out over a bounded worker pool and returns the
// results positionally, so evaluation keeps configuration order.
func (w *Watcher) fetchAll(ctx context.Context) []checkResult {
	results := make([]checkResult, len(w.cfg.URLs))
	sem := make(chan struct{}, w.cfg.MaxConcurrency)
	var wg sync.WaitGroup
	for i, url := range w.cfg.URLs {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			res, err := w.fetcher.Check(ctx, url)
			results[i] = checkResult{res: res, err: err}
		}(i, url)
	}
	wg.Wait()
	return results
}

// safeEvaluate keeps a fault in one page's evaluation from stopping the
// remaining pages in the same cycle.
func (w *Watcher) safeEvaluate(ctx context.Context, url string, res page.Result) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Interface("panic", r).Str("url", url).Str("stack", string(debug.Stack())).Msg("evaluation panicked")
		}
	}()
	w.evaluate(ctx, url, res)
}

// evaluate applies the change rules to one fetched page. Notifications go
// out before the store write: if the process dies in between, the change is
// re-detected and re-notified on restart (at-least-once, never silently lost).
func (w *Watcher) evaluate(ctx context.Context, url string, res page.Result) {
	prior, seen := w.store.Get(url)
	outcome := Evaluate(res.Text, res.Fingerprint, prior, seen, w.cfg.Sentinel)

	switch outcome {
	case OutcomeFirstSeen:
		w.log.Info().Str("url", url).Msg("first check, fingerprint recorded")
	case OutcomeAvailable:
		w.dispatch(ctx, history.KindAvailable, url, availableMessage(url))
	case OutcomeChanged:
		w.log.Info().Str("url", url).Str("old_hash", prior).Str("new_hash", res.Fingerprint).Msg("page content changed")
		w.dispatch(ctx, history.KindChanged, url, changedMessage(url))
	case OutcomeUnchanged:
		w.log.Debug().Str("url", url).Msg("no changes detected")
		return
	}

	if err := w.store.Put(url, res.Fingerprint); err != nil {
		w.log.Error().Err(err).Str("url", url).Msg("persisting fingerprint failed, in-memory state stays authoritative")
	}
}

// heartbeat dispatches the "no changes" message for every schedule slot
// matching the current minute. Called once per cycle, so coarse poll
// intervals can skip a slot; see Schedule.
func (w *Watcher) heartbeat(ctx context.Context) {
	for range w.schedule.Due(w.now()) {
		w.dispatch(ctx, history.KindHeartbeat, "", heartbeatMessage())
	}
}

// dispatch sends a notification and records it in the audit log. Neither
// failure aborts the cycle.
func (w *Watcher) dispatch(ctx context.Context, kind, url, text string) {
	sendErr := w.notifier.Send(ctx, text)
	if sendErr != nil {
		w.log.Error().Err(sendErr).Str("kind", kind).Str("url", url).Msg("notification send failed")
	} else {
		w.log.Info().Str("kind", kind).Str("url", url).Msg("notification sent")
	}

	if w.recorder == nil {
		return
	}
	e := history.Entry{At: w.now(), Kind: kind, URL: url, Text: text}
	if sendErr != nil {
		e.Error = sendErr.Error()
	}
	if err := w.recorder.Append(ctx, e); err != nil {
		w.log.Error().Err(err).Str("kind", kind).Msg("history append failed")
	}
}

func availableMessage(url string) string {
	return fmt.Sprintf("Внимание! На странице %s билеты, возможно, появились!", url)
}

func changedMessage(url string) string {
	return fmt.Sprintf("Внимание! На странице %s произошли изменения (хеш изменился), но билеты все еще 'появятся позже'.", url)
}

func heartbeatMessage() string {
	return "Ежедневное уведомление: Изменений на отслеживаемых страницах не обнаружено."
}
