// Package page fetches a monitored page and reduces it to the visible text
// plus its content fingerprint.
package page

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"ticketwatch/internal/hashstore"
)

const userAgent = "ticketwatch/1.0"

// Result is the per-cycle observation of a single page. Never persisted.
type Result struct {
	Text        string
	Fingerprint string
}

// FetchError marks transport and HTTP-status failures. The cycle skips the
// page and the next poll retries naturally.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// Checker performs the HTTP fetch and text extraction.
type Checker struct {
	client *http.Client
	log    zerolog.Logger
}

func NewChecker(timeout time.Duration, log zerolog.Logger) *Checker {
	return &Checker{
		client: &http.Client{Timeout: timeout},
		log:    log.With().Str("component", "checker").Logger(),
	}
}

// Check fetches url and returns its extracted text and fingerprint.
// Any transport or status failure comes back as a *FetchError.
func (c *Checker) Check(ctx context.Context, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &FetchError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	text, err := ExtractText(resp.Body)
	if err != nil {
		return Result{}, &FetchError{URL: url, Err: err}
	}

	res := Result{Text: text, Fingerprint: hashstore.Fingerprint(text)}
	c.log.Debug().Str("url", url).Int("text_len", len(text)).Str("hash", shortHash(res.Fingerprint)).Msg("page fetched")
	return res, nil
}

func shortHash(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
