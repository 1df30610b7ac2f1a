package page

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ticketwatch/internal/hashstore"
)

const samplePage = `<html><head>
<style>body { color: red }</style>
<script>var tracking = "xyz";</script>
</head><body>
<h1>Афиша</h1>
<p>Билеты появятся позже</p>
</body></html>`

func TestExtractTextStripsMarkup(t *testing.T) {
	t.Parallel()
	text, err := ExtractText(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(text, "Билеты появятся позже") {
		t.Errorf("visible text missing from extraction: %q", text)
	}
	if strings.Contains(text, "tracking") {
		t.Errorf("script content leaked into text: %q", text)
	}
	if strings.Contains(text, "color: red") {
		t.Errorf("style content leaked into text: %q", text)
	}
	if strings.Contains(text, "<h1>") {
		t.Errorf("markup leaked into text: %q", text)
	}
}

func TestCheckSuccess(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	c := NewChecker(5*time.Second, zerolog.Nop())
	res, err := c.Check(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !strings.Contains(res.Text, "Билеты появятся позже") {
		t.Errorf("Text = %q, want sentinel present", res.Text)
	}
	if res.Fingerprint != hashstore.Fingerprint(res.Text) {
		t.Error("Fingerprint does not match hash of extracted text")
	}
}

func TestCheckStatusError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone fishing", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewChecker(5*time.Second, zerolog.Nop())
	_, err := c.Check(context.Background(), srv.URL)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Check error = %v, want *FetchError", err)
	}
	if fe.URL != srv.URL {
		t.Errorf("FetchError.URL = %q, want %q", fe.URL, srv.URL)
	}
}

func TestCheckTransportError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewChecker(time.Second, zerolog.Nop())
	_, err := c.Check(context.Background(), srv.URL)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Check error = %v, want *FetchError", err)
	}
}
