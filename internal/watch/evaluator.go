// Package watch holds the monitor's decision logic: what a fresh page
// observation means relative to stored state, when heartbeats are due, and
// the loop that drives both.
package watch

import "strings"

// Outcome classifies one page observation within a poll cycle.
type Outcome int

const (
	// OutcomeUnchanged: sentinel present, fingerprint matches the stored
	// one. No notification, no store mutation.
	OutcomeUnchanged Outcome = iota

	// OutcomeFirstSeen: no prior fingerprint exists. The store is seeded
	// silently; nothing else is evaluated this cycle.
	OutcomeFirstSeen

	// OutcomeAvailable: the sentinel phrase is gone, i.e. tickets are
	// (probably) on sale. Fires every cycle while the sentinel stays
	// absent, even with an unchanged fingerprint.
	OutcomeAvailable

	// OutcomeChanged: sentinel still present but the page text changed.
	OutcomeChanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeFirstSeen:
		return "first_seen"
	case OutcomeAvailable:
		return "available"
	case OutcomeChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// Notifies reports whether the outcome dispatches a notification.
func (o Outcome) Notifies() bool {
	return o == OutcomeAvailable || o == OutcomeChanged
}

// Mutates reports whether the outcome updates the fingerprint store.
func (o Outcome) Mutates() bool {
	return o != OutcomeUnchanged
}

// Evaluate decides what a freshly fetched page means.
//
// prior/seen come from the fingerprint store. The order is fixed: a page
// never observed before only seeds the store, even when the sentinel is
// already absent; the availability check outranks the plain fingerprint
// comparison on every later cycle.
func Evaluate(text, fingerprint, prior string, seen bool, sentinel string) Outcome {
	if !seen {
		return OutcomeFirstSeen
	}
	if !strings.Contains(text, sentinel) {
		return OutcomeAvailable
	}
	if fingerprint != prior {
		return OutcomeChanged
	}
	return OutcomeUnchanged
}
