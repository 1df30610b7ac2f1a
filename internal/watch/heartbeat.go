package watch

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Schedule is the set of wall-clock instants at which a "no changes"
// heartbeat should fire. It is matched against the current hour and minute
// once per poll cycle, so with a poll interval coarser than one minute a
// slot can be missed entirely when no cycle boundary lands on it. That is a
// known tradeoff of an interval poller, not something to paper over here.
type Schedule struct {
	times []clockTime
	loc   *time.Location
}

type clockTime struct {
	hour, minute int
	raw          string
}

var reHHMM = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*$`)

// ParseSchedule parses "HH:MM" strings into a schedule evaluated in loc.
func ParseSchedule(times []string, loc *time.Location) (Schedule, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := Schedule{loc: loc}
	for _, raw := range times {
		h, m, err := parseHHMM(raw)
		if err != nil {
			return Schedule{}, err
		}
		s.times = append(s.times, clockTime{hour: h, minute: m, raw: raw})
	}
	return s, nil
}

func parseHHMM(raw string) (int, int, error) {
	m := reHHMM.FindStringSubmatch(raw)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid heartbeat time %q (use HH:MM)", raw)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 {
		return 0, 0, fmt.Errorf("invalid heartbeat time %q: hour out of range", raw)
	}
	if mm > 59 {
		return 0, 0, fmt.Errorf("invalid heartbeat time %q: minute out of range", raw)
	}
	return h, mm, nil
}

// Due returns the configured entries whose hour and minute exactly match now
// in the schedule's timezone.
func (s Schedule) Due(now time.Time) []string {
	local := now.In(s.loc)
	h, m := local.Hour(), local.Minute()
	var due []string
	for _, t := range s.times {
		if t.hour == h && t.minute == m {
			due = append(due, t.raw)
		}
	}
	return due
}

// Len returns the number of configured heartbeat slots.
func (s Schedule) Len() int { return len(s.times) }
