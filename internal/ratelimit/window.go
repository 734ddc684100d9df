// Package ratelimit implements fixed-window counting for rate-limited
// keys. Counters live in shared state owned by the security gate; all
// mutation goes through the gate's lock (single-writer discipline).
package ratelimit

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Limit configures one rate-limited key. Zero values mean no limit.
type Limit struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

// UnmarshalYAML accepts duration strings ("1m", "30s") for the window.
func (l *Limit) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		MaxRequests int    `yaml:"max_requests"`
		Window      string `yaml:"window"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	l.MaxRequests = raw.MaxRequests
	if raw.Window == "" {
		l.Window = 0
		return nil
	}
	d, err := time.ParseDuration(raw.Window)
	if err != nil {
		return fmt.Errorf("invalid rate limit window %q: %w", raw.Window, err)
	}
	l.Window = d
	return nil
}

// Enabled reports whether the limit is actually configured.
func (l Limit) Enabled() bool {
	return l.MaxRequests > 0 && l.Window > 0
}

// State holds the counter and window start for each rate-limited key.
// Windows are independent per key: one key expiring never resets
// another key's counter.
type State struct {
	Counts       map[string]int       `json:"counts"`
	WindowStarts map[string]time.Time `json:"window_starts"`
}

// NewState creates an empty State. A key's window opens on its first
// snapshot.
func NewState() *State {
	return &State{
		Counts:       make(map[string]int),
		WindowStarts: make(map[string]time.Time),
	}
}

// Snapshot reads the current count for key. A first-seen key opens its
// window at now; an expired window resets the key's counter.
func Snapshot(s *State, key string, window time.Duration, now time.Time) int {
	if s.Counts == nil {
		s.Counts = make(map[string]int)
	}
	if s.WindowStarts == nil {
		s.WindowStarts = make(map[string]time.Time)
	}
	start, ok := s.WindowStarts[key]
	if !ok {
		s.WindowStarts[key] = now
	} else if now.Sub(start) >= window {
		s.WindowStarts[key] = now
		delete(s.Counts, key)
	}
	return s.Counts[key]
}

// Increment records one call for key.
func Increment(s *State, key string) {
	if s.Counts == nil {
		s.Counts = make(map[string]int)
	}
	s.Counts[key]++
}

// Result is the outcome of a rate check.
type Result struct {
	Blocked bool
	Key     string
	Current int
	Limit   int
}

// Check compares a count against the limit. Counts at or above the
// threshold are blocked; blocked calls are not counted further within the
// window.
func Check(count int, limit Limit) Result {
	if !limit.Enabled() {
		return Result{}
	}
	if count >= limit.MaxRequests {
		return Result{Blocked: true, Current: count, Limit: limit.MaxRequests}
	}
	return Result{Current: count, Limit: limit.MaxRequests}
}

// Evaluate performs one complete rate check for key: snapshot (resetting an
// expired window), threshold comparison, and increment when allowed.
func Evaluate(s *State, key string, limit Limit, now time.Time) Result {
	if !limit.Enabled() {
		return Result{}
	}
	count := Snapshot(s, key, limit.Window, now)
	result := Check(count, limit)
	result.Key = key
	if !result.Blocked {
		Increment(s, key)
	}
	return result
}
