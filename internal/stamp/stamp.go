// Package stamp issues millisecond timestamps that never repeat within a
// process, for ids built as "<prefix>_<unix-ms>".
package stamp

import (
	"sync"
	"time"
)

// Source hands out strictly increasing unix-millisecond values.
// When two calls land in the same millisecond the second one is bumped
// forward, so ids derived from it stay unique.
type Source struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// New creates a Source reading the given clock. A nil clock uses time.Now.
func New(now func() time.Time) *Source {
	if now == nil {
		now = time.Now
	}
	return &Source{now: now}
}

// Next returns the current unix-millisecond time, or last+1 if the clock
// has not advanced since the previous call.
func (s *Source) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := s.now().UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return ms
}
