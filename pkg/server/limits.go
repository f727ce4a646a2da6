package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostLimiter limits login attempts per remote host. Callers that drop the
// client cookie get a fresh client on every request, but still share the
// budget of their address.
type hostLimiter struct {
	mu    sync.Mutex
	limit rate.Limit
	burst int
	hosts map[string]*hostEntry
}

type hostEntry struct {
	limiter *rate.Limiter
	last    time.Time
}

func newHostLimiter(limit rate.Limit, burst int) *hostLimiter {
	return &hostLimiter{
		limit: limit,
		burst: burst,
		hosts: make(map[string]*hostEntry),
	}
}

// Allow reports whether host may make an attempt at now.
func (l *hostLimiter) Allow(host string, now time.Time) bool {
	if l.limit == rate.Inf {
		return true
	}

	l.mu.Lock()
	e, ok := l.hosts[host]
	if !ok {
		e = &hostEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.hosts[host] = e
	}
	e.last = now
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Sweep forgets hosts without attempts for idle and returns how many
// were dropped.
func (l *hostLimiter) Sweep(now time.Time, idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for host, e := range l.hosts {
		if now.Sub(e.last) >= idle {
			delete(l.hosts, host)
			n++
		}
	}
	return n
}

// Len returns the number of tracked hosts.
func (l *hostLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hosts)
}

// remoteHost returns the host part of r.RemoteAddr.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
