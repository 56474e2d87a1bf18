package gateway

import (
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// authRateLimiter tracks failed handshakes per IP to slow down token guessing.
type authRateLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
}

const (
	authRateWindow   = 5 * time.Minute
	authRateMaxFails = 10
	authRateMaxIPs   = 10000 // max tracked IPs to prevent memory exhaustion
)

func newAuthRateLimiter() *authRateLimiter {
	return &authRateLimiter{failures: make(map[string][]time.Time)}
}

func clientHost(remoteAddr string) string {
	host, _, _ := net.SplitHostPort(remoteAddr)
	if host == "" {
		host = remoteAddr
	}
	return host
}

func (l *authRateLimiter) allow(remoteAddr string) bool {
	host := clientHost(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-authRateWindow)
	recent := l.failures[host]
	filtered := recent[:0]
	for _, t := range recent {
		if t.After(cutoff) {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		delete(l.failures, host)
		return true
	}
	l.failures[host] = filtered
	return len(filtered) < authRateMaxFails
}

func (l *authRateLimiter) recordFailure(remoteAddr string) {
	host := clientHost(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.failures[host]; !exists && len(l.failures) >= authRateMaxIPs {
		var oldestIP string
		var oldestTime time.Time
		for ip, times := range l.failures {
			if len(times) > 0 && (oldestIP == "" || times[0].Before(oldestTime)) {
				oldestIP = ip
				oldestTime = times[0]
			}
		}
		if oldestIP != "" {
			delete(l.failures, oldestIP)
		}
	}

	l.failures[host] = append(l.failures[host], time.Now())
}

// sessionLimiter applies a token bucket per widget session to the demo
// reply endpoint. A nil *sessionLimiter allows everything.
type sessionLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	sessions map[string]*sessionBucket
	now      func() time.Time
}

type sessionBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

const (
	sessionIdle       = 10 * time.Minute
	sessionMaxBuckets = 10000
)

// newSessionLimiter returns nil when perSecond is not positive.
func newSessionLimiter(perSecond float64, burst int) *sessionLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &sessionLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		sessions: make(map[string]*sessionBucket),
		now:      time.Now,
	}
}

func (l *sessionLimiter) allow(session string) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.sessions[session]
	if !ok {
		if len(l.sessions) >= sessionMaxBuckets {
			l.prune(now)
		}
		b = &sessionBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.sessions[session] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// prune drops idle buckets. Callers hold l.mu.
func (l *sessionLimiter) prune(now time.Time) {
	cutoff := now.Add(-sessionIdle)
	for id, b := range l.sessions {
		if b.seen.Before(cutoff) {
			delete(l.sessions, id)
		}
	}
}

func (l *sessionLimiter) size() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}
