package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client IP.
type ipLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// newIPLimiter allows perMinute requests per client with the given burst.
func newIPLimiter(perMinute, burst int) (l *ipLimiter) {
	if burst < 1 {
		burst = 1
	}
	l = &ipLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Inf,
		burst:    burst,
		now:      time.Now,
	}
	if perMinute > 0 {
		l.limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	l.lastSweep = l.now()
	return l
}

func (l *ipLimiter) allow(ip string) (ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	// Idle buckets are full again, so forgetting them changes nothing.
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(l.visitors, key)
			}
		}
		l.lastSweep = now
	}

	v, found := l.visitors[ip]
	if !found {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now

	ok = v.limiter.AllowN(now, 1)
	return ok
}

func (l *ipLimiter) size() (n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n = len(l.visitors)
	return n
}

// clientIP returns the host part of the request's remote address.
func clientIP(r *http.Request) (ip string) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
		return ip
	}
	ip = host
	return ip
}
