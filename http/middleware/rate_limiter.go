package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/http/resp"
	"golang.org/x/time/rate"
)

const (
	DefaultRateLimit = rate.Limit(5)
	DefaultRateBurst = 20

	visitorTTL = 60 * time.Minute
)

// A Visitor tracks a rate limiter and last seen time.
type Visitor struct {
	LastSeen time.Time
	Limiter  *rate.Limiter
}

// A Visitors maps a Visitor to an IP address.
type Visitors struct {
	burst int
	limit rate.Limit
	swept time.Time
	val   map[string]Visitor
	sync.Mutex
}

// NewVisitors constructs a *Visitors whose members are limited to limit requests every second
// with bursts of up to burst.
// Non-positive values fall back to DefaultRateLimit and DefaultRateBurst.
func NewVisitors(limit rate.Limit, burst int) *Visitors {
	if limit <= 0 {
		limit = DefaultRateLimit
	}

	if burst <= 0 {
		burst = DefaultRateBurst
	}

	return &Visitors{burst: burst, limit: limit, val: make(map[string]Visitor)}
}

// Fetch retrieves the Visitor for the given ip creating a new Visitor if not seen.
func (vs *Visitors) Fetch(ip string) Visitor {
	vs.Lock()
	defer vs.Unlock()

	v, ok := vs.val[ip]
	if !ok {
		v = Visitor{Limiter: rate.NewLimiter(vs.limit, vs.burst)}
	}

	v.LastSeen = time.Now().UTC()
	vs.val[ip] = v
	return v
}

// Len reports how many visitors are tracked.
func (vs *Visitors) Len() int {
	vs.Lock()
	defer vs.Unlock()
	return len(vs.val)
}

// cleanup deletes a Visitor from Visitors if they have not been seen in over an hour.
// Visitors are swept at most once a minute.
func (vs *Visitors) cleanup(now time.Time) {
	vs.Lock()
	defer vs.Unlock()

	if now.Sub(vs.swept) < time.Minute {
		return
	}

	vs.swept = now
	for ip, v := range vs.val {
		if now.Sub(v.LastSeen) > visitorTTL {
			delete(vs.val, ip)
		}
	}
}

// RateLimit encloses the Visitors map and serves the http.Handler,
// writing 429 once the visitor's IP address exceeds its limit.
//
// NOTE: implementation found here:
// https://www.alexedwards.net/blog/how-to-rate-limit-http-requests
func RateLimit(d *resp.Responder, visitors *Visitors) Adapter {
	if d == nil || visitors == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := RequestIPAddress(r)
			if !visitors.Fetch(ip).Limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				d.Err(
					w,
					r,
					fmt.Errorf("%w: %s exceeded rate limit", portfolio.ErrForbidden, ip),
					resp.Code(http.StatusTooManyRequests),
					resp.Detail("Request was throttled."),
				)
				return
			}

			visitors.cleanup(time.Now().UTC())
			h.ServeHTTP(w, r)
		})
	}
}
