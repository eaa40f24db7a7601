package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/http/resp"
)

// SecurityHeaders sets headers hardening responses against sniffing, framing and referrer leaks.
func SecurityHeaders() Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "same-origin")
			w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
			handler.ServeHTTP(w, r)
		})
	}
}

// AllowedHosts writes 400 for requests whose Host does not match one of hosts.
//
// Hosts match case-insensitively and without the port.
// A host starting with a period matches that domain and all its subdomains;
// "*" matches everything.
//
// If hosts is empty, NoopAdapter returns and this middleware does nothing.
func AllowedHosts(d *resp.Responder, hosts []string) Adapter {
	if len(hosts) == 0 {
		return NoopAdapter
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := strings.ToLower(r.Host)
			if h, _, err := net.SplitHostPort(host); err == nil {
				host = h
			}

			if !hostAllowed(host, hosts) {
				d.Err(w, r, fmt.Errorf("%w: host %q is not allowed", portfolio.ErrNotValid, host))
				return
			}

			handler.ServeHTTP(w, r)
		})
	}
}

func hostAllowed(host string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.ToLower(p)
		switch {
		case p == "*":
			return true
		case strings.HasPrefix(p, "."):
			if host == p[1:] || strings.HasSuffix(host, p) {
				return true
			}
		case p == host:
			return true
		}
	}

	return false
}
