package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/logger"
)

// maskedParams are query params whose values never reach a log.
var maskedParams = []string{"password", "token", "access", "refresh"}

// statusWriter records the status code written to an http.ResponseWriter.
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (sw *statusWriter) WriteHeader(code int) {
	if sw.status == 0 {
		sw.status = code
	}

	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK
	}

	n, err := sw.ResponseWriter.Write(b)
	sw.size += n
	return n, err
}

// LogRequest logs the request's method, requested URL, and originating IP address
// using the enclosed implementation of logger.Logger,
// once the request is served, along with the status, response size and duration.
//
// LogRequest scrubs the values for the following keys:
// - password
// - token
// - access
// - refresh
//
// if logger.Logger is nil, NoopAdapter returns and this middleware does nothing.
func LogRequest(ls logger.Logger) Adapter {
	if ls == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			h.ServeHTTP(sw, r)

			uri := r.URL.Path
			q := r.URL.Query()
			for _, key := range maskedParams {
				portfolio.Mask(q, key)
			}

			if query := q.Encode(); query != "" {
				uri += "?" + query
			}

			strs := []string{r.Method, uri}
			if val, ok := r.Context().Value(portfolio.IpAddrKey).(string); ok {
				strs = append([]string{val}, strs...)
			}

			data := map[string]any{
				"duration": time.Since(start).String(),
				"size":     sw.size,
				"status":   sw.status,
			}

			if id, ok := r.Context().Value(portfolio.RequestIDKey).(string); ok {
				data["requestId"] = id
			}

			ls.Info(strings.Join(strs, " "), &logger.LogContext{Data: data})
		})
	}
}
