package middleware

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/xy-planning-network/portfolio"
)

// ReportPanic recovers panics in handlers, reports them to Sentry and writes 500.
//
// In development, panics are left to the server.
func ReportPanic(env portfolio.Environment) Adapter {
	if env.IsDevelopment() {
		return NoopAdapter
	}

	sh := sentryhttp.New(sentryhttp.Options{
		Repanic:         false,
		WaitForDelivery: true,
	})

	return func(handler http.Handler) http.Handler {
		return sh.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					w.WriteHeader(http.StatusInternalServerError)
					panic(err)
				}
			}()

			handler.ServeHTTP(w, r)
		}))
	}
}
