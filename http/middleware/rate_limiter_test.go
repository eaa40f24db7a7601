package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/portfolio/http/middleware"
	"golang.org/x/time/rate"
)

func TestVisitorFetch(t *testing.T) {
	t.Run("Serial", func(t *testing.T) {
		// Arrange
		vs := middleware.NewVisitors(0, 0)

		// Act
		v1 := vs.Fetch("127.0.0.1")
		time.Sleep(1 * time.Millisecond)
		v2 := vs.Fetch("127.0.0.1")

		// Assert
		require.Equal(t, v1.Limiter, v2.Limiter)
		require.True(t, v1.LastSeen.Before(v2.LastSeen))
		require.Equal(t, middleware.DefaultRateLimit, v1.Limiter.Limit())
		require.Equal(t, middleware.DefaultRateBurst, v1.Limiter.Burst())
		require.Equal(t, 1, vs.Len())
	})

	t.Run("Concurrent", func(t *testing.T) {
		// Arrange
		var wg sync.WaitGroup
		vs := middleware.NewVisitors(0, 0)
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				// Act
				vs.Fetch("127.0.0.1")
			}()
		}

		wg.Wait()

		// Assert
		require.Equal(t, 1, vs.Len())
	})
}

func TestRateLimit(t *testing.T) {
	noop(t, middleware.RateLimit(nil, middleware.NewVisitors(0, 0)))
	noop(t, middleware.RateLimit(newResponder(), nil))

	// Arrange
	vs := middleware.NewVisitors(rate.Every(time.Hour), 2)
	h := middleware.RateLimit(newResponder(), vs)(teapotHandler())
	serve := func(ip string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
		r.Header.Set("X-Forwarded-For", ip)
		h.ServeHTTP(w, r)
		return w
	}

	// Act + Assert
	require.Equal(t, http.StatusTeapot, serve("1.1.1.1").Code)
	require.Equal(t, http.StatusTeapot, serve("1.1.1.1").Code)

	throttled := serve("1.1.1.1")
	require.Equal(t, http.StatusTooManyRequests, throttled.Code)
	require.Equal(t, "1", throttled.Header().Get("Retry-After"))
	require.JSONEq(t, `{"detail":"Request was throttled."}`, throttled.Body.String())

	require.Equal(t, http.StatusTeapot, serve("8.8.8.8").Code)
	require.Equal(t, 2, vs.Len())
}
