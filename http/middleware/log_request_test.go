package middleware_test

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/http/middleware"
	"github.com/xy-planning-network/portfolio/logger"
)

func TestLogRequest(t *testing.T) {
	// Arrange + Act
	actual := middleware.LogRequest(nil)

	// Assert
	noop(t, actual)

	tcs := []struct {
		name        string
		target      string
		ip          string
		contains    []string
		notContains []string
	}{
		{
			"Zero-Value",
			"https://example.com/",
			"",
			[]string{"GET /", `"status":418`},
			nil,
		},
		{
			"With-IP",
			"https://example.com/api/v1/account/users",
			"1.1.1.1",
			[]string{"1.1.1.1 GET /api/v1/account/users", `"requestId":"test-id"`},
			nil,
		},
		{
			"Masked-Query-Params",
			"https://example.com/api/v1/account/tokens?password=hunter2&token=abc&page=2",
			"",
			[]string{"page=2", "password=xxxxxx", "token=xxxxxx"},
			[]string{"hunter2", "abc"},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			b := new(bytes.Buffer)
			l := logger.New(logger.WithLogger(log.New(b, "", 0)))

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, tc.target, nil)
			ctx := context.WithValue(r.Context(), portfolio.RequestIDKey, "test-id")
			if tc.ip != "" {
				ctx = context.WithValue(ctx, portfolio.IpAddrKey, tc.ip)
			}
			r = r.WithContext(ctx)

			// Act
			middleware.LogRequest(l)(teapotHandler()).ServeHTTP(w, r)

			// Assert
			require.Equal(t, http.StatusTeapot, w.Code)
			for _, s := range tc.contains {
				require.Contains(t, b.String(), s)
			}

			for _, s := range tc.notContains {
				require.NotContains(t, b.String(), s)
			}
		})
	}
}
