package middleware_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/auth"
	"github.com/xy-planning-network/portfolio/http/middleware"
	"github.com/xy-planning-network/portfolio/http/resp"
	"github.com/xy-planning-network/portfolio/logger"
)

func NoopHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
}

func teapotHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func newResponder() *resp.Responder {
	return resp.NewResponder(resp.WithLogger(logger.New(logger.WithLevel(logger.LogLevelFatal))))
}

type testUser struct {
	id     uint
	access bool
	staff  bool
}

func (u testUser) HasAccess() bool      { return u.access }
func (u testUser) HasStaffAccess() bool { return u.staff }

type testAuthenticator struct {
	claims *auth.Claims
	err    error
}

func (ta testAuthenticator) Authenticate(*http.Request) (*auth.Claims, error) {
	return ta.claims, ta.err
}

func withUser(r *http.Request, u middleware.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), portfolio.CurrentUserKey, u))
}

func TestChain(t *testing.T) {
	// Arrange
	var order []string
	mark := func(name string) middleware.Adapter {
		return func(h http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				h.ServeHTTP(w, r)
			})
		}
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	// Act
	middleware.Chain(teapotHandler(), mark("first"), middleware.NoopAdapter, mark("second")).ServeHTTP(w, r)

	// Assert
	require.Equal(t, []string{"first", "second"}, order)
	require.Equal(t, http.StatusTeapot, w.Code)
}

func noop(t *testing.T, actual middleware.Adapter) {
	t.Helper()
	require.Equal(t, fmt.Sprintf("%p", middleware.NoopAdapter), fmt.Sprintf("%p", actual))
}
