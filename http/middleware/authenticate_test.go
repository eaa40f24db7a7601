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
)

func TestAuthenticate(t *testing.T) {
	d := newResponder()
	users := map[uint]testUser{
		1: {id: 1, access: true},
		2: {id: 2, access: false},
	}
	storer := func(_ context.Context, id uint) (middleware.User, error) {
		u, ok := users[id]
		if !ok {
			return nil, fmt.Errorf("%w: user %d", portfolio.ErrNotFound, id)
		}

		return u, nil
	}

	t.Run("Nil-Args", func(t *testing.T) {
		noop(t, middleware.Authenticate(nil, testAuthenticator{}, storer))
		noop(t, middleware.Authenticate(d, nil, storer))
		noop(t, middleware.Authenticate(d, testAuthenticator{}, nil))
	})

	tcs := []struct {
		name         string
		authn        testAuthenticator
		expectedCode int
		expectedUser any
	}{
		{"Anonymous", testAuthenticator{err: portfolio.ErrMissingData}, http.StatusTeapot, nil},
		{"Bad-Token", testAuthenticator{err: fmt.Errorf("%w: expired", portfolio.ErrUnauthorized)}, http.StatusUnauthorized, nil},
		{"Unknown-User", testAuthenticator{claims: &auth.Claims{UserID: 9}}, http.StatusUnauthorized, nil},
		{"No-Access", testAuthenticator{claims: &auth.Claims{UserID: 2}}, http.StatusUnauthorized, nil},
		{"Authenticated", testAuthenticator{claims: &auth.Claims{UserID: 1}}, http.StatusTeapot, users[1]},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)

			var actualUser any
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				actualUser = r.Context().Value(portfolio.CurrentUserKey)
				w.WriteHeader(http.StatusTeapot)
			})

			// Act
			middleware.Authenticate(d, tc.authn, storer)(h).ServeHTTP(w, r)

			// Assert
			require.Equal(t, tc.expectedCode, w.Code)
			require.Equal(t, tc.expectedUser, actualUser)
		})
	}
}

func TestRequireAuthed(t *testing.T) {
	d := newResponder()
	for _, tc := range []struct {
		name     string
		user     middleware.User
		expected int
	}{
		{"Anonymous", nil, http.StatusUnauthorized},
		{"User", testUser{id: 1, access: true}, http.StatusTeapot},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
			if tc.user != nil {
				r = withUser(r, tc.user)
			}

			// Act
			middleware.RequireAuthed(d)(teapotHandler()).ServeHTTP(w, r)

			// Assert
			require.Equal(t, tc.expected, w.Code)
		})
	}
}

func TestRequireStaff(t *testing.T) {
	d := newResponder()
	for _, tc := range []struct {
		name     string
		user     middleware.User
		expected int
	}{
		{"Anonymous", nil, http.StatusUnauthorized},
		{"Not-Staff", testUser{id: 1, access: true}, http.StatusForbidden},
		{"Staff", testUser{id: 1, access: true, staff: true}, http.StatusTeapot},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodDelete, "https://example.com/api/v1/account/users/3", nil)
			if tc.user != nil {
				r = withUser(r, tc.user)
			}

			// Act
			middleware.RequireStaff(d)(teapotHandler()).ServeHTTP(w, r)

			// Assert
			require.Equal(t, tc.expected, w.Code)
		})
	}
}

func TestAuthorizeApplicatorApply(t *testing.T) {
	// Arrange + Act
	adpt := middleware.NewAuthorizeApplicator[testUser](newResponder()).Apply(nil)

	// Assert
	noop(t, adpt)

	// Arrange
	w := httptest.NewRecorder()
	r := withUser(httptest.NewRequest(http.MethodGet, "https://example.com", nil), testUser{id: 7})
	var seen uint

	// Act
	middleware.NewAuthorizeApplicator[testUser](newResponder()).
		Apply(func(u testUser) bool { seen = u.id; return true })(teapotHandler()).
		ServeHTTP(w, r)

	// Assert
	require.Equal(t, uint(7), seen)
	require.Equal(t, http.StatusTeapot, w.Code)
}
