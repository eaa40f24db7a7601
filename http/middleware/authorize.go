package middleware

import (
	"fmt"
	"net/http"

	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/http/resp"
)

// An AuthorizeApplicator constructs Adapters that apply custom authorization rules
// for users, as specified by type T.
type AuthorizeApplicator[T any] struct {
	d *resp.Responder
}

// NewAuthorizeApplicator constructs an AuthorizeApplicator for type T.
// Apply methods for the constructed AuthorizeApplicator will use the Responder for errors.
// Apply methods will use portfolio.CurrentUserKey to pull a user out of the request Context.
func NewAuthorizeApplicator[T any](d *resp.Responder) AuthorizeApplicator[T] {
	return AuthorizeApplicator[T]{d}
}

// Apply wraps a custom function validating the authorization of a user,
// whose type is specified by T.
//
// Apply retrieves the value for the portfolio.CurrentUserKey from the request Context.
// When no user of type T is found, Apply writes 401.
//
// If the custom function returns true,
// Apply passes the request to the next handler in the middleware stack.
// Otherwise, Apply writes 403.
//
// If fn is nil, Apply returns a NoopAdapter.
func (aa AuthorizeApplicator[T]) Apply(fn func(user T) bool) Adapter {
	if fn == nil {
		return NoopAdapter
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			val, ok := r.Context().Value(portfolio.CurrentUserKey).(T)
			if !ok {
				aa.d.Err(w, r, fmt.Errorf("%w: no current user", portfolio.ErrUnauthorized))
				return
			}

			if !fn(val) {
				aa.d.Err(w, r, fmt.Errorf("%w: %s %s", portfolio.ErrForbidden, r.Method, r.URL.Path))
				return
			}

			handler.ServeHTTP(w, r)
		})
	}
}
