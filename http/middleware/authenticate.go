package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/auth"
	"github.com/xy-planning-network/portfolio/http/resp"
)

// The User defines attributes about a user in the context of middleware.
type User interface {
	HasAccess() bool
	HasStaffAccess() bool
}

// An Authenticator reads the claims of the access token an *http.Request carries.
//
// Requests without any token return an error wrapping portfolio.ErrMissingData.
type Authenticator interface {
	Authenticate(r *http.Request) (*auth.Claims, error)
}

// UserStorer defines how to retrieve a User by an ID in the context of middleware.
type UserStorer func(ctx context.Context, id uint) (User, error)

// Authenticate resolves the bearer token of a request into the User it was issued to,
// storing the User in the *http.Request.Context under portfolio.CurrentUserKey.
//
// Requests without a token pass through anonymously;
// access control middlewares like RequireAuthed decide what they may reach.
//
// Authenticate writes 401 when the token is not valid,
// the User no longer exists or the User has no access.
//
// If any argument is nil, NoopAdapter returns and this middleware does nothing.
func Authenticate(d *resp.Responder, authn Authenticator, storer UserStorer) Adapter {
	if d == nil || authn == nil || storer == nil {
		return NoopAdapter
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authn.Authenticate(r)
			if errors.Is(err, portfolio.ErrMissingData) {
				handler.ServeHTTP(w, r)
				return
			}

			if err != nil {
				d.Err(w, r, err)
				return
			}

			user, err := storer(r.Context(), claims.UserID)
			if err != nil {
				d.Err(w, r, fmt.Errorf("%w: user %d: %s", portfolio.ErrUnauthorized, claims.UserID, err))
				return
			}

			if !user.HasAccess() {
				d.Err(w, r, fmt.Errorf("%w: user %d has no access", portfolio.ErrUnauthorized, claims.UserID))
				return
			}

			w.Header().Add("Cache-control", "no-store")
			w.Header().Add("Pragma", "no-cache")

			ctx := context.WithValue(r.Context(), portfolio.CurrentUserKey, user)
			handler.ServeHTTP(w, r.Clone(ctx))
		})
	}
}

// RequireAuthed returns a middleware.Adapter that checks whether a User is authenticated,
// and requires they be authenticated.
// When the User is authenticated, then RequireAuthed hands off to the next part of the middleware chain.
//
// Authenticated means a User is set in the request context under portfolio.CurrentUserKey.
// Otherwise, RequireAuthed writes 401.
func RequireAuthed(d *resp.Responder) Adapter {
	return NewAuthorizeApplicator[User](d).Apply(func(User) bool { return true })
}

// RequireStaff returns a middleware.Adapter that requires an authenticated User with staff access,
// writing 401 for anonymous requests and 403 for other users.
func RequireStaff(d *resp.Responder) Adapter {
	return NewAuthorizeApplicator[User](d).Apply(func(u User) bool { return u.HasStaffAccess() })
}
