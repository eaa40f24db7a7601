package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/http/resp"
)

// VersionVar is the route variable holding the API version, as in "/api/{version}/account/users".
const VersionVar = "version"

// Version stores the API version a request was routed through
// in the *http.Request.Context under portfolio.VersionKey.
//
// The version is read from the VersionVar route variable,
// falling back to def when the route has none.
// Versions not listed in allowed are answered with 404.
func Version(d *resp.Responder, def string, allowed []string) Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, ok := mux.Vars(r)[VersionVar]
			if !ok || v == "" {
				v = def
			}

			if !versionAllowed(v, allowed) {
				d.Err(w, r, fmt.Errorf("%w: invalid version %q in URL path", portfolio.ErrNotFound, v), resp.Detail("Invalid version in URL path."))
				return
			}

			ctx := context.WithValue(r.Context(), portfolio.VersionKey, v)
			handler.ServeHTTP(w, r.Clone(ctx))
		})
	}
}

func versionAllowed(v string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}

	for _, a := range allowed {
		if a == v {
			return true
		}
	}

	return false
}
