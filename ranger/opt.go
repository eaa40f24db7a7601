package ranger

import (
	"context"
	"fmt"
	"net/http"

	"github.com/xy-planning-network/portfolio/account"
	"github.com/xy-planning-network/portfolio/http/middleware"
	"github.com/xy-planning-network/portfolio/http/router"
	"github.com/xy-planning-network/portfolio/logger"
	"github.com/xy-planning-network/portfolio/postgres"
)

// A RangerOption configures a *Ranger either (1) directly, immediately upon being called
// or (2) in the OptFollowup it returns.
// Some RangerOptions require data in others and thus an OptFollowup can be returned
// in order to be called at a later time when that data is available.
//
// WithDB is an example of the first.
// An unexported field on the passed in *Ranger is updated with the enclosed value.
//
// WithRoutes is an example of the second.
// The routes it registers need the *Ranger's router,
// which only exists once every RangerOption has run.
type RangerOption func(rng *Ranger) (OptFollowup, error)
type OptFollowup func() error

// WithConfig uses the provided *Config instead of reading one from environment variables.
func WithConfig(cfg *Config) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if cfg == nil {
			return nil, fmt.Errorf("nil *Config")
		}

		rng.cfg = cfg
		return nil, nil
	}
}

// WithContext exposes the provided context.Context to the portfolio app.
func WithContext(ctx context.Context) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.ctx = ctx
		return nil, nil
	}
}

// WithDB exposes the provided *postgres.DB to the portfolio app.
//
// WithDB assumes a connection has already been established.
// Migrations still run against it.
func WithDB(db *postgres.DB) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.db = db
		return nil, nil
	}
}

// WithIdempotencyCache stores idempotent responses in the provided cache.
func WithIdempotencyCache(cache middleware.IdempotencyCacher) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.cache = cache
		return nil, nil
	}
}

// WithLogger exposes the provided logger.Logger to the portfolio app.
func WithLogger(l logger.Logger) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.l = l
		l.Debug(fmt.Sprintf("using logger %T", l), nil)

		return nil, nil
	}
}

// WithMediaStore stores uploaded files, such as avatars, in the provided account.MediaStore.
func WithMediaStore(media account.MediaStore) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.media = media
		return nil, nil
	}
}

// WithRoutes constructs a followup option that, when called,
// registers the routes fn returns on the portfolio app's router.
// Every route passes through the middlewares the app runs on every request.
func WithRoutes(fn func(rng *Ranger) []router.Route) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		return func() error {
			rng.r.HandleRoutes(fn(rng))
			return nil
		}, nil
	}
}

// WithServer exposes the *http.Server to the portfolio app.
// The server's Handler is replaced with the app's router.
func WithServer(s *http.Server) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.srv = s
		return nil, nil
	}
}
