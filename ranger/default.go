package ranger

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/account"
	"github.com/xy-planning-network/portfolio/auth"
	"github.com/xy-planning-network/portfolio/http/middleware"
	"github.com/xy-planning-network/portfolio/http/req"
	"github.com/xy-planning-network/portfolio/http/resp"
	"github.com/xy-planning-network/portfolio/http/router"
	"github.com/xy-planning-network/portfolio/logger"
	"github.com/xy-planning-network/portfolio/openapi"
	"github.com/xy-planning-network/portfolio/postgres"
)

const apiPrefix = "/api/{" + middleware.VersionVar + "}"

// Migrations lists every migration of a portfolio app, in the order they run.
var Migrations = append(append([]postgres.Migration{}, account.Migrations...), auth.Migrations...)

// defaultLogger constructs the logger.Logger used across the app,
// reporting to Sentry when SENTRY_DSN is set.
func defaultLogger(cfg *Config) logger.Logger {
	l := logger.New(
		logger.WithColor(cfg.Env.IsDevelopment()),
		logger.WithEnv(cfg.Env.String()),
		logger.WithLevel(cfg.LogLevel),
	)
	l.Debug("setting up app logger", nil)

	if cfg.Sentry.DSN == "" {
		return l
	}

	sl := logger.NewSentryLogger(l, cfg.Sentry)
	sl.Debug("using SentryLogger for app logger", nil)

	return sl
}

// defaultDB connects to the database Config names.
func defaultDB(cfg *Config) (*postgres.DB, error) {
	return postgres.Connect(cfg.DB, cfg.Env)
}

// defaultIdempotencyCache stores idempotent responses in Redis when REDIS_URL is set,
// and in memory otherwise.
func defaultIdempotencyCache(cfg *Config) (middleware.IdempotencyCacher, error) {
	if cfg.RedisURL == "" {
		return middleware.NewIdemResMap(), nil
	}

	return middleware.NewRedisCacheFromURL(cfg.RedisURL)
}

// defaultResponder configures the [*resp.Responder] used by http.Handlers.
func defaultResponder(l logger.Logger, rootURL string) *resp.Responder {
	args := []resp.ResponderOptFn{resp.WithLogger(l)}
	if rootURL != "" {
		args = append(args, resp.WithRootURL(rootURL))
	}

	return resp.NewResponder(args...)
}

// defaultRouter constructs the [*router.Router] serving the API and its documentation:
//
//	/api/{version}/account/users
//	/api/{version}/account/tokens
//	/swagger.{format}/{version}/
//	/swagger/{version}/
//	/redoc/{version}/
func (rng *Ranger) defaultRouter() (*router.Router, error) {
	cfg := rng.cfg
	d := rng.d

	r := router.New(cfg.Env)
	r.OnEveryRequest(
		middleware.RequestID(),
		middleware.InjectIPAddress(),
		middleware.LogRequest(rng.l),
		middleware.SecurityHeaders(),
		middleware.AllowedHosts(d, cfg.AllowedHosts),
		middleware.CORS(cfg.CORSAllowAll, cfg.CORSOrigins),
	)

	if cfg.SSLRedirect {
		r.OnEveryRequest(middleware.ForceHTTPS(cfg.Env))
	}

	r.OnEveryRequest(
		middleware.RateLimit(d, middleware.NewVisitors(0, 0)),
		middleware.Authenticate(d, rng.tokens, rng.users.Storer()),
	)

	r.HandleNotFound(func(w http.ResponseWriter, rx *http.Request) {
		d.Err(w, rx, fmt.Errorf("%w: %s", portfolio.ErrNotFound, rx.URL.Path))
	})

	r.HandleMethodNotAllowed(func(w http.ResponseWriter, rx *http.Request) {
		d.Err(w, rx, fmt.Errorf("%w: %s %s", portfolio.ErrNotValid, rx.Method, rx.URL.Path),
			resp.Code(http.StatusMethodNotAllowed),
			resp.Detail(fmt.Sprintf("Method %q not allowed.", rx.Method)),
		)
	})

	api := r.Subrouter(apiPrefix)
	api.OnEveryRequest(
		middleware.Version(d, DefaultAPIVersion, cfg.APIVersions),
		middleware.Idempotent(d, rng.cache, nil),
	)

	p := req.NewParser()
	acct := api.Subrouter("/account")
	acct.Register("/users", "users", account.NewUsersViewSet(d, p, rng.users, rng.tokens, int64(cfg.PageSize)))
	acct.Register("/tokens", "tokens", account.NewTokensViewSet(d, p, rng.users, rng.tokens))

	for _, v := range cfg.APIVersions {
		doc, err := document(cfg, r, v)
		if err != nil {
			return nil, err
		}

		h, err := openapi.NewHandler(d, doc)
		if err != nil {
			return nil, err
		}

		r.HandleRoutes(h.Routes(v))
	}

	return r, nil
}

// document builds the OpenAPI document of the routes r serves for the API version.
func document(cfg *Config, r *router.Router, version string) (*openapi3.T, error) {
	info := openapi.DefaultInfo
	info.Version = version
	info.Server = cfg.RootURL

	return openapi.Build(info, r.Routes())
}

// defaultServer constructs a default [*http.Server].
func defaultServer(ctx context.Context, cfg *Config) *http.Server {
	srv := &http.Server{
		Addr:         cfg.Addr,
		IdleTimeout:  cfg.IdleTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if ctx != nil {
		srv.BaseContext = func(_ net.Listener) context.Context { return ctx }
	}

	return srv
}
