package ranger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getsentry/sentry-go"
	_ "github.com/joho/godotenv/autoload"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/account"
	"github.com/xy-planning-network/portfolio/auth"
	"github.com/xy-planning-network/portfolio/http/middleware"
	"github.com/xy-planning-network/portfolio/http/resp"
	"github.com/xy-planning-network/portfolio/http/router"
	"github.com/xy-planning-network/portfolio/logger"
	"github.com/xy-planning-network/portfolio/postgres"
	"github.com/xy-planning-network/portfolio/storage"
)

const sentryFlushTimeout = 2 * time.Second

// A Ranger manages and exposes all components of a portfolio app to one another.
type Ranger struct {
	cfg    *Config
	ctx    context.Context
	cache  middleware.IdempotencyCacher
	d      *resp.Responder
	db     *postgres.DB
	l      logger.Logger
	media  account.MediaStore
	r      *router.Router
	srv    *http.Server
	tokens *auth.Service
	users  *account.UserService
}

// New constructs a Ranger from the provided options.
// Options passed into New run first;
// defaults fill in whatever they left unset.
// Followups run last, once every component exists.
func New(opts ...RangerOption) (*Ranger, error) {
	rng := new(Ranger)
	followups := make([]OptFollowup, 0)

	for _, opt := range opts {
		fn, err := opt(rng)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", portfolio.ErrBadConfig, err)
		}

		if fn != nil {
			followups = append(followups, fn)
		}
	}

	if err := rng.setup(); err != nil {
		return nil, err
	}

	for _, fn := range followups {
		if err := fn(); err != nil {
			return nil, fmt.Errorf("%w: %s", portfolio.ErrBadConfig, err)
		}
	}

	return rng, nil
}

// setup constructs every component an option did not provide.
func (rng *Ranger) setup() error {
	var err error
	if rng.cfg == nil {
		if rng.cfg, err = NewConfig(); err != nil {
			return err
		}
	}

	if rng.ctx == nil {
		rng.ctx = context.Background()
	}

	if rng.l == nil {
		rng.l = defaultLogger(rng.cfg)
	}

	if rng.db == nil {
		if rng.db, err = defaultDB(rng.cfg); err != nil {
			return err
		}
	}

	if err := postgres.MigrateUp(rng.db, Migrations); err != nil {
		return err
	}

	if rng.media == nil {
		if rng.media, err = storage.New(rng.cfg.Storage, storage.Media); err != nil {
			return err
		}
	}

	if rng.cache == nil {
		if rng.cache, err = defaultIdempotencyCache(rng.cfg); err != nil {
			return fmt.Errorf("%w: %s", portfolio.ErrBadConfig, err)
		}
	}

	rng.d = defaultResponder(rng.l, rng.cfg.RootURL)

	if rng.tokens, err = auth.NewService(rng.db, rng.cfg.Auth); err != nil {
		return err
	}

	rng.users = account.NewUserService(rng.db, rng.media, rng.cfg.PhoneRegion)

	if rng.r, err = rng.defaultRouter(); err != nil {
		return err
	}

	if rng.srv == nil {
		rng.srv = defaultServer(rng.ctx, rng.cfg)
	}

	rng.srv.Handler = rng.r
	rng.l.Debug(fmt.Sprintf("portfolio app configured for %s", rng.cfg.Env), nil)

	return nil
}

func (rng *Ranger) EmitConfig() *Config                { return rng.cfg }
func (rng *Ranger) EmitDB() *postgres.DB               { return rng.db }
func (rng *Ranger) EmitLogger() logger.Logger          { return rng.l }
func (rng *Ranger) EmitResponder() *resp.Responder     { return rng.d }
func (rng *Ranger) EmitRouter() *router.Router         { return rng.r }
func (rng *Ranger) EmitTokens() *auth.Service          { return rng.tokens }
func (rng *Ranger) EmitUsers() *account.UserService    { return rng.users }
func (rng *Ranger) EmitMediaStore() account.MediaStore { return rng.media }

// OpenAPI builds the OpenAPI document describing the portfolio app's API at version.
func (rng *Ranger) OpenAPI(version string) (*openapi3.T, error) {
	return document(rng.cfg, rng.r, version)
}

// Handler returns the http.Handler serving every route of the portfolio app.
func (rng *Ranger) Handler() http.Handler { return rng.srv.Handler }

// Guide begins the web server.
//
// These, and (*Ranger).Shutdown, stop Guide:
//
// - os.Interrupt
// - syscall.SIGHUP
// - syscall.SIGINT
// - syscall.SIGQUIT
// - syscall.SIGTERM
func (rng *Ranger) Guide() error {
	ctx, cancel := context.WithCancel(rng.ctx)
	defer cancel()

	ch := make(chan os.Signal, 1)
	signal.Notify(
		ch,
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	defer signal.Stop(ch)

	errs := make(chan error, 1)
	go func() {
		rng.l.Info(fmt.Sprintf("running web server at %s", rng.srv.Addr), nil)
		if err := rng.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("could not listen: %w", err)
		}
	}()

	select {
	case s := <-ch:
		rng.l.Info(fmt.Sprint("received shutdown signal: ", s), nil)
	case <-ctx.Done():
	case err := <-errs:
		rng.l.Error(err.Error(), nil)
		rng.close()
		return err
	}

	return rng.Shutdown()
}

// Shutdown shuts down the web server, then releases the database and cache connections.
func (rng *Ranger) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), rng.cfg.ShutdownTimeout)
	defer cancel()

	rng.l.Info("shutting down web server", nil)
	err := rng.srv.Shutdown(shutdownCtx)
	rng.close()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("could not shutdown: %w", err)
	}

	rng.l.Info("web server shutdown successfully", nil)
	return nil
}

func (rng *Ranger) close() {
	if c, ok := rng.cache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			rng.l.Warn(fmt.Sprintf("could not close idempotency cache: %s", err), nil)
		}
	}

	if sqlDB, err := rng.db.DB().DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			rng.l.Warn(fmt.Sprintf("could not close database: %s", err), nil)
		}
	}

	if rng.cfg.Sentry.DSN != "" {
		sentry.Flush(sentryFlushTimeout)
	}
}
