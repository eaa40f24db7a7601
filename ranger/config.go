package ranger

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/auth"
	"github.com/xy-planning-network/portfolio/logger"
	"github.com/xy-planning-network/portfolio/postgres"
	"github.com/xy-planning-network/portfolio/storage"
)

const (
	// Core
	secretKeyEnvVar    = "SECRET_KEY"
	debugEnvVar        = "DEBUG"
	allowedHostsEnvVar = "ALLOWED_HOSTS"
	environmentEnvVar  = "APP_ENV"
	versionEnvVar      = "APP_VERSION"
	logLevelEnvVar     = "LOG_LEVEL"
	rootURLEnvVar      = "ROOT_URL"
	sslRedirectEnvVar  = "SECURE_SSL_REDIRECT"

	// Database defaults
	dbHostEnvVar        = "DATABASE_HOST"
	defaultDBHost       = "localhost"
	dbNameEnvVar        = "DATABASE_NAME"
	dbPassEnvVar        = "DATABASE_PASSWORD"
	dbPortEnvVar        = "DATABASE_PORT"
	defaultDBPort       = "5432"
	dbSSLModeEnvVar     = "DATABASE_SSLMODE"
	defaultDBSSLMode    = "prefer"
	dbURLEnvVar         = "DATABASE_URL"
	dbUserEnvVar        = "DATABASE_USER"
	dbMaxConnsEnvVar    = "DATABASE_MAX_CONNS"
	dbMaxIdleTimeEnvVar = "DATABASE_MAX_IDLE_TIME"
	defaultDBMaxIdle    = 10 * time.Minute

	// Cache
	redisURLEnvVar = "REDIS_URL"

	// CORS
	corsAllowAllEnvVar = "CORS_ORIGIN_ALLOW_ALL"
	corsOriginsEnvVar  = "CORS_ALLOWED_ORIGINS"

	// Sentry
	sentryDSNEnvVar                = "SENTRY_DSN"
	sentrySampleRateEnvVar         = "SENTRY_SAMPLE_RATE"
	sentryTracesSampleRateEnvVar   = "SENTRY_TRACES_SAMPLE_RATE"
	sentryProfilesSampleRateEnvVar = "SENTRY_PROFILES_SAMPLE_RATE"

	// Tokens and API
	accessLifetimeEnvVar  = "ACCESS_TOKEN_LIFETIME"
	refreshLifetimeEnvVar = "REFRESH_TOKEN_LIFETIME"
	versionsEnvVar        = "DRF_ALLOWED_VERSIONS"
	DefaultAPIVersion     = "v1"
	pageSizeEnvVar        = "PAGE_SIZE"
	DefaultPageSize       = 100
	phoneRegionEnvVar     = "PHONE_REGION"
	defaultPhoneRegion    = "US"

	// Object storage
	minioAccessKeyEnvVar = "MINIO_ACCESS_KEY"
	minioSecretKeyEnvVar = "MINIO_SECRET_KEY"
	minioBucketEnvVar    = "MINIO_BUCKET_NAME"
	minioEndpointEnvVar  = "MINIO_ENDPOINT"
	minioRegionEnvVar    = "MINIO_REGION"

	// Web server defaults
	DefaultHost               = "0.0.0.0"
	hostEnvVar                = "HOST"
	DefaultPort               = "8000"
	portEnvVar                = "PORT"
	serverReadTimeoutEnvVar   = "SERVER_READ_TIMEOUT"
	DefaultServerReadTimeout  = 15 * time.Second
	serverIdleTimeoutEnvVar   = "SERVER_IDLE_TIMEOUT"
	DefaultServerIdleTimeout  = 120 * time.Second
	serverWriteTimeoutEnvVar  = "SERVER_WRITE_TIMEOUT"
	DefaultServerWriteTimeout = 30 * time.Second
	shutdownTimeoutEnvVar     = "SERVER_SHUTDOWN_TIMEOUT"
	DefaultShutdownTimeout    = 5 * time.Second
)

// Config holds the settings of a portfolio app, read from environment variables.
type Config struct {
	SecretKey    string
	Debug        bool
	AllowedHosts []string
	Env          portfolio.Environment
	Version      string
	LogLevel     logger.LogLevel

	// RootURL is the URL clients reach the app at, used for Location headers.
	RootURL string

	// SSLRedirect redirects plain HTTP requests to HTTPS outside development and testing.
	SSLRedirect bool

	DB       *postgres.CxnConfig
	RedisURL string

	CORSAllowAll bool
	CORSOrigins  []string

	Sentry logger.SentryConfig

	Auth        auth.Config
	APIVersions []string
	PageSize    int
	PhoneRegion string

	Storage storage.Config

	Addr            string
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// NewConfig reads a Config from environment variables.
// SECRET_KEY is required; every other variable has a default.
func NewConfig() (*Config, error) {
	secret := os.Getenv(secretKeyEnvVar)
	if secret == "" {
		return nil, fmt.Errorf("%w: %s is required", portfolio.ErrBadConfig, secretKeyEnvVar)
	}

	env := portfolio.EnvVarOrEnv(environmentEnvVar, portfolio.Development)
	version := os.Getenv(versionEnvVar)
	debug := portfolio.EnvVarOrBool(debugEnvVar, false)

	ll := logger.LogLevelInfo
	if debug {
		ll = logger.LogLevelDebug
	}

	if lvl := logger.NewLogLevel(os.Getenv(logLevelEnvVar)); lvl != logger.LogLevelUnk {
		ll = lvl
	}

	host := portfolio.EnvVarOrString(hostEnvVar, DefaultHost)
	port := portfolio.EnvVarOrString(portEnvVar, DefaultPort)

	cfg := &Config{
		SecretKey:    secret,
		Debug:        debug,
		AllowedHosts: portfolio.EnvVarOrList(allowedHostsEnvVar, nil),
		Env:          env,
		Version:      version,
		LogLevel:     ll,
		RootURL:      os.Getenv(rootURLEnvVar),
		SSLRedirect:  portfolio.EnvVarOrBool(sslRedirectEnvVar, false),

		DB:       NewPostgresConfig(),
		RedisURL: os.Getenv(redisURLEnvVar),

		CORSAllowAll: portfolio.EnvVarOrBool(corsAllowAllEnvVar, false),
		CORSOrigins:  portfolio.EnvVarOrList(corsOriginsEnvVar, nil),

		Sentry: logger.SentryConfig{
			DSN:                os.Getenv(sentryDSNEnvVar),
			Environment:        env.String(),
			Release:            version,
			SampleRate:         portfolio.EnvVarOrFloat(sentrySampleRateEnvVar, 1.0),
			TracesSampleRate:   portfolio.EnvVarOrFloat(sentryTracesSampleRateEnvVar, 1.0),
			ProfilesSampleRate: portfolio.EnvVarOrFloat(sentryProfilesSampleRateEnvVar, 1.0),
		},

		Auth: auth.Config{
			SigningKey:      secret,
			AccessLifetime:  portfolio.EnvVarOrDuration(accessLifetimeEnvVar, auth.DefaultAccessLifetime),
			RefreshLifetime: portfolio.EnvVarOrDuration(refreshLifetimeEnvVar, auth.DefaultRefreshLifetime),
		},
		APIVersions: portfolio.EnvVarOrList(versionsEnvVar, []string{DefaultAPIVersion}),
		PageSize:    portfolio.EnvVarOrInt(pageSizeEnvVar, DefaultPageSize),
		PhoneRegion: portfolio.EnvVarOrString(phoneRegionEnvVar, defaultPhoneRegion),

		Storage: storage.Config{
			AccessKey: portfolio.EnvVarOrString(minioAccessKeyEnvVar, storage.DefaultAccessKey),
			SecretKey: portfolio.EnvVarOrString(minioSecretKeyEnvVar, storage.DefaultSecretKey),
			Bucket:    portfolio.EnvVarOrString(minioBucketEnvVar, storage.DefaultBucket),
			Endpoint:  portfolio.EnvVarOrString(minioEndpointEnvVar, storage.DefaultEndpoint),
			Region:    portfolio.EnvVarOrString(minioRegionEnvVar, storage.DefaultRegion),
		},

		Addr:            net.JoinHostPort(host, port),
		ReadTimeout:     portfolio.EnvVarOrDuration(serverReadTimeoutEnvVar, DefaultServerReadTimeout),
		IdleTimeout:     portfolio.EnvVarOrDuration(serverIdleTimeoutEnvVar, DefaultServerIdleTimeout),
		WriteTimeout:    portfolio.EnvVarOrDuration(serverWriteTimeoutEnvVar, DefaultServerWriteTimeout),
		ShutdownTimeout: portfolio.EnvVarOrDuration(shutdownTimeoutEnvVar, DefaultShutdownTimeout),
	}

	if cfg.PageSize < 1 {
		cfg.PageSize = DefaultPageSize
	}

	return cfg, nil
}

// NewPostgresConfig constructs a *postgres.CxnConfig from the DATABASE env vars.
// DATABASE_URL, when set, replaces the rest.
func NewPostgresConfig() *postgres.CxnConfig {
	cfg := &postgres.CxnConfig{
		URL:         os.Getenv(dbURLEnvVar),
		MaxConns:    portfolio.EnvVarOrInt(dbMaxConnsEnvVar, 0),
		MaxIdleTime: portfolio.EnvVarOrDuration(dbMaxIdleTimeEnvVar, defaultDBMaxIdle),
	}

	if cfg.URL != "" {
		return cfg
	}

	cfg.Host = portfolio.EnvVarOrString(dbHostEnvVar, defaultDBHost)
	cfg.Name = os.Getenv(dbNameEnvVar)
	cfg.Password = os.Getenv(dbPassEnvVar)
	cfg.Port = portfolio.EnvVarOrString(dbPortEnvVar, defaultDBPort)
	cfg.SSLMode = portfolio.EnvVarOrString(dbSSLModeEnvVar, defaultDBSSLMode)
	cfg.User = os.Getenv(dbUserEnvVar)

	return cfg
}
