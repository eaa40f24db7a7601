/*
Package ranger initializes and manages a portfolio app with sane defaults.

# Ranger

The main entrypoint to package ranger is the [Ranger] type.
A [Ranger] ought to be constructed with [New],
which reads a [Config] from environment variables unless [WithConfig] provides one.

[New] connects to the database, runs [Migrations]
and mounts the account API and its documentation:

	/api/{version}/account/users
	/api/{version}/account/tokens
	/swagger.{json|yaml}/{version}/
	/swagger/{version}/
	/redoc/{version}/

[*Ranger.Guide] begins a portfolio app's web server.
By default, [*Ranger.Guide] listens on [DefaultHost]:[DefaultPort] (0.0.0.0:8000).
Stop that web server with [*Ranger.Shutdown]
or send a signal [*Ranger.Guide] listens for.

# Configuration

A developer configures a portfolio app through environment variables.
Environment variables ought to be set in a file called ".env"
found at the same directory the application is executed from.

Here are the available environment variables.
  - ACCESS_TOKEN_LIFETIME: how long access tokens last, as understood by [time.ParseDuration]; default: 60m
  - ALLOWED_HOSTS: comma-separated hosts the app answers to; ".example.com" matches subdomains; default: any
  - APP_ENV: the environment the application is running in; default: DEVELOPMENT; cf. [portfolio.Environment]
  - APP_VERSION: the release reported to Sentry
  - CORS_ALLOWED_ORIGINS: comma-separated origins allowed to make cross-site requests
  - CORS_ORIGIN_ALLOW_ALL: allow cross-site requests from any origin; default: false
  - DATABASE_HOST: the host the database is running on; default: localhost
  - DATABASE_MAX_CONNS: the most open connections to the database; default: unlimited
  - DATABASE_MAX_IDLE_TIME: how long a connection may sit idle; default: 10m
  - DATABASE_NAME: the name of the database
  - DATABASE_PASSWORD: the password for authenticating a connection to the database
  - DATABASE_PORT: the port the database is listening on; default: 5432
  - DATABASE_SSLMODE: the sslmode of the connection; default: prefer
  - DATABASE_URL: the fully-qualified connection string; replaces all other DATABASE_* env vars; sqlite:// URLs open SQLite
  - DATABASE_USER: the user for authenticating a connection to the database
  - DEBUG: log at DEBUG; default: false
  - DRF_ALLOWED_VERSIONS: comma-separated API versions; default: v1
  - HOST: the host the application listens on; default: 0.0.0.0
  - LOG_LEVEL: the level at which to begin logging; overrides DEBUG; cf. [logger.LogLevel]
  - MINIO_ACCESS_KEY, MINIO_SECRET_KEY: credentials for object storage; default: minioadmin
  - MINIO_BUCKET_NAME: the bucket static and media files are stored in; default: portfolio
  - MINIO_ENDPOINT: the URL of object storage; default: http://minio:9000
  - MINIO_REGION: the region of the bucket; default: us-east-1
  - PAGE_SIZE: how many records a page of results holds; default: 100
  - PHONE_REGION: the region phone numbers without a country code belong to; default: US
  - PORT: the port the application listens on; default: 8000
  - REDIS_URL: where idempotent responses are cached; default: in memory
  - REFRESH_TOKEN_LIFETIME: how long refresh tokens last; default: 24h
  - ROOT_URL: the URL clients reach the app at, used in Location headers and documentation
  - SECRET_KEY: signs tokens; required
  - SECURE_SSL_REDIRECT: redirect plain HTTP requests to HTTPS; default: false
  - SENTRY_DSN: report errors to Sentry when set
  - SENTRY_SAMPLE_RATE, SENTRY_TRACES_SAMPLE_RATE, SENTRY_PROFILES_SAMPLE_RATE: default: 1.0
  - SERVER_IDLE_TIMEOUT: the timeout for idling between requests when using keep-alives; default: 120s
  - SERVER_READ_TIMEOUT: the timeout for reading HTTP requests; default: 15s
  - SERVER_SHUTDOWN_TIMEOUT: how long Shutdown waits on open requests; default: 5s
  - SERVER_WRITE_TIMEOUT: the timeout for writing HTTP responses; default: 30s
*/
package ranger
