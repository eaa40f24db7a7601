package logger

import (
	"fmt"

	"github.com/getsentry/sentry-go"
)

// SentryConfig holds the settings used to initialize the Sentry client.
type SentryConfig struct {
	DSN                string
	Environment        string
	Release            string
	SampleRate         float64
	TracesSampleRate   float64
	ProfilesSampleRate float64
}

// ClientOptions maps SentryConfig onto sentry.ClientOptions.
func (cfg SentryConfig) ClientOptions() sentry.ClientOptions {
	return sentry.ClientOptions{
		AttachStacktrace:   true,
		Dsn:                cfg.DSN,
		EnableTracing:      cfg.TracesSampleRate > 0,
		Environment:        cfg.Environment,
		IgnoreErrors:       []string{"write: broken pipe"},
		ProfilesSampleRate: cfg.ProfilesSampleRate,
		Release:            cfg.Release,
		SampleRate:         cfg.SampleRate,
		SendDefaultPII:     true,
		TracesSampleRate:   cfg.TracesSampleRate,
	}
}

// A SentryLogger wraps a SkipLogger, shipping warnings and errors to Sentry.
type SentryLogger struct {
	l SkipLogger
}

// NewSentryLogger constructs a SentryLogger based off the provided AppLogger.
//
// If the Sentry client cannot be initialized, the error is logged
// and the AppLogger is returned instead.
func NewSentryLogger(al *AppLogger, cfg SentryConfig) Logger {
	if cfg.Environment == "" {
		cfg.Environment = al.Env()
	}

	if err := sentry.Init(cfg.ClientOptions()); err != nil {
		err = fmt.Errorf("unable to init Sentry: %s", err)
		al.Error(err.Error(), nil)
		return al
	}

	return &SentryLogger{l: al.AddSkip(1 + al.Skip())}
}

// AddSkip replaces the current number of frames to scroll back
// when logging a message.
//
// Use Skip to get the current skip amount
// when needing to add to it with AddSkip.
func (sl *SentryLogger) AddSkip(i int) SkipLogger {
	return &SentryLogger{l: sl.l.AddSkip(i)}
}

// Debug writes a debug log.
func (sl *SentryLogger) Debug(msg string, ctx *LogContext) {
	sl.l.Debug(msg, ctx)
}

// Error writes an error log and sends it to Sentry.
func (sl *SentryLogger) Error(msg string, ctx *LogContext) {
	if sl.l.LogLevel() > LogLevelError {
		return
	}

	sl.l.Error(msg, ctx)
	sl.send(sentry.LevelError, ctx)
}

// Fatal writes a fatal log and sends it to Sentry.
func (sl *SentryLogger) Fatal(msg string, ctx *LogContext) {
	if sl.l.LogLevel() > LogLevelFatal {
		return
	}

	sl.l.Fatal(msg, ctx)
	sl.send(sentry.LevelFatal, ctx)
}

// Info writes an info log.
func (sl *SentryLogger) Info(msg string, ctx *LogContext) {
	sl.l.Info(msg, ctx)
}

// Warn writes a warning log and sends it to Sentry.
func (sl *SentryLogger) Warn(msg string, ctx *LogContext) {
	if sl.l.LogLevel() > LogLevelWarn {
		return
	}

	sl.l.Warn(msg, ctx)
	sl.send(sentry.LevelWarning, ctx)
}

// LogLevel returns the LogLevel set for the SentryLogger.
func (sl *SentryLogger) LogLevel() LogLevel { return sl.l.LogLevel() }

// Skip returns the current amount of frames to scroll back
// when logging a message.
func (sl *SentryLogger) Skip() int { return sl.l.Skip() }

// send ships the LogContext.Error to Sentry,
// including any additional data from LogContext.
func (sl *SentryLogger) send(level sentry.Level, ctx *LogContext) {
	if ctx == nil || ctx.Error == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		if ctx.User != nil {
			scope.SetUser(sentry.User{
				Email: ctx.User.GetEmail(),
				ID:    fmt.Sprint(ctx.User.GetID()),
			})
		}

		if ctx.Request != nil {
			scope.SetRequest(ctx.Request)
		}

		if ctx.Data != nil {
			scope.SetContext("data", ctx.Data)
		}

		scope.SetLevel(level)
		sentry.CaptureException(ctx.Error)
	})
}
