/*
Package logger provides logging functionality to the portfolio backend by defining the required behavior in [Logger]
and providing an implementation of it with [AppLogger].

# Overview

The Logger interface outputs messages at certain levels of importance.
LogLevel is the type to use to represent those levels.
An implementation of Logger may be initialized at a certain [LogLevel]
and only emit messages at or above that level of importance.
For example, [AppLogger] accepts a [LogLevel],
and if initialized with [LogLevelWarn],
only [*AppLogger.Warn], [*AppLogger.Error], and [*AppLogger.Fatal] produce messages.

# AppLogger

Log messages emitted by [AppLogger] are composed of a few parts:
	- timestamp
	- log level
	- call site
	- message
	- log context

Here's an example:
	2024/04/28 15:55:21 [DEBUG] account/handler.go:43 'user restored' log_context: {"user":{"id":1,"email":"admin@example.com"}}

The call site is the parent directory, file and line number of the code calling the [AppLogger].
The log context is a JSON-encoded [*LogContext].

# SentryLogger

[NewSentryLogger] wraps an [AppLogger] so warnings, errors and fatal messages
carrying a [LogContext.Error] are also captured by Sentry.

# SkipLogger

Sometimes, especially with internal packages, the file and line number in a log needs to be configurable.
[SkipLogger] provides additional configuration functionality by setting the number of frames to skip
back in order to reach the desired caller.
*/
package logger
