/*
Package resp provides a high-level API for responding to HTTP requests with JSON,
configured once for the whole application through a [Responder].

[Responder.Json] writes data set by [Data]; [Responder.Err] writes an error body
whose status code [StatusCode] derives from the portfolio sentinel error wrapped.
*/
package resp
