/*
The middleware package defines what a middleware is in portfolio and a set of basic middlewares.

The available middlewares are:
- AllowedHosts
- Authenticate
- CORS
- ForceHTTPS
- Idempotent
- InjectIPAddress
- LogRequest
- RateLimit
- ReportPanic
- RequestID
- RequireAuthed
- RequireStaff
- SecurityHeaders
- Version

Middlewares storing values in the request context hand a clone of the request down the chain,
so those values are only visible to middlewares applied after them.
A typical chain reads:

	vs := middleware.NewVisitors(0, 0)
	adpts := []middleware.Adapter{
		middleware.ReportPanic(env),
		middleware.RequestID(),
		middleware.InjectIPAddress(),
		middleware.LogRequest(log),
		middleware.SecurityHeaders(),
		middleware.AllowedHosts(responder, hosts),
		middleware.CORS(allowAll, origins),
		middleware.RateLimit(responder, vs),
		middleware.Authenticate(responder, tokens, users),
	}
*/
package middleware
