/*
Package router defines how an HTTP server routes requests in portfolio.

[*Router] utilizes [mux.Router] for its implementation,
and so functions as thin wrapper around that package.

A [Router] leverages a standardized data model - a [Route] -
when registering how requests should be routed.
A path and an HTTP method comprise a [Route].
An implementation of [http.Handler] is the function called when a request matches a Route.
Before a request gets to a handler, though,
any middlewares added to the Route are called in the order they appear.

Resources exposing the usual list, create, retrieve, update and destroy operations
implement a [ViewSet] and are mounted with [Router.Register]:

	api := r.Subrouter("/api/{version}")
	api.Register("/account/users", "users", usersViewSet)

Every Route registered is kept, with its [Doc], so API documentation can be built from [Router.Routes].
*/
package router
