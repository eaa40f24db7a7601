package router

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/http/middleware"
)

// A Route maps a path and HTTP method to an [http.HandlerFunc].
// Additional [middleware.Adapter] can be called when a server handles
// a request matching the Route.
type Route struct {
	Path        string
	Method      string
	Handler     http.HandlerFunc
	Middlewares []middleware.Adapter

	// Name identifies the Route, as in "users-list".
	Name string

	// Doc describes the Route in API documentation.
	Doc Doc
}

// A Doc describes what a Route accepts and returns.
type Doc struct {
	Summary string

	// Public marks a Route reachable without an access token.
	Public bool

	// Query is a struct whose "schema" tags list the query params accepted.
	Query any

	// Request is a value of the JSON body accepted.
	Request any

	// Multipart names the file field of a multipart/form-data body accepted.
	Multipart string

	// Response is a value of the JSON body returned on success.
	Response any

	// Status is the status code returned on success, http.StatusOK when zero.
	Status int
}

// Router routes requests for resources to their handlers.
type Router struct {
	Env           portfolio.Environment
	everyReqStack []middleware.Adapter
	prefix        string
	r             *mux.Router
	routes        *[]Route
}

// New constructs a [*Router] for the given environment.
func New(env portfolio.Environment) *Router {
	r := mux.NewRouter()
	return &Router{Env: env, r: r, routes: new([]Route)}
}

// AuthedRoutes registers the set of Routes as those requiring authentication.
// AuthedRoutes applies the given middlewares before performing that check,
// using middleware.RequireAuthed.
func (r *Router) AuthedRoutes(authed middleware.Adapter, routes []Route, middlewares ...middleware.Adapter) {
	mws := append(middlewares[:len(middlewares):len(middlewares)], authed)
	r.HandleRoutes(routes, mws...)
}

// Handle applies the [Route] to the [*Router].
func (r *Router) Handle(route Route) {
	r.HandleRoutes([]Route{route})
}

// HandleMethodNotAllowed sets the provided [http.HandlerFunc] as the function
// for when a registered path is matched but not with the request's HTTP method.
func (r *Router) HandleMethodNotAllowed(handler http.HandlerFunc) {
	r.r.MethodNotAllowedHandler = middleware.Chain(
		middleware.ReportPanic(r.Env)(handler),
		r.everyReqStack...,
	)
}

// HandleNotFound sets the provided [http.HandlerFunc] as the default function
// for when no other registered Route is matched.
func (r *Router) HandleNotFound(handler http.HandlerFunc) {
	r.r.NotFoundHandler = middleware.Chain(
		middleware.ReportPanic(r.Env)(handler),
		r.everyReqStack...,
	)
}

// HandleRoutes registers the set of Routes on the Router
// and includes all the [middleware.Adapter] on each Route.
// Any [middleware.Adapter] already assigned to a Route is appended to middlewares,
// so are called after the default set.
func (r *Router) HandleRoutes(routes []Route, middlewares ...middleware.Adapter) {
	for _, route := range routes {
		mws := append(r.everyReqStack[:len(r.everyReqStack):len(r.everyReqStack)], middlewares...)
		mws = append(mws, route.Middlewares...)
		handler := middleware.Chain(middleware.ReportPanic(r.Env)(route.Handler), mws...)

		mr := r.r.Handle(route.Path, handler).Methods(route.Method)
		if route.Name != "" {
			mr.Name(route.Name)
		}

		route.Path = r.prefix + route.Path
		*r.routes = append(*r.routes, route)
	}
}

// OnEveryRequest appends the middlewares to the existing stack
// that the [*Router] will apply to every request.
func (r *Router) OnEveryRequest(middlewares ...middleware.Adapter) {
	r.everyReqStack = append(r.everyReqStack, middlewares...)
}

// Routes lists every Route registered on the Router, or any of its subrouters,
// with full paths, sorted by path and method.
func (r *Router) Routes() []Route {
	routes := make([]Route, len(*r.routes))
	copy(routes, *r.routes)
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}

		return routes[i].Path < routes[j].Path
	})

	return routes
}

// ServeHTTP responds to an HTTP request.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.r.ServeHTTP(w, req)
}

// Subrouter constructs a [Router] that handles requests to endpoints matching the prefix.
//
// e.g., r.Subrouter("/api/{version}") handles requests to endpoints like /api/v1/account/users
func (r *Router) Subrouter(prefix string) *Router {
	prefix = strings.TrimSuffix(prefix, "/")
	return &Router{
		Env:           r.Env,
		everyReqStack: r.everyReqStack[:len(r.everyReqStack):len(r.everyReqStack)],
		prefix:        r.prefix + prefix,
		r:             r.r.PathPrefix(prefix).Subrouter(),
		routes:        r.routes,
	}
}

// URL builds the path of the Route named name, filling in pairs of route variables.
func (r *Router) URL(name string, pairs ...string) (string, error) {
	route := r.r.Get(name)
	if route == nil {
		return "", portfolio.ErrNotFound
	}

	u, err := route.URLPath(pairs...)
	if err != nil {
		return "", err
	}

	return u.String(), nil
}
