package router

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/http/middleware"
)

// IDVar is the route variable holding the ID of the record a detail route acts on.
const IDVar = "id"

const detailPath = "/{" + IDVar + ":[0-9]+}"

// The standard actions of a ViewSet.
const (
	ActionList          = "list"
	ActionCreate        = "create"
	ActionRetrieve      = "retrieve"
	ActionUpdate        = "update"
	ActionPartialUpdate = "partial_update"
	ActionDestroy       = "destroy"
)

// A ViewSet groups the handlers acting on one kind of resource.
//
// Which routes Register adds depends on the interfaces a ViewSet implements:
//
//	Lister          GET    prefix
//	Creator         POST   prefix
//	Retriever       GET    prefix/{id}
//	Updater         PUT    prefix/{id}
//	PartialUpdater  PATCH  prefix/{id}
//	Destroyer       DELETE prefix/{id}
//	Extender        any    prefix/{path} or prefix/{id}/{path}
type ViewSet any

type Lister interface {
	List(w http.ResponseWriter, r *http.Request)
}

type Creator interface {
	Create(w http.ResponseWriter, r *http.Request)
}

type Retriever interface {
	Retrieve(w http.ResponseWriter, r *http.Request)
}

type Updater interface {
	Update(w http.ResponseWriter, r *http.Request)
}

type PartialUpdater interface {
	PartialUpdate(w http.ResponseWriter, r *http.Request)
}

type Destroyer interface {
	Destroy(w http.ResponseWriter, r *http.Request)
}

// An Action is a route beyond the standard ones a ViewSet handles.
type Action struct {
	// Name is the action's name, as in "restore".
	Name string

	// Detail marks actions on a single record, routed under prefix/{id}.
	Detail bool

	// Path is appended to the prefix, defaulting to the Name.
	Path string

	Method  string
	Handler http.HandlerFunc
}

// An Extender adds extra actions to a ViewSet.
type Extender interface {
	Actions() []Action
}

// A Guarded ViewSet lists the middlewares, such as access control, an action requires.
type Guarded interface {
	Guard(action string) []middleware.Adapter
}

// A Documented ViewSet describes its actions.
type Documented interface {
	Doc(action string) Doc
}

// Register routes requests to prefix to the handlers of vs, without trailing slashes.
//
// Routes are named after basename and the action, as in "users-list" or "users-restore".
// Extra actions are registered ahead of detail routes.
func (r *Router) Register(prefix, basename string, vs ViewSet, middlewares ...middleware.Adapter) {
	var routes []Route
	add := func(action, path, method string, h http.HandlerFunc) {
		route := Route{
			Path:    prefix + path,
			Method:  method,
			Handler: h,
			Name:    fmt.Sprintf("%s-%s", basename, action),
		}

		if g, ok := vs.(Guarded); ok {
			route.Middlewares = g.Guard(action)
		}

		if d, ok := vs.(Documented); ok {
			route.Doc = d.Doc(action)
		}

		routes = append(routes, route)
	}

	if e, ok := vs.(Extender); ok {
		for _, a := range e.Actions() {
			path := a.Path
			if path == "" {
				path = a.Name
			}

			path = "/" + path
			if a.Detail {
				path = detailPath + path
			}

			add(a.Name, path, a.Method, a.Handler)
		}
	}

	if l, ok := vs.(Lister); ok {
		add(ActionList, "", http.MethodGet, l.List)
	}

	if c, ok := vs.(Creator); ok {
		add(ActionCreate, "", http.MethodPost, c.Create)
	}

	if rt, ok := vs.(Retriever); ok {
		add(ActionRetrieve, detailPath, http.MethodGet, rt.Retrieve)
	}

	if u, ok := vs.(Updater); ok {
		add(ActionUpdate, detailPath, http.MethodPut, u.Update)
	}

	if pu, ok := vs.(PartialUpdater); ok {
		add(ActionPartialUpdate, detailPath, http.MethodPatch, pu.PartialUpdate)
	}

	if d, ok := vs.(Destroyer); ok {
		add(ActionDestroy, detailPath, http.MethodDelete, d.Destroy)
	}

	r.HandleRoutes(routes, middlewares...)
}

// ID parses the IDVar route variable of r.
func ID(r *http.Request) (uint, error) {
	val, ok := mux.Vars(r)[IDVar]
	if !ok {
		return 0, fmt.Errorf("%w: no %s in route", portfolio.ErrMissingData, IDVar)
	}

	id, err := strconv.ParseUint(val, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q is not an ID", portfolio.ErrNotFound, val)
	}

	return uint(id), nil
}
