package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/http/middleware"
	"github.com/xy-planning-network/portfolio/http/router"
)

func teapot(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }

func header(key, val string) middleware.Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add(key, val)
			h.ServeHTTP(w, r)
		})
	}
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRouterHandleRoutes(t *testing.T) {
	// Arrange
	r := router.New(portfolio.Testing)
	r.OnEveryRequest(header("X-Order", "every"))

	// Act
	r.HandleRoutes(
		[]router.Route{
			{Path: "/teapot", Method: http.MethodGet, Handler: teapot, Middlewares: []middleware.Adapter{header("X-Order", "route")}},
		},
		header("X-Order", "group"),
	)

	// Assert
	w := serve(r, http.MethodGet, "https://example.com/teapot")
	require.Equal(t, http.StatusTeapot, w.Code)
	require.Equal(t, []string{"every", "group", "route"}, w.Header().Values("X-Order"))

	require.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodPost, "https://example.com/teapot").Code)
	require.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "https://example.com/teapot/").Code)
}

func TestRouterAuthedRoutes(t *testing.T) {
	// Arrange
	r := router.New(portfolio.Testing)
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusUnauthorized) })
	}

	// Act
	r.AuthedRoutes(deny, []router.Route{{Path: "/private", Method: http.MethodGet, Handler: teapot}})

	// Assert
	require.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "https://example.com/private").Code)
}

func TestRouterHandleNotFound(t *testing.T) {
	// Arrange
	r := router.New(portfolio.Testing)
	r.OnEveryRequest(header("X-Every", "yes"))
	r.Handle(router.Route{Path: "/teapot", Method: http.MethodGet, Handler: teapot})

	// Act
	r.HandleNotFound(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusGone) })
	r.HandleMethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusConflict) })

	// Assert
	w := serve(r, http.MethodGet, "https://example.com/nowhere")
	require.Equal(t, http.StatusGone, w.Code)
	require.Equal(t, "yes", w.Header().Get("X-Every"))
	require.Equal(t, http.StatusConflict, serve(r, http.MethodDelete, "https://example.com/teapot").Code)
}

func TestRouterSubrouter(t *testing.T) {
	// Arrange
	r := router.New(portfolio.Testing)
	api := r.Subrouter("/api/{version}/")

	// Act
	api.Handle(router.Route{Path: "/teapot", Method: http.MethodGet, Handler: teapot, Name: "teapot"})
	r.Handle(router.Route{Path: "/health", Method: http.MethodGet, Handler: teapot})

	// Assert
	require.Equal(t, http.StatusTeapot, serve(r, http.MethodGet, "https://example.com/api/v1/teapot").Code)

	routes := r.Routes()
	require.Len(t, routes, 2)
	require.Equal(t, "/api/{version}/teapot", routes[0].Path)
	require.Equal(t, "/health", routes[1].Path)

	u, err := r.URL("teapot", "version", "v1")
	require.Nil(t, err)
	require.Equal(t, "/api/v1/teapot", u)

	_, err = r.URL("kettle")
	require.ErrorIs(t, err, portfolio.ErrNotFound)
}
