package openapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/http/resp"
	"github.com/xy-planning-network/portfolio/http/router"
	"github.com/xy-planning-network/portfolio/logger"
	"github.com/xy-planning-network/portfolio/openapi"
)

type note struct {
	portfolio.Model
	portfolio.SoftDelete
	Title string `json:"title"`
	Body  string `json:"-"`
}

type newNote struct {
	Title string `json:"title"`
}

type noteQuery struct {
	Page    int64  `schema:"page"`
	Deleted bool   `schema:"deleted"`
	Search  string `schema:"q,omitempty"`
	Ignored string
}

func nop(http.ResponseWriter, *http.Request) {}

// notes describes every standard action but update.
type notes struct{}

func (notes) List(w http.ResponseWriter, r *http.Request)          { nop(w, r) }
func (notes) Create(w http.ResponseWriter, r *http.Request)        { nop(w, r) }
func (notes) Retrieve(w http.ResponseWriter, r *http.Request)      { nop(w, r) }
func (notes) PartialUpdate(w http.ResponseWriter, r *http.Request) { nop(w, r) }
func (notes) Destroy(w http.ResponseWriter, r *http.Request)       { nop(w, r) }

func (notes) Actions() []router.Action {
	return []router.Action{
		{Name: "cover", Detail: true, Method: http.MethodPost, Handler: nop},
		{Name: "hidden", Method: http.MethodGet, Handler: nop},
	}
}

func (notes) Doc(action string) router.Doc {
	switch action {
	case router.ActionList:
		return router.Doc{Summary: "List notes", Query: noteQuery{}, Response: []note{}}
	case router.ActionCreate:
		return router.Doc{Summary: "Write a note", Public: true, Request: newNote{}, Response: note{}, Status: http.StatusCreated}
	case router.ActionRetrieve:
		return router.Doc{Summary: "Read a note", Response: note{}}
	case router.ActionPartialUpdate:
		return router.Doc{Summary: "Edit a note", Request: &newNote{}, Response: &note{}}
	case router.ActionDestroy:
		return router.Doc{Summary: "Delete a note", Status: http.StatusNoContent}
	case "cover":
		return router.Doc{Summary: "Upload a cover", Multipart: "cover", Response: note{}}
	default:
		return router.Doc{}
	}
}

func routes() []router.Route {
	r := router.New(portfolio.Testing)
	r.Subrouter("/api/{version}").Register("/notes", "notes", notes{})

	return r.Routes()
}

func TestBuild(t *testing.T) {
	// Act
	doc, err := openapi.Build(openapi.DefaultInfo, routes())

	// Assert
	require.Nil(t, err)
	require.Nil(t, doc.Validate(context.Background()))
	require.Equal(t, "Osman's Portfolio API", doc.Info.Title)
	require.Equal(t, "osmanmakhtoom@gmail.com", doc.Info.Contact.Email)
	require.Empty(t, doc.Servers)
	require.Len(t, doc.Paths, 3)

	list := doc.Paths["/api/{version}/notes"].Get
	require.NotNil(t, list)
	require.Equal(t, "notes-list", list.OperationID)
	require.Equal(t, []string{"notes"}, list.Tags)
	require.NotNil(t, list.Security)
	var params []string
	for _, p := range list.Parameters {
		params = append(params, p.Value.In+":"+p.Value.Name)
	}
	require.Equal(t, []string{"path:version", "query:page", "query:deleted", "query:q"}, params)

	create := doc.Paths["/api/{version}/notes"].Post
	require.Nil(t, create.Security)
	require.NotNil(t, create.Responses.Get(http.StatusCreated))
	require.Equal(t, "#/components/schemas/newNote", create.RequestBody.Value.Content.Get("application/json").Schema.Ref)

	detail := doc.Paths["/api/{version}/notes/{id}"]
	require.NotNil(t, detail.Get)
	require.NotNil(t, detail.Patch)
	require.Nil(t, detail.Put)
	require.Nil(t, detail.Delete.Responses.Get(http.StatusNoContent).Value.Content)

	cover := doc.Paths["/api/{version}/notes/{id}/cover"].Post
	require.NotNil(t, cover.RequestBody.Value.Content.Get("multipart/form-data"))

	schema := doc.Components.Schemas["note"].Value
	require.Contains(t, schema.Properties, "id")
	require.Contains(t, schema.Properties, "title")
	require.Contains(t, schema.Properties, "isDeleted")
	require.NotContains(t, schema.Properties, "Body")
	require.Equal(t, "date-time", schema.Properties["deletedAt"].Value.Format)
	require.True(t, schema.Properties["deletedAt"].Value.Nullable)
	require.Contains(t, doc.Components.Schemas, "Error")
	require.Contains(t, doc.Components.SecuritySchemes, "Bearer")
}

func TestBuildServer(t *testing.T) {
	info := openapi.DefaultInfo
	info.Server = "https://api.example.com"

	doc, err := openapi.Build(info, nil)

	require.Nil(t, err)
	require.Equal(t, "https://api.example.com", doc.Servers[0].URL)
	require.Empty(t, doc.Paths)
}

func TestHandler(t *testing.T) {
	// Arrange
	doc, err := openapi.Build(openapi.DefaultInfo, routes())
	require.Nil(t, err)
	h, err := openapi.NewHandler(resp.NewResponder(resp.WithLogger(logger.New(logger.WithLevel(logger.LogLevelFatal)))), doc)
	require.Nil(t, err)

	r := router.New(portfolio.Testing)
	r.HandleRoutes(h.Routes("v1"))

	serve := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	t.Run("JSON", func(t *testing.T) {
		// Act
		w := serve("/swagger.json/v1/")

		// Assert
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Header().Get("Content-Type"), "json")
		var body map[string]any
		require.Nil(t, json.NewDecoder(w.Body).Decode(&body))
		require.Equal(t, "3.0.3", body["openapi"])
		require.Contains(t, body["paths"], "/api/{version}/notes/{id}")
	})

	t.Run("YAML", func(t *testing.T) {
		// Act
		w := serve("/swagger.yaml/v1/")

		// Assert
		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, strings.Contains(w.Body.String(), "openapi: 3.0.3"))
		require.Contains(t, w.Body.String(), "Portfolio API")
	})

	t.Run("Unknown-Format", func(t *testing.T) {
		require.Equal(t, http.StatusNotFound, serve("/swagger.xml/v1/").Code)
	})

	t.Run("Swagger-UI", func(t *testing.T) {
		// Act
		w := serve("/swagger/v1/")

		// Assert
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Header().Get("Content-Type"), "text/html")
		require.Contains(t, w.Body.String(), "swagger-ui-bundle.js")
		require.Contains(t, w.Body.String(), "<title>Osman&#39;s Portfolio API</title>")
	})

	t.Run("ReDoc", func(t *testing.T) {
		// Act
		w := serve("/redoc/v1/")

		// Assert
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `spec-url="/swagger.json/v1/"`)
	})
}
