package openapi

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gorilla/mux"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/http/resp"
	"github.com/xy-planning-network/portfolio/http/router"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"

	formatVar = "format"
)

// uiPage renders a documentation page loading its viewer from a CDN.
var uiPage = template.Must(template.New("ui").Parse(`<!DOCTYPE html>
<html>
<head>
<title>{{ .Title }}</title>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
{{ if .Redoc }}<style>body { margin: 0; padding: 0; }</style>{{ else }}<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">{{ end }}
</head>
<body>
{{ if .Redoc -}}
<redoc spec-url="{{ .SpecURL }}"></redoc>
<script src="https://cdn.jsdelivr.net/npm/redoc@2/bundles/redoc.standalone.js"></script>
{{- else -}}
<div id="swagger-ui"></div>
<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
window.onload = function () {
  SwaggerUIBundle({ url: {{ .SpecURL }}, dom_id: "#swagger-ui", persistAuthorization: true });
};
</script>
{{- end }}
</body>
</html>
`))

// A Handler serves an OpenAPI document and the pages browsing it.
type Handler struct {
	d     *resp.Responder
	json  []byte
	yaml  []byte
	title string
}

// NewHandler renders doc up front, so serving it never fails.
func NewHandler(d *resp.Responder, doc *openapi3.T) (*Handler, error) {
	j, err := JSON(doc)
	if err != nil {
		return nil, err
	}

	y, err := YAML(doc)
	if err != nil {
		return nil, err
	}

	return &Handler{d: d, json: j, yaml: y, title: doc.Info.Title}, nil
}

// Routes lists the public documentation routes for version, as in
// /swagger.json/v1/, /swagger/v1/ and /redoc/v1/.
func (h *Handler) Routes(version string) []router.Route {
	return []router.Route{
		{
			Path:    fmt.Sprintf("/swagger.{%s:json|yaml}/%s/", formatVar, version),
			Method:  http.MethodGet,
			Handler: h.Spec,
			Name:    "schema-" + version,
		},
		{
			Path:    fmt.Sprintf("/swagger/%s/", version),
			Method:  http.MethodGet,
			Handler: h.page(fmt.Sprintf("/swagger.json/%s/", version), false),
			Name:    "schema-swagger-ui-" + version,
		},
		{
			Path:    fmt.Sprintf("/redoc/%s/", version),
			Method:  http.MethodGet,
			Handler: h.page(fmt.Sprintf("/swagger.json/%s/", version), true),
			Name:    "schema-redoc-" + version,
		},
	}
}

// Spec writes the document in the format of the route, JSON or YAML.
func (h *Handler) Spec(w http.ResponseWriter, r *http.Request) {
	switch mux.Vars(r)[formatVar] {
	case FormatJSON:
		w.Header().Set("Content-Type", "application/vnd.oai.openapi+json; charset=UTF-8")
		w.WriteHeader(http.StatusOK)
		w.Write(h.json)

	case FormatYAML:
		w.Header().Set("Content-Type", "application/vnd.oai.openapi; charset=UTF-8")
		w.WriteHeader(http.StatusOK)
		w.Write(h.yaml)

	default:
		h.d.Err(w, r, fmt.Errorf("%w: format %q", portfolio.ErrNotFound, mux.Vars(r)[formatVar]))
	}
}

func (h *Handler) page(specURL string, redoc bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=UTF-8")
		data := struct {
			Title   string
			SpecURL string
			Redoc   bool
		}{h.title, specURL, redoc}

		if err := uiPage.Execute(w, data); err != nil {
			h.d.Err(w, r, fmt.Errorf("%w: failed rendering docs page: %s", portfolio.ErrUnexpected, err))
		}
	}
}
