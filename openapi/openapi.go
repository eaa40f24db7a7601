package openapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"github.com/invopop/yaml"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/http/router"
)

const (
	Version     = "3.0.3"
	bearer      = "Bearer"
	errorSchema = "Error"
)

// Info describes the API a document is for.
type Info struct {
	Title       string
	Version     string
	Description string
	Email       string

	// Server is the root URL requests go to; the document lists none when empty.
	Server string
}

// DefaultInfo describes the portfolio API.
var DefaultInfo = Info{
	Title:       "Osman's Portfolio API",
	Version:     "v1",
	Description: "The backend project of Osman's portfolio",
	Email:       "osmanmakhtoom@gmail.com",
}

var pathVar = regexp.MustCompile(`\{(\w+)(:[^}]*)?\}`)

// Build describes routes in an OpenAPI 3 document.
//
// Routes without a Doc summary are left out.
// Routes not marked public require a bearer JWT.
func Build(info Info, routes []router.Route) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: Version,
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
			Contact:     &openapi3.Contact{Email: info.Email},
		},
		Paths: make(openapi3.Paths),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				errorSchema: openapi3.NewSchemaRef("", openapi3.NewObjectSchema().
					WithProperty("detail", openapi3.NewStringSchema()).
					WithProperty("validationErrors", openapi3.NewArraySchema().WithItems(
						openapi3.NewObjectSchema().
							WithProperty("field", openapi3.NewStringSchema()).
							WithProperty("got", openapi3.NewSchema()).
							WithProperty("rule", openapi3.NewStringSchema()),
					)).
					WithProperty("fields", openapi3.NewObjectSchema().WithAdditionalProperties(
						openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()),
					))),
			},
			SecuritySchemes: openapi3.SecuritySchemes{
				bearer: &openapi3.SecuritySchemeRef{Value: openapi3.NewJWTSecurityScheme()},
			},
		},
	}

	if info.Server != "" {
		doc.Servers = openapi3.Servers{{URL: info.Server}}
	}

	b := &builder{doc: doc, gen: openapi3gen.NewGenerator(openapi3gen.SchemaCustomizer(customize))}
	for _, route := range routes {
		if route.Doc.Summary == "" {
			continue
		}

		if err := b.add(route); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// builder gathers operations into doc, defining the schemas they use as components.
type builder struct {
	doc *openapi3.T
	gen *openapi3gen.Generator
}

func (b *builder) add(route router.Route) error {
	op := openapi3.NewOperation()
	op.Summary = route.Doc.Summary
	op.OperationID = route.Name
	op.Responses = make(openapi3.Responses)

	if tag, _, ok := strings.Cut(route.Name, "-"); ok {
		op.Tags = []string{tag}
	}

	if !route.Doc.Public {
		op.Security = &openapi3.SecurityRequirements{openapi3.NewSecurityRequirement().Authenticate(bearer)}
	}

	path := pathVar.ReplaceAllString(route.Path, "{$1}")
	for _, m := range pathVar.FindAllStringSubmatch(route.Path, -1) {
		schema := openapi3.NewStringSchema()
		if m[1] == router.IDVar {
			schema = openapi3.NewIntegerSchema().WithMin(1)
		}

		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{Value: openapi3.NewPathParameter(m[1]).WithSchema(schema)})
	}

	if route.Doc.Query != nil {
		op.Parameters = append(op.Parameters, queryParams(route.Doc.Query)...)
	}

	switch {
	case route.Doc.Multipart != "":
		schema := openapi3.NewObjectSchema().WithProperty(route.Doc.Multipart, openapi3.NewStringSchema().WithFormat("binary"))
		schema.Required = []string{route.Doc.Multipart}
		op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithFormDataSchema(schema)}

	case route.Doc.Request != nil:
		ref, err := b.schema(route.Doc.Request)
		if err != nil {
			return err
		}

		op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(ref)}
	}

	status := route.Doc.Status
	if status == 0 {
		status = http.StatusOK
	}

	res := openapi3.NewResponse().WithDescription(http.StatusText(status))
	if route.Doc.Response != nil {
		ref, err := b.schema(route.Doc.Response)
		if err != nil {
			return err
		}

		res = res.WithJSONSchemaRef(ref)
	} else if status != http.StatusNoContent {
		res = res.WithJSONSchema(openapi3.NewObjectSchema())
	}

	op.AddResponse(status, res)
	op.Responses["default"] = &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription("Error").
			WithJSONSchemaRef(openapi3.NewSchemaRef("#/components/schemas/"+errorSchema, b.doc.Components.Schemas[errorSchema].Value)),
	}

	b.doc.AddOperation(path, route.Method, op)
	return nil
}

// schema defines the type of v as a component, returning a reference to it.
func (b *builder) schema(v any) (*openapi3.SchemaRef, error) {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	name := t.Name()
	if existing, ok := b.doc.Components.Schemas[name]; ok {
		return openapi3.NewSchemaRef("#/components/schemas/"+name, existing.Value), nil
	}

	ref, err := b.gen.NewSchemaRefForValue(v, b.doc.Components.Schemas)
	if err != nil {
		return nil, fmt.Errorf("%w: failed describing %T: %s", portfolio.ErrUnexpected, v, err)
	}

	if name == "" {
		return ref, nil
	}

	b.doc.Components.Schemas[name] = openapi3.NewSchemaRef("", ref.Value)
	return openapi3.NewSchemaRef("#/components/schemas/"+name, ref.Value), nil
}

var deletedTimeType = reflect.TypeOf(portfolio.DeletedTime{})

// customize describes types that marshal themselves.
func customize(_ string, t reflect.Type, _ reflect.StructTag, schema *openapi3.Schema) error {
	if t == deletedTimeType {
		*schema = *openapi3.NewDateTimeSchema().WithNullable()
	}

	return nil
}

// queryParams lists the fields of the struct q tagged with "schema" as query parameters.
func queryParams(q any) openapi3.Parameters {
	t := reflect.TypeOf(q)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var params openapi3.Parameters
	if t.Kind() != reflect.Struct {
		return params
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("schema"), ",")
		if name == "" || name == "-" || !f.IsExported() {
			continue
		}

		var schema *openapi3.Schema
		switch f.Type.Kind() {
		case reflect.Bool:
			schema = openapi3.NewBoolSchema()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			schema = openapi3.NewIntegerSchema()
		case reflect.Float32, reflect.Float64:
			schema = openapi3.NewFloat64Schema()
		case reflect.Slice:
			schema = openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())
		default:
			schema = openapi3.NewStringSchema()
		}

		params = append(params, &openapi3.ParameterRef{Value: openapi3.NewQueryParameter(name).WithSchema(schema)})
	}

	return params
}

// JSON renders doc as indented JSON.
func JSON(doc *openapi3.T) ([]byte, error) {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: failed encoding document: %s", portfolio.ErrUnexpected, err)
	}

	return b, nil
}

// YAML renders doc as YAML.
func YAML(doc *openapi3.T) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: failed encoding document: %s", portfolio.ErrUnexpected, err)
	}

	y, err := yaml.JSONToYAML(b)
	if err != nil {
		return nil, fmt.Errorf("%w: failed encoding document: %s", portfolio.ErrUnexpected, err)
	}

	return y, nil
}
