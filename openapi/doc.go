// Package openapi describes the routes of a portfolio application in an OpenAPI 3 document
// and serves it, along with Swagger UI and ReDoc pages for browsing it.
//
// Build reads the router.Doc of each route:
//
//	doc, err := openapi.Build(openapi.DefaultInfo, r.Routes())
//	h, err := openapi.NewHandler(d, doc)
//	r.HandleRoutes(h.Routes("v1"))
package openapi
