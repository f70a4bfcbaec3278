package httpapi

import (
	"expvar"
	"net/http"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /products/{productId}", app.deleteProductHandler)
	mux.HandleFunc("DELETE /products/{productId}/", app.deleteProductHandler)
	mux.HandleFunc("GET /{$}", app.rootHandler)
	mux.HandleFunc("GET /healthz", app.healthHandler)
	mux.HandleFunc("GET /debug/metrics", app.metricsHandler)
	mux.Handle("GET /debug/vars", expvar.Handler())
	mux.HandleFunc("GET /api-docs", app.docsHandler)
	mux.HandleFunc("GET /api-docs/{$}", app.docsHandler)
	mux.HandleFunc("GET /api-docs/openapi.yaml", app.openapiYAMLHandler)
	mux.HandleFunc("GET /api-docs/openapi.json", app.openapiJSONHandler)
	return WithRequestID(WithLogging(WithCORS(mux)))
}
