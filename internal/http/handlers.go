package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/fairyhunter13/product-delete-service/internal/config"
	"github.com/fairyhunter13/product-delete-service/internal/events"
	httpopenapi "github.com/fairyhunter13/product-delete-service/internal/http/openapi"
	"github.com/fairyhunter13/product-delete-service/internal/model"
	"github.com/fairyhunter13/product-delete-service/internal/obs"
)

const livenessBody = "Delete Product Service Running"

// ProductDeleter removes a product from every table.
type ProductDeleter interface {
	DeleteProduct(ctx context.Context, productID string) error
}

// EventDispatcher accepts events for background publishing.
type EventDispatcher interface {
	Dispatch(ev model.Event) bool
	Stats() events.Stats
}

// BrokerStatus reports whether the broker channel is usable.
type BrokerStatus interface {
	Connected() bool
}

// App holds the handles shared by all requests. None of them is reassigned
// after NewApp.
type App struct {
	Cfg       config.Config
	Store     ProductDeleter
	Events    EventDispatcher
	Broker    BrokerStatus
	Telemetry *obs.Telemetry

	started time.Time
}

// NewApp wires the request handlers. tel may be nil, in which case deletes
// are not counted.
func NewApp(cfg config.Config, st ProductDeleter, ev EventDispatcher, br BrokerStatus, tel *obs.Telemetry) *App {
	return &App{Cfg: cfg, Store: st, Events: ev, Broker: br, Telemetry: tel, started: time.Now()}
}

func (a *App) metrics() *obs.DeleteMetrics {
	if a.Telemetry == nil {
		return nil
	}
	return a.Telemetry.Metrics
}

func (a *App) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("productId")
	if id == "" {
		WriteJSONError(w, http.StatusNotFound, "Not found", nil)
		return
	}
	reqID := RequestIDFromContext(ctx)

	// A client disconnect must not stop the table sequence half way.
	delCtx := context.WithoutCancel(ctx)
	err := a.Store.DeleteProduct(delCtx, id)
	a.metrics().ProductDeleted(delCtx, err)
	if err != nil {
		obs.Logger.ErrorContext(ctx, "product_delete_error",
			"request_id", reqID,
			"product_id", id,
			"error", err,
		)
		WriteJSONError(w, http.StatusInternalServerError, "Error deleting product", describeDeleteError(err))
		return
	}

	// Publishing happens in the background; its outcome never changes the response.
	if !a.Events.Dispatch(model.NewDeletionEvent(id)) {
		obs.Logger.WarnContext(ctx, "event_dropped",
			"request_id", reqID,
			"product_id", id,
			"reason", "intake_closed",
		)
	}
	WriteJSON(w, http.StatusOK, jsonMessage{Message: "Product deleted"})
	obs.Logger.InfoContext(ctx, "product_deleted",
		"request_id", reqID,
		"product_id", id,
	)
}

func (a *App) rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(livenessBody))
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	broker := "disconnected"
	if a.Broker != nil && a.Broker.Connected() {
		broker = "connected"
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "broker": broker})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	s := a.Events.Stats()
	counters, err := a.Telemetry.Counters(r.Context())
	if err != nil {
		obs.Logger.WarnContext(r.Context(), "metrics_collect_error", "error", err)
	}
	m := map[string]any{
		"deletes_ok":       counters[obs.CounterDeletes],
		"deletes_failed":   counters[obs.CounterDeleteFailures],
		"events_enqueued":  s.Enqueued,
		"events_published": s.Published,
		"backlog_size":     s.Backlog,
		"queue_depth":      s.Depth,
		"worker_count":     s.Workers,
		"uptime_sec":       time.Since(a.started).Seconds(),
		"counters":         counters,
	}
	WriteJSON(w, http.StatusOK, m)
}

func (a *App) openapiYAMLHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) openapiJSONHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := httpopenapi.JSON()
	if err != nil {
		WriteJSONError(w, http.StatusInternalServerError, "OpenAPI document unavailable", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Delete Product Service API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/api-docs/openapi.json',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}
