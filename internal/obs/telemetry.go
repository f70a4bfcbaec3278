package obs

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/fairyhunter13/product-delete-service"

// Counter names recorded by DeleteMetrics.
const (
	CounterDeletes         = "product_delete.deletes"
	CounterDeleteFailures  = "product_delete.delete_failures"
	CounterTableDeletes    = "product_delete.table_deletes"
	CounterTableDeleteErrs = "product_delete.table_delete_errors"
	CounterEventsPublished = "product_delete.events_published"
	CounterPublishErrors   = "product_delete.publish_errors"
)

// Tracer returns the service tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Telemetry owns the metric SDK provider. Its manual reader is collected on
// demand by /debug/metrics.
type Telemetry struct {
	Metrics *DeleteMetrics

	provider *sdkmetric.MeterProvider
	reader   *sdkmetric.ManualReader
}

// NewTelemetry builds a meter provider backed by a manual reader and the
// service instruments on top of it.
func NewTelemetry() *Telemetry {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return &Telemetry{
		Metrics:  newDeleteMetrics(provider.Meter(instrumentationName)),
		provider: provider,
		reader:   reader,
	}
}

// Install registers the provider as the global meter provider.
func (t *Telemetry) Install() {
	otel.SetMeterProvider(t.provider)
}

// Counters collects the current value of every int64 counter, summed over
// attributes. A nil Telemetry has no counters.
func (t *Telemetry) Counters(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64)
	if t == nil {
		return out, nil
	}
	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &rm); err != nil {
		return out, fmt.Errorf("collect metrics: %w", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			out[m.Name] = total
		}
	}
	return out, nil
}

// Shutdown flushes and stops the provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// DeleteMetrics holds the instruments recorded around product deletes.
type DeleteMetrics struct {
	Deletes           metric.Int64Counter
	DeleteFailures    metric.Int64Counter
	TableDeletes      metric.Int64Counter
	TableDeleteErrors metric.Int64Counter
	EventsPublished   metric.Int64Counter
	PublishErrors     metric.Int64Counter
}

func newDeleteMetrics(meter metric.Meter) *DeleteMetrics {
	deletes, _ := meter.Int64Counter(CounterDeletes,
		metric.WithDescription("Products removed from every table"),
		metric.WithUnit("{product}"),
	)
	deleteFailures, _ := meter.Int64Counter(CounterDeleteFailures,
		metric.WithDescription("Product deletes that stopped at a failing table"),
		metric.WithUnit("{product}"),
	)
	tableDeletes, _ := meter.Int64Counter(CounterTableDeletes,
		metric.WithDescription("Table delete calls that succeeded"),
		metric.WithUnit("{delete}"),
	)
	tableErrs, _ := meter.Int64Counter(CounterTableDeleteErrs,
		metric.WithDescription("Table delete calls that failed"),
		metric.WithUnit("{error}"),
	)
	published, _ := meter.Int64Counter(CounterEventsPublished,
		metric.WithDescription("Events handed to the broker channel"),
		metric.WithUnit("{event}"),
	)
	publishErrs, _ := meter.Int64Counter(CounterPublishErrors,
		metric.WithDescription("Publish attempts that failed or had no channel"),
		metric.WithUnit("{error}"),
	)
	return &DeleteMetrics{
		Deletes:           deletes,
		DeleteFailures:    deleteFailures,
		TableDeletes:      tableDeletes,
		TableDeleteErrors: tableErrs,
		EventsPublished:   published,
		PublishErrors:     publishErrs,
	}
}

// ProductDeleted records the outcome of a whole product delete.
func (m *DeleteMetrics) ProductDeleted(ctx context.Context, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.DeleteFailures.Add(ctx, 1)
		return
	}
	m.Deletes.Add(ctx, 1)
}

// TableDeleted records the outcome of a single table delete.
func (m *DeleteMetrics) TableDeleted(ctx context.Context, table string, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("db.table", table))
	if err != nil {
		m.TableDeleteErrors.Add(ctx, 1, attrs)
		return
	}
	m.TableDeletes.Add(ctx, 1, attrs)
}

// Published records the outcome of a publish attempt.
func (m *DeleteMetrics) Published(ctx context.Context, queue string, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("messaging.destination", queue))
	if err != nil {
		m.PublishErrors.Add(ctx, 1, attrs)
		return
	}
	m.EventsPublished.Add(ctx, 1, attrs)
}

// EndSpan marks span as failed when err is set and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
