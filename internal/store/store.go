// Package store removes product records from the redundant product tables.
package store

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fairyhunter13/product-delete-service/internal/obs"
)

// ErrNoTables is returned when a Store is built without any table names.
var ErrNoTables = errors.New("store: no tables configured")

// Tables deletes a single product record from a named table.
// Deleting a key that is not present is not an error.
type Tables interface {
	DeleteItem(ctx context.Context, table, productID string) error
}

// Store deletes a product from every table of the table set, in order.
type Store struct {
	backend Tables
	names   []string
	metrics *obs.DeleteMetrics
	tracer  trace.Tracer
}

// New returns a Store over backend for the given ordered table names.
func New(backend Tables, names []string, metrics *obs.DeleteMetrics) (*Store, error) {
	if len(names) == 0 {
		return nil, ErrNoTables
	}
	return &Store{
		backend: backend,
		names:   append([]string(nil), names...),
		metrics: metrics,
		tracer:  obs.Tracer(),
	}, nil
}

// TableNames returns a copy of the configured table set.
func (s *Store) TableNames() []string {
	return append([]string(nil), s.names...)
}

// DeleteProduct removes productID from each table sequentially. The first
// failure stops the loop and is returned as a *PartialDeleteError; tables
// already deleted stay deleted.
func (s *Store) DeleteProduct(ctx context.Context, productID string) error {
	deleted := make([]string, 0, len(s.names))
	for i, table := range s.names {
		if err := s.deleteOne(ctx, table, productID); err != nil {
			return &PartialDeleteError{
				ProductID: productID,
				Table:     table,
				Position:  i + 1,
				Deleted:   deleted,
				Err:       err,
			}
		}
		deleted = append(deleted, table)
		obs.Logger.InfoContext(ctx, "product_deleted_from_table",
			"product_id", productID,
			"table", table,
			"position", i+1,
		)
	}
	return nil
}

func (s *Store) deleteOne(ctx context.Context, table, productID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "store.DeleteItem",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.table", table),
			attribute.String("product.id", productID),
		),
	)
	defer func() { obs.EndSpan(span, err) }()

	err = s.backend.DeleteItem(ctx, table, productID)
	s.metrics.TableDeleted(ctx, table, err)
	return err
}
