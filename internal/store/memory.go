package store

import (
	"context"
	"sync"
)

// MemoryTables is an in-process table set used for local runs and tests.
type MemoryTables struct {
	mu       sync.RWMutex
	tables   map[string]map[string]struct{}
	failures map[string]error
	calls    []string
}

// NewMemoryTables returns an empty in-memory table set.
func NewMemoryTables() *MemoryTables {
	return &MemoryTables{
		tables:   make(map[string]map[string]struct{}),
		failures: make(map[string]error),
	}
}

// Put stores productID in each of the given tables.
func (m *MemoryTables) Put(productID string, tables ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tables {
		rows, ok := m.tables[t]
		if !ok {
			rows = make(map[string]struct{})
			m.tables[t] = rows
		}
		rows[productID] = struct{}{}
	}
}

// Has reports whether productID is present in table.
func (m *MemoryTables) Has(table, productID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tables[table][productID]
	return ok
}

// FailOn makes every delete against table return err. A nil err clears it.
func (m *MemoryTables) FailOn(table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, table)
		return
	}
	m.failures[table] = err
}

// Calls returns the tables that received a delete, in call order.
func (m *MemoryTables) Calls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.calls...)
}

// DeleteItem implements Tables.
func (m *MemoryTables) DeleteItem(ctx context.Context, table, productID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, table)
	if err, ok := m.failures[table]; ok {
		return err
	}
	delete(m.tables[table], productID)
	return nil
}
