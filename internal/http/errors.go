// Package httpapi exposes the HTTP API layer of the service.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/product-delete-service/internal/store"
)

// jsonMessage is the body shape of every JSON response.
type jsonMessage struct {
	Message string `json:"message"`
	Error   any    `json:"error,omitempty"`
}

// deleteFailure describes how far a failed delete got.
type deleteFailure struct {
	Table         string   `json:"table,omitempty"`
	Position      int      `json:"position,omitempty"`
	DeletedTables []string `json:"deletedTables"`
	Detail        string   `json:"detail"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSONError writes a {message, error} payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message string, detail any) {
	WriteJSON(w, status, jsonMessage{Message: message, Error: detail})
}

func describeDeleteError(err error) deleteFailure {
	f := deleteFailure{DeletedTables: []string{}, Detail: err.Error()}
	var pde *store.PartialDeleteError
	if errors.As(err, &pde) {
		f.Table = pde.Table
		f.Position = pde.Position
		f.DeletedTables = append(f.DeletedTables, pde.Deleted...)
		if pde.Err != nil {
			f.Detail = pde.Err.Error()
		}
	}
	return f
}
