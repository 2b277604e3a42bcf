// Package httptransport exposes the ledger over HTTP. Handlers stay thin:
// they decode, delegate to domain services, and translate coded errors onto
// statuses.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "sentinelguard/pkg/domainerrors"
)

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError translates a coded domain error onto an HTTP status with a
// stable JSON envelope. Internal causes are not leaked to the client.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	envelope := errorEnvelope{Error: string(code)}

	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) {
		envelope.Message = de.Message
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), envelope)
}
