// Package shared holds the JSON response helpers every handler uses, so the
// error envelope and status mapping stay identical across the API surface.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "github.com/caris2020/AssuranceProject/pkg/domainerrors"
)

// WriteJSON serializes v with the given status. Encoding failures are
// unrecoverable at this point; the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error onto the HTTP status for its code and emits
// the standard error envelope. Uncoded errors become 500s with a generic
// message so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := "internal error"
	var de *dErrors.Error
	if errors.As(err, &de) {
		message = de.Message
	}

	WriteJSON(w, toStatus(code), map[string]string{
		"error":   string(code),
		"message": message,
	})
}

func toStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
