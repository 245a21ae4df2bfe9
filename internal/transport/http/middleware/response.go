package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors handler.MessageEnvelope so clients see one error shape
// whether a request was rejected by middleware or by a handler.
type errorBody struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
}

// WriteError writes a JSON error response with the status repeated in the body.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg, ErrorCode: status})
}
