package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error payload returned by the API.
type ErrorBody struct {
	Error string `json:"error"`
}

// OKBody is the payload returned for accepted submissions.
type OKBody struct {
	OK bool `json:"ok"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// JSONOK renders {"ok":true}.
func JSONOK(w http.ResponseWriter) {
	JSON(w, http.StatusOK, OKBody{OK: true})
}
