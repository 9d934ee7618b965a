package helpers

import (
	"encoding/json"
	"net/http"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeValidation       = "validation_error"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternalError    = "internal_error"
)

// APIResponse is the envelope of every API response.
// On success Data and/or Message are set; on failure Error and Code are set.
// swagger:model APIResponse
type APIResponse struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSONSuccess writes a success envelope carrying data.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, APIResponse{Success: true, Data: data})
}

// WriteJSONMessage writes a success envelope with a human readable message and optional data.
func WriteJSONMessage(w http.ResponseWriter, statusCode int, message string, data any) {
	writeJSON(w, statusCode, APIResponse{Success: true, Message: message, Data: data})
}

// WriteJSONError writes a failure envelope with the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, APIResponse{Success: false, Error: message, Code: code})
}

// WriteValidationError writes a 400 envelope listing every field problem.
func WriteValidationError(w http.ResponseWriter, problems []string) {
	message := "validation failed"
	if len(problems) == 1 {
		message = problems[0]
	}
	writeJSON(w, http.StatusBadRequest, APIResponse{
		Success: false,
		Error:   message,
		Code:    ErrCodeValidation,
		Details: problems,
	})
}
