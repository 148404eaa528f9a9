package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorBody is the error payload returned by every endpoint.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, ErrorBody{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// WriteError renders err. AppErrors keep their status and attach the wrapped error's
// message; anything else becomes a 500 whose message is only exposed when expose is set.
func WriteError(w http.ResponseWriter, err error, expose bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		body := ErrorBody{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		}
		if appErr.Err != nil {
			body.Message = appErr.Err.Error()
		}
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		JSON(w, status, body)
		return
	}
	body := ErrorBody{Error: "Error interno del servidor", Code: "INTERNAL", Message: "Error interno"}
	if expose && err != nil {
		body.Message = err.Error()
	}
	JSON(w, http.StatusInternalServerError, body)
}
