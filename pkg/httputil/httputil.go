package httputil

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/attendly/attendance-backend/pkg/errors"
)

// Response is the standard envelope for all action responses.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// OK writes a success envelope with HTTP 200.
func OK(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Fail writes a failure envelope. Business failures (AppError) are
// HTTP 200 with the business code in the body; the transport status
// only signals transport-level problems.
func Fail(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		JSON(w, http.StatusOK, Response{
			Success: false,
			Message: appErr.Message,
			Code:    appErr.Code,
		})
		return
	}

	JSON(w, http.StatusInternalServerError, Response{
		Success: false,
		Message: "internal server error",
	})
}

// DecodeJSON decodes a request body into dst
func DecodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return apperrors.BadRequest("invalid JSON body")
	}
	return nil
}
