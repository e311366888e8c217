package httpx

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error  ErrorResponseBody `json:"error"`
	Errors []ErrorDetail     `json:"errors,omitempty"`
}

type ErrorResponseBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// JSON writes v as the response body with the given status code.
func JSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func JSONMessage(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, MessageResponse{Message: message})
}

// JSONError writes an error envelope. details are listed under "errors" when present.
func JSONError(w http.ResponseWriter, r *http.Request, statusCode int, code string, message string, details []ErrorDetail) {
	JSON(w, statusCode, ErrorResponse{
		Error: ErrorResponseBody{
			Code:      code,
			Message:   message,
			RequestID: RequestIDFrom(r),
		},
		Errors: details,
	})
}
