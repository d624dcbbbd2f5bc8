package common

import (
	"encoding/json"
	"net/http"

	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/models/dtos/responses"
)

// RespondSuccess writes {"success":true,"data":...}.
func RespondSuccess(w http.ResponseWriter, data any, statusCode ...int) {
	code := http.StatusOK
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	writeJSON(w, code, responses.Envelope[any]{
		Success: true,
		Data:    data,
	})
}

// RespondError writes {"success":false,"error":...}.
func RespondError(w http.ResponseWriter, message string, statusCode ...int) {
	code := http.StatusInternalServerError
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	writeJSON(w, code, responses.Envelope[any]{
		Success: false,
		Error:   message,
	})
}

func writeJSON(w http.ResponseWriter, code int, body responses.Envelope[any]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("JSON encode failed", "error", err)
	}
}
