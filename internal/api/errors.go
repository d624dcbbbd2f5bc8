package api

import (
	"errors"
	"net/http"

	"infinite-experiment/hangar/internal/common"
	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/services"
)

// respondServiceError maps service errors to appropriate HTTP responses
func respondServiceError(w http.ResponseWriter, procedure string, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		statusCode := mapErrorCodeToHTTPStatus(svcErr.Code)
		if statusCode >= http.StatusInternalServerError {
			logging.Error("Procedure failed", "procedure", procedure, "code", svcErr.Code, "error", err)
		}

		message := svcErr.Message
		if message == "" {
			message = constants.GetErrorMessage(svcErr.Code)
		}
		common.RespondError(w, message, statusCode)
		return
	}

	logging.Error("Procedure failed", "procedure", procedure, "error", err)
	common.RespondError(w, constants.GetErrorMessage(constants.ErrCodeInternal), http.StatusInternalServerError)
}

// mapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func mapErrorCodeToHTTPStatus(errorCode string) int {
	switch errorCode {
	// 400 Bad Request - missing or invalid fields, duplicate registrations
	case constants.ErrCodeValidation, constants.ErrCodeInvalidBody, constants.ErrCodeConflict:
		return http.StatusBadRequest

	// 401 Unauthorized
	case constants.ErrCodeUnauthenticated:
		return http.StatusUnauthorized

	// 403 Forbidden - caller is not an administrator
	case constants.ErrCodeForbidden:
		return http.StatusForbidden

	// 404 Not Found
	case constants.ErrCodeNotFound, constants.ErrCodeUnknownProc:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
