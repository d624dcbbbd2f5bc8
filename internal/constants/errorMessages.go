package constants

// Service error codes. The api package maps each to an HTTP status.
const (
	ErrCodeValidation      = "VALIDATION_FAILED"
	ErrCodeInvalidBody     = "INVALID_BODY"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeUnauthenticated = "UNAUTHENTICATED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeDatabase        = "DATABASE_ERROR"
	ErrCodeUnknownProc     = "UNKNOWN_PROCEDURE"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

var ErrorMessages = map[string]string{
	ErrCodeValidation:      "One or more required fields are missing or invalid",
	ErrCodeInvalidBody:     "Request body is not valid JSON",
	ErrCodeNotFound:        "The requested record was not found",
	ErrCodeUnauthenticated: "You must be signed in to do that",
	ErrCodeForbidden:       "Administrator access is required",
	ErrCodeConflict:        "The record already exists",
	ErrCodeDatabase:        "The data store could not complete the request",
	ErrCodeUnknownProc:     "Unknown procedure",
	ErrCodeInternal:        "An unexpected error occurred",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := ErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
