package services

import (
	"errors"
	"fmt"

	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/db/repositories"
)

// ServiceError carries an error code the api layer maps to an HTTP status.
type ServiceError struct {
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func newServiceError(code string, err error) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: constants.GetErrorMessage(code),
		Err:     err,
	}
}

// NotFound, Forbidden and friends build the common cases.
func NotFound(what string) *ServiceError {
	return &ServiceError{Code: constants.ErrCodeNotFound, Message: what + " not found"}
}

func Forbidden() *ServiceError {
	return newServiceError(constants.ErrCodeForbidden, nil)
}

func Unauthenticated() *ServiceError {
	return newServiceError(constants.ErrCodeUnauthenticated, nil)
}

func Invalid(message string) *ServiceError {
	return &ServiceError{Code: constants.ErrCodeValidation, Message: message}
}

// storeError turns a repository error into a ServiceError.
func storeError(what string, err error) error {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return NotFound(what)
	}
	return newServiceError(constants.ErrCodeDatabase, err)
}

// CodeOf returns the error code of err, or ErrCodeInternal.
func CodeOf(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code
	}
	return constants.ErrCodeInternal
}
