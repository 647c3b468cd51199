// Package errors defines the service error taxonomy and its HTTP mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeNotFound          = "NOT_FOUND"
	CodeUnsupportedMedia  = "UNSUPPORTED_MEDIA_TYPE"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeInternal          = "INTERNAL_ERROR"
)

// Alert keys carried by bad request errors on the subject resource.
const (
	KeyIDExists   = "idexists"
	KeyIDNull     = "idnull"
	KeyIDInvalid  = "idinvalid"
	KeyIDNotFound = "idnotfound"
)

// ServiceError is an error that knows its HTTP status.
type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	EntityName string
	ErrorKey   string
	Err        error
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

// IsAlert reports whether the error carries an entity alert key.
func (e *ServiceError) IsAlert() bool {
	return e.ErrorKey != ""
}

// BadRequestAlert reports a request that violates an identity invariant of an entity.
func BadRequestAlert(message, entityName, errorKey string) *ServiceError {
	return &ServiceError{
		Code:       CodeBadRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		EntityName: entityName,
		ErrorKey:   errorKey,
	}
}

// BadRequest reports a malformed request.
func BadRequest(message string, err error) *ServiceError {
	return &ServiceError{Code: CodeBadRequest, Message: message, HTTPStatus: http.StatusBadRequest, Err: err}
}

// NotFound reports a missing entity.
func NotFound(entityName string) *ServiceError {
	return &ServiceError{
		Code:       CodeNotFound,
		Message:    entityName + " not found",
		HTTPStatus: http.StatusNotFound,
		EntityName: entityName,
	}
}

// UnsupportedMediaType reports a request body in a content type the endpoint does not accept.
func UnsupportedMediaType(contentType string) *ServiceError {
	return &ServiceError{
		Code:       CodeUnsupportedMedia,
		Message:    fmt.Sprintf("content type %q not supported", contentType),
		HTTPStatus: http.StatusUnsupportedMediaType,
	}
}

// RateLimitExceeded reports a client that exceeded its request budget.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return &ServiceError{
		Code:       CodeRateLimitExceeded,
		Message:    fmt.Sprintf("rate limit of %d requests per %s exceeded", limit, window),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// Internal wraps an unexpected failure. The message never exposes the cause.
func Internal(err error) *ServiceError {
	return &ServiceError{Code: CodeInternal, Message: "internal server error", HTTPStatus: http.StatusInternalServerError, Err: err}
}

// As converts any error into a ServiceError, wrapping unknown errors as internal.
func As(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return Internal(err)
}
