// Package errors maps domain failures onto client-facing categories.
package errors

import (
	"errors"
	"net/http"
)

// Category classifies a service error for the transport layer
type Category int

const (
	// CategoryNoError marks a successful call in request tracking.
	CategoryNoError Category = iota
	// CategoryDataError means the request carried invalid data.
	CategoryDataError
	// CategoryUnauthorized means the caller is not authenticated.
	CategoryUnauthorized
	// CategoryForbidden means the caller lacks the capability.
	CategoryForbidden
	// CategoryResourceNotFound means the addressed resource does not exist.
	CategoryResourceNotFound
	// CategoryNotSupported means the operation is not offered in this setup.
	CategoryNotSupported
	// CategoryDataConflict means the request conflicts with ledger state,
	// such as a balance or capacity limit.
	CategoryDataConflict
	// CategoryDependencyFailure means a price feed, the chain or the database failed.
	CategoryDependencyFailure
	// CategoryGeneralError means the service failed in an unexpected way.
	CategoryGeneralError
)

func (c Category) String() string {
	switch c {
	case CategoryNoError:
		return "CategoryNoError"
	case CategoryDataError:
		return "CategoryDataError"
	case CategoryUnauthorized:
		return "CategoryUnauthorized"
	case CategoryForbidden:
		return "CategoryForbidden"
	case CategoryResourceNotFound:
		return "CategoryResourceNotFound"
	case CategoryNotSupported:
		return "CategoryNotSupported"
	case CategoryDataConflict:
		return "CategoryDataConflict"
	case CategoryDependencyFailure:
		return "CategoryDependencyFailure"
	default:
		return "CategoryGeneralError"
	}
}

// ServiceError carries a category, a client-safe message and the cause,
// which is only logged.
type ServiceError struct {
	Category Category
	Message  string
	Err      error
}

func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

func (err ServiceError) Unwrap() error {
	return err.Err
}

// Is reports whether err is a ServiceError of category cat.
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Category == cat
}

// IsInternalError reports whether err should be logged as a server-side failure.
func IsInternalError(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Category < CategoryDependencyFailure {
		return false
	}
	return true
}

func newError(cat Category, err error, message, fallback string) error {
	if err == nil {
		err = errors.New(fallback)
	}
	return &ServiceError{Category: cat, Message: message, Err: err}
}

// GeneralError hides err from the client behind "Internal Server Error".
func GeneralError(err error) error {
	return newError(CategoryGeneralError, err, "Internal Server Error", "internal server error")
}

// BadRequestError reports invalid input.
func BadRequestError(err error, message string) error {
	return newError(CategoryDataError, err, message, "bad request: "+message)
}

// ResourceNotFoundError reports a missing resource.
func ResourceNotFoundError(err error, message string) error {
	return newError(CategoryResourceNotFound, err, message, "resource not found: "+message)
}

// NotSupportedError reports an operation this deployment does not offer.
func NotSupportedError(err error, message string) error {
	return newError(CategoryNotSupported, err, message, "not supported: "+message)
}

// UnAuthorizedError reports a missing or invalid credential.
func UnAuthorizedError(err error, message string) error {
	return newError(CategoryUnauthorized, err, message, "unauthorized")
}

// ForbiddenError reports a caller without the required capability.
func ForbiddenError(err error, message string) error {
	return newError(CategoryForbidden, err, message, "request forbidden")
}

// ConflictError reports a request the ledger state cannot accept.
func ConflictError(err error, message string) error {
	return newError(CategoryDataConflict, err, message, "conflict")
}

// DependencyError reports a failing price feed, chain or database.
func DependencyError(err error, message string) error {
	return newError(CategoryDependencyFailure, err, message, "dependency failure")
}

// StatusCode returns the HTTP status for the error category.
func (err ServiceError) StatusCode() int {
	switch err.Category {
	case CategoryDataError:
		return http.StatusBadRequest
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	case CategoryForbidden:
		return http.StatusForbidden
	case CategoryResourceNotFound:
		return http.StatusNotFound
	case CategoryNotSupported:
		return http.StatusNotImplemented
	case CategoryDataConflict:
		return http.StatusConflict
	case CategoryDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
