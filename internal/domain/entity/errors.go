package entity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind tags a RequestError with its place in the failure taxonomy.
type ErrorKind string

const (
	KindInvalidTask         ErrorKind = "invalid_task"
	KindUserNotFound        ErrorKind = "user_not_found"
	KindInsufficientCredits ErrorKind = "insufficient_credits"
	KindGatewayUnavailable  ErrorKind = "gateway_unavailable"
	KindInvalidOutputShape  ErrorKind = "invalid_output_shape"
	KindUnsupportedProvider ErrorKind = "unsupported_provider"
)

// RequestError is a request-level failure with an HTTP status and an
// optional detail payload safe to return to the caller.
type RequestError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Details any
	cause   error
}

func (e *RequestError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.cause
}

// IsKind reports whether err is a RequestError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Kind == kind
}

// StatusOf resolves the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Status
	}
	return http.StatusInternalServerError
}

func NewInvalidTask(task string, allowed []Task) *RequestError {
	names := make([]string, len(allowed))
	for i, t := range allowed {
		names[i] = string(t)
	}
	return &RequestError{
		Kind:    KindInvalidTask,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("invalid task %q, allowed: %s", task, strings.Join(names, ", ")),
	}
}

func NewUserNotFound(id string) *RequestError {
	return &RequestError{
		Kind:    KindUserNotFound,
		Status:  http.StatusNotFound,
		Message: "user not found",
		Details: map[string]any{"userId": id},
	}
}

func NewInsufficientCredits(needed, balance int) *RequestError {
	return &RequestError{
		Kind:    KindInsufficientCredits,
		Status:  http.StatusForbidden,
		Message: "not enough credits",
		Details: map[string]any{"creditsNeeded": needed, "credits": balance},
	}
}

func NewGatewayUnavailable(cause error) *RequestError {
	return &RequestError{
		Kind:    KindGatewayUnavailable,
		Status:  http.StatusBadGateway,
		Message: "generation backend unavailable",
		cause:   cause,
	}
}

func NewInvalidOutputShape(task Task, cause error) *RequestError {
	return &RequestError{
		Kind:    KindInvalidOutputShape,
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("generation backend returned an invalid %s output", task),
		cause:   cause,
	}
}

func NewUnsupportedProvider(provider string) *RequestError {
	return &RequestError{
		Kind:    KindUnsupportedProvider,
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("unsupported generation provider %q", provider),
	}
}
