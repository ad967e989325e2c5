package handlers

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/accounts"
	"github.com/serroba/shortlinks/internal/shortener"
)

const serverErrorMessage = "Something went wrong. We will work on fixing that right away."

// ErrorBody is the JSON body of every failed response.
type ErrorBody struct {
	status   int
	Category string `doc:"Error category"                      json:"error"`
	Message  string `doc:"Human readable description"          json:"message"`
	Status   string `doc:"Link state for resolution conflicts" json:"status,omitempty"`
}

func (e *ErrorBody) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *ErrorBody) GetStatus() int {
	return e.status
}

// NewError replaces huma.NewError so framework errors share the ErrorBody shape.
// Schema violations are reported as 400 like every other validation failure.
func NewError(status int, msg string, errs ...error) huma.StatusError {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest

		return &ErrorBody{status: status, Category: "validation error", Message: withFirst(msg, errs)}
	}

	if status == http.StatusBadRequest {
		msg = withFirst(msg, errs)
	}

	return &ErrorBody{status: status, Category: category(status), Message: msg}
}

func withFirst(msg string, errs []error) string {
	for _, err := range errs {
		if err != nil {
			return msg + ": " + err.Error()
		}
	}

	return msg
}

func category(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusTooManyRequests:
		return "too many requests"
	default:
		if status >= http.StatusInternalServerError {
			return "internal server error"
		}

		return http.StatusText(status)
	}
}

// linkError maps a shortener error kind to its HTTP response.
func linkError(err error) error {
	msg := shortener.MessageOf(err, serverErrorMessage)

	switch {
	case errors.Is(err, shortener.ErrServer):
		return &ErrorBody{status: http.StatusInternalServerError, Category: "internal server error", Message: msg}
	case errors.Is(err, shortener.ErrValidation), errors.Is(err, shortener.ErrURLValidation):
		return &ErrorBody{status: http.StatusBadRequest, Category: "validation error", Message: msg}
	case errors.Is(err, shortener.ErrConflict):
		return &ErrorBody{
			status:   http.StatusBadRequest,
			Category: "bad request",
			Message:  msg,
			Status:   shortener.StatusOf(err),
		}
	case errors.Is(err, shortener.ErrNotFound):
		return &ErrorBody{status: http.StatusNotFound, Category: "Not found", Message: msg}
	default:
		return &ErrorBody{status: http.StatusInternalServerError, Category: "internal server error", Message: serverErrorMessage}
	}
}

// accountError maps an accounts error to its HTTP response.
func accountError(err error) error {
	switch {
	case errors.Is(err, accounts.ErrInvalidInput),
		errors.Is(err, accounts.ErrUsernameTaken),
		errors.Is(err, accounts.ErrEmailTaken):
		return &ErrorBody{status: http.StatusBadRequest, Category: "validation error", Message: err.Error()}
	case errors.Is(err, accounts.ErrTokenExpired):
		return Unauthorized("Token has expired")
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return Unauthorized("Invalid Credentials")
	default:
		return &ErrorBody{status: http.StatusInternalServerError, Category: "internal server error", Message: serverErrorMessage}
	}
}

// Unauthorized builds a 401 response.
func Unauthorized(msg string) *ErrorBody {
	return &ErrorBody{status: http.StatusUnauthorized, Category: "unauthorized", Message: msg}
}

func forbidden() error {
	return &ErrorBody{
		status:   http.StatusForbidden,
		Category: "forbidden",
		Message:  "You are not authorized to use this service",
	}
}
