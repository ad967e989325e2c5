package shortener

import "errors"

// Error kinds. Every error returned by Service and Resolver matches exactly one
// of them with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrURLValidation = errors.New("url validation error")
	ErrConflict      = errors.New("conflict")
	ErrNotFound      = errors.New("not found")
	ErrServer        = errors.New("server error")
)

// Repository-level conditions reported by Store implementations.
var (
	// ErrCodeTaken is returned when a short code collides with an existing row.
	ErrCodeTaken = errors.New("short code already taken")
	// ErrLinkExists is returned when the owner already has a short link for the long URL.
	ErrLinkExists = errors.New("short link already exists for owner and long url")
	// ErrLongURLExists is returned when another row already holds the same normalized URL.
	ErrLongURLExists = errors.New("long url already exists")
)

// Status tags attached to conflict errors raised while resolving a link.
const (
	StatusDeleted  = "deleted"
	StatusInactive = "inactive"
)

// Error is a classified failure with a message safe to show to clients.
type Error struct {
	Kind    error
	Message string
	// Status distinguishes resolution conflicts ("deleted", "inactive").
	Status string
	Err    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

func validationError(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func urlValidationError(msg string) error {
	return &Error{Kind: ErrURLValidation, Message: msg}
}

func conflictError(msg, status string) error {
	return &Error{Kind: ErrConflict, Message: msg, Status: status}
}

func notFoundError(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func serverError(msg string, err error) error {
	return &Error{Kind: ErrServer, Message: msg, Err: err}
}

// StatusOf returns the status tag of a classified error, if any.
func StatusOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}

	return ""
}

// MessageOf returns the client-facing message of a classified error, or fallback.
func MessageOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}

	return fallback
}

// classify wraps unexpected store errors so callers only ever see the kinds above.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	if errors.Is(err, ErrNotFound) {
		return notFoundError("Requested resource was not found")
	}

	return serverError("Something went wrong. We will work on fixing that right away.", err)
}
