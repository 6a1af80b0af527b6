package errors

import "errors"

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrInternal     = errors.New("internal server error")
	ErrDuplicate    = errors.New("resource already exists")
	ErrValidation   = errors.New("validation failed")
)

// AppError is an error safe to show to API clients.
// Kind is one of the sentinels above and is what errors.Is matches against.
type AppError struct {
	Kind    error
	Message string
	Code    string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Kind
}

func New(kind error, message, code string) *AppError {
	return &AppError{Kind: kind, Message: message, Code: code}
}

func NotFound(message, code string) *AppError {
	return New(ErrNotFound, message, code)
}

func Forbidden(message, code string) *AppError {
	return New(ErrForbidden, message, code)
}

func Validation(message, code string) *AppError {
	return New(ErrValidation, message, code)
}

func Conflict(message, code string) *AppError {
	return New(ErrDuplicate, message, code)
}

func Unauthorized(message, code string) *AppError {
	return New(ErrUnauthorized, message, code)
}

func BadRequest(message, code string) *AppError {
	return New(ErrBadRequest, message, code)
}

func Internal(message, code string) *AppError {
	return New(ErrInternal, message, code)
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
