package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindStorage Kind = iota
	KindAuthentication
	KindAuthorization
	KindValidation
	KindNotFound
	KindStateConflict
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "AUTHENTICATION"
	case KindAuthorization:
		return "AUTHORIZATION"
	case KindValidation:
		return "VALIDATION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindStateConflict:
		return "STATE_CONFLICT"
	case KindTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		return "STORAGE"
	}
}

// HTTPStatus maps a kind to the response code. StateConflict is a 400, not a 409.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindValidation, KindStateConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Authentication(msg string) *Error { return New(KindAuthentication, msg) }
func Authorization(msg string) *Error  { return New(KindAuthorization, msg) }
func Validation(msg string) *Error     { return New(KindValidation, msg) }
func NotFound(msg string) *Error       { return New(KindNotFound, msg) }
func StateConflict(msg string) *Error  { return New(KindStateConflict, msg) }

func Storage(err error) *Error {
	return Wrap(KindStorage, "internal server error", err)
}

// KindOf returns the kind of err, treating unknown errors as storage failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage is what a client may see. Storage details never leave the server.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindStorage {
		return e.Message
	}
	return "internal server error"
}
