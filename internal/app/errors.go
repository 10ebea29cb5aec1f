package app

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation          Kind = "validation"
	KindProvider            Kind = "provider"
	KindInsufficientCredits Kind = "insufficient_credits"
	KindDownload            Kind = "download"
	KindUpload              Kind = "upload"
	KindMetadata            Kind = "metadata"
)

var ErrBusinessDataRequired = errors.New("Business data is required")

// Error is the only error type the pipeline returns.
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Kind == KindProvider {
		return e.Stage + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind onto the response status.
func (e *Error) HTTPStatus() int {
	if e.Kind == KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// KindOf reports the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
