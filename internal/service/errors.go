// Package service implements the seat booking workflow: proof upload,
// admin approval and rejection of payments, and the pending review feed.
// Every operation returns either its result or an *Error whose Kind names
// the failure class.
package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a workflow failure.  The string value is what clients see
// in the "error" field of a failed response.
type Kind string

const (
	KindMissingInput          Kind = "missing-input"
	KindInvalidInput          Kind = "invalid-input"
	KindFileTooLarge          Kind = "file-too-large"
	KindInvalidFileType       Kind = "invalid-file-type"
	KindProfileCreationFailed Kind = "profile-creation-failed"
	KindStorageUploadFailed   Kind = "storage-upload-failed"
	KindBookingConflict       Kind = "booking-conflict"
	KindPaymentPersistFailed  Kind = "payment-persist-failed"
	KindUnauthorized          Kind = "unauthorized"
	KindForbidden             Kind = "forbidden"
	KindNotFound              Kind = "not-found"
	KindConflict              Kind = "conflict"
	KindPersistFailed         Kind = "persist-failed"
	KindInternal              Kind = "internal"
)

// Error is a typed workflow failure.  Detail is safe to show to the caller;
// Err is the underlying cause, kept for logs and errors.Is.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: cause}
}

// KindOf returns the Kind of err, or KindInternal for errors that did not
// originate in this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus is the response status a failure of this kind is reported with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindMissingInput, KindInvalidInput, KindFileTooLarge, KindInvalidFileType:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindBookingConflict, KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
