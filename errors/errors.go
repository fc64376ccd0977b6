// Package errors holds the error taxonomy shared by the services and both transport adapters.
// Every sentinel carries a Kind; transports resolve wrapped errors with HTTPStatus and CodeOf.
package errors

import (
	goerrors "errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a classified error. Status overrides the default status of the Kind when non-zero.
// An error derived from a sentinel, such as a validation detail, matches that sentinel with Is.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	parent  *Error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	return e.parent != nil && target == error(e.parent)
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// The domain conflicts answer 400 to stay compatible with existing clients.
func newBadRequestConflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message, Status: http.StatusBadRequest}
}

var (
	ErrValidation           = newError(KindValidation, "validation_error", "invalid input")
	ErrInvalidTarget        = newError(KindValidation, "invalid_target", "receiver must be another valid user")
	ErrInvalidID            = newError(KindValidation, "invalid_id", "malformed identifier")
	ErrEmptyContent         = newError(KindValidation, "empty_content", "content is required")
	ErrContentTooLong       = newError(KindValidation, "content_too_long", "content exceeds the maximum length")
	ErrInvalidAction        = newError(KindValidation, "invalid_action", "action must be accept or decline")
	ErrEmptyQuery           = newError(KindValidation, "empty_query", "search query is required")
	ErrUnauthenticated      = newError(KindUnauthenticated, "unauthenticated", "missing or invalid credential")
	ErrForbidden            = newError(KindForbidden, "forbidden", "access denied")
	ErrNotParticipant       = newError(KindForbidden, "forbidden", "not a participant of this conversation")
	ErrNotReceiver          = newError(KindForbidden, "forbidden", "not authorized to respond to this request")
	ErrRequestNotFound      = newError(KindNotFound, "not_found", "message request not found")
	ErrConversationNotFound = newError(KindNotFound, "not_found", "conversation not found")
	ErrMessageNotFound      = newError(KindNotFound, "not_found", "message not found")
	ErrUserNotFound         = newError(KindNotFound, "not_found", "user not found")
	ErrConflict             = newError(KindConflict, "conflict", "concurrent modification, retry the request")
	ErrAlreadyConversing    = newBadRequestConflict("already_conversing", "conversation already exists")
	ErrDuplicateRequest     = newBadRequestConflict("duplicate_request", "request already sent")
	ErrAlreadyHandled       = newBadRequestConflict("already_handled", "this request has already been handled")
	ErrRateLimited          = newError(KindRateLimited, "rate_limited", "too many requests to this user, try later")
	ErrSearchDisabled       = newError(KindUnavailable, "search_disabled", "message search is not enabled")
	ErrInternal             = newError(KindInternal, "internal", "internal error")

	ErrWorkerPanic  = fmt.Errorf("worker panic")
	ErrEmptyWords   = fmt.Errorf("no words have been found")
	ErrSlowConsumer = fmt.Errorf("connection buffer exceeded")
	ErrClosed       = fmt.Errorf("connection closed")
)

// Validation derives a client-facing validation error carrying detail from ErrValidation.
func Validation(detail string) error {
	return &Error{
		Kind:    ErrValidation.Kind,
		Code:    ErrValidation.Code,
		Message: ErrValidation.Message + ": " + detail,
		parent:  ErrValidation,
	}
}

func Is(err, target error) bool {
	return goerrors.Is(err, target)
}

func As(err error, target any) bool {
	return goerrors.As(err, target)
}

func Join(errs ...error) error {
	return goerrors.Join(errs...)
}

// Classify returns the classified error carried by err, or ErrInternal.
func Classify(err error) *Error {
	var e *Error
	if goerrors.As(err, &e) {
		return e
	}
	return ErrInternal
}

func KindOf(err error) Kind {
	return Classify(err).Kind
}

func CodeOf(err error) string {
	return Classify(err).Code
}

// Message returns the client-safe text of the classified error.
// Wrapping context and library causes stay in err for the logs.
func Message(err error) string {
	return Classify(err).Message
}

func HTTPStatus(err error) int {
	e := Classify(err)
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
