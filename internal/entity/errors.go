package entity

import (
	"errors"
	"fmt"
)

// Error kinds. Every business rule violation matches exactly one of these
// with errors.Is; transport maps them to client status codes.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	// ErrIntegrity is internal: it also matches ErrNotFound.
	ErrIntegrity = errors.New("data integrity violation")
)

// Error is a business error with a kind and a client-facing message.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func (e *Error) Is(target error) bool {
	if target == e.kind {
		return true
	}
	return e.kind == ErrIntegrity && target == ErrNotFound
}

// Kind returns one of ErrValidation, ErrNotFound, ErrConflict, ErrIntegrity.
func (e *Error) Kind() error { return e.kind }

func NewValidationError(format string, args ...interface{}) error {
	return &Error{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...interface{}) error {
	return &Error{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func NewConflictError(format string, args ...interface{}) error {
	return &Error{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

func NewIntegrityError(format string, args ...interface{}) error {
	return &Error{kind: ErrIntegrity, msg: fmt.Sprintf(format, args...)}
}

var (
	// Event errors
	ErrEventNotFound       = NewNotFoundError("event not found")
	ErrEventHasSoldTickets = NewConflictError("cannot delete the event because tickets have been sold")
	ErrEventNotEnded       = NewConflictError("cannot delete the event because it has not yet ended")

	// Ticket errors
	ErrTicketNotFound        = NewNotFoundError("ticket not found")
	ErrTicketEventNotFound   = NewIntegrityError("associated event not found")
	ErrNoTicketsAvailable    = NewConflictError("no tickets available")
	ErrTicketAlreadyRedeemed = NewConflictError("the ticket has already been redeemed")
	ErrOutsideValidityPeriod = NewConflictError("the event is not within the valid period")
)
