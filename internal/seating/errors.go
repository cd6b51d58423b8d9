package seating

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	KindValidation     ErrorKind = "validation_failed"
	KindMissingField   ErrorKind = "missing_field"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindDuplicateEntry ErrorKind = "duplicate_entry"
	KindInvalidState   ErrorKind = "invalid_state"
)

// FieldError describes one offending request field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConflictDetail identifies the booking that blocks a requested window.
type ConflictDetail struct {
	ReservationID int64     `json:"reservation_id"`
	TableID       int64     `json:"table_id"`
	Date          string    `json:"date"`
	Start         ClockTime `json:"start"`
	End           ClockTime `json:"end"`
	Name          string    `json:"name,omitempty"`
}

// Error is the single error type returned by the engine for caller mistakes
// and state clashes. Storage failures are returned wrapped, never as *Error.
type Error struct {
	Kind     ErrorKind
	Message  string
	Fields   []FieldError
	Conflict *ConflictDetail
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(names, ", "))
}

// IsKind reports whether err is an *Error of the given kind. Missing field
// errors also match KindValidation.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if e.Kind == kind {
		return true
	}
	return kind == KindValidation && e.Kind == KindMissingField
}

func missingFields(fields ...string) *Error {
	details := make([]FieldError, 0, len(fields))
	for _, f := range fields {
		details = append(details, FieldError{Field: f, Code: "required", Message: f + " is required"})
	}
	return &Error{Kind: KindMissingField, Message: "missing required fields", Fields: details}
}

func invalid(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

func invalidField(field, message string) FieldError {
	return FieldError{Field: field, Code: "invalid", Message: message}
}

func invalidValue(field, value string, valid []string) *Error {
	return invalid(FieldError{
		Field:   field,
		Code:    "invalid_value",
		Message: fmt.Sprintf("%q is not one of: %s", value, strings.Join(valid, ", ")),
	})
}

func notFound(resource string, id int64) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %d not found", resource, id)}
}

func duplicate(message string) *Error {
	return &Error{Kind: KindDuplicateEntry, Message: message}
}

func invalidState(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

func conflictWith(r *Reservation) *Error {
	return &Error{
		Kind: KindConflict,
		Message: fmt.Sprintf("table %d is already booked from %s to %s on %s (reservation %d); query availability for free slots",
			r.TableID, r.Start, r.End, r.Date, r.ID),
		Conflict: &ConflictDetail{
			ReservationID: r.ID,
			TableID:       r.TableID,
			Date:          r.Date,
			Start:         r.Start,
			End:           r.End,
			Name:          r.Name,
		},
	}
}
