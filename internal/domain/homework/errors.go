// internal/domain/homework/errors.go
package homework

import (
	"errors"
	"fmt"
)

// Kind classifies a failure that can happen inside a poll cycle.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindInvalidResponseShape
	KindMissingField
	KindInvalidFieldType
	KindUnknownStatus
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindInvalidResponseShape:
		return "invalid_response_shape"
	case KindMissingField:
		return "missing_field"
	case KindInvalidFieldType:
		return "invalid_field_type"
	case KindUnknownStatus:
		return "unknown_status"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching. Only the Kind is compared.
var (
	ErrTransport            = &Error{Kind: KindTransport}
	ErrInvalidResponseShape = &Error{Kind: KindInvalidResponseShape}
	ErrMissingField         = &Error{Kind: KindMissingField}
	ErrInvalidFieldType     = &Error{Kind: KindInvalidFieldType}
	ErrUnknownStatus        = &Error{Kind: KindUnknownStatus}
)

// Error is the tagged error returned by the fetch, validation and translation steps.
type Error struct {
	Kind   Kind
	Field  string // set for MissingField / InvalidFieldType
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Detail
	switch e.Kind {
	case KindMissingField:
		if msg == "" {
			msg = fmt.Sprintf("response does not contain key %q", e.Field)
		}
	case KindInvalidFieldType:
		if msg == "" {
			msg = fmt.Sprintf("key %q has unexpected type", e.Field)
		}
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return KindUnknown
}

// NewTransportError wraps a failure talking to the homework API.
func NewTransportError(detail string, err error) *Error {
	return &Error{Kind: KindTransport, Detail: detail, Err: err}
}

func missingField(field string) *Error {
	return &Error{Kind: KindMissingField, Field: field}
}

func invalidFieldType(field, detail string, err error) *Error {
	return &Error{Kind: KindInvalidFieldType, Field: field, Detail: detail, Err: err}
}
