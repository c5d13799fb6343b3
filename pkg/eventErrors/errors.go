// Package eventErrors defines the error types returned while building event filters,
// decoding event logs and talking to the node.
//
// Every type carries enough context (field, parameter, record index) to diagnose a
// failure without re-running the query. Callers use errors.As to branch on the type.
package eventErrors

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	// ErrTruncated is matched by any DecodeError of kind DecodeErrorKind_Truncated.
	ErrTruncated = errors.New("truncated payload")
	// ErrUnsupportedType is matched by any TypeError of reason TypeErrorReason_Unsupported.
	ErrUnsupportedType = errors.New("unsupported type")
)

// ValidationError reports invalid caller input. It is always raised before any
// network call is made.
type ValidationError struct {
	// Field is the filter field at fault (e.g. "blockHash", "args").
	Field string
	// Parameter is the event parameter name, if any.
	Parameter string
	Message   string
	Err       error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s", e.Field)
	if e.Parameter != "" {
		msg = fmt.Sprintf("%s for parameter '%s'", msg, e.Parameter)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field string, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

type TypeErrorReason string

const (
	TypeErrorReason_Unsupported TypeErrorReason = "unsupported"
	TypeErrorReason_Mismatch    TypeErrorReason = "mismatch"
)

// TypeError reports an interface type that cannot be handled, or a Go value whose
// shape does not fit the declared interface type.
type TypeError struct {
	Type      string
	Parameter string
	Reason    TypeErrorReason
	Message   string
}

func (e *TypeError) Error() string {
	msg := fmt.Sprintf("%s type '%s'", e.Reason, e.Type)
	if e.Parameter != "" {
		msg = fmt.Sprintf("%s (parameter '%s')", msg, e.Parameter)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	return msg
}

func (e *TypeError) Is(target error) bool {
	return target == ErrUnsupportedType && e.Reason == TypeErrorReason_Unsupported
}

func NewUnsupportedTypeError(typ string, format string, args ...interface{}) *TypeError {
	return &TypeError{
		Type:    typ,
		Reason:  TypeErrorReason_Unsupported,
		Message: fmt.Sprintf(format, args...),
	}
}

func NewTypeMismatchError(typ string, format string, args ...interface{}) *TypeError {
	return &TypeError{
		Type:    typ,
		Reason:  TypeErrorReason_Mismatch,
		Message: fmt.Sprintf(format, args...),
	}
}

type DecodeErrorKind string

const (
	DecodeErrorKind_Truncated      DecodeErrorKind = "truncated"
	DecodeErrorKind_Malformed      DecodeErrorKind = "malformed"
	DecodeErrorKind_TopicsMismatch DecodeErrorKind = "topicsMismatch"
)

// DecodeError reports a payload returned by the node that cannot be decoded against
// the declared types.
type DecodeError struct {
	Kind      DecodeErrorKind
	Type      string
	Parameter string
	// RecordIndex is the position of the record in the node's response, -1 if unknown.
	RecordIndex int
	Message     string
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode error (%s)", e.Kind)
	if e.RecordIndex >= 0 {
		msg = fmt.Sprintf("%s in record %d", msg, e.RecordIndex)
	}
	if e.Parameter != "" {
		msg = fmt.Sprintf("%s for parameter '%s'", msg, e.Parameter)
	}
	if e.Type != "" {
		msg = fmt.Sprintf("%s of type '%s'", msg, e.Type)
	}
	return fmt.Sprintf("%s: %s", msg, e.Message)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrTruncated && e.Kind == DecodeErrorKind_Truncated
}

func NewTruncatedError(typ string, format string, args ...interface{}) *DecodeError {
	return &DecodeError{
		Kind:        DecodeErrorKind_Truncated,
		Type:        typ,
		RecordIndex: -1,
		Message:     fmt.Sprintf(format, args...),
	}
}

func NewMalformedError(typ string, format string, args ...interface{}) *DecodeError {
	return &DecodeError{
		Kind:        DecodeErrorKind_Malformed,
		Type:        typ,
		RecordIndex: -1,
		Message:     fmt.Sprintf(format, args...),
	}
}

// MismatchError reports a record whose signature topic does not belong to the
// supplied event description. It is not a hard failure: the record is returned raw.
type MismatchError struct {
	EventName   string
	Expected    common.Hash
	Actual      *common.Hash
	RecordIndex int
}

func (e *MismatchError) Error() string {
	actual := "<none>"
	if e.Actual != nil {
		actual = e.Actual.Hex()
	}
	msg := fmt.Sprintf("log does not match event '%s': expected topic0 %s, got %s", e.EventName, e.Expected.Hex(), actual)
	if e.RecordIndex >= 0 {
		msg = fmt.Sprintf("record %d: %s", e.RecordIndex, msg)
	}
	return msg
}

// TransportError wraps any failure from the transport collaborator. It is passed
// through to callers without interpretation.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// WithRecordIndex stamps the record index on decode-side errors. Other errors are
// returned unchanged.
func WithRecordIndex(err error, index int) error {
	var de *DecodeError
	if errors.As(err, &de) {
		de.RecordIndex = index
		return err
	}
	var me *MismatchError
	if errors.As(err, &me) {
		me.RecordIndex = index
	}
	return err
}
