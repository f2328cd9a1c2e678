package annealing

import "fmt"

// Kind classifies a domain error.
type Kind int

const (
	// KindUnknown is the zero Kind.
	KindUnknown Kind = iota
	// KindInvalidMetric reports an unrecognized metric name.
	KindInvalidMetric
	// KindInvalidPermutation reports a path that is not a bijection onto [0,N).
	KindInvalidPermutation
	// KindEmptyTour reports a tour over zero towns.
	KindEmptyTour
	// KindIndexOutOfRange reports a tour position outside [0,N).
	KindIndexOutOfRange
	// KindDimensionMismatch reports points of differing dimension.
	KindDimensionMismatch
	// KindInvalidSchedule reports unusable temperature schedule parameters.
	KindInvalidSchedule
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindInvalidMetric:      "invalid metric",
	KindInvalidPermutation: "invalid permutation",
	KindEmptyTour:          "empty tour",
	KindIndexOutOfRange:    "index out of range",
	KindDimensionMismatch:  "dimension mismatch",
	KindInvalidSchedule:    "invalid schedule",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for use with errors.Is. Any *Error of the same Kind matches.
var (
	ErrInvalidMetric      = &Error{Kind: KindInvalidMetric}
	ErrInvalidPermutation = &Error{Kind: KindInvalidPermutation}
	ErrEmptyTour          = &Error{Kind: KindEmptyTour}
	ErrIndexOutOfRange    = &Error{Kind: KindIndexOutOfRange}
	ErrDimensionMismatch  = &Error{Kind: KindDimensionMismatch}
	ErrInvalidSchedule    = &Error{Kind: KindInvalidSchedule}
)

// Error represents an annealing error with context
// that can be wrapped with additional information.
type Error struct {
	// Kind classifies the error.
	Kind Kind
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// NewError creates a new error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// NewErrorf creates a new error of the given kind with a formatted message.
func NewErrorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with a kind and message.
// If err is nil, WrapError returns nil.
func WrapError(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// IsAnnealingError checks if an error is of type Error.
func IsAnnealingError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	if e, ok := err.(*Error); ok {
		return e, true
	}
	return nil, false
}
