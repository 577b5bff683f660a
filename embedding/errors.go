package embedding

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies embedding failures.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindBadEncoding: the text is not Base64 even after cleaning.
	KindBadEncoding
	// KindInsufficientData: fewer decoded bytes than Config.MinBytes.
	KindInsufficientData
	// KindTooManyInvalidValues: more than Config.MaxInvalid NaN/Inf in the sample.
	KindTooManyInvalidValues
	// KindWrongLength: a candidate vector is not Config.CanonicalLength long.
	KindWrongLength
	// KindNonFiniteValue: a candidate vector holds NaN or Inf under strict validation.
	KindNonFiniteValue
	// KindUnsupportedShape: the input is none of the accepted shapes.
	KindUnsupportedShape
	// KindDecodeFailed: the Base64 path failed; the decoder error is wrapped.
	KindDecodeFailed
)

func (k Kind) String() string {
	switch k {
	case KindBadEncoding:
		return "bad encoding"
	case KindInsufficientData:
		return "insufficient data"
	case KindTooManyInvalidValues:
		return "too many invalid values"
	case KindWrongLength:
		return "wrong length"
	case KindNonFiniteValue:
		return "non-finite value"
	case KindUnsupportedShape:
		return "unsupported shape"
	case KindDecodeFailed:
		return "decode failed"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrBadEncoding          = &Error{Kind: KindBadEncoding}
	ErrInsufficientData     = &Error{Kind: KindInsufficientData}
	ErrTooManyInvalidValues = &Error{Kind: KindTooManyInvalidValues}
	ErrWrongLength          = &Error{Kind: KindWrongLength}
	ErrNonFiniteValue       = &Error{Kind: KindNonFiniteValue}
	ErrUnsupportedShape     = &Error{Kind: KindUnsupportedShape}
	ErrDecodeFailed         = &Error{Kind: KindDecodeFailed}
)

// Error is the failure type returned by the decoder and the normalizer.
//
// The underlying error (if any) can be accessed via errors.Unwrap.
type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("embedding: ")
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.String())
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so that sentinels compare equal to detailed errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the outermost *Error in err's chain.
// Returns KindUnknown if err is not an embedding error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}
