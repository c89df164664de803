package protocol

import (
	"errors"
	"fmt"
)

// FormatErrorKind names the structural rule a frame violated.
type FormatErrorKind int

// Kinds of structural decoding failures.
const (
	// UnalignedStartBit: the start-of-frame bit is not at 108-8k.
	UnalignedStartBit FormatErrorKind = iota + 1
	// LengthOutOfRange: the data length code is above 8.
	LengthOutOfRange
	// UnknownIdentifier: the identifier is not allow-listed.
	UnknownIdentifier
)

// Sentinels matched by errors.Is on a *FormatError of the same kind.
var (
	ErrUnalignedStartBit = errors.New("start-of-frame bit not at a legal position")
	ErrLengthOutOfRange  = errors.New("data length code out of range")
	ErrUnknownIdentifier = errors.New("identifier not in allow-list")
)

func (k FormatErrorKind) String() string {
	switch k {
	case UnalignedStartBit:
		return "UnalignedStartBit"
	case LengthOutOfRange:
		return "LengthOutOfRange"
	case UnknownIdentifier:
		return "UnknownIdentifier"
	default:
		return fmt.Sprintf("FormatErrorKind(%d)", int(k))
	}
}

// FormatError reports a frame that failed structural validation.
type FormatError struct {
	Kind   FormatErrorKind
	Raw    RawFrame
	Detail string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed frame %s: %v (%s)", e.Raw, e.Unwrap(), e.Detail)
}

// Unwrap exposes the sentinel error for the kind so callers can use errors.Is.
func (e *FormatError) Unwrap() error {
	switch e.Kind {
	case UnalignedStartBit:
		return ErrUnalignedStartBit
	case LengthOutOfRange:
		return ErrLengthOutOfRange
	case UnknownIdentifier:
		return ErrUnknownIdentifier
	default:
		return nil
	}
}

func newFormatError(kind FormatErrorKind, raw RawFrame, format string, args ...interface{}) *FormatError {
	return &FormatError{Kind: kind, Raw: raw, Detail: fmt.Sprintf(format, args...)}
}
