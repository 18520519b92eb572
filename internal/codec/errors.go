package codec

import "errors"

var (
	// ErrOverflow is returned when a value does not fit the requested bit width.
	ErrOverflow = errors.New("value overflows type")
	// ErrTooLong is returned when an input exceeds a fixed-width field before padding.
	ErrTooLong = errors.New("value too long")
	// ErrTruncated is returned when fewer digits remain than a fixed-width chunk needs.
	ErrTruncated = errors.New("input truncated")
	// ErrUnrecognizedType is returned for type tags the codec does not support.
	ErrUnrecognizedType = errors.New("unrecognized type")
	// ErrMalformedLog is returned when a log lacks expected fields.
	ErrMalformedLog = errors.New("malformed log")
	// ErrSignatureMismatch is returned when topic zero is not the event signature.
	ErrSignatureMismatch = errors.New("signature mismatch")
	// ErrInvalidHex is returned when an input contains non-hex digits.
	ErrInvalidHex = errors.New("invalid hex")
	// ErrInvalidValue is returned when a value has the wrong kind for its type.
	ErrInvalidValue = errors.New("invalid value")
)
