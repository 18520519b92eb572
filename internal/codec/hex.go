package codec

import (
	"fmt"
	"strings"
)

// Side selects where Pad inserts zeros.
type Side int

const (
	// PadLeft is used for numbers and addresses.
	PadLeft Side = iota
	// PadRight is used for byte strings.
	PadRight
)

// WordDigits is the number of hex digits in a 32-byte ABI word.
const WordDigits = 64

// Pad zero-pads a hex digit string to size characters.
func Pad(value string, size int, side Side) (string, error) {
	if len(value) > size {
		return "", fmt.Errorf("%w: %d digits, max %d", ErrTooLong, len(value), size)
	}
	zeros := strings.Repeat("0", size-len(value))
	if side == PadRight {
		return value + zeros, nil
	}
	return zeros + value, nil
}

// Take splits data into its first size digits and the remainder.
func Take(data string, size int) (string, string, error) {
	if len(data) < size {
		return "", "", fmt.Errorf("%w: need %d digits, have %d", ErrTruncated, size, len(data))
	}
	return data[:size], data[size:], nil
}

// FlipSign maps the most significant nibble 0-7 to 8-f and back.
func FlipSign(digits string) (string, error) {
	if digits == "" {
		return "", fmt.Errorf("%w: empty digits", ErrTruncated)
	}
	n, ok := nibble(digits[0])
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidHex, digits[:1])
	}
	n ^= 0x8
	return string(hexDigits[n]) + digits[1:], nil
}

const hexDigits = "0123456789abcdef"

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// Strip removes an optional 0x prefix and validates the remaining digits.
func Strip(s string) (string, error) {
	digits := trimPrefix(s)
	for i := 0; i < len(digits); i++ {
		if _, ok := nibble(digits[i]); !ok {
			return "", fmt.Errorf("%w: %q", ErrInvalidHex, s)
		}
	}
	return digits, nil
}

func trimPrefix(s string) string {
	if has0xPrefix(s) {
		return s[2:]
	}
	return s
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
