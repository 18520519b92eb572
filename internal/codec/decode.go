package codec

import (
	"fmt"
	"math/big"
	"strings"
)

// DecodePacked consumes fixed-width chunks from data in the order of types.
// Digits left over after the last type are returned as rest rather than
// treated as an error; callers decide whether trailing data is acceptable.
func DecodePacked(types []Type, data string) ([]any, string, error) {
	rest, err := Strip(data)
	if err != nil {
		return nil, "", err
	}

	values := make([]any, 0, len(types))
	for i, t := range types {
		if err := t.Validate(); err != nil {
			return nil, "", err
		}
		size := t.digits()
		if size == 0 {
			return nil, "", fmt.Errorf("%w: %s has no fixed width", ErrUnrecognizedType, t)
		}

		var chunk string
		chunk, rest, err = Take(rest, size)
		if err != nil {
			return nil, "", fmt.Errorf("value %d (%s): %w", i, t, err)
		}
		v, err := decodeDigits(t, chunk)
		if err != nil {
			return nil, "", fmt.Errorf("value %d (%s): %w", i, t, err)
		}
		values = append(values, v)
	}
	return values, rest, nil
}

// Decode decodes a value that is exactly the natural width of t.
func Decode(t Type, data string) (any, error) {
	values, rest, err := DecodePacked([]Type{t}, data)
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("%w: %d trailing digits", ErrTooLong, len(rest))
	}
	return values[0], nil
}

// Cast decodes a single word that may be wider or narrower than t, as when
// a value arrives padded to 32 bytes. Numbers, addresses and booleans keep
// their rightmost digits. Byte strings are left-aligned in a word, as the
// ABI lays them out, so they keep their leftmost digits and the dropped
// digits must be zero.
func Cast(t Type, word string) (any, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	digits, err := Strip(word)
	if err != nil {
		return nil, err
	}

	switch t.Kind {
	case QuantityKind:
		if digits == "" {
			return nil, fmt.Errorf("%w: empty quantity", ErrTruncated)
		}
		return parseHex(digits)
	case TopicKind:
		return Cast(*t.Elem, word)
	case ArrayKind:
		return nil, fmt.Errorf("%w: cannot cast to %s", ErrUnrecognizedType, t)
	}

	size := t.digits()
	switch {
	case len(digits) > size && t.Kind == BytesKind:
		if strings.Trim(digits[size:], "0") != "" {
			return nil, fmt.Errorf("%w: non-zero digits past %s", ErrTooLong, t)
		}
		digits = digits[:size]
	case len(digits) > size:
		digits = digits[len(digits)-size:]
	case len(digits) < size:
		if digits, err = Pad(digits, size, wordSide(t)); err != nil {
			return nil, err
		}
	}
	return decodeDigits(t, digits)
}

func decodeDigits(t Type, digits string) (any, error) {
	switch t.Kind {
	case BoolKind:
		switch digits {
		case "00":
			return false, nil
		case "01":
			return true, nil
		default:
			return nil, fmt.Errorf("%w: bool byte %s", ErrInvalidValue, digits)
		}
	case AddressKind, BytesKind:
		return "0x" + strings.ToLower(digits), nil
	case UintKind:
		return parseHex(digits)
	case IntKind:
		return decodeInt(digits, t.Size)
	case TopicKind:
		return Cast(*t.Elem, digits)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedType, t)
	}
}

func decodeInt(digits string, bits int) (*big.Int, error) {
	lead, ok := nibble(digits[0])
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHex, digits)
	}
	if lead < 8 {
		return parseHex(digits)
	}

	flipped, err := FlipSign(digits)
	if err != nil {
		return nil, err
	}
	mag, err := parseHex(flipped)
	if err != nil {
		return nil, err
	}
	if mag.Sign() == 0 {
		return new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(bits-1))), nil
	}
	return mag.Neg(mag), nil
}

func parseHex(digits string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHex, digits)
	}
	return n, nil
}
