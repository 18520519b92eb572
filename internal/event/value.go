package event

import (
	"fmt"
	"math/big"
	"strconv"

	"eventscope/internal/codec"
)

// ParseValue converts command-line or config text into a value Encode
// accepts for t. Integers may be decimal or 0x-prefixed hex.
func ParseValue(t codec.Type, s string) (any, error) {
	switch t.Kind {
	case codec.BoolKind:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%w: bool %q", codec.ErrInvalidValue, s)
		}
		return b, nil
	case codec.UintKind, codec.IntKind:
		return parseInteger(s)
	case codec.QuantityKind:
		if _, err := codec.Encode(codec.Quantity(), s); err == nil {
			return s, nil
		}
		return parseInteger(s)
	case codec.TopicKind:
		return ParseValue(*t.Elem, s)
	case codec.AddressKind, codec.BytesKind:
		return s, nil
	default:
		return nil, fmt.Errorf("%w: cannot parse %s", codec.ErrUnrecognizedType, t)
	}
}

func parseInteger(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("%w: integer %q", codec.ErrInvalidValue, s)
	}
	return n, nil
}
