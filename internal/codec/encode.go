package codec

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Block tags accepted verbatim by Quantity.
const (
	TagLatest    = "latest"
	TagPending   = "pending"
	TagEarliest  = "earliest"
	TagSafe      = "safe"
	TagFinalized = "finalized"
)

var quantityTags = map[string]struct{}{
	TagLatest:    {},
	TagPending:   {},
	TagEarliest:  {},
	TagSafe:      {},
	TagFinalized: {},
}

// Encode renders a scalar value as a 0x-prefixed hex string. Array types
// go through EncodeArray.
func Encode(t Type, v any) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	switch t.Kind {
	case QuantityKind:
		return encodeQuantity(v)
	case ArrayKind:
		return "", fmt.Errorf("%w: %s is not a scalar", ErrUnrecognizedType, t)
	}
	digits, err := encodeDigits(t, v)
	if err != nil {
		return "", err
	}
	return "0x" + digits, nil
}

// EncodeArray encodes every element of a slice with the element type of t.
func EncodeArray(t Type, v any) ([]string, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.Kind != ArrayKind {
		return nil, fmt.Errorf("%w: %s is not an array", ErrUnrecognizedType, t)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %T is not a list", ErrInvalidValue, v)
	}
	// Byte slices are scalars for bytes types, never lists.
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, fmt.Errorf("%w: %T is not a list", ErrInvalidValue, v)
	}

	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		enc, err := Encode(*t.Elem, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, enc)
	}
	return out, nil
}

// EncodeParam encodes v as a JSON-RPC parameter: a string for scalar types,
// a list of strings for arrays.
func EncodeParam(t Type, v any) (any, error) {
	if t.Kind == ArrayKind {
		return EncodeArray(t, v)
	}
	return Encode(t, v)
}

func encodeDigits(t Type, v any) (string, error) {
	switch t.Kind {
	case BoolKind:
		b, ok := v.(bool)
		if !ok {
			return "", fmt.Errorf("%w: %T for bool", ErrInvalidValue, v)
		}
		if b {
			return "01", nil
		}
		return "00", nil
	case AddressKind:
		return encodeAddress(v)
	case UintKind:
		n, err := toBigInt(v)
		if err != nil {
			return "", err
		}
		return encodeUint(n, t.Size)
	case IntKind:
		n, err := toBigInt(v)
		if err != nil {
			return "", err
		}
		return encodeInt(n, t.Size)
	case BytesKind:
		return encodeBytes(v, t.Size)
	case TopicKind:
		inner, err := encodeDigits(*t.Elem, v)
		if err != nil {
			return "", err
		}
		return Pad(inner, WordDigits, wordSide(*t.Elem))
	default:
		return "", fmt.Errorf("%w: %s", ErrUnrecognizedType, t)
	}
}

// wordSide is the side a value is padded on inside a 32-byte word. Byte
// strings are left-aligned, everything else right-aligned.
func wordSide(t Type) Side {
	if t.Kind == BytesKind {
		return PadRight
	}
	return PadLeft
}

func encodeUint(n *big.Int, bits int) (string, error) {
	if n.Sign() < 0 {
		return "", fmt.Errorf("%w: negative value %s for uint%d", ErrOverflow, n, bits)
	}
	if n.BitLen() > bits {
		return "", fmt.Errorf("%w: %s does not fit uint%d", ErrOverflow, n, bits)
	}
	return Pad(n.Text(16), bits/4, PadLeft)
}

// encodeInt stores the magnitude in the low bits and the sign in the top
// bit of the leading nibble. The lowest value of the range has no positive
// counterpart and is written as 8 followed by zeros.
func encodeInt(n *big.Int, bits int) (string, error) {
	if n.Sign() >= 0 {
		digits, err := encodeUint(n, bits)
		if err != nil {
			return "", err
		}
		if lead, _ := nibble(digits[0]); lead >= 8 {
			return "", fmt.Errorf("%w: %s does not fit int%d", ErrOverflow, n, bits)
		}
		return digits, nil
	}

	mag := new(big.Int).Neg(n)
	if mag.Cmp(new(big.Int).Lsh(big.NewInt(1), uint(bits-1))) == 0 {
		return "8" + strings.Repeat("0", bits/4-1), nil
	}
	digits, err := encodeUint(mag, bits)
	if err != nil {
		return "", fmt.Errorf("%w: %s does not fit int%d", ErrOverflow, n, bits)
	}
	if lead, _ := nibble(digits[0]); lead >= 8 {
		return "", fmt.Errorf("%w: %s does not fit int%d", ErrOverflow, n, bits)
	}
	return FlipSign(digits)
}

func encodeAddress(v any) (string, error) {
	var s string
	switch a := v.(type) {
	case string:
		s = a
	case common.Address:
		s = hexutil.Encode(a.Bytes())
	case *common.Address:
		if a == nil {
			return "", fmt.Errorf("%w: nil address", ErrInvalidValue)
		}
		s = hexutil.Encode(a.Bytes())
	default:
		return "", fmt.Errorf("%w: %T for address", ErrInvalidValue, v)
	}
	digits, err := Strip(s)
	if err != nil {
		return "", err
	}
	return Pad(digits, 40, PadLeft)
}

func encodeBytes(v any, n int) (string, error) {
	var digits string
	switch b := v.(type) {
	case string:
		if has0xPrefix(b) {
			d, err := Strip(b)
			if err != nil {
				return "", err
			}
			if len(d)%2 != 0 {
				return "", fmt.Errorf("%w: odd length bytes %q", ErrInvalidHex, b)
			}
			digits = strings.ToLower(d)
		} else {
			digits = hexutil.Encode([]byte(b))[2:]
		}
	case []byte:
		digits = hexutil.Encode(b)[2:]
	case common.Hash:
		digits = hexutil.Encode(b.Bytes())[2:]
	case [32]byte:
		digits = hexutil.Encode(b[:])[2:]
	default:
		return "", fmt.Errorf("%w: %T for bytes%d", ErrInvalidValue, v, n)
	}
	return Pad(digits, n*2, PadRight)
}

func encodeQuantity(v any) (string, error) {
	if s, ok := v.(string); ok {
		if _, tag := quantityTags[s]; tag {
			return s, nil
		}
		if !has0xPrefix(s) {
			return "", fmt.Errorf("%w: quantity %q", ErrInvalidValue, s)
		}
		digits, err := Strip(s)
		if err != nil {
			return "", err
		}
		if digits == "" {
			return "", fmt.Errorf("%w: empty quantity", ErrInvalidHex)
		}
		return "0x" + trimZeros(strings.ToLower(digits)), nil
	}

	n, err := toBigInt(v)
	if err != nil {
		return "", err
	}
	digits, err := encodeUint(n, 256)
	if err != nil {
		return "", err
	}
	return "0x" + trimZeros(digits), nil
}

func trimZeros(digits string) string {
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, fmt.Errorf("%w: nil integer", ErrInvalidValue)
		}
		return n, nil
	case *hexutil.Big:
		if n == nil {
			return nil, fmt.Errorf("%w: nil integer", ErrInvalidValue)
		}
		return n.ToInt(), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	default:
		return nil, fmt.Errorf("%w: %T is not an integer", ErrInvalidValue, v)
	}
}
