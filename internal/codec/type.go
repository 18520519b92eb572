package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the tag of a Type.
type Kind int

const (
	// BoolKind is a one-byte 0 or 1.
	BoolKind Kind = iota
	// AddressKind is a 20-byte account address.
	AddressKind
	// UintKind is an unsigned integer of Size bits.
	UintKind
	// IntKind is a signed integer of Size bits with the sign in the leading nibble.
	IntKind
	// BytesKind is a fixed byte string of Size bytes.
	BytesKind
	// QuantityKind is a JSON-RPC quantity or block tag.
	QuantityKind
	// TopicKind is Elem padded to a 32-byte word.
	TopicKind
	// ArrayKind is a list of Elem, encode only.
	ArrayKind
)

// Type describes how a value is laid out on the wire. Size holds the bit
// width for Uint/Int and the byte length for Bytes; Elem is set for Topic
// and Array.
type Type struct {
	Kind Kind
	Size int
	Elem *Type
}

// Bool returns the bool type.
func Bool() Type { return Type{Kind: BoolKind} }

// Address returns the address type.
func Address() Type { return Type{Kind: AddressKind} }

// Uint returns uint<bits>.
func Uint(bits int) Type { return Type{Kind: UintKind, Size: bits} }

// Int returns int<bits>.
func Int(bits int) Type { return Type{Kind: IntKind, Size: bits} }

// Bytes returns bytes<n>.
func Bytes(n int) Type { return Type{Kind: BytesKind, Size: n} }

// Quantity returns the variable-length JSON-RPC quantity type.
func Quantity() Type { return Type{Kind: QuantityKind} }

// Topic returns elem laid out as a 32-byte word.
func Topic(elem Type) Type { return Type{Kind: TopicKind, Elem: &elem} }

// Array returns a list of elem.
func Array(elem Type) Type { return Type{Kind: ArrayKind, Elem: &elem} }

// Validate reports ErrUnrecognizedType for types outside the supported set.
func (t Type) Validate() error {
	switch t.Kind {
	case BoolKind, AddressKind, QuantityKind:
		return nil
	case UintKind, IntKind:
		if t.Size <= 0 || t.Size > 256 || t.Size%8 != 0 {
			return fmt.Errorf("%w: %s%d", ErrUnrecognizedType, t.kindName(), t.Size)
		}
		return nil
	case BytesKind:
		if t.Size <= 0 || t.Size > 32 {
			return fmt.Errorf("%w: bytes%d", ErrUnrecognizedType, t.Size)
		}
		return nil
	case TopicKind:
		if t.Elem == nil {
			return fmt.Errorf("%w: topic without element", ErrUnrecognizedType)
		}
		switch t.Elem.Kind {
		case TopicKind, ArrayKind, QuantityKind:
			return fmt.Errorf("%w: topic(%s)", ErrUnrecognizedType, t.Elem)
		}
		return t.Elem.Validate()
	case ArrayKind:
		if t.Elem == nil {
			return fmt.Errorf("%w: array without element", ErrUnrecognizedType)
		}
		if t.Elem.Kind == ArrayKind {
			return fmt.Errorf("%w: nested array", ErrUnrecognizedType)
		}
		return t.Elem.Validate()
	default:
		return fmt.Errorf("%w: kind %d", ErrUnrecognizedType, t.Kind)
	}
}

// digits returns the natural width of the type in hex digits.
func (t Type) digits() int {
	switch t.Kind {
	case BoolKind:
		return 2
	case AddressKind:
		return 40
	case UintKind, IntKind:
		return t.Size / 4
	case BytesKind:
		return t.Size * 2
	case TopicKind:
		return WordDigits
	default:
		return 0
	}
}

func (t Type) kindName() string {
	if t.Kind == IntKind {
		return "int"
	}
	return "uint"
}

// String returns the Solidity spelling used in canonical event names.
func (t Type) String() string {
	switch t.Kind {
	case BoolKind:
		return "bool"
	case AddressKind:
		return "address"
	case UintKind:
		return "uint" + strconv.Itoa(t.Size)
	case IntKind:
		return "int" + strconv.Itoa(t.Size)
	case BytesKind:
		return "bytes" + strconv.Itoa(t.Size)
	case QuantityKind:
		return "uint256"
	case TopicKind:
		if t.Elem == nil {
			return "topic"
		}
		return t.Elem.String()
	case ArrayKind:
		if t.Elem == nil {
			return "[]"
		}
		return t.Elem.String() + "[]"
	default:
		return fmt.Sprintf("unknown(%d)", t.Kind)
	}
}

// ParseType parses a Solidity type name such as uint256, int24, bytes32 or
// address[]. Bare uint and int mean 256 bits.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "[]") {
		elem, err := ParseType(strings.TrimSuffix(s, "[]"))
		if err != nil {
			return Type{}, err
		}
		t := Array(elem)
		return t, t.Validate()
	}

	var t Type
	switch {
	case s == "bool":
		t = Bool()
	case s == "address":
		t = Address()
	case s == "quantity":
		t = Quantity()
	case strings.HasPrefix(s, "uint"):
		bits, err := parseSize(s, "uint", 256)
		if err != nil {
			return Type{}, err
		}
		t = Uint(bits)
	case strings.HasPrefix(s, "int"):
		bits, err := parseSize(s, "int", 256)
		if err != nil {
			return Type{}, err
		}
		t = Int(bits)
	case strings.HasPrefix(s, "bytes"):
		n, err := parseSize(s, "bytes", 0)
		if err != nil {
			return Type{}, err
		}
		t = Bytes(n)
	default:
		return Type{}, fmt.Errorf("%w: %q", ErrUnrecognizedType, s)
	}
	return t, t.Validate()
}

func parseSize(s, prefix string, bare int) (int, error) {
	rest := strings.TrimPrefix(s, prefix)
	if rest == "" {
		if bare == 0 {
			return 0, fmt.Errorf("%w: dynamic %q", ErrUnrecognizedType, s)
		}
		return bare, nil
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnrecognizedType, s)
	}
	return n, nil
}
