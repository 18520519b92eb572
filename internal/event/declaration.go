package event

import (
	"fmt"
	"strings"

	"eventscope/internal/codec"
)

// ParseDeclaration builds metadata from a Solidity-style declaration:
//
//	Transfer(address indexed from, address indexed to, uint256 value)
//
// Argument names are optional; an optional leading "event" keyword is
// ignored.
func ParseDeclaration(decl string) (*Metadata, error) {
	name, params, err := splitSignature(decl)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(strings.TrimPrefix(name, "event "))

	b := New(name)
	for i, param := range params {
		fields := strings.Fields(param)
		if len(fields) == 0 {
			return nil, fmt.Errorf("parse %q: empty argument %d", decl, i)
		}
		t, err := codec.ParseType(fields[0])
		if err != nil {
			return nil, fmt.Errorf("parse %q: argument %d: %w", decl, i, err)
		}

		indexed := false
		rest := fields[1:]
		if len(rest) > 0 && rest[0] == "indexed" {
			indexed = true
			rest = rest[1:]
		}
		var argName string
		switch len(rest) {
		case 0:
		case 1:
			argName = rest[0]
		default:
			return nil, fmt.Errorf("parse %q: unexpected tokens in argument %d: %s", decl, i, param)
		}

		if indexed {
			b.Indexed(argName, t)
		} else {
			b.Arg(argName, t)
		}
	}
	return b.Build()
}

// ParseSignature parses a canonical or human-readable function signature
// such as "balanceOf(address)" into its name and argument types.
func ParseSignature(sig string) (string, []codec.Type, error) {
	name, params, err := splitSignature(sig)
	if err != nil {
		return "", nil, err
	}
	types := make([]codec.Type, 0, len(params))
	for i, param := range params {
		fields := strings.Fields(param)
		if len(fields) == 0 {
			return "", nil, fmt.Errorf("parse %q: empty argument %d", sig, i)
		}
		t, err := codec.ParseType(fields[0])
		if err != nil {
			return "", nil, fmt.Errorf("parse %q: argument %d: %w", sig, i, err)
		}
		types = append(types, t)
	}
	return name, types, nil
}

func splitSignature(s string) (string, []string, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", nil, fmt.Errorf("parse %q: expected name(args)", s)
	}
	name := strings.TrimSpace(s[:open])
	inner := strings.TrimSpace(s[open+1 : len(s)-1])
	if strings.ContainsAny(inner, "()") {
		return "", nil, fmt.Errorf("parse %q: tuple arguments are not supported", s)
	}
	if inner == "" {
		return name, nil, nil
	}
	return name, strings.Split(inner, ","), nil
}
