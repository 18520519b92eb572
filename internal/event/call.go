package event

import (
	"fmt"
	"strings"

	"eventscope/internal/codec"
)

// CallQuery builds an eth_call request invoking a view function. The
// signature is parsed with ParseSignature and each argument is encoded as a
// 32-byte word. A nil block means latest.
func CallQuery(to any, signature string, args []any, block any) (Request, error) {
	name, types, err := ParseSignature(signature)
	if err != nil {
		return Request{}, err
	}
	if len(args) != len(types) {
		return Request{}, fmt.Errorf("call %s: %d arguments, want %d", name, len(args), len(types))
	}
	addr, err := codec.Encode(codec.Address(), to)
	if err != nil {
		return Request{}, fmt.Errorf("call %s: to: %w", name, err)
	}

	var data strings.Builder
	data.WriteString(codec.Selector(codec.CanonicalName(name, types)))
	for i, t := range types {
		word, err := codec.Encode(codec.Topic(t), args[i])
		if err != nil {
			return Request{}, fmt.Errorf("call %s: argument %d: %w", name, i, err)
		}
		data.WriteString(word[2:])
	}

	tag, err := encodeBound(block)
	if err != nil {
		return Request{}, fmt.Errorf("call %s: block: %w", name, err)
	}
	msg := map[string]any{"to": addr, "data": data.String()}
	return Request{Method: "eth_call", Params: []any{msg, tag}}, nil
}

// DecodeCall decodes eth_call return data as a sequence of 32-byte words.
// Any digits left after the last word are returned as rest.
func DecodeCall(types []codec.Type, result any) ([]any, string, error) {
	s, ok := result.(string)
	if !ok {
		return nil, "", fmt.Errorf("%w: call result is %T", codec.ErrInvalidValue, result)
	}
	words := make([]codec.Type, len(types))
	for i, t := range types {
		words[i] = codec.Topic(t)
	}
	return codec.DecodePacked(words, s)
}
