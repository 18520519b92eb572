package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventscope/internal/codec"
)

func TestCallQuery(t *testing.T) {
	token := "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	req, err := CallQuery(token, BalanceOfSig, []any{fromAddr}, nil)
	require.NoError(t, err)
	assert.Equal(t, "eth_call", req.Method)
	assert.Equal(t, []any{
		map[string]any{"to": token, "data": "0x70a08231" + fromTopic[2:]},
		"latest",
	}, req.Params)

	req, err = CallQuery(token, DecimalsSig, nil, "0x10")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"to": token, "data": "0x313ce567"}, req.Params[0])
	assert.Equal(t, "0x10", req.Params[1])
}

func TestCallQueryErrors(t *testing.T) {
	_, err := CallQuery(fromAddr, BalanceOfSig, nil, nil)
	assert.ErrorContains(t, err, "0 arguments, want 1")

	_, err = CallQuery(fromAddr, "balanceOf(address", []any{fromAddr}, nil)
	assert.Error(t, err)

	_, err = CallQuery(fromAddr, "f(uint8)", []any{300}, nil)
	assert.ErrorIs(t, err, codec.ErrOverflow)
}

func TestDecodeCall(t *testing.T) {
	values, rest, err := DecodeCall([]codec.Type{codec.Uint(8)},
		"0x0000000000000000000000000000000000000000000000000000000000000012")
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, "18", values[0].(interface{ String() string }).String())

	_, _, err = DecodeCall([]codec.Type{codec.Uint(256)}, "0x")
	assert.ErrorIs(t, err, codec.ErrTruncated)

	_, _, err = DecodeCall([]codec.Type{codec.Uint(256)}, nil)
	assert.ErrorIs(t, err, codec.ErrInvalidValue)
}
