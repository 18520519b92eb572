package codec

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// CanonicalName renders name(t1,t2,...) using Solidity type spellings.
func CanonicalName(name string, types []Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return name + "(" + strings.Join(parts, ",") + ")"
}

// Signature returns the Keccak-256 digest of a canonical name as a
// 0x-prefixed 64-digit hex string. For events this is topic zero.
func Signature(canonical string) string {
	return hexutil.Encode(crypto.Keccak256([]byte(canonical)))
}

// Selector returns the 4-byte function selector of a canonical name.
func Selector(canonical string) string {
	return Signature(canonical)[:10]
}
