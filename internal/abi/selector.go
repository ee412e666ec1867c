package abi

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Selector is a 4-byte function selector: the first 4 bytes of the
// Keccak-256 hash of the canonical function signature.
type Selector [4]byte

// String renders the canonical form: 0x followed by 8 lowercase hex digits.
func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// Hex returns the 8 lowercase hex digits without the 0x prefix.
func (s Selector) Hex() string {
	return hex.EncodeToString(s[:])
}

// ParseSelector parses a selector from hex, with or without the 0x prefix.
func ParseSelector(str string) (Selector, error) {
	str = strings.TrimPrefix(strings.ToLower(str), "0x")
	if len(str) != 8 {
		return Selector{}, fmt.Errorf("invalid selector %q: want 8 hex digits", str)
	}
	b, err := hex.DecodeString(str)
	if err != nil {
		return Selector{}, fmt.Errorf("invalid selector %q: %w", str, err)
	}
	var s Selector
	copy(s[:], b)
	return s, nil
}

// SelectorOf computes the selector for a canonical text signature such as
// "transfer(address,uint256)".
func SelectorOf(signature string) Selector {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	var s Selector
	copy(s[:], h.Sum(nil)[:4])
	return s
}

// Selector computes the 4-byte selector of a function entry from its
// canonical signature.
func (e Entry) Selector() Selector {
	return SelectorOf(e.Signature())
}
