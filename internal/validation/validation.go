// Package validation provides input validation for abiscout.
package validation

import (
	"errors"
	"strings"
)

// ValidateAddress validates a contract address string: 0x followed by
// exactly 40 hex digits. Mixed-case input is accepted; callers should
// normalize with NormalizeAddress before using the value.
func ValidateAddress(addr string) error {
	if len(addr) != 42 {
		return errors.New("invalid address length: must be 42 characters (0x + 40 hex)")
	}
	if !strings.HasPrefix(addr, "0x") {
		return errors.New("invalid address: must start with 0x")
	}
	for _, c := range addr[2:] {
		isDigit := c >= '0' && c <= '9'
		isLowerHex := c >= 'a' && c <= 'f'
		isUpperHex := c >= 'A' && c <= 'F'
		if !isDigit && !isLowerHex && !isUpperHex {
			return errors.New("invalid address: contains non-hex characters")
		}
	}
	return nil
}

// NormalizeAddress lowercases an address into its canonical form.
// The canonical representation is lowercase hex with the 0x prefix;
// addresses are never stored in any other casing.
func NormalizeAddress(addr string) string {
	return strings.ToLower(addr)
}
