// Package bytecode recovers candidate function selectors from deployed
// EVM bytecode.
package bytecode

import (
	"errors"

	"github.com/pendergraft/abiscout/internal/abi"
)

// opPush4 pushes a 4-byte immediate onto the stack. Function dispatch
// compares the calldata selector against PUSH4 immediates, so the 4 bytes
// following this opcode are selector candidates.
const opPush4 = 0x63

// ErrNoSelectors is returned when a bytecode blob yields no candidates.
var ErrNoSelectors = errors.New("no selector candidates found in bytecode")

// ExtractSelectors scans bytecode for PUSH4 immediates and returns the
// deduplicated candidate selectors in first-seen order.
//
// The scan is a flat byte walk, not a disassembly: a 0x63 byte inside
// another push's operand is indistinguishable from a real PUSH4 opcode,
// so the result can contain false positives. That tradeoff is accepted
// for coverage.
func ExtractSelectors(code []byte) ([]abi.Selector, error) {
	seen := make(map[abi.Selector]bool)
	var selectors []abi.Selector

	for i := 0; i+4 < len(code); i++ {
		if code[i] != opPush4 {
			continue
		}
		var s abi.Selector
		copy(s[:], code[i+1:i+5])
		if !seen[s] {
			seen[s] = true
			selectors = append(selectors, s)
		}
	}

	if len(selectors) == 0 {
		return nil, ErrNoSelectors
	}
	return selectors, nil
}
