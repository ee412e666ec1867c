// Package abi models contract ABIs: tagged entry variants, 4-byte function
// selectors, and the resolved contract record produced by the pipeline.
package abi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EntryType tags the kind of an ABI entry.
type EntryType string

const (
	TypeFunction    EntryType = "function"
	TypeEvent       EntryType = "event"
	TypeConstructor EntryType = "constructor"
	TypeFallback    EntryType = "fallback"
	TypeReceive     EntryType = "receive"
	TypeError       EntryType = "error"
)

// knownTypes is the set of entry kinds the parser accepts. Entries with
// any other type tag are dropped on parse rather than passed through.
var knownTypes = map[EntryType]bool{
	TypeFunction:    true,
	TypeEvent:       true,
	TypeConstructor: true,
	TypeFallback:    true,
	TypeReceive:     true,
	TypeError:       true,
}

// Argument is a single input or output parameter of an ABI entry.
type Argument struct {
	Name         string     `json:"name,omitempty"`
	Type         string     `json:"type"`
	InternalType string     `json:"internalType,omitempty"`
	Components   []Argument `json:"components,omitempty"`
	Indexed      bool       `json:"indexed,omitempty"`
}

// Entry is one element of a contract ABI. The Type field selects the
// variant; fields that do not apply to a variant stay at their zero value
// and are omitted when re-serialized.
type Entry struct {
	Type            EntryType  `json:"type"`
	Name            string     `json:"name,omitempty"`
	Inputs          []Argument `json:"inputs,omitempty"`
	Outputs         []Argument `json:"outputs,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
	Anonymous       bool       `json:"anonymous,omitempty"`
}

// Signature renders the canonical text signature "name(type,type,...)".
// Only meaningful for function, event, and error entries.
func (e Entry) Signature() string {
	types := make([]string, len(e.Inputs))
	for i, in := range e.Inputs {
		types[i] = in.Type
	}
	return fmt.Sprintf("%s(%s)", e.Name, strings.Join(types, ","))
}

// Parse parses raw ABI JSON into entries. Entries whose type tag is not
// one of the known variants are dropped; order of the remaining entries
// is preserved and no dedup is applied.
func Parse(raw []byte) ([]Entry, error) {
	var all []Entry
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("parsing ABI JSON: %w", err)
	}

	entries := make([]Entry, 0, len(all))
	for _, e := range all {
		if knownTypes[e.Type] {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Tier records which pipeline tier produced a contract record.
type Tier string

const (
	// TierVerified means the ABI came from a verified source on the explorer.
	TierVerified Tier = "verified"
	// TierRecovered means the ABI was reconstructed heuristically from
	// deployed bytecode and a public signature registry.
	TierRecovered Tier = "recovered"
)

// ContractRecord is the assembled result for one contract address.
type ContractRecord struct {
	// Address is the canonical lowercase contract address.
	Address string
	// Name is the display name, or a generic placeholder when unknown.
	Name string
	// Entries is the ordered ABI.
	Entries []Entry
	// Tier is the pipeline tier that produced this record.
	Tier Tier
	// Implementation is set when the ABI was substituted from a proxy's
	// implementation contract.
	Implementation string
}
