// Package domain contains the business logic for contract ABI resolution.
package domain

import (
	"context"

	"github.com/pendergraft/abiscout/internal/abi"
	"github.com/pendergraft/abiscout/internal/networks"
)

// ResolveRequest is the request to resolve a contract's ABI.
type ResolveRequest struct {
	// Address is the raw contract address string.
	Address string
	// Network is the raw network string; empty defaults to mainnet.
	Network string
}

// VerifiedResolver is the explorer-backed authoritative tier.
type VerifiedResolver interface {
	ResolveVerified(ctx context.Context, address string, network networks.Network) (*abi.ContractRecord, error)
}

// CodeFetcher fetches deployed bytecode for the recovery tier.
type CodeFetcher interface {
	GetCode(ctx context.Context, address string, network networks.Network) ([]byte, error)
}

// SignatureResolver resolves selectors to function descriptors. It cannot
// partially fail: one descriptor per input selector, always.
type SignatureResolver interface {
	ResolveAll(ctx context.Context, selectors []abi.Selector) []abi.Entry
}

// Service resolves contract ABIs through the tiered pipeline.
type Service interface {
	Resolve(ctx context.Context, req ResolveRequest) (*abi.ContractRecord, error)
}
