package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pendergraft/abiscout/internal/abi"
	"github.com/pendergraft/abiscout/internal/bytecode"
	"github.com/pendergraft/abiscout/internal/networks"
	"github.com/pendergraft/abiscout/internal/observability/metrics"
	"github.com/pendergraft/abiscout/internal/validation"
)

// Common errors returned by the resolution service.
var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidNetwork = errors.New("invalid network")
	// ErrExhausted means both tiers failed; the caller must supply an ABI
	// manually. Tier-internal failures are never surfaced individually.
	ErrExhausted = errors.New("contract not verified and recovery failed")
)

type service struct {
	verified   VerifiedResolver
	code       CodeFetcher
	signatures SignatureResolver
	logger     *slog.Logger
}

// NewService creates a new resolution service.
func NewService(verified VerifiedResolver, code CodeFetcher, signatures SignatureResolver, logger *slog.Logger) *service {
	return &service{
		verified:   verified,
		code:       code,
		signatures: signatures,
		logger:     logger,
	}
}

// Resolve runs the tiered pipeline: pre-flight validation, then the
// verified tier, then heuristic recovery. Tier ordering encodes a trust
// hierarchy; recovery is consulted only once the authoritative tier is
// exhausted, and no tier is retried.
func (s *service) Resolve(ctx context.Context, req ResolveRequest) (*abi.ContractRecord, error) {
	// Pre-flight rejection: no network call happens on bad input.
	if err := validation.ValidateAddress(req.Address); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	address := validation.NormalizeAddress(req.Address)

	network, err := networks.Parse(req.Network)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNetwork, err)
	}

	if record, err := s.tryVerified(ctx, address, network); err == nil {
		metrics.RecordResolution(string(abi.TierVerified), "success")
		return record, nil
	}

	record, err := s.tryRecovery(ctx, address, network)
	if err != nil {
		metrics.RecordResolution("none", "exhausted")
		return nil, ErrExhausted
	}
	metrics.RecordResolution(string(abi.TierRecovered), "success")
	return record, nil
}

func (s *service) tryVerified(ctx context.Context, address string, network networks.Network) (*abi.ContractRecord, error) {
	record, err := s.verified.ResolveVerified(ctx, address, network)
	if err != nil {
		s.logger.Debug("verified tier failed, falling back to recovery",
			"address", address,
			"network", network,
			"error", err,
		)
		return nil, err
	}
	return record, nil
}

func (s *service) tryRecovery(ctx context.Context, address string, network networks.Network) (*abi.ContractRecord, error) {
	code, err := s.code.GetCode(ctx, address, network)
	if err != nil {
		s.logger.Info("recovery tier failed: no bytecode",
			"address", address,
			"network", network,
			"error", err,
		)
		return nil, err
	}

	selectors, err := bytecode.ExtractSelectors(code)
	if err != nil {
		s.logger.Info("recovery tier failed: no selectors",
			"address", address,
			"bytes", len(code),
			"error", err,
		)
		return nil, err
	}

	// ResolveAll cannot fail: unresolvable selectors come back as
	// placeholders, which still count as a successful recovery.
	entries := s.signatures.ResolveAll(ctx, selectors)

	s.logger.Info("recovered ABI from bytecode",
		"address", address,
		"network", network,
		"selectors", len(selectors),
	)

	return &abi.ContractRecord{
		Address: address,
		Name:    "Unknown Contract",
		Entries: entries,
		Tier:    abi.TierRecovered,
	}, nil
}
