package explorer

import (
	"context"
	"log/slog"

	"github.com/pendergraft/abiscout/internal/abi"
	"github.com/pendergraft/abiscout/internal/networks"
)

// ABIFetcher fetches a verified ABI for an address.
type ABIFetcher interface {
	FetchABI(ctx context.Context, network networks.Network, address string) ([]abi.Entry, error)
}

// ProxyResolver substitutes a delegate proxy's ABI with its
// implementation's. It is an optional-result lookup: it can return a
// value or nothing, and never fails its caller.
type ProxyResolver struct {
	abis   ABIFetcher
	logger *slog.Logger
}

// NewProxyResolver creates a ProxyResolver backed by the given fetcher.
func NewProxyResolver(abis ABIFetcher, logger *slog.Logger) *ProxyResolver {
	return &ProxyResolver{abis: abis, logger: logger}
}

// ResolveImplementation fetches the ABI of the implementation contract.
// On any failure the miss is logged and ok=false is returned; the caller
// keeps the proxy's own ABI unchanged.
func (p *ProxyResolver) ResolveImplementation(ctx context.Context, network networks.Network, implementation string) ([]abi.Entry, bool) {
	entries, err := p.abis.FetchABI(ctx, network, implementation)
	if err != nil {
		p.logger.Warn("implementation ABI fetch failed, keeping proxy ABI",
			"implementation", implementation,
			"error", err,
		)
		return nil, false
	}
	return entries, true
}
