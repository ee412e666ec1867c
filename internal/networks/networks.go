// Package networks defines the supported chain networks and their endpoints.
package networks

import "fmt"

// Network identifies a supported chain network.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// chainIDs is the static network -> chain identifier mapping used by
// explorer and RPC endpoints. The mapping is total over All().
var chainIDs = map[Network]int64{
	Mainnet: 1,
	Testnet: 11155111, // Sepolia
}

// defaultRPCs are the canonical public JSON-RPC endpoints per network,
// used when no endpoint is configured or a configured one is rejected.
var defaultRPCs = map[Network]string{
	Mainnet: "https://ethereum-rpc.publicnode.com",
	Testnet: "https://ethereum-sepolia-rpc.publicnode.com",
}

// All returns the supported networks.
func All() []Network {
	return []Network{Mainnet, Testnet}
}

// Parse parses a network string. An empty string defaults to Mainnet.
func Parse(s string) (Network, error) {
	switch Network(s) {
	case "":
		return Mainnet, nil
	case Mainnet:
		return Mainnet, nil
	case Testnet:
		return Testnet, nil
	}
	return "", fmt.Errorf("unknown network %q (supported: mainnet, testnet)", s)
}

// ChainID returns the numeric chain identifier for the network.
func (n Network) ChainID() int64 {
	return chainIDs[n]
}

// DefaultRPC returns the canonical JSON-RPC endpoint for the network.
func (n Network) DefaultRPC() string {
	return defaultRPCs[n]
}

// String implements fmt.Stringer.
func (n Network) String() string {
	return string(n)
}
