// Package chainrpc fetches deployed bytecode from a blockchain node over
// raw JSON-RPC.
package chainrpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pendergraft/abiscout/internal/config"
	"github.com/pendergraft/abiscout/internal/networks"
	"github.com/pendergraft/abiscout/internal/observability/metrics"
)

// ErrNoBytecode means the address has no deployed code: likely an
// externally-owned account, not a contract.
var ErrNoBytecode = errors.New("no bytecode deployed at address")

// emptyCode is the node's sentinel for "no code at this address".
const emptyCode = "0x"

// explorerHostnames are hostnames that identify block-explorer web UIs.
// A configured RPC endpoint containing one of these is a misconfiguration
// (an explorer URL is not a JSON-RPC endpoint) and is replaced with the
// canonical default for the network.
var explorerHostnames = []string{"etherscan.io"}

// Client issues eth_getCode calls against per-network endpoints.
type Client struct {
	endpoints  map[networks.Network]string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client from configuration, sanitizing configured endpoints.
func New(cfg config.RPCConfig, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		endpoints: map[networks.Network]string{
			networks.Mainnet: sanitizeEndpoint(networks.Mainnet, cfg.MainnetEndpoint, logger),
			networks.Testnet: sanitizeEndpoint(networks.Testnet, cfg.TestnetEndpoint, logger),
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func sanitizeEndpoint(network networks.Network, endpoint string, logger *slog.Logger) string {
	if endpoint == "" {
		return network.DefaultRPC()
	}
	for _, host := range explorerHostnames {
		if strings.Contains(endpoint, host) {
			logger.Warn("configured RPC endpoint points at a block explorer, using default",
				"network", network,
				"configured", endpoint,
				"default", network.DefaultRPC(),
			)
			return network.DefaultRPC()
		}
	}
	return endpoint
}

// Endpoint returns the effective endpoint for a network.
func (c *Client) Endpoint(network networks.Network) string {
	return c.endpoints[network]
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Result string    `json:"result"`
	Error  *rpcError `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// GetCode fetches the deployed bytecode at address on the given network,
// at the latest block. Returns ErrNoBytecode when the address holds no code.
func (c *Client) GetCode(ctx context.Context, address string, network networks.Network) (code []byte, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordUpstreamRequest("chainrpc", outcome)
	}()

	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "eth_getCode",
		Params:  []any{address, "latest"},
		ID:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	endpoint := c.endpoints[network]
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eth_getCode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eth_getCode: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("eth_getCode: node error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if rpcResp.Result == "" || rpcResp.Result == emptyCode {
		return nil, ErrNoBytecode
	}

	code, err = hex.DecodeString(strings.TrimPrefix(rpcResp.Result, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decoding bytecode hex: %w", err)
	}
	return code, nil
}
