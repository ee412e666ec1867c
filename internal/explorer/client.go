// Package explorer resolves verified contract ABIs and metadata from a
// block-explorer API (Etherscan v2 shape, chain selected by chainid).
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pendergraft/abiscout/internal/abi"
	"github.com/pendergraft/abiscout/internal/config"
	"github.com/pendergraft/abiscout/internal/networks"
	"github.com/pendergraft/abiscout/internal/observability/metrics"
)

// Errors surfaced by ResolveVerified. Both collapse to a tier failure in
// the pipeline; they are distinguished for logging only.
var (
	// ErrNotVerified covers "not verified" and explorer API errors alike:
	// one recoverable condition, not distinguished to the caller.
	ErrNotVerified = errors.New("contract not verified on explorer")
	// ErrABIParse means the explorer returned an ABI that is not valid JSON.
	ErrABIParse = errors.New("malformed ABI JSON from explorer")
)

// placeholderName is used when the display name cannot be determined.
const placeholderName = "Unknown Contract"

// Client queries the explorer API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	proxies    *ProxyResolver
	logger     *slog.Logger
}

// NewClient creates a Client from configuration. The API key is optional;
// when unset, requests go out unauthenticated.
func NewClient(cfg config.ExplorerConfig, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	c.proxies = NewProxyResolver(c, logger)
	return c
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type sourceCodeResult struct {
	ContractName   string `json:"ContractName"`
	Proxy          string `json:"Proxy"`
	Implementation string `json:"Implementation"`
}

// ResolveVerified fetches the verified ABI for address. The verified ABI
// is the success condition; the follow-up metadata lookup (display name,
// proxy detection) is best-effort and can only degrade the result, never
// fail it.
func (c *Client) ResolveVerified(ctx context.Context, address string, network networks.Network) (*abi.ContractRecord, error) {
	entries, err := c.FetchABI(ctx, network, address)
	if err != nil {
		return nil, err
	}

	record := &abi.ContractRecord{
		Address: address,
		Name:    placeholderName,
		Entries: entries,
		Tier:    abi.TierVerified,
	}

	meta, ok := c.contractMetadata(ctx, network, address)
	if !ok {
		// Name degrades to the placeholder and proxy detection is off for
		// this call; the verified ABI already in hand is enough.
		return record, nil
	}

	if meta.ContractName != "" {
		record.Name = meta.ContractName
	}

	if meta.Proxy == "1" && meta.Implementation != "" {
		if implEntries, ok := c.proxies.ResolveImplementation(ctx, network, meta.Implementation); ok {
			// Callers want the implementation's logic functions, not the
			// proxy's delegation stub.
			record.Entries = implEntries
			record.Name += " (Proxy)"
			record.Implementation = meta.Implementation
		}
	}

	return record, nil
}

// FetchABI issues the getabi action for an address and parses the result.
func (c *Client) FetchABI(ctx context.Context, network networks.Network, address string) ([]abi.Entry, error) {
	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getabi")
	params.Set("address", address)

	resp, err := c.call(ctx, network, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotVerified, err)
	}
	if resp.Status != "1" || len(resp.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotVerified, resp.Message)
	}

	// getabi returns the ABI as a JSON-encoded string.
	var abiJSON string
	if err := json.Unmarshal(resp.Result, &abiJSON); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrABIParse, err)
	}

	entries, err := abi.Parse([]byte(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrABIParse, err)
	}
	return entries, nil
}

// contractMetadata issues the getsourcecode action to obtain the display
// name and proxy metadata. Best-effort: any failure returns ok=false and
// is logged, never propagated.
func (c *Client) contractMetadata(ctx context.Context, network networks.Network, address string) (sourceCodeResult, bool) {
	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getsourcecode")
	params.Set("address", address)

	resp, err := c.call(ctx, network, params)
	if err != nil {
		c.logger.Debug("source code lookup failed", "address", address, "error", err)
		return sourceCodeResult{}, false
	}
	if resp.Status != "1" || len(resp.Result) == 0 {
		c.logger.Debug("source code lookup returned no result", "address", address, "message", resp.Message)
		return sourceCodeResult{}, false
	}

	var results []sourceCodeResult
	if err := json.Unmarshal(resp.Result, &results); err != nil || len(results) == 0 {
		c.logger.Debug("source code lookup returned unexpected shape", "address", address, "error", err)
		return sourceCodeResult{}, false
	}

	return results[0], true
}

func (c *Client) call(ctx context.Context, network networks.Network, params url.Values) (resp *apiResponse, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordUpstreamRequest("explorer", outcome)
	}()

	params.Set("chainid", strconv.FormatInt(network.ChainID(), 10))
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer returned status %d", httpResp.StatusCode)
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &apiResp, nil
}
