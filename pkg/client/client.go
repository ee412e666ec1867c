// Package client provides a Go client for the abiscout API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client is an abiscout API client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// New creates a new abiscout client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ABIEntry is one element of a resolved contract ABI.
type ABIEntry struct {
	Type            string        `json:"type"`
	Name            string        `json:"name,omitempty"`
	Inputs          []ABIArgument `json:"inputs,omitempty"`
	Outputs         []ABIArgument `json:"outputs,omitempty"`
	StateMutability string        `json:"stateMutability,omitempty"`
	Anonymous       bool          `json:"anonymous,omitempty"`
}

// ABIArgument is a single parameter of an ABI entry.
type ABIArgument struct {
	Name         string        `json:"name,omitempty"`
	Type         string        `json:"type"`
	InternalType string        `json:"internalType,omitempty"`
	Components   []ABIArgument `json:"components,omitempty"`
	Indexed      bool          `json:"indexed,omitempty"`
}

// Contract is a resolved contract record.
type Contract struct {
	Address        string     `json:"address"`
	Name           string     `json:"name"`
	ABI            []ABIEntry `json:"abi"`
	IsVerified     bool       `json:"isVerified"`
	IsRecovered    bool       `json:"isRecovered,omitempty"`
	Implementation string     `json:"implementation,omitempty"`
}

// APIError represents an API error response
type APIError struct {
	StatusCode int
	Message    string   `json:"error"`
	Code       string   `json:"code,omitempty"`
	Details    []string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// IsManualABIRequired reports whether the server exhausted both the
// verified and recovery tiers for this contract.
func (e *APIError) IsManualABIRequired() bool {
	return e.Code == "REQUIRE_MANUAL_ABI"
}

// ResolveContract resolves the ABI for a contract address. Network may
// be "mainnet", "testnet", or empty for the server default.
func (c *Client) ResolveContract(ctx context.Context, address, network string) (*Contract, error) {
	params := url.Values{}
	params.Set("address", address)
	if network != "" {
		params.Set("network", network)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/contract?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.parseError(resp)
	}

	var envelope struct {
		Success bool     `json:"success"`
		Data    Contract `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("unexpected response: success=false with status %d", resp.StatusCode)
	}

	return &envelope.Data, nil
}

func (c *Client) parseError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}
	return apiErr
}
