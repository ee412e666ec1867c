package explorer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/abiscout/internal/abi"
	"github.com/pendergraft/abiscout/internal/config"
	"github.com/pendergraft/abiscout/internal/networks"
)

const (
	proxyAddr = "0x1111111111111111111111111111111111111111"
	implAddr  = "0x2222222222222222222222222222222222222222"
)

const tokenABI = `[{"type":"function","name":"transfer","stateMutability":"nonpayable",
	"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	"outputs":[{"name":"","type":"bool"}]}]`

const implABI = `[{"type":"function","name":"upgradeTo","stateMutability":"nonpayable",
	"inputs":[{"name":"newImplementation","type":"address"}],"outputs":[]},
	{"type":"function","name":"mint","stateMutability":"nonpayable",
	"inputs":[{"name":"amount","type":"uint256"}],"outputs":[]}]`

// fakeExplorer simulates the explorer API: getabi/getsourcecode keyed by
// address.
type fakeExplorer struct {
	t *testing.T

	abis        map[string]string // address -> ABI JSON; missing means not verified
	names       map[string]string
	proxyOf     map[string]string // proxy address -> implementation address
	sourceFails bool

	sawAPIKey   string
	sawChainIDs []string
}

func (f *fakeExplorer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f.sawAPIKey = q.Get("apikey")
	f.sawChainIDs = append(f.sawChainIDs, q.Get("chainid"))
	address := q.Get("address")

	switch q.Get("action") {
	case "getabi":
		abiJSON, ok := f.abis[address]
		if !ok {
			f.writeResult(w, "0", "NOTOK", "Contract source code not verified")
			return
		}
		f.writeResult(w, "1", "OK", abiJSON)

	case "getsourcecode":
		if f.sourceFails {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		result := []map[string]string{{
			"ContractName":   f.names[address],
			"Proxy":          "0",
			"Implementation": "",
		}}
		if impl, ok := f.proxyOf[address]; ok {
			result[0]["Proxy"] = "1"
			result[0]["Implementation"] = impl
		}
		raw, _ := json.Marshal(result)
		json.NewEncoder(w).Encode(map[string]any{
			"status": "1", "message": "OK", "result": json.RawMessage(raw),
		})

	default:
		f.t.Errorf("unexpected action %q", q.Get("action"))
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (f *fakeExplorer) writeResult(w http.ResponseWriter, status, message, result string) {
	json.NewEncoder(w).Encode(map[string]any{
		"status": status, "message": message, "result": result,
	})
}

func newTestClient(t *testing.T, f *fakeExplorer, apiKey string) *Client {
	t.Helper()
	f.t = t
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)
	return NewClient(config.ExplorerConfig{BaseURL: ts.URL, APIKey: apiKey, Timeout: 5},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolveVerified(t *testing.T) {
	f := &fakeExplorer{
		abis:  map[string]string{proxyAddr: tokenABI},
		names: map[string]string{proxyAddr: "MyToken"},
	}
	client := newTestClient(t, f, "secret-key")

	record, err := client.ResolveVerified(context.Background(), proxyAddr, networks.Mainnet)
	require.NoError(t, err)

	assert.Equal(t, proxyAddr, record.Address)
	assert.Equal(t, "MyToken", record.Name)
	assert.Equal(t, abi.TierVerified, record.Tier)
	assert.Empty(t, record.Implementation)
	require.Len(t, record.Entries, 1)
	assert.Equal(t, "transfer", record.Entries[0].Name)

	assert.Equal(t, "secret-key", f.sawAPIKey)
	for _, id := range f.sawChainIDs {
		assert.Equal(t, "1", id)
	}
}

func TestResolveVerified_RoundTrip(t *testing.T) {
	f := &fakeExplorer{abis: map[string]string{proxyAddr: tokenABI}}
	client := newTestClient(t, f, "")

	record, err := client.ResolveVerified(context.Background(), proxyAddr, networks.Mainnet)
	require.NoError(t, err)

	// Re-serializing and re-parsing yields the same structure.
	reserialized, err := json.Marshal(record.Entries)
	require.NoError(t, err)
	again, err := abi.Parse(reserialized)
	require.NoError(t, err)
	assert.Equal(t, record.Entries, again)

	want, err := abi.Parse([]byte(tokenABI))
	require.NoError(t, err)
	assert.Equal(t, want, record.Entries)
}

func TestResolveVerified_NoAPIKey(t *testing.T) {
	f := &fakeExplorer{abis: map[string]string{proxyAddr: tokenABI}}
	client := newTestClient(t, f, "")

	_, err := client.ResolveVerified(context.Background(), proxyAddr, networks.Mainnet)
	require.NoError(t, err)
	assert.Empty(t, f.sawAPIKey)
}

func TestResolveVerified_TestnetChainID(t *testing.T) {
	f := &fakeExplorer{abis: map[string]string{proxyAddr: tokenABI}}
	client := newTestClient(t, f, "")

	_, err := client.ResolveVerified(context.Background(), proxyAddr, networks.Testnet)
	require.NoError(t, err)
	for _, id := range f.sawChainIDs {
		assert.Equal(t, "11155111", id)
	}
}

func TestResolveVerified_ProxySubstitution(t *testing.T) {
	f := &fakeExplorer{
		abis:    map[string]string{proxyAddr: `[{"type":"fallback","stateMutability":"payable"}]`, implAddr: implABI},
		names:   map[string]string{proxyAddr: "TransparentProxy"},
		proxyOf: map[string]string{proxyAddr: implAddr},
	}
	client := newTestClient(t, f, "")

	record, err := client.ResolveVerified(context.Background(), proxyAddr, networks.Mainnet)
	require.NoError(t, err)

	// Implementation ABI replaces the proxy's own entirely.
	require.Len(t, record.Entries, 2)
	assert.Equal(t, "upgradeTo", record.Entries[0].Name)
	assert.Equal(t, "mint", record.Entries[1].Name)
	assert.Equal(t, "TransparentProxy (Proxy)", record.Name)
	assert.Equal(t, implAddr, record.Implementation)
}

func TestResolveVerified_ProxyImplementationFetchFails(t *testing.T) {
	// Implementation is not verified: the proxy's own ABI is retained.
	f := &fakeExplorer{
		abis:    map[string]string{proxyAddr: `[{"type":"fallback","stateMutability":"payable"}]`},
		names:   map[string]string{proxyAddr: "TransparentProxy"},
		proxyOf: map[string]string{proxyAddr: implAddr},
	}
	client := newTestClient(t, f, "")

	record, err := client.ResolveVerified(context.Background(), proxyAddr, networks.Mainnet)
	require.NoError(t, err)

	require.Len(t, record.Entries, 1)
	assert.Equal(t, abi.TypeFallback, record.Entries[0].Type)
	assert.Equal(t, "TransparentProxy", record.Name)
	assert.Empty(t, record.Implementation)
}

func TestResolveVerified_MetadataFailureDegradesName(t *testing.T) {
	f := &fakeExplorer{
		abis:        map[string]string{proxyAddr: tokenABI},
		sourceFails: true,
	}
	client := newTestClient(t, f, "")

	record, err := client.ResolveVerified(context.Background(), proxyAddr, networks.Mainnet)
	require.NoError(t, err)

	assert.Equal(t, "Unknown Contract", record.Name)
	require.Len(t, record.Entries, 1)
}

func TestResolveVerified_NotVerified(t *testing.T) {
	f := &fakeExplorer{abis: map[string]string{}}
	client := newTestClient(t, f, "")

	_, err := client.ResolveVerified(context.Background(), proxyAddr, networks.Mainnet)
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestResolveVerified_MalformedABI(t *testing.T) {
	f := &fakeExplorer{abis: map[string]string{proxyAddr: `{"not":"an abi`}}
	client := newTestClient(t, f, "")

	_, err := client.ResolveVerified(context.Background(), proxyAddr, networks.Mainnet)
	assert.ErrorIs(t, err, ErrABIParse)
}

func TestResolveVerified_ExplorerDown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(ts.Close)
	client := NewClient(config.ExplorerConfig{BaseURL: ts.URL, Timeout: 5},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.ResolveVerified(context.Background(), proxyAddr, networks.Mainnet)
	assert.ErrorIs(t, err, ErrNotVerified)
}
