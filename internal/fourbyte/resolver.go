// Package fourbyte resolves 4-byte selectors to function descriptors via
// a public signature registry (4byte.directory API shape).
package fourbyte

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pendergraft/abiscout/internal/abi"
	"github.com/pendergraft/abiscout/internal/config"
	"github.com/pendergraft/abiscout/internal/observability/metrics"
)

// signatureGrammar is the strict grammar accepted for registry text
// signatures: identifier "(" comma-separated-type-list ")". Nested
// parentheses (tuple types) are not handled; such candidates degrade to
// a placeholder.
var signatureGrammar = regexp.MustCompile(`^([A-Za-z_$][A-Za-z0-9_$]*)\(([^()]*)\)$`)

// Resolver looks up selectors in the signature registry. Lookups never
// fail: every error path degrades to a placeholder descriptor.
type Resolver struct {
	baseURL    string
	maxPages   int
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Resolver from configuration.
func New(cfg config.SignatureDBConfig, logger *slog.Logger) *Resolver {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	return &Resolver{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		maxPages:   maxPages,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type signatureRecord struct {
	ID            int64  `json:"id"`
	TextSignature string `json:"text_signature"`
	HexSignature  string `json:"hex_signature"`
}

type signaturePage struct {
	Count   int               `json:"count"`
	Next    string            `json:"next"`
	Results []signatureRecord `json:"results"`
}

// ResolveOne resolves a single selector to a function descriptor. Every
// outcome degrades to a placeholder named from the selector itself, so
// the call never fails. When multiple candidates match, the numerically
// smallest registry ID wins: treated as the earliest-submitted and most
// likely canonical signature, an assumption rather than a guarantee.
func (r *Resolver) ResolveOne(ctx context.Context, sel abi.Selector) abi.Entry {
	candidates, err := r.lookup(ctx, sel)
	if err != nil {
		r.logger.Debug("signature lookup failed", "selector", sel, "error", err)
		metrics.RecordSignatureLookup("error")
		return placeholder(sel)
	}
	if len(candidates) == 0 {
		metrics.RecordSignatureLookup("miss")
		return placeholder(sel)
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.ID < best.ID {
			best = c
		}
	}

	entry, ok := parseSignature(best.TextSignature)
	if !ok {
		r.logger.Debug("unparseable signature text", "selector", sel, "text", best.TextSignature)
		metrics.RecordSignatureLookup("unparseable")
		return placeholder(sel)
	}

	metrics.RecordSignatureLookup("resolved")
	return entry
}

// ResolveAll resolves every selector concurrently and returns one
// descriptor per input, in input order. Because ResolveOne cannot fail,
// the result never partially fails.
func (r *Resolver) ResolveAll(ctx context.Context, selectors []abi.Selector) []abi.Entry {
	entries := make([]abi.Entry, len(selectors))

	var wg sync.WaitGroup
	for i, sel := range selectors {
		wg.Add(1)
		go func(i int, sel abi.Selector) {
			defer wg.Done()
			entries[i] = r.ResolveOne(ctx, sel)
		}(i, sel)
	}
	wg.Wait()

	return entries
}

// lookup fetches all candidates for a selector, following pagination up
// to maxPages.
func (r *Resolver) lookup(ctx context.Context, sel abi.Selector) (candidates []signatureRecord, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordUpstreamRequest("fourbyte", outcome)
	}()

	url := fmt.Sprintf("%s/api/v1/signatures/?hex_signature=%s", r.baseURL, sel)

	for page := 0; page < r.maxPages && url != ""; page++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := r.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
		}

		var pageResp signaturePage
		if err := json.Unmarshal(body, &pageResp); err != nil {
			return nil, err
		}

		candidates = append(candidates, pageResp.Results...)
		url = pageResp.Next
	}

	return candidates, nil
}

// parseSignature parses "name(type,type,...)" into a function entry. The
// raw type strings are kept verbatim, with no parameter names. Mutability
// is always nonpayable: it cannot be derived from a bare selector.
func parseSignature(text string) (abi.Entry, bool) {
	m := signatureGrammar.FindStringSubmatch(text)
	if m == nil {
		return abi.Entry{}, false
	}

	name, typeList := m[1], m[2]
	var inputs []abi.Argument
	if typeList != "" {
		for _, typ := range strings.Split(typeList, ",") {
			typ = strings.TrimSpace(typ)
			if typ == "" {
				return abi.Entry{}, false
			}
			inputs = append(inputs, abi.Argument{Type: typ})
		}
	}

	return abi.Entry{
		Type:            abi.TypeFunction,
		Name:            name,
		Inputs:          inputs,
		StateMutability: "nonpayable",
	}, true
}

// placeholder builds the descriptor used when a selector cannot be
// resolved: named by the selector's hex digits, no inputs, nonpayable.
func placeholder(sel abi.Selector) abi.Entry {
	return abi.Entry{
		Type:            abi.TypeFunction,
		Name:            "unknown_" + sel.Hex(),
		StateMutability: "nonpayable",
	}
}
