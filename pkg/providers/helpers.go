package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/Adda-Baaj/khobor-aggregator/internal/apperr"
	"github.com/Adda-Baaj/khobor-aggregator/internal/logger"
	"github.com/Adda-Baaj/khobor-aggregator/pkg/httpclient"
)

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// baseAdapter carries what every adapter holds: its config, transport and logger.
type baseAdapter struct {
	cfg    Provider
	client HTTPClient
	log    logger.Logger
}

func newBaseAdapter(cfg Provider, client HTTPClient, log logger.Logger) (baseAdapter, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return baseAdapter{}, fmt.Errorf("provider %q base_url is empty", cfg.ID)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return baseAdapter{}, fmt.Errorf("provider %q api_key is empty", cfg.ID)
	}
	if client == nil {
		client = DefaultHTTPClient()
	}
	return baseAdapter{cfg: cfg, client: client, log: logger.Ensure(log)}, nil
}

func (b baseAdapter) ID() string { return b.cfg.ID }

func (b baseAdapter) pageSize(q Query) int {
	if q.PageSize > 0 {
		return q.PageSize
	}
	if b.cfg.PageSize > 0 {
		return b.cfg.PageSize
	}
	return defaultPageSize
}

// endpoint joins the configured base url and path with exactly one slash.
func (b baseAdapter) endpoint(path string) string {
	base := strings.TrimRight(b.cfg.BaseURL, "/")
	path = strings.TrimLeft(path, "/")
	if path == "" {
		return base
	}
	return base + "/" + path
}

// getJSON issues the single GET for a fetch and returns the decoded top-level
// document. The error URL never carries the query string so API keys stay
// out of logs.
func (b baseAdapter) getJSON(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	target := endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	resp, err := b.client.Get(ctx, target, apiHeaders(b.cfg))
	if err != nil {
		return nil, &apperr.HTTPFetchError{Provider: b.cfg.ID, URL: endpoint, Err: err}
	}
	body := resp.Body()
	if !httpclient.IsSuccess(resp) {
		return nil, &apperr.HTTPFetchError{
			Provider:   b.cfg.ID,
			URL:        endpoint,
			StatusCode: resp.StatusCode(),
			Snippet:    responseSnippet(body),
		}
	}

	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, apperr.NewShapeWrap(b.cfg.ID, "$", fmt.Errorf("invalid json: %s", responseSnippet(body)))
	}
	return json.RawMessage(body), nil
}

// items walks root along path (object keys) and returns the array found there.
func items(provider string, root json.RawMessage, path ...string) ([]json.RawMessage, error) {
	full := strings.Join(path, ".")
	cur := root
	for _, key := range path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(cur, &obj); err != nil || obj == nil {
			return nil, apperr.NewShape(provider, full)
		}
		next, ok := obj[key]
		if !ok || isNull(next) {
			return nil, apperr.NewShape(provider, full)
		}
		cur = next
	}

	var out []json.RawMessage
	if err := json.Unmarshal(cur, &out); err != nil {
		return nil, apperr.NewShapeWrap(provider, full, fmt.Errorf("expected array: %w", err))
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func itemPath(base string, i int) string {
	return fmt.Sprintf("%s[%d]", base, i)
}

func fieldString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// flexString accepts both JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(b))
	}
	*f = flexString(n.String())
	return nil
}
