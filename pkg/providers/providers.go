// Package providers contains the news provider configs (YAML/JSON) and the
// adapters that turn each provider's wire format into domain articles.
package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider is one entry of the providers registry file.
type Provider struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Type           string         `json:"type" yaml:"type"`
	BaseURL        string         `json:"base_url" yaml:"base_url"`
	APIKey         string         `json:"api_key" yaml:"api_key"`
	PageSize       int            `json:"page_size" yaml:"page_size"`
	RequestDelayMs int            `json:"request_delay_ms" yaml:"request_delay_ms"`
	Enabled        *bool          `json:"enabled" yaml:"enabled"`
	Config         map[string]any `json:"config" yaml:"config"`
}

type registryFile struct {
	Providers []Provider `json:"providers" yaml:"providers"`
}

const (
	defaultPageSize       = 10
	defaultRequestDelayMs = 250
)

// Registry holds the provider configs in file order.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	idx       map[string]Provider
}

// LoadRegistry reads the provider registry from a YAML or JSON file. API keys
// may reference environment variables (${GUARDIAN_API_KEY}).
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("providers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}

	var file registryFile
	if err := decodeRegistry(raw, filepath.Ext(path), &file); err != nil {
		return nil, fmt.Errorf("decode providers file %s: %w", path, err)
	}
	if len(file.Providers) == 0 {
		return nil, fmt.Errorf("providers file %s lists no providers", path)
	}
	return NewRegistry(file.Providers)
}

// decodeRegistry picks the decoder from the file extension. Files without a
// known extension are tried as YAML, which also accepts JSON documents.
func decodeRegistry(raw []byte, ext string, out *registryFile) error {
	if strings.EqualFold(ext, ".json") {
		return json.Unmarshal(raw, out)
	}
	return yaml.Unmarshal(raw, out)
}

// NewRegistry sanitizes and validates cfgs and keeps them in the given order.
func NewRegistry(cfgs []Provider) (*Registry, error) {
	r := &Registry{
		providers: make([]Provider, 0, len(cfgs)),
		idx:       make(map[string]Provider, len(cfgs)),
	}
	for i, cfg := range cfgs {
		p := sanitizeProvider(cfg)
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("provider[%d]: %w", i, err)
		}
		if _, dup := r.idx[p.ID]; dup {
			return nil, fmt.Errorf("provider[%d]: duplicate id %q", i, p.ID)
		}
		r.providers = append(r.providers, p)
		r.idx[p.ID] = p
	}
	return r, nil
}

func sanitizeProvider(p Provider) Provider {
	p.ID = strings.ToLower(strings.TrimSpace(p.ID))
	p.Name = strings.TrimSpace(p.Name)
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	p.BaseURL = strings.TrimSpace(p.BaseURL)
	p.APIKey = strings.TrimSpace(os.ExpandEnv(p.APIKey))

	if p.Config == nil {
		p.Config = map[string]any{}
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	}
	if p.RequestDelayMs <= 0 {
		p.RequestDelayMs = defaultRequestDelayMs
	}
	if p.Enabled == nil {
		def := true
		p.Enabled = &def
	}

	return p
}

func (p Provider) validate() error {
	var missing []string
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.Name == "" {
		missing = append(missing, "name")
	}
	if p.Type == "" {
		missing = append(missing, "type")
	}
	if p.BaseURL == "" {
		missing = append(missing, "base_url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("provider %q missing %s", p.ID, strings.Join(missing, ", "))
	}
	return nil
}

// All returns a copy of every configured provider in file order.
func (r *Registry) All() []Provider {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Enabled returns providers that are enabled, in file order.
func (r *Registry) Enabled() []Provider {
	all := r.All()
	out := make([]Provider, 0, len(all))
	for _, p := range all {
		if p.EnabledValue() {
			out = append(out, p)
		}
	}
	return out
}

// ByID returns the provider entry for the given id, if loaded.
func (r *Registry) ByID(id string) (Provider, bool) {
	if r == nil {
		return Provider{}, false
	}
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return Provider{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.idx[id]
	return p, ok
}

// EnabledValue returns the enabled flag defaulting to true.
func (p Provider) EnabledValue() bool {
	if p.Enabled == nil {
		return true
	}
	return *p.Enabled
}

// RequestDelay returns the pause between page scrapes for this provider.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMs <= 0 {
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(p.RequestDelayMs) * time.Millisecond
}
