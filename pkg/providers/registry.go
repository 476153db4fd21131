package providers

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/khobor-aggregator/internal/logger"
	"github.com/Adda-Baaj/khobor-aggregator/pkg/httpclient"
)

// Supported provider types.
const (
	TypeGuardian  = "guardian"
	TypeTimes     = "nytimes"
	TypeBroadcast = "broadcast"
	TypeGNews     = "gnews"
)

// Builder creates an Adapter from a provider config entry.
type Builder func(cfg Provider, client HTTPClient, log logger.Logger) (Adapter, error)

// AdapterRegistry maps provider types to builders.
type AdapterRegistry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewAdapterRegistry returns a registry with optional pre-registered builders.
func NewAdapterRegistry(builders map[string]Builder) *AdapterRegistry {
	r := &AdapterRegistry{builders: make(map[string]Builder)}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// Register associates a builder with a provider type.
func (r *AdapterRegistry) Register(typ string, builder Builder) {
	if typ = strings.TrimSpace(strings.ToLower(typ)); typ == "" || builder == nil {
		return
	}

	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

// AdapterFor builds the adapter for the provided config.
func (r *AdapterRegistry) AdapterFor(cfg Provider, client HTTPClient, log logger.Logger) (Adapter, error) {
	if r == nil {
		return nil, fmt.Errorf("adapter registry is nil")
	}
	if strings.TrimSpace(cfg.Type) == "" {
		return nil, fmt.Errorf("provider %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no adapter registered for provider %q (type %q)", cfg.ID, cfg.Type)
	}
	return builder(cfg, client, log)
}

// DefaultHTTPClient returns a tuned client for provider API calls.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15*time.Second, "") }

// DefaultAdapterRegistry wires up known provider adapters.
func DefaultAdapterRegistry() *AdapterRegistry {
	return NewAdapterRegistry(map[string]Builder{
		TypeGuardian:  NewGuardianAdapter,
		TypeTimes:     NewTimesAdapter,
		TypeBroadcast: NewBroadcastAdapter,
		TypeGNews:     NewGNewsAdapter,
	})
}

// BuildAll instantiates adapters for cfgs using the registry, keeping order.
func BuildAll(reg *AdapterRegistry, cfgs []Provider, client HTTPClient, log logger.Logger) ([]Adapter, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}

	adapters := make([]Adapter, 0, len(cfgs))
	for _, cfg := range cfgs {
		a, err := reg.AdapterFor(cfg, client, log)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}
