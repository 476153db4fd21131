package providers

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeRegistry(t *testing.T, name, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write providers file: %v", err)
	}
	return file
}

func TestLoadRegistryYAML(t *testing.T) {
	t.Setenv("TEST_GUARDIAN_KEY", "secret")
	file := writeRegistry(t, "providers.yaml", `
providers:
  - id: Guardian
    name: The Guardian
    type: GUARDIAN
    base_url: https://content.guardianapis.com/
    api_key: ${TEST_GUARDIAN_KEY}
    request_delay_ms: 750
  - id: gnews
    name: GNews
    type: gnews
    base_url: https://gnews.io/api/v4/
    api_key: k
    enabled: false
`)

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}

	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(all))
	}
	if all[0].ID != "guardian" || all[1].ID != "gnews" {
		t.Fatalf("registry order not preserved: %q, %q", all[0].ID, all[1].ID)
	}

	p, ok := reg.ByID("GUARDIAN")
	if !ok {
		t.Fatalf("expected provider id guardian to be loaded")
	}
	if p.Type != TypeGuardian {
		t.Fatalf("unexpected type: %s", p.Type)
	}
	if p.APIKey != "secret" {
		t.Fatalf("api key not expanded from env: %q", p.APIKey)
	}
	if p.PageSize != defaultPageSize {
		t.Fatalf("unexpected default page size: %d", p.PageSize)
	}
	if p.RequestDelay() != 750*time.Millisecond {
		t.Fatalf("unexpected request delay: %v", p.RequestDelay())
	}

	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "guardian" {
		t.Fatalf("expected only guardian enabled, got %+v", enabled)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	file := writeRegistry(t, "providers.json", `{"providers":[{"id":"nyt","name":"New York Times","type":"nytimes","base_url":"https://api.nytimes.com/svc/search/v2/articlesearch.json","api_key":"k"}]}`)

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	if _, ok := reg.ByID("nyt"); !ok {
		t.Fatalf("expected nyt provider")
	}
}

func TestLoadRegistryDuplicateID(t *testing.T) {
	file := writeRegistry(t, "providers.yaml", `
providers:
  - id: duplicate
    name: Provider One
    type: gnews
    base_url: https://p1.example
  - id: duplicate
    name: Provider Two
    type: gnews
    base_url: https://p2.example
`)

	if _, err := LoadRegistry(file); err == nil {
		t.Fatalf("expected duplicate provider error, got nil")
	}
}

func TestLoadRegistryMissingBaseURL(t *testing.T) {
	file := writeRegistry(t, "providers.yaml", `
providers:
  - id: broken
    name: Broken
    type: gnews
`)

	if _, err := LoadRegistry(file); err == nil {
		t.Fatalf("expected validation error for missing base_url")
	}
}

func TestLoadRegistryEmpty(t *testing.T) {
	file := writeRegistry(t, "providers.yaml", "providers: []\n")
	if _, err := LoadRegistry(file); err == nil {
		t.Fatalf("expected error for empty registry")
	}
}

func TestAdapterRegistryUnknownType(t *testing.T) {
	reg := DefaultAdapterRegistry()
	_, err := reg.AdapterFor(Provider{ID: "x", Type: "carrier-pigeon", BaseURL: "https://x", APIKey: "k"}, nil, nil)
	if err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}

func TestBuildAllKeepsOrder(t *testing.T) {
	cfgs := []Provider{
		{ID: "gnews", Type: TypeGNews, BaseURL: "https://g", APIKey: "k"},
		{ID: "guardian", Type: TypeGuardian, BaseURL: "https://c", APIKey: "k"},
	}
	adapters, err := BuildAll(DefaultAdapterRegistry(), cfgs, &stubClient{}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(adapters) != 2 || adapters[0].ID() != "gnews" || adapters[1].ID() != "guardian" {
		t.Fatalf("unexpected adapters: %+v", adapters)
	}
}

func TestAdapterRequiresAPIKey(t *testing.T) {
	if _, err := NewGuardianAdapter(Provider{ID: "guardian", BaseURL: "https://c"}, nil, nil); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestSourcesAndCategories(t *testing.T) {
	sources := Sources()
	want := []string{"All", "The Guardian", "New York Times", "BBC News", "GNews"}
	if len(sources) != len(want) {
		t.Fatalf("unexpected sources %v", sources)
	}
	for i := range want {
		if sources[i] != want[i] {
			t.Fatalf("sources[%d] = %q, want %q", i, sources[i], want[i])
		}
	}

	cats := Categories()
	cats[0] = "mutated"
	if Categories()[0] != "Technology" {
		t.Fatalf("Categories should return a copy")
	}
}

func TestConfigStringAndHeaders(t *testing.T) {
	cfg := Provider{Config: map[string]any{
		ConfigBeginDateKey:      20240101,
		ConfigEndDateKey:        float64(20240131),
		ConfigLanguageKey:       "  ",
		ConfigUserAgentKey:      "bot/1.0",
		ConfigAcceptLanguageKey: "en-GB",
		"nested":                map[string]any{"x": 1},
	}}

	if got := ConfigString(cfg, ConfigBeginDateKey, ""); got != "20240101" {
		t.Fatalf("int value: got %q", got)
	}
	if got := ConfigString(cfg, ConfigEndDateKey, ""); got != "20240131" {
		t.Fatalf("float value: got %q", got)
	}
	if got := ConfigString(cfg, ConfigLanguageKey, "en"); got != "en" {
		t.Fatalf("blank value should fall back, got %q", got)
	}
	if got := ConfigString(cfg, "nested", "fb"); got != "fb" {
		t.Fatalf("non-scalar value should fall back, got %q", got)
	}
	if got := ConfigString(Provider{}, ConfigLanguageKey, "en"); got != "en" {
		t.Fatalf("nil config should fall back, got %q", got)
	}

	headers := Headers(cfg)
	if len(headers) != 2 || headers["User-Agent"] != "bot/1.0" || headers["Accept-Language"] != "en-GB" {
		t.Fatalf("unexpected headers %#v", headers)
	}
	if apiHeaders(cfg)["Accept"] != "application/json" {
		t.Fatalf("api headers should default Accept to JSON")
	}
}
