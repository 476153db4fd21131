package providers

import (
	"strconv"
	"strings"
)

// Keys understood in a provider's free-form config block.
const (
	ConfigUserAgentKey      = "user_agent"
	ConfigAcceptKey         = "accept"
	ConfigAcceptLanguageKey = "accept_language"
	ConfigLanguageKey       = "language"
	ConfigBeginDateKey      = "begin_date"
	ConfigEndDateKey        = "end_date"
)

// headerKeys maps config keys onto the request headers they set.
var headerKeys = []struct{ key, header string }{
	{ConfigUserAgentKey, "User-Agent"},
	{ConfigAcceptKey, "Accept"},
	{ConfigAcceptLanguageKey, "Accept-Language"},
}

// ConfigString returns the trimmed value stored under key, or fallback when
// the key is missing or blank. Numbers are accepted too, since YAML decodes
// an unquoted date like 20240101 as an int.
func ConfigString(cfg Provider, key, fallback string) string {
	raw, ok := cfg.Config[key]
	if !ok || raw == nil {
		return fallback
	}
	var val string
	switch v := raw.(type) {
	case string:
		val = v
	case int:
		val = strconv.Itoa(v)
	case float64:
		val = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fallback
	}
	if val = strings.TrimSpace(val); val == "" {
		return fallback
	}
	return val
}

// Headers returns the request headers configured for a provider. They are
// sent on API calls and when its article pages are scraped.
func Headers(cfg Provider) map[string]string {
	headers := make(map[string]string, len(headerKeys))
	for _, hk := range headerKeys {
		if v := ConfigString(cfg, hk.key, ""); v != "" {
			headers[hk.header] = v
		}
	}
	return headers
}

// apiHeaders is Headers with a JSON Accept default for provider API calls.
func apiHeaders(cfg Provider) map[string]string {
	headers := Headers(cfg)
	if _, ok := headers["Accept"]; !ok {
		headers["Accept"] = "application/json"
	}
	return headers
}
