package domain

import (
	"fmt"
	"strings"
)

// Source identifies the provider that produced an article. It is also the
// key used to pick an enrichment routine.
type Source int

const (
	SourceUnknown Source = iota
	SourceGuardian
	SourceTimes
	SourceBroadcast
	SourceAggregator
)

var sourceNames = map[Source]string{
	SourceGuardian:   "The Guardian",
	SourceTimes:      "New York Times",
	SourceBroadcast:  "BBC News",
	SourceAggregator: "GNews",
}

// KnownSources returns every provider in aggregation order.
func KnownSources() []Source {
	return []Source{SourceGuardian, SourceTimes, SourceBroadcast, SourceAggregator}
}

// String returns the provider display name.
func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Known reports whether s is one of the supported providers.
func (s Source) Known() bool {
	_, ok := sourceNames[s]
	return ok
}

// ParseSource resolves a display name, ignoring case and surrounding space.
func ParseSource(name string) (Source, bool) {
	name = strings.TrimSpace(name)
	for _, s := range KnownSources() {
		if strings.EqualFold(sourceNames[s], name) {
			return s, true
		}
	}
	return SourceUnknown, false
}

func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Source) UnmarshalText(b []byte) error {
	parsed, ok := ParseSource(string(b))
	if !ok {
		return fmt.Errorf("unknown source %q", string(b))
	}
	*s = parsed
	return nil
}
