package providers

import "github.com/Adda-Baaj/khobor-aggregator/internal/domain"

// SelectAll is the source selection that fans out to every provider.
const SelectAll = "All"

var categories = []string{"Technology", "World", "Business", "Politics", "Science", "Culture"}

// Sources lists the selectable sources: "All" followed by each provider's
// display name in aggregation order.
func Sources() []string {
	known := domain.KnownSources()
	out := make([]string, 0, len(known)+1)
	out = append(out, SelectAll)
	for _, s := range known {
		out = append(out, s.String())
	}
	return out
}

// Categories lists the categories offered to callers.
func Categories() []string {
	return append([]string(nil), categories...)
}
