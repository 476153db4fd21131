package providers

import (
	"context"

	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
	"github.com/Adda-Baaj/khobor-aggregator/pkg/httpclient"
)

// Query is what the caller asks a provider for.
type Query struct {
	Category string
	PageSize int
}

// Adapter fetches one page of articles from a single provider and maps them
// into domain articles. Concrete implementations live in provider-specific
// files (e.g., guardian.go).
type Adapter interface {
	ID() string
	Source() domain.Source
	FetchArticles(ctx context.Context, q Query) ([]domain.Article, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within providers.
type HTTPClient = httpclient.Client
