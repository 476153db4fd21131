package crawler

import (
	"context"

	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
	"github.com/Adda-Baaj/khobor-aggregator/pkg/publishers"
)

// ArticleEnricher fills in article fields from their web pages. It never
// fails; articles it cannot improve come back unchanged.
type ArticleEnricher interface {
	Enrich(ctx context.Context, articles []domain.Article) []domain.Article
}

// EventPublisher publishes collected articles downstream and reports how
// many publishers accepted the event.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers which articles were already published.
type Deduper interface {
	SeenArticle(id string) (bool, error)
	MarkArticle(id string) error
}
