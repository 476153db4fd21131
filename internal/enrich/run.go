package enrich

import (
	"context"

	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
)

// Run holds one list through a single enrichment pass: build it over the
// fetched articles, call Enrich, then read Articles.
type Run struct {
	engine   *Engine
	articles []domain.Article
	done     bool
}

// NewRun prepares a pass over articles. The slice is copied.
func NewRun(engine *Engine, articles []domain.Article) *Run {
	return &Run{engine: engine, articles: append([]domain.Article(nil), articles...)}
}

// Enrich runs the pass once; later calls are no-ops.
func (r *Run) Enrich(ctx context.Context) {
	if r.done || r.engine == nil {
		return
	}
	r.articles = r.engine.Enrich(ctx, r.articles)
	r.done = true
}

// Articles returns the current list, enriched or not.
func (r *Run) Articles() []domain.Article {
	return append([]domain.Article(nil), r.articles...)
}
