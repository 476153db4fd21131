package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-aggregator/internal/apperr"
	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
	"github.com/Adda-Baaj/khobor-aggregator/internal/logger"
	"github.com/Adda-Baaj/khobor-aggregator/pkg/providers"
	"github.com/Adda-Baaj/khobor-aggregator/pkg/publishers"
	"golang.org/x/sync/errgroup"
)

// ProviderFailure records one provider that could not be fetched during a
// multi-provider collection.
type ProviderFailure struct {
	ProviderID string
	Source     domain.Source
	Err        error
}

// Batch is the result of one collection.
type Batch struct {
	Articles    []domain.Article
	Failures    []ProviderFailure
	Category    string
	Selection   string
	CollectedAt time.Time
}

// Options wires the optional collaborators of a Service.
type Options struct {
	Enricher  ArticleEnricher
	Publisher EventPublisher
	Deduper   Deduper
	Log       logger.Logger
}

// Service coordinates fetching across provider adapters, enrichment and
// the optional publish step.
type Service struct {
	adapters  []providers.Adapter
	enricher  ArticleEnricher
	publisher EventPublisher
	deduper   Deduper
	log       logger.Logger
	now       func() time.Time
}

// NewService wires a facade over adapters, kept in the given order.
func NewService(adapters []providers.Adapter, opts Options) *Service {
	cp := make([]providers.Adapter, 0, len(adapters))
	for _, a := range adapters {
		if a != nil {
			cp = append(cp, a)
		}
	}
	return &Service{
		adapters:  cp,
		enricher:  opts.Enricher,
		publisher: opts.Publisher,
		deduper:   opts.Deduper,
		log:       logger.Ensure(opts.Log),
		now:       time.Now,
	}
}

// Collect fetches articles for q from the selected providers and enriches
// them once. q.PageSize bounds each provider's result; zero leaves it to the
// provider config. Selection "All" (or empty) queries every adapter
// concurrently and tolerates partial failure; any other selection must
// name one provider by display name or id.
func (s *Service) Collect(ctx context.Context, q providers.Query, selection string) (*Batch, error) {
	if s == nil || len(s.adapters) == 0 {
		return nil, fmt.Errorf("crawler service has no provider adapters")
	}

	selection = strings.TrimSpace(selection)
	batch := &Batch{
		Category:    q.Category,
		Selection:   selection,
		CollectedAt: s.now().UTC(),
	}

	if selection == "" || strings.EqualFold(selection, providers.SelectAll) {
		batch.Selection = providers.SelectAll
		articles, failures, err := s.collectAll(ctx, q)
		if err != nil {
			return nil, err
		}
		batch.Articles = articles
		batch.Failures = failures
	} else {
		adapter, ok := s.adapterFor(selection)
		if !ok {
			return nil, fmt.Errorf("%w: %q", apperr.ErrUnknownSource, selection)
		}
		articles, err := adapter.FetchArticles(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("fetch provider %s: %w", adapter.ID(), err)
		}
		batch.Articles = articles
	}

	if s.enricher != nil && len(batch.Articles) > 0 {
		batch.Articles = s.enricher.Enrich(ctx, batch.Articles)
	}

	s.log.InfoObj("collection completed", "collect_result", map[string]any{
		"category":           q.Category,
		"page_size":          q.PageSize,
		"selection":          batch.Selection,
		"articles_collected": len(batch.Articles),
		"failed_providers":   len(batch.Failures),
	})
	return batch, nil
}

// collectAll fans out to every adapter. Each goroutine owns one result slot
// so the concatenation keeps registry order.
func (s *Service) collectAll(ctx context.Context, q providers.Query) ([]domain.Article, []ProviderFailure, error) {
	results := make([][]domain.Article, len(s.adapters))
	errs := make([]error, len(s.adapters))

	var g errgroup.Group
	for i, adapter := range s.adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			articles, err := adapter.FetchArticles(ctx, q)
			if err != nil {
				errs[i] = fmt.Errorf("fetch provider %s: %w", adapter.ID(), err)
				return nil
			}
			results[i] = articles
			return nil
		})
	}
	_ = g.Wait()

	var (
		articles []domain.Article
		failures []ProviderFailure
	)
	for i, adapter := range s.adapters {
		if errs[i] != nil {
			failures = append(failures, ProviderFailure{
				ProviderID: adapter.ID(),
				Source:     adapter.Source(),
				Err:        errs[i],
			})
			s.log.ErrorObj("provider fetch failed", "provider_error", map[string]any{
				"provider_id": adapter.ID(),
				"error":       errs[i].Error(),
			})
			continue
		}
		articles = append(articles, results[i]...)
	}

	if len(failures) == len(s.adapters) {
		return nil, failures, errors.Join(errs...)
	}
	return articles, failures, nil
}

func (s *Service) adapterFor(selection string) (providers.Adapter, bool) {
	for _, a := range s.adapters {
		if strings.EqualFold(a.ID(), selection) || strings.EqualFold(a.Source().String(), selection) {
			return a, true
		}
	}
	return nil, false
}

func (s *Service) providerID(src domain.Source) string {
	for _, a := range s.adapters {
		if a.Source() == src {
			return a.ID()
		}
	}
	return src.String()
}

// Publish sends every article of batch not yet marked as published to the
// configured publishers. An article is marked once at least one publisher
// accepted it. It returns the number of articles delivered.
func (s *Service) Publish(ctx context.Context, batch *Batch) (int, error) {
	if s == nil || s.publisher == nil || batch == nil {
		return 0, nil
	}

	var (
		errs      []error
		delivered int
	)
	for _, article := range s.freshArticles(batch.Articles) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		evt := publishers.NewEvent(s.providerID(article.Source), batch.Category, article, batch.CollectedAt)
		count, err := s.publisher.Publish(ctx, evt)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish article %s: %w", article.URL, err))
		}
		if count == 0 {
			continue
		}
		delivered++

		if s.deduper == nil {
			continue
		}
		if err := s.deduper.MarkArticle(article.ID()); err != nil {
			s.log.WarnObj("mark article failed", "dedupe_mark_error", map[string]any{
				"article_url": article.URL,
				"error":       err.Error(),
			})
		}
	}

	s.log.InfoObj("batch published", "publish_result", map[string]any{
		"category":  batch.Category,
		"delivered": delivered,
		"failures":  len(errs),
	})
	return delivered, errors.Join(errs...)
}

// freshArticles drops articles without a URL and those already published.
// Articles whose lookup fails are kept.
func (s *Service) freshArticles(articles []domain.Article) []domain.Article {
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if a.URL == "" {
			continue
		}
		if s.deduper == nil {
			out = append(out, a)
			continue
		}
		seen, err := s.deduper.SeenArticle(a.ID())
		if err != nil {
			s.log.WarnObj("dedupe lookup failed", "dedupe_lookup_error", map[string]any{
				"article_url": a.URL,
				"error":       err.Error(),
			})
			out = append(out, a)
			continue
		}
		if !seen {
			out = append(out, a)
		}
	}
	return out
}
