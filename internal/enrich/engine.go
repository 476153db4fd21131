package enrich

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-aggregator/internal/apperr"
	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
	"github.com/Adda-Baaj/khobor-aggregator/internal/logger"
	"github.com/Adda-Baaj/khobor-aggregator/pkg/httpclient"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
	defaultWorkers   = 4
)

// ErrNoRoutine is reported for articles whose source has no scraping routine.
var ErrNoRoutine = errors.New("no enrichment routine for source")

// PatchCache stores recovered patches by article URL. storage.Store satisfies it.
type PatchCache interface {
	LoadPatch(url string) (domain.Patch, bool, error)
	SavePatch(url string, p domain.Patch) error
}

// Options tunes an Engine. Zero values fall back to defaults.
type Options struct {
	Client    httpclient.Client
	Workers   int
	UserAgent string
	// Delays is the minimum gap between two page requests to the same source,
	// shared by all workers.
	Delays map[domain.Source]time.Duration
	// Headers are extra request headers per source.
	Headers map[domain.Source]map[string]string
	Cache   PatchCache
	Log     logger.Logger
}

// Engine backfills article fields by scraping each article's own page.
type Engine struct {
	table     Table
	client    httpclient.Client
	workers   int
	userAgent string
	limiters  map[domain.Source]*rate.Limiter
	headers   map[domain.Source]map[string]string
	cache     PatchCache
	log       logger.Logger
}

// NewEngine builds an engine over table, which must cover every known source.
func NewEngine(table Table, opts Options) (*Engine, error) {
	for _, src := range domain.KnownSources() {
		if table[src] == nil {
			return nil, fmt.Errorf("enrichment table has no routine for %s", src)
		}
	}
	if opts.Client == nil {
		opts.Client = httpclient.NewRestyClient(15*time.Second, opts.UserAgent)
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}

	return &Engine{
		table:     table,
		client:    opts.Client,
		workers:   opts.Workers,
		userAgent: strings.TrimSpace(opts.UserAgent),
		limiters:  newLimiters(opts.Delays),
		headers:   opts.Headers,
		cache:     opts.Cache,
		log:       logger.Ensure(opts.Log),
	}, nil
}

// newLimiters builds one single-token limiter per source with a positive
// delay, so the first request goes out at once and later ones queue.
func newLimiters(delays map[domain.Source]time.Duration) map[domain.Source]*rate.Limiter {
	limiters := make(map[domain.Source]*rate.Limiter, len(delays))
	for src, d := range delays {
		if d > 0 {
			limiters[src] = rate.NewLimiter(rate.Every(d), 1)
		}
	}
	return limiters
}

// Enrich returns a copy of articles with each one merged with its scraped
// patch. The result has the same length and order as the input. Failures
// are logged and leave that article as it was; Enrich itself never fails.
// Once ctx is cancelled the remaining articles are returned untouched.
func (e *Engine) Enrich(ctx context.Context, articles []domain.Article) []domain.Article {
	out := append([]domain.Article(nil), articles...)
	if len(out) == 0 {
		return out
	}

	var g errgroup.Group
	g.SetLimit(e.workers)

	for i := range out {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			// each task owns out[i] exclusively
			enriched, err := e.EnrichOne(ctx, out[i])
			if err != nil {
				e.logFailure(err)
				return nil
			}
			out[i] = enriched
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// EnrichOne scrapes a single article. On error the input article is
// returned unchanged alongside an *apperr.EnrichmentError.
func (e *Engine) EnrichOne(ctx context.Context, a domain.Article) (domain.Article, error) {
	fail := func(err error) (domain.Article, error) {
		return a, &apperr.EnrichmentError{Source: a.Source.String(), URL: a.URL, Err: err}
	}

	routine := e.table[a.Source]
	if routine == nil {
		return fail(ErrNoRoutine)
	}
	if strings.TrimSpace(a.URL) == "" {
		return fail(errors.New("article has no url"))
	}

	if e.cache != nil {
		p, ok, err := e.cache.LoadPatch(a.URL)
		if err != nil {
			e.log.WarnObj("patch cache lookup failed", "cache_error", map[string]any{
				"url":   a.URL,
				"error": err.Error(),
			})
		} else if ok {
			return domain.Merge(a, p), nil
		}
	}

	if err := e.wait(ctx, a.Source); err != nil {
		return fail(err)
	}
	page, err := e.fetch(ctx, a)
	if err != nil {
		return fail(err)
	}

	patch, err := routine(page)
	if err != nil {
		return fail(fmt.Errorf("extract: %w", err))
	}

	if e.cache != nil && !patch.Empty() {
		if err := e.cache.SavePatch(a.URL, patch); err != nil {
			e.log.WarnObj("patch cache store failed", "cache_error", map[string]any{
				"url":   a.URL,
				"error": err.Error(),
			})
		}
	}

	return domain.Merge(a, patch), nil
}

func (e *Engine) fetch(ctx context.Context, a domain.Article) (Page, error) {
	pageURL, err := url.Parse(a.URL)
	if err != nil {
		return Page{}, fmt.Errorf("parse url: %w", err)
	}

	resp, err := e.client.Get(ctx, a.URL, e.requestHeaders(a.Source))
	if err != nil {
		return Page{}, fmt.Errorf("http fetch: %w", err)
	}

	body := resp.Body()
	if !httpclient.IsSuccess(resp) {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return Page{}, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	return Page{URL: pageURL, Body: body, Doc: doc}, nil
}

func (e *Engine) requestHeaders(src domain.Source) map[string]string {
	headers := make(map[string]string, 2)
	if e.userAgent != "" {
		headers["User-Agent"] = e.userAgent
	}
	for k, v := range e.headers[src] {
		headers[k] = v
	}
	return headers
}

// wait blocks until the source's limiter allows another page request.
func (e *Engine) wait(ctx context.Context, src domain.Source) error {
	lim := e.limiters[src]
	if lim == nil {
		return nil
	}
	if err := lim.Wait(ctx); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	return nil
}

func (e *Engine) logFailure(err error) {
	var enrichErr *apperr.EnrichmentError
	if !errors.As(err, &enrichErr) {
		e.log.WarnObj("article enrichment failed", "enrich_error", map[string]any{"error": err.Error()})
		return
	}

	fields := map[string]any{
		"source": enrichErr.Source,
		"url":    enrichErr.URL,
		"error":  enrichErr.Err.Error(),
	}
	if errors.Is(err, ErrNoRoutine) {
		e.log.InfoObj("article skipped", "enrich_skip", fields)
		return
	}
	e.log.WarnObj("article enrichment failed", "enrich_error", fields)
}
