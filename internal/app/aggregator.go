package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-aggregator/internal/api"
	"github.com/Adda-Baaj/khobor-aggregator/internal/catalog"
	"github.com/Adda-Baaj/khobor-aggregator/internal/config"
	"github.com/Adda-Baaj/khobor-aggregator/internal/crawler"
	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
	"github.com/Adda-Baaj/khobor-aggregator/internal/enrich"
	"github.com/Adda-Baaj/khobor-aggregator/internal/logger"
	"github.com/Adda-Baaj/khobor-aggregator/internal/stats"
	"github.com/Adda-Baaj/khobor-aggregator/internal/storage"
	"github.com/Adda-Baaj/khobor-aggregator/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-aggregator/pkg/providers"
	"github.com/Adda-Baaj/khobor-aggregator/pkg/publishers"
)

const (
	shutdownTimeout = 10 * time.Second
	scrapeRetryWait = 500 * time.Millisecond
)

// Aggregator represents the news aggregator runtime. It wires the provider
// adapters, the enrichment engine, storage and the optional publishers
// behind the crawler service.
type Aggregator struct {
	cfg     *config.Config
	service *crawler.Service
	catalog *catalog.Catalog
	fanout  *publishers.Fanout
	store   storage.Store
	log     logger.Logger
}

// NewAggregator builds an aggregator runtime from config files.
func NewAggregator(ctx context.Context, cfg *config.Config, log logger.Logger) (*Aggregator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	providerReg, err := providers.LoadRegistry(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers registry: %w", err)
	}
	enabled := providerReg.Enabled()
	if len(enabled) == 0 {
		return nil, fmt.Errorf("no providers enabled in %s", cfg.ProvidersFile)
	}
	providerIDs := make([]string, 0, len(enabled))
	for _, p := range enabled {
		providerIDs = append(providerIDs, p.ID)
	}
	log.InfoObj("providers registry loaded", "providers_meta", map[string]any{
		"count": len(providerIDs),
		"ids":   providerIDs,
	})

	// no retries: one GET per provider fetch
	apiClient := httpclient.New(httpclient.Options{
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
	})
	adapters, err := providers.BuildAll(providers.DefaultAdapterRegistry(), enabled, apiClient, log)
	if err != nil {
		return nil, fmt.Errorf("build provider adapters: %w", err)
	}

	store, err := storage.NewStore(cfg.StorageType, storage.Options{
		ArticleTTL:      cfg.StorageTTL,
		PatchTTL:        cfg.PatchTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
		Path:            cfg.BBoltPath,
		RedisAddr:       cfg.RedisAddr,
		RedisPassword:   cfg.RedisPassword,
		RedisDB:         cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"article_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"patch_ttl_seconds":        int(cfg.PatchTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	opts := crawler.Options{Deduper: store, Log: log}

	if cfg.Enrich {
		pageClient := httpclient.New(httpclient.Options{
			Timeout:   cfg.HTTPTimeout,
			UserAgent: cfg.UserAgent,
			Retries:   cfg.ScrapeRetries,
			RetryWait: scrapeRetryWait,
		})
		engine, err := newEngine(cfg, enabled, adapters, pageClient, store, log)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		opts.Enricher = engine
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if fanout != nil {
		opts.Publisher = fanout
	}

	return &Aggregator{
		cfg:     cfg,
		service: crawler.NewService(adapters, opts),
		catalog: catalog.New(),
		fanout:  fanout,
		store:   store,
		log:     log,
	}, nil
}

// newEngine configures enrichment with the per-provider scrape delays and
// headers from the registry.
func newEngine(cfg *config.Config, provs []providers.Provider, adapters []providers.Adapter, client httpclient.Client, cache enrich.PatchCache, log logger.Logger) (*enrich.Engine, error) {
	delays := make(map[domain.Source]time.Duration, len(adapters))
	headers := make(map[domain.Source]map[string]string, len(adapters))
	for i, a := range adapters {
		delays[a.Source()] = provs[i].RequestDelay()
		if h := providers.Headers(provs[i]); len(h) > 0 {
			headers[a.Source()] = h
		}
	}

	engine, err := enrich.NewEngine(enrich.DefaultTable(), enrich.Options{
		Client:    client,
		Workers:   cfg.ScrapeWorkers,
		UserAgent: cfg.UserAgent,
		Delays:    delays,
		Headers:   headers,
		Cache:     cache,
		Log:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("init enrichment engine: %w", err)
	}
	return engine, nil
}

// buildFanout returns nil when no publishers file is configured.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(cfg.PublishersFile) == "" {
		return nil, nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	if len(enabled) == 0 {
		log.WarnObj("no publishers enabled", "publishers_file", cfg.PublishersFile)
		return nil, nil
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// RunOnce collects the configured category and source, loads the catalog,
// writes previews and a summary to w, then publishes fresh articles.
func (a *Aggregator) RunOnce(ctx context.Context, w io.Writer) error {
	if a == nil || a.service == nil {
		return fmt.Errorf("aggregator is not initialized")
	}

	start := time.Now()
	batch, err := a.service.Collect(ctx, a.query(), a.cfg.Source)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	a.catalog.Replace(batch.Articles)
	loaded := a.catalog.All()

	writeReport(w, batch, loaded)

	if a.fanout != nil {
		delivered, err := a.service.Publish(ctx, batch)
		if err != nil {
			a.log.ErrorObj("publish failed", "error", err)
		}
		fmt.Fprintf(w, "\nPublished %d article(s) to %d publisher(s)\n", delivered, a.fanout.Size())
	}

	a.log.InfoObj("run completed", "run_meta", map[string]any{
		"category":   batch.Category,
		"selection":  batch.Selection,
		"articles":   len(loaded),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func writeReport(w io.Writer, batch *crawler.Batch, articles []domain.Article) {
	fmt.Fprintf(w, "%s news from %s: %d article(s)\n", batch.Category, batch.Selection, len(articles))
	for _, f := range batch.Failures {
		fmt.Fprintf(w, "! %s unavailable: %v\n", f.Source, f.Err)
	}
	for _, art := range articles {
		fmt.Fprintf(w, "\n%s\n%s\n", art.Preview(api.PreviewLength), art.URL)
	}

	summary := stats.Summarize(articles)
	fmt.Fprintln(w, "\nArticles per source:")
	for _, sc := range summary.Sources {
		fmt.Fprintf(w, "  %-16s %d\n", sc.Source, sc.Count)
	}
	if len(summary.Months) > 0 {
		fmt.Fprintln(w, "Articles per month:")
		for _, mc := range summary.Months {
			fmt.Fprintf(w, "  %d %-10s %d\n", mc.Year, mc.Month, mc.Count)
		}
	}
	if len(summary.Terms) > 0 {
		terms := make([]string, 0, 10)
		for i, tc := range summary.Terms {
			if i == 10 {
				break
			}
			terms = append(terms, fmt.Sprintf("%s(%d)", tc.Term, tc.Count))
		}
		fmt.Fprintf(w, "Top terms: %s\n", strings.Join(terms, " "))
	}
}

// Serve runs the HTTP API until ctx is cancelled. With a refresh interval
// configured it also re-collects and publishes on a ticker.
func (a *Aggregator) Serve(ctx context.Context) error {
	if a == nil || a.service == nil {
		return fmt.Errorf("aggregator is not initialized")
	}

	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           api.NewRouter(api.NewServer(a.service, a.catalog, api.Defaults{Category: a.cfg.Category, Limit: a.cfg.Limit}, a.log)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.InfoObj("api server listening", "listen_addr", a.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if a.cfg.RefreshInterval > 0 {
		go a.refreshLoop(ctx)
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.InfoObj("api server shutting down", "reason", ctx.Err())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api server: %w", err)
	}
	return nil
}

func (a *Aggregator) refreshLoop(ctx context.Context) {
	a.refresh(ctx)

	ticker := time.NewTicker(a.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.refresh(ctx)
		}
	}
}

func (a *Aggregator) query() providers.Query {
	return providers.Query{Category: a.cfg.Category, PageSize: a.cfg.Limit}
}

func (a *Aggregator) refresh(ctx context.Context) {
	batch, err := a.service.Collect(ctx, a.query(), a.cfg.Source)
	if err != nil {
		a.log.ErrorObj("scheduled collection failed", "error", err)
		return
	}
	a.catalog.Replace(batch.Articles)
	if a.fanout == nil {
		return
	}
	if _, err := a.service.Publish(ctx, batch); err != nil {
		a.log.ErrorObj("scheduled publish failed", "error", err)
	}
}

// Catalog returns the articles currently loaded.
func (a *Aggregator) Catalog() *catalog.Catalog { return a.catalog }

// Close releases publishers and the storage backend.
func (a *Aggregator) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if err := a.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
