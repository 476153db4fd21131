// Package api exposes the aggregator over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-aggregator/internal/apperr"
	"github.com/Adda-Baaj/khobor-aggregator/internal/catalog"
	"github.com/Adda-Baaj/khobor-aggregator/internal/crawler"
	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
	"github.com/Adda-Baaj/khobor-aggregator/internal/logger"
	"github.com/Adda-Baaj/khobor-aggregator/internal/stats"
	"github.com/Adda-Baaj/khobor-aggregator/pkg/providers"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	// PreviewLength is the summary length, in runes, of list previews.
	PreviewLength = 200
	// MaxLimit caps the per-provider article count a request may ask for.
	MaxLimit = 50
)

// Collector runs one collection for a query and source selection.
type Collector interface {
	Collect(ctx context.Context, q providers.Query, selection string) (*crawler.Batch, error)
}

// Defaults fill in what a /news request leaves out. A zero Limit defers to
// each provider's configured page size.
type Defaults struct {
	Category string
	Limit    int
}

// Server serves the news endpoints over a shared catalog.
type Server struct {
	collector Collector
	catalog   *catalog.Catalog
	defaults  Defaults
	log       logger.Logger
}

// NewServer builds the handlers.
func NewServer(collector Collector, cat *catalog.Catalog, defaults Defaults, log logger.Logger) *Server {
	if cat == nil {
		cat = catalog.New()
	}
	return &Server{
		collector: collector,
		catalog:   cat,
		defaults:  defaults,
		log:       logger.Ensure(log),
	}
}

// NewRouter constructs a gin engine with CORS and the /api/v1 routes.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(config))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/news", s.listNews)
		v1.GET("/news/detail", s.newsDetail)
		v1.GET("/stats", s.summary)
		v1.GET("/sources", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"sources": providers.Sources()})
		})
		v1.GET("/categories", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"categories": providers.Categories()})
		})
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC()})
		})
	}
	return r
}

type articlePreview struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	Date    string `json:"date,omitempty"`
	URL     string `json:"url"`
	Image   string `json:"feature_image_url,omitempty"`
	Preview string `json:"preview"`
}

type providerFailure struct {
	ProviderID string `json:"provider_id"`
	Source     string `json:"source"`
	Error      string `json:"error"`
}

type newsResponse struct {
	Category    string            `json:"category"`
	Selection   string            `json:"selection"`
	CollectedAt time.Time         `json:"collected_at"`
	Count       int               `json:"count"`
	Articles    []articlePreview  `json:"articles"`
	Failures    []providerFailure `json:"failures,omitempty"`
}

func (s *Server) listNews(c *gin.Context) {
	q := providers.Query{
		Category: strings.TrimSpace(c.Query("category")),
		PageSize: s.defaults.Limit,
	}
	if q.Category == "" {
		q.Category = s.defaults.Category
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and " + strconv.Itoa(MaxLimit)})
			return
		}
		q.PageSize = n
	}
	selection := c.DefaultQuery("source", providers.SelectAll)

	batch, err := s.collector.Collect(c.Request.Context(), q, selection)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.catalog.Replace(batch.Articles)

	loaded := s.catalog.All()
	resp := newsResponse{
		Category:    batch.Category,
		Selection:   batch.Selection,
		CollectedAt: batch.CollectedAt,
		Count:       len(loaded),
		Articles:    make([]articlePreview, 0, len(loaded)),
	}
	for _, a := range loaded {
		resp.Articles = append(resp.Articles, previewOf(a))
	}
	for _, f := range batch.Failures {
		resp.Failures = append(resp.Failures, providerFailure{
			ProviderID: f.ProviderID,
			Source:     f.Source.String(),
			Error:      f.Err.Error(),
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) newsDetail(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id query parameter is required"})
		return
	}
	a, err := s.catalog.Lookup(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"article":   a,
		"full_view": a.FullView(),
	})
}

func (s *Server) summary(c *gin.Context) {
	c.JSON(http.StatusOK, stats.Summarize(s.catalog.All()))
}

func previewOf(a domain.Article) articlePreview {
	return articlePreview{
		ID:      a.ID(),
		Title:   a.Title,
		Source:  a.Source.String(),
		Date:    a.Date,
		URL:     a.URL,
		Image:   a.FeatureImageURL,
		Preview: a.Preview(PreviewLength),
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.ErrorObj("api request failed", "api_error", map[string]any{
			"path":   c.Request.URL.Path,
			"status": status,
			"error":  err.Error(),
		})
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor maps aggregator errors onto HTTP status codes.
func StatusFor(err error) int {
	var (
		fetchErr  *apperr.HTTPFetchError
		shapeErr  *apperr.ResponseShapeError
		lookupErr *apperr.LookupError
	)
	switch {
	case errors.Is(err, apperr.ErrUnknownSource):
		return http.StatusBadRequest
	case errors.As(err, &lookupErr):
		return http.StatusNotFound
	case errors.As(err, &fetchErr), errors.As(err, &shapeErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
