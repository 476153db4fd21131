package providers

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
	"github.com/Adda-Baaj/khobor-aggregator/internal/logger"
)

const gnewsArticlesPath = "articles"

// gnewsCategories maps free-text categories onto the top-headlines enum.
var gnewsCategories = map[string]string{
	"general":       "general",
	"world":         "world",
	"nation":        "nation",
	"politics":      "nation",
	"business":      "business",
	"technology":    "technology",
	"entertainment": "entertainment",
	"culture":       "entertainment",
	"sports":        "sports",
	"science":       "science",
	"health":        "health",
}

type gnewsAdapter struct {
	baseAdapter
}

type gnewsItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"source"`
}

// NewGNewsAdapter builds the adapter for a gnews-type provider.
func NewGNewsAdapter(cfg Provider, client HTTPClient, log logger.Logger) (Adapter, error) {
	base, err := newBaseAdapter(cfg, client, log)
	if err != nil {
		return nil, err
	}
	return &gnewsAdapter{baseAdapter: base}, nil
}

func (g *gnewsAdapter) Source() domain.Source { return domain.SourceAggregator }

// GNewsCategory returns the top-headlines category for a free-text category.
func GNewsCategory(category string) string {
	if c, ok := gnewsCategories[strings.ToLower(strings.TrimSpace(category))]; ok {
		return c
	}
	return "general"
}

func (g *gnewsAdapter) FetchArticles(ctx context.Context, q Query) ([]domain.Article, error) {
	params := url.Values{}
	params.Set("category", GNewsCategory(q.Category))
	params.Set("apikey", g.cfg.APIKey)
	params.Set("lang", ConfigString(g.cfg, ConfigLanguageKey, "en"))
	params.Set("max", strconv.Itoa(g.pageSize(q)))

	root, err := g.getJSON(ctx, g.endpoint("top-headlines"), params)
	if err != nil {
		return nil, err
	}

	raw, err := items(g.cfg.ID, root, gnewsArticlesPath)
	if err != nil {
		return nil, err
	}

	// Best-effort, same as the broadcast adapter.
	articles := make([]domain.Article, 0, len(raw))
	for i, r := range raw {
		var item gnewsItem
		if err := json.Unmarshal(r, &item); err != nil {
			g.log.WarnObj("skipping undecodable item", "item", map[string]any{
				"provider": g.cfg.ID,
				"path":     itemPath(gnewsArticlesPath, i),
				"error":    err.Error(),
			})
			continue
		}
		if strings.TrimSpace(item.URL) == "" {
			g.log.WarnObj("skipping item without url", "item", map[string]any{
				"provider": g.cfg.ID,
				"path":     itemPath(gnewsArticlesPath, i),
			})
			continue
		}
		articles = append(articles, item.article())
	}
	return articles, nil
}

func (it gnewsItem) article() domain.Article {
	desc := strings.TrimSpace(it.Description)
	return domain.Article{
		Title:           strings.TrimSpace(it.Title),
		FeatureImageURL: strings.TrimSpace(it.Image),
		Content:         strings.TrimSpace(it.Content),
		Summary:         desc,
		Source:          domain.SourceAggregator,
		Date:            it.PublishedAt,
		URL:             strings.TrimSpace(it.URL),
		Ext: domain.AggregatorExt{
			Description:   desc,
			PublisherName: strings.TrimSpace(it.Source.Name),
			PublisherURL:  strings.TrimSpace(it.Source.URL),
		},
	}
}
