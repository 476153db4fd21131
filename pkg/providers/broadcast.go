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

const broadcastArticlesPath = "articles"

// broadcastAdapter reads a headline-list API filtered to BBC articles.
// description is the authoritative summary; snippet is kept as content.
type broadcastAdapter struct {
	baseAdapter
}

type broadcastItem struct {
	UUID        string `json:"uuid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Snippet     string `json:"snippet"`
	URL         string `json:"url"`
	ImageURL    string `json:"image_url"`
	PublishedAt string `json:"published_at"`
	Source      string `json:"source"`
}

// NewBroadcastAdapter builds the adapter for a broadcast-type provider.
func NewBroadcastAdapter(cfg Provider, client HTTPClient, log logger.Logger) (Adapter, error) {
	base, err := newBaseAdapter(cfg, client, log)
	if err != nil {
		return nil, err
	}
	return &broadcastAdapter{baseAdapter: base}, nil
}

func (b *broadcastAdapter) Source() domain.Source { return domain.SourceBroadcast }

func (b *broadcastAdapter) FetchArticles(ctx context.Context, q Query) ([]domain.Article, error) {
	params := url.Values{}
	params.Set("api_token", b.cfg.APIKey)
	params.Set("limit", strconv.Itoa(b.pageSize(q)))
	params.Set("language", ConfigString(b.cfg, ConfigLanguageKey, "en"))
	if query := strings.ToLower(strings.TrimSpace(q.Category)); query != "" {
		params.Set("q", query)
	}

	root, err := b.getJSON(ctx, b.endpoint(""), params)
	if err != nil {
		return nil, err
	}

	raw, err := items(b.cfg.ID, root, broadcastArticlesPath)
	if err != nil {
		return nil, err
	}

	// Best-effort: undecodable items and items without a url are skipped.
	articles := make([]domain.Article, 0, len(raw))
	for i, r := range raw {
		var item broadcastItem
		if err := json.Unmarshal(r, &item); err != nil {
			b.log.WarnObj("skipping undecodable item", "item", map[string]any{
				"provider": b.cfg.ID,
				"path":     itemPath(broadcastArticlesPath, i),
				"error":    err.Error(),
			})
			continue
		}
		if strings.TrimSpace(item.URL) == "" {
			b.log.WarnObj("skipping item without url", "item", map[string]any{
				"provider": b.cfg.ID,
				"path":     itemPath(broadcastArticlesPath, i),
			})
			continue
		}
		articles = append(articles, item.article())
	}
	return articles, nil
}

func (it broadcastItem) article() domain.Article {
	return domain.Article{
		Title:           strings.TrimSpace(it.Title),
		FeatureImageURL: strings.TrimSpace(it.ImageURL),
		Content:         strings.TrimSpace(it.Snippet),
		Summary:         strings.TrimSpace(it.Description),
		Source:          domain.SourceBroadcast,
		Date:            it.PublishedAt,
		URL:             strings.TrimSpace(it.URL),
		Ext: domain.BroadcastExt{
			UUID:        it.UUID,
			ImageURL:    strings.TrimSpace(it.ImageURL),
			Description: strings.TrimSpace(it.Description),
		},
	}
}
