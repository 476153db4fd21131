package providers

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/Adda-Baaj/khobor-aggregator/internal/apperr"
	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
	"github.com/Adda-Baaj/khobor-aggregator/internal/logger"
)

const (
	timesDocsPath  = "response.docs"
	timesSiteURL   = "https://www.nytimes.com/"
	timesArticleFQ = `type:("Article")`
)

// timesAdapter reads the article search endpoint. The endpoint never returns
// body text, so Content stays empty until enrichment.
//
// Item policy: strict, like the Guardian adapter.
type timesAdapter struct {
	baseAdapter
}

type timesDoc struct {
	ID             string           `json:"_id"`
	URI            string           `json:"uri"`
	Abstract       string           `json:"abstract"`
	Snippet        string           `json:"snippet"`
	WebURL         string           `json:"web_url"`
	PubDate        string           `json:"pub_date"`
	DocumentType   string           `json:"document_type"`
	NewsDesk       string           `json:"news_desk"`
	SectionName    string           `json:"section_name"`
	SubsectionName string           `json:"subsection_name"`
	TypeOfMaterial string           `json:"type_of_material"`
	PrintPage      flexString       `json:"print_page"`
	PrintSection   flexString       `json:"print_section"`
	WordCount      int              `json:"word_count"`
	Byline         map[string]any   `json:"byline"`
	Headline       map[string]any   `json:"headline"`
	Keywords       []domain.Keyword `json:"keywords"`
	Multimedia     json.RawMessage  `json:"multimedia"`
}

// NewTimesAdapter builds the adapter for an nytimes-type provider.
func NewTimesAdapter(cfg Provider, client HTTPClient, log logger.Logger) (Adapter, error) {
	base, err := newBaseAdapter(cfg, client, log)
	if err != nil {
		return nil, err
	}
	return &timesAdapter{baseAdapter: base}, nil
}

func (t *timesAdapter) Source() domain.Source { return domain.SourceTimes }

func (t *timesAdapter) FetchArticles(ctx context.Context, q Query) ([]domain.Article, error) {
	params := url.Values{}
	params.Set("api-key", t.cfg.APIKey)
	params.Set("sort", "newest")
	params.Set("fq", timesArticleFQ)
	params.Set("page", "0")
	if query := strings.ToLower(strings.TrimSpace(q.Category)); query != "" {
		params.Set("q", query)
	}
	if v := ConfigString(t.cfg, ConfigBeginDateKey, ""); v != "" {
		params.Set("begin_date", v)
	}
	if v := ConfigString(t.cfg, ConfigEndDateKey, ""); v != "" {
		params.Set("end_date", v)
	}

	root, err := t.getJSON(ctx, t.endpoint(""), params)
	if err != nil {
		return nil, err
	}

	raw, err := items(t.cfg.ID, root, "response", "docs")
	if err != nil {
		return nil, err
	}
	// article search has a fixed page of 10 and no size parameter
	if n := t.pageSize(q); len(raw) > n {
		raw = raw[:n]
	}

	articles := make([]domain.Article, 0, len(raw))
	for i, r := range raw {
		var doc timesDoc
		if err := json.Unmarshal(r, &doc); err != nil {
			return nil, apperr.NewShapeWrap(t.cfg.ID, itemPath(timesDocsPath, i), err)
		}
		articles = append(articles, doc.article())
	}
	return articles, nil
}

func (d timesDoc) article() domain.Article {
	multimedia, image := timesMultimedia(d.Multimedia)
	return domain.Article{
		Title:           firstNonEmpty(fieldString(d.Headline, "print_headline"), fieldString(d.Headline, "main")),
		FeatureImageURL: image,
		Summary:         firstNonEmpty(d.Abstract, d.Snippet),
		Author:          fieldString(d.Byline, "original"),
		Source:          domain.SourceTimes,
		Date:            d.PubDate,
		URL:             strings.TrimSpace(d.WebURL),
		Ext: domain.TimesExt{
			ID:             d.ID,
			URI:            d.URI,
			Abstract:       d.Abstract,
			Byline:         d.Byline,
			DocumentType:   d.DocumentType,
			Headline:       d.Headline,
			Main:           fieldString(d.Headline, "main"),
			Kicker:         fieldString(d.Headline, "kicker"),
			Keywords:       d.Keywords,
			Multimedia:     multimedia,
			NewsDesk:       d.NewsDesk,
			PrintPage:      string(d.PrintPage),
			PrintSection:   string(d.PrintSection),
			SectionName:    d.SectionName,
			Snippet:        d.Snippet,
			SubsectionName: d.SubsectionName,
			TypeOfMaterial: d.TypeOfMaterial,
			WordCount:      d.WordCount,
		},
	}
}

// timesMultimedia accepts both the current object form ({"default": {"url": ...}})
// and the legacy list form ([{"url": "images/..."}]) and returns the map kept
// on the extension plus the image url.
func timesMultimedia(raw json.RawMessage) (map[string]any, string) {
	if isNull(raw) {
		return nil, ""
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		if def, ok := obj["default"].(map[string]any); ok {
			return obj, absoluteTimesURL(fieldString(def, "url"))
		}
		return obj, ""
	}

	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return map[string]any{"items": list}, absoluteTimesURL(fieldString(list[0], "url"))
	}
	return nil, ""
}

func absoluteTimesURL(u string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return timesSiteURL + strings.TrimLeft(u, "/")
}
