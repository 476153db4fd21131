package providers

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/Adda-Baaj/khobor-aggregator/internal/apperr"
	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
	"github.com/Adda-Baaj/khobor-aggregator/internal/logger"
)

const guardianResultsPath = "response.results"

// guardianAdapter reads the Guardian content API search endpoint.
//
// Item policy: strict. One undecodable result fails the whole fetch with a
// ResponseShapeError naming its index.
type guardianAdapter struct {
	baseAdapter
}

type guardianItem struct {
	ID                 string         `json:"id"`
	Type               string         `json:"type"`
	SectionID          string         `json:"sectionId"`
	SectionName        string         `json:"sectionName"`
	WebPublicationDate string         `json:"webPublicationDate"`
	WebTitle           string         `json:"webTitle"`
	WebURL             string         `json:"webUrl"`
	APIURL             string         `json:"apiUrl"`
	IsHosted           bool           `json:"isHosted"`
	PillarID           string         `json:"pillarId"`
	PillarName         string         `json:"pillarName"`
	Fields             map[string]any `json:"fields"`
}

// NewGuardianAdapter builds the adapter for a guardian-type provider.
func NewGuardianAdapter(cfg Provider, client HTTPClient, log logger.Logger) (Adapter, error) {
	base, err := newBaseAdapter(cfg, client, log)
	if err != nil {
		return nil, err
	}
	return &guardianAdapter{baseAdapter: base}, nil
}

func (g *guardianAdapter) Source() domain.Source { return domain.SourceGuardian }

func (g *guardianAdapter) FetchArticles(ctx context.Context, q Query) ([]domain.Article, error) {
	params := url.Values{}
	params.Set("api-key", g.cfg.APIKey)
	params.Set("page-size", strconv.Itoa(g.pageSize(q)))
	params.Set("show-fields", "all")
	if section := strings.ToLower(strings.TrimSpace(q.Category)); section != "" {
		params.Set("section", section)
	}

	root, err := g.getJSON(ctx, g.endpoint("search"), params)
	if err != nil {
		return nil, err
	}

	raw, err := items(g.cfg.ID, root, "response", "results")
	if err != nil {
		return nil, err
	}

	articles := make([]domain.Article, 0, len(raw))
	for i, r := range raw {
		var item guardianItem
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, apperr.NewShapeWrap(g.cfg.ID, itemPath(guardianResultsPath, i), err)
		}
		articles = append(articles, item.article())
	}
	return articles, nil
}

func (it guardianItem) article() domain.Article {
	return domain.Article{
		Title:           strings.TrimSpace(it.WebTitle),
		FeatureImageURL: fieldString(it.Fields, "thumbnail"),
		Content:         firstNonEmpty(fieldString(it.Fields, "bodyText"), fieldString(it.Fields, "body")),
		Summary:         fieldString(it.Fields, "trailText"),
		Author:          fieldString(it.Fields, "byline"),
		Source:          domain.SourceGuardian,
		Date:            it.WebPublicationDate,
		URL:             strings.TrimSpace(it.WebURL),
		Ext: domain.GuardianExt{
			ID:          it.ID,
			Type:        it.Type,
			SectionID:   it.SectionID,
			SectionName: it.SectionName,
			APIURL:      it.APIURL,
			IsHosted:    it.IsHosted,
			PillarID:    it.PillarID,
			PillarName:  it.PillarName,
			Fields:      it.Fields,
		},
	}
}
