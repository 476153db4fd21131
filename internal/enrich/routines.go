package enrich

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Page is a fetched article page handed to a Routine.
type Page struct {
	URL  *url.URL
	Body []byte
	Doc  *goquery.Document
}

// Routine extracts a patch from one article page.
type Routine func(p Page) (domain.Patch, error)

// Table maps every known source to its scraping routine.
type Table map[domain.Source]Routine

// DefaultTable returns the routines for the four providers.
func DefaultTable() Table {
	return Table{
		domain.SourceGuardian:   scrapeGuardian,
		domain.SourceTimes:      scrapeTimes,
		domain.SourceBroadcast:  scrapeBroadcast,
		domain.SourceAggregator: scrapeReadable,
	}
}

// scrapeGuardian replaces Content with the rendered article body.
func scrapeGuardian(p Page) (domain.Patch, error) {
	return domain.Patch{
		Content: text(p.Doc.Find("div.article-body-viewer-selector").First()),
		Replace: true,
	}, nil
}

// scrapeTimes fills whatever the search endpoint left empty.
func scrapeTimes(p Page) (domain.Patch, error) {
	paragraphs := p.Doc.Find("article p")
	if paragraphs.Length() == 0 {
		paragraphs = p.Doc.Find("p")
	}

	return domain.Patch{
		Title:   text(p.Doc.Find("h1").First()),
		Content: joinText(paragraphs, " "),
		Author: firstNonEmpty(
			text(p.Doc.Find(`[itemprop="author"] [itemprop="name"]`).First()),
			text(p.Doc.Find(`[itemprop="author"]`).First()),
			text(p.Doc.Find(`[rel="author"]`).First()),
		),
		FeatureImageURL: resolveURL(attr(p.Doc.Find("img[src]").First(), "src"), p.URL),
	}, nil
}

// scrapeBroadcast takes the OpenGraph block and the text-block paragraphs.
func scrapeBroadcast(p Page) (domain.Patch, error) {
	return domain.Patch{
		Title: firstNonEmpty(
			metaContent(p.Doc, `meta[property="og:title"]`),
			text(p.Doc.Find("title").First()),
		),
		Summary: firstNonEmpty(
			metaContent(p.Doc, `meta[property="og:description"]`),
			metaContent(p.Doc, `meta[name="description"]`),
		),
		FeatureImageURL: resolveURL(metaContent(p.Doc, `meta[property="og:image"]`), p.URL),
		Body:            joinText(p.Doc.Find(`[data-component="text-block"] p`), "\n"),
		Replace:         true,
	}, nil
}

// scrapeReadable runs the readability extractor; GNews links point at
// arbitrary publishers.
func scrapeReadable(p Page) (domain.Patch, error) {
	art, err := readability.FromReader(bytes.NewReader(p.Body), p.URL)
	if err != nil {
		return domain.Patch{}, err
	}

	return domain.Patch{
		Title:           strings.TrimSpace(art.Title),
		Content:         normalizeSpace(art.TextContent),
		Summary:         strings.TrimSpace(art.Excerpt),
		Author:          strings.TrimSpace(art.Byline),
		FeatureImageURL: resolveURL(art.Image, p.URL),
	}, nil
}

func text(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(sel.Text())
}

func attr(sel *goquery.Selection, name string) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	v, _ := sel.Attr(name)
	return strings.TrimSpace(v)
}

func metaContent(doc *goquery.Document, selector string) string {
	return attr(doc.Find(selector).First(), "content")
}

func joinText(sel *goquery.Selection, sep string) string {
	parts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, sep)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func resolveURL(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || base == nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
