package domain

import (
	"fmt"
	"strings"
)

// Article is one normalized news item. Empty strings mean "absent".
type Article struct {
	Title           string    `json:"title"`
	FeatureImageURL string    `json:"feature_image_url,omitempty"`
	Content         string    `json:"content,omitempty"`
	Summary         string    `json:"summary,omitempty"`
	Author          string    `json:"author,omitempty"`
	Source          Source    `json:"source"`
	Date            string    `json:"date,omitempty"`
	URL             string    `json:"url"`
	Ext             Extension `json:"extension,omitempty"`
}

// ID returns the article URL, which doubles as its identity key.
// Calling ID on an article without a URL is a programming error.
func (a Article) ID() string {
	if a.URL == "" {
		panic(fmt.Sprintf("domain: ID called on %s article %q without url", a.Source, a.Title))
	}
	return a.URL
}

// Preview renders a short markdown block with the summary cut to limit runes.
// When the article has no summary, one is derived from the content. Preview
// never mutates the article, so repeated calls render the same text.
func (a Article) Preview(limit int) string {
	var b strings.Builder
	b.WriteString("### ")
	b.WriteString(a.Title)
	b.WriteString(" \n ")
	b.WriteString(a.header())
	b.WriteString(" \n ")
	b.WriteString(a.previewSummary(limit))
	return b.String()
}

// FullView renders the source/date header followed by the full text.
func (a Article) FullView() string {
	return a.header() + " \n " + a.FullText()
}

// FullText is the longest body available: Body for broadcast articles,
// Content otherwise.
func (a Article) FullText() string {
	if ext, ok := a.Broadcast(); ok && strings.TrimSpace(ext.Body) != "" {
		return ext.Body
	}
	return a.Content
}

func (a Article) header() string {
	return fmt.Sprintf("**Source:** %s | **Date:** %s", a.Source, a.Date)
}

func (a Article) previewSummary(limit int) string {
	text := a.Summary
	if strings.TrimSpace(text) == "" {
		text = a.Content
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return truncate(text, limit) + "..."
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// Guardian returns the Guardian payload when the article came from The Guardian.
func (a Article) Guardian() (GuardianExt, bool) {
	ext, ok := a.Ext.(GuardianExt)
	return ext, ok
}

// Times returns the article-search payload when the article came from the Times.
func (a Article) Times() (TimesExt, bool) {
	ext, ok := a.Ext.(TimesExt)
	return ext, ok
}

// Broadcast returns the broadcaster payload.
func (a Article) Broadcast() (BroadcastExt, bool) {
	ext, ok := a.Ext.(BroadcastExt)
	return ext, ok
}

// Aggregator returns the headline aggregator payload.
func (a Article) Aggregator() (AggregatorExt, bool) {
	ext, ok := a.Ext.(AggregatorExt)
	return ext, ok
}
