package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArticle() Article {
	return Article{
		Title:           "Test Article",
		FeatureImageURL: "https://example.com/image.jpg",
		Content:         "This is the full content of the article.",
		Summary:         "This is a summary",
		Author:          "John Doe",
		Source:          SourceGuardian,
		Date:            "2024-03-20",
		URL:             "https://example.com/article",
	}
}

func TestArticleIDIsURL(t *testing.T) {
	a := sampleArticle()
	assert.Equal(t, "https://example.com/article", a.ID())

	b := sampleArticle()
	b.Title = "Other title"
	assert.Equal(t, a.ID(), b.ID(), "same url means same article")
}

func TestArticleIDPanicsWithoutURL(t *testing.T) {
	a := sampleArticle()
	a.URL = ""
	assert.Panics(t, func() { _ = a.ID() })
}

func TestPreviewRendersHeaderAndSummary(t *testing.T) {
	preview := sampleArticle().Preview(50)

	assert.Contains(t, preview, "### Test Article")
	assert.Contains(t, preview, "**Source:** The Guardian")
	assert.Contains(t, preview, "**Date:** 2024-03-20")
	assert.Contains(t, preview, "This is a summary...")
}

func TestPreviewDerivesSummaryFromContentWithoutMutation(t *testing.T) {
	a := sampleArticle()
	a.Summary = ""

	first := a.Preview(8)
	second := a.Preview(8)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasSuffix(first, "This is ..."), "got %q", first)
	assert.Empty(t, a.Summary)
}

func TestPreviewTruncatesOnRunes(t *testing.T) {
	a := sampleArticle()
	a.Summary = "ñandú ñandú"
	assert.True(t, strings.HasSuffix(a.Preview(3), "ñan..."))
}

func TestPreviewWithoutText(t *testing.T) {
	a := sampleArticle()
	a.Summary, a.Content = "", ""
	assert.True(t, strings.HasSuffix(a.Preview(10), " \n "))
}

func TestFullViewPrefersBroadcastBody(t *testing.T) {
	a := sampleArticle()
	a.Source = SourceBroadcast
	a.Ext = BroadcastExt{UUID: "bbc-1", Body: "Full BBC article body"}

	view := a.FullView()
	assert.Contains(t, view, "**Source:** BBC News")
	assert.Contains(t, view, "Full BBC article body")
	assert.NotContains(t, view, a.Content)

	a.Ext = BroadcastExt{UUID: "bbc-1"}
	assert.Contains(t, a.FullView(), a.Content)
}

func TestTypedAccessors(t *testing.T) {
	a := sampleArticle()
	a.Ext = GuardianExt{ID: "guardian-123", SectionName: "World"}

	g, ok := a.Guardian()
	require.True(t, ok)
	assert.Equal(t, "World", g.SectionName)

	_, ok = a.Times()
	assert.False(t, ok)
	_, ok = a.Broadcast()
	assert.False(t, ok)
	_, ok = a.Aggregator()
	assert.False(t, ok)
}

func TestParseSource(t *testing.T) {
	for _, s := range KnownSources() {
		got, ok := ParseSource(" " + strings.ToUpper(s.String()) + " ")
		require.True(t, ok, s.String())
		assert.Equal(t, s, got)
	}

	_, ok := ParseSource("CNN News")
	assert.False(t, ok)
	assert.False(t, SourceUnknown.Known())
}

func TestSourceTextRoundTrip(t *testing.T) {
	b, err := SourceTimes.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "New York Times", string(b))

	var s Source
	require.NoError(t, s.UnmarshalText(b))
	assert.Equal(t, SourceTimes, s)
	assert.Error(t, s.UnmarshalText([]byte("nope")))
}
