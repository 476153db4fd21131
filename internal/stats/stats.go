// Package stats computes the summary figures shown next to a loaded batch
// of articles.
package stats

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
	"github.com/PuerkitoBio/goquery"
)

// SourceCount is the number of articles from one provider.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// MonthCount is the number of articles published in one calendar month.
type MonthCount struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Count int        `json:"count"`
}

// WordCount is the length of one article body.
type WordCount struct {
	Label  string `json:"label"`
	Source string `json:"source"`
	Words  int    `json:"words"`
}

// TermCount is a term frequency, the input of a word cloud.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Summary bundles every figure for one batch.
type Summary struct {
	Total   int           `json:"total"`
	Sources []SourceCount `json:"sources"`
	Months  []MonthCount  `json:"months"`
	Words   []WordCount   `json:"words"`
	Terms   []TermCount   `json:"terms"`
}

const (
	defaultMaxWordCounts = 40
	defaultTopTerms      = 50
)

// Summarize computes every figure with the default limits.
func Summarize(articles []domain.Article) Summary {
	return Summary{
		Total:   len(articles),
		Sources: SourceDistribution(articles),
		Months:  MonthlyCounts(articles),
		Words:   WordCounts(articles, defaultMaxWordCounts),
		Terms:   TopTerms(articles, defaultTopTerms),
	}
}

// SourceDistribution counts articles per source, largest first and by name
// on ties.
func SourceDistribution(articles []domain.Article) []SourceCount {
	counts := make(map[string]int)
	for _, a := range articles {
		counts[a.Source.String()]++
	}
	out := make([]SourceCount, 0, len(counts))
	for src, n := range counts {
		out = append(out, SourceCount{Source: src, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Source < out[j].Source
	})
	return out
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate reads the publication dates the providers emit.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthlyCounts groups articles by publication month in chronological
// order. Articles with a missing or unreadable date are left out.
func MonthlyCounts(articles []domain.Article) []MonthCount {
	type key struct {
		year  int
		month time.Month
	}
	counts := make(map[key]int)
	for _, a := range articles {
		t, ok := ParseDate(a.Date)
		if !ok {
			continue
		}
		t = t.UTC()
		counts[key{t.Year(), t.Month()}]++
	}
	out := make([]MonthCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, MonthCount{Year: k.year, Month: k.month, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// WordCounts measures the first max articles on Article.FullText.
func WordCounts(articles []domain.Article, max int) []WordCount {
	if max > 0 && len(articles) > max {
		articles = articles[:max]
	}
	out := make([]WordCount, 0, len(articles))
	for i, a := range articles {
		out = append(out, WordCount{
			Label:  label(a.Title, i),
			Source: a.Source.String(),
			Words:  len(strings.Fields(a.FullText())),
		})
	}
	return out
}

func label(title string, i int) string {
	words := strings.Fields(title)
	if len(words) == 0 {
		return "Article " + strconv.Itoa(i+1)
	}
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Join(words, " ")
}

var (
	nonLetters = regexp.MustCompile(`[^A-Za-z\s]`)
	spaces     = regexp.MustCompile(`\s+`)
)

// CleanText strips markup from html and keeps only letters and single
// spaces.
func CleanText(html string) string {
	text := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		text = doc.Text()
	}
	text = nonLetters.ReplaceAllString(text, "")
	return strings.TrimSpace(spaces.ReplaceAllString(text, " "))
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "that": {}, "with": {}, "this": {},
	"from": {}, "have": {}, "has": {}, "was": {}, "were": {}, "are": {},
	"but": {}, "not": {}, "you": {}, "his": {}, "her": {}, "its": {},
	"they": {}, "their": {}, "will": {}, "would": {}, "can": {}, "could": {},
	"been": {}, "after": {}, "about": {}, "into": {}, "over": {}, "more": {},
	"who": {}, "what": {}, "when": {}, "which": {}, "said": {}, "says": {},
	"than": {}, "also": {}, "she": {}, "him": {}, "our": {}, "out": {},
}

// TopTerms returns the n most frequent terms across article summaries after
// cleaning. Short words and stopwords are ignored; ties sort by term.
func TopTerms(articles []domain.Article, n int) []TermCount {
	parts := make([]string, 0, len(articles))
	for _, a := range articles {
		if a.Summary != "" {
			parts = append(parts, a.Summary)
		}
	}
	text := CleanText(strings.Join(parts, " "))
	if text == "" {
		return nil
	}

	counts := make(map[string]int)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if len(w) < 3 {
			continue
		}
		if _, skip := stopwords[w]; skip {
			continue
		}
		counts[w]++
	}

	out := make([]TermCount, 0, len(counts))
	for term, c := range counts {
		out = append(out, TermCount{Term: term, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
