package domain

import "strings"

// Patch holds fields recovered by scraping an article page.
// With Replace unset only empty article fields are filled.
type Patch struct {
	Title           string `json:"title,omitempty"`
	Content         string `json:"content,omitempty"`
	Summary         string `json:"summary,omitempty"`
	Author          string `json:"author,omitempty"`
	FeatureImageURL string `json:"feature_image_url,omitempty"`
	Body            string `json:"body,omitempty"`
	Replace         bool   `json:"replace,omitempty"`
}

// Empty reports whether the patch carries no values.
func (p Patch) Empty() bool {
	return blank(p.Title) && blank(p.Content) && blank(p.Summary) &&
		blank(p.Author) && blank(p.FeatureImageURL) && blank(p.Body)
}

// Merge returns a copy of a with p applied. Blank patch values never clear
// a field. Body only lands on broadcast articles, which also mirror the
// summary and image into their extension.
func Merge(a Article, p Patch) Article {
	out := a
	if a.Ext != nil {
		out.Ext = a.Ext.clone()
	}

	set := func(dst *string, v string) {
		if blank(v) {
			return
		}
		if p.Replace || blank(*dst) {
			*dst = v
		}
	}

	set(&out.Title, p.Title)
	set(&out.Content, p.Content)
	set(&out.Summary, p.Summary)
	set(&out.Author, p.Author)
	set(&out.FeatureImageURL, p.FeatureImageURL)

	if ext, ok := out.Ext.(BroadcastExt); ok {
		set(&ext.Body, p.Body)
		set(&ext.Description, p.Summary)
		set(&ext.ImageURL, p.FeatureImageURL)
		out.Ext = ext
	}

	return out
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
