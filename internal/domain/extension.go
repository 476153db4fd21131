package domain

// Extension carries the provider-specific part of an article. Exactly one
// variant exists per provider.
type Extension interface {
	Kind() Source
	clone() Extension
}

type GuardianExt struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	SectionID   string         `json:"section_id"`
	SectionName string         `json:"section_name"`
	APIURL      string         `json:"api_url"`
	IsHosted    bool           `json:"is_hosted"`
	PillarID    string         `json:"pillar_id,omitempty"`
	PillarName  string         `json:"pillar_name,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
}

func (GuardianExt) Kind() Source { return SourceGuardian }

func (g GuardianExt) clone() Extension {
	g.Fields = cloneMap(g.Fields)
	return g
}

// Keyword is one entry of the article-search keywords list.
type Keyword struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Rank  int    `json:"rank"`
}

type TimesExt struct {
	ID             string         `json:"_id"`
	URI            string         `json:"uri"`
	Abstract       string         `json:"abstract,omitempty"`
	Byline         map[string]any `json:"byline,omitempty"`
	DocumentType   string         `json:"document_type"`
	Headline       map[string]any `json:"headline,omitempty"`
	Main           string         `json:"main,omitempty"`
	Kicker         string         `json:"kicker,omitempty"`
	Keywords       []Keyword      `json:"keywords,omitempty"`
	Multimedia     map[string]any `json:"multimedia,omitempty"`
	NewsDesk       string         `json:"news_desk,omitempty"`
	PrintPage      string         `json:"print_page,omitempty"`
	PrintSection   string         `json:"print_section,omitempty"`
	SectionName    string         `json:"section_name,omitempty"`
	Snippet        string         `json:"snippet,omitempty"`
	SubsectionName string         `json:"subsection_name,omitempty"`
	TypeOfMaterial string         `json:"type_of_material,omitempty"`
	WordCount      int            `json:"word_count"`
}

func (TimesExt) Kind() Source { return SourceTimes }

func (t TimesExt) clone() Extension {
	t.Byline = cloneMap(t.Byline)
	t.Headline = cloneMap(t.Headline)
	t.Multimedia = cloneMap(t.Multimedia)
	if t.Keywords != nil {
		t.Keywords = append([]Keyword(nil), t.Keywords...)
	}
	return t
}

type BroadcastExt struct {
	UUID        string `json:"uuid"`
	ImageURL    string `json:"image_url,omitempty"`
	Description string `json:"description,omitempty"`
	Body        string `json:"body,omitempty"`
}

func (BroadcastExt) Kind() Source { return SourceBroadcast }

func (b BroadcastExt) clone() Extension { return b }

type AggregatorExt struct {
	Description   string `json:"description,omitempty"`
	PublisherName string `json:"publisher_name,omitempty"`
	PublisherURL  string `json:"publisher_url,omitempty"`
}

func (AggregatorExt) Kind() Source { return SourceAggregator }

func (g AggregatorExt) clone() Extension { return g }

// shallow: nested values are shared, top-level keys are not
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
