package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adda-Baaj/khobor-aggregator/internal/apperr"
	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
	"github.com/Adda-Baaj/khobor-aggregator/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResponse struct {
	status int
	body   []byte
}

func (r stubResponse) Body() []byte    { return r.body }
func (r stubResponse) StatusCode() int { return r.status }

type stubClient struct {
	mu   sync.Mutex
	urls []string
	resp httpclient.Response
	err  error
}

func (c *stubClient) Get(_ context.Context, u string, _ map[string]string) (httpclient.Response, error) {
	c.mu.Lock()
	c.urls = append(c.urls, u)
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if c.resp == nil {
		return stubResponse{status: http.StatusOK, body: []byte(`{}`)}, nil
	}
	return c.resp, nil
}

// jsonServer serves body for every request and records the last query.
func jsonServer(t *testing.T, status int, body string) (*httptest.Server, *url.Values, *string) {
	t.Helper()
	var (
		query url.Values
		path  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &query, &path
}

func buildAdapter(t *testing.T, typ, baseURL string) Adapter {
	t.Helper()
	cfg := Provider{ID: typ, Name: typ, Type: typ, BaseURL: baseURL, APIKey: "test-key", PageSize: 5}
	a, err := DefaultAdapterRegistry().AdapterFor(cfg, httpclient.NewRestyClient(2*time.Second, ""), nil)
	require.NoError(t, err)
	return a
}

func TestGuardianFetchArticles(t *testing.T) {
	srv, query, path := jsonServer(t, http.StatusOK, `{"response":{"status":"ok","results":[{
		"id":"technology/2024/jan/01/sample",
		"type":"article",
		"sectionId":"technology",
		"sectionName":"Technology",
		"webPublicationDate":"2024-01-01T10:00:00Z",
		"webTitle":"Sample Article",
		"webUrl":"https://guardian.co.uk/article1",
		"apiUrl":"https://content.guardianapis.com/technology/2024/jan/01/sample",
		"isHosted":false,
		"pillarId":"pillar/news",
		"pillarName":"News",
		"fields":{"body":"Some content here","byline":"Jane Doe","thumbnail":"https://img/x.jpg","trailText":"Trail"}
	}]}}`)

	a := buildAdapter(t, TypeGuardian, srv.URL+"/")
	articles, err := a.FetchArticles(context.Background(), Query{Category: "Technology"})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	got := articles[0]
	assert.Equal(t, "Sample Article", got.Title)
	assert.Equal(t, domain.SourceGuardian, got.Source)
	assert.Equal(t, "The Guardian", got.Source.String())
	assert.Equal(t, "https://guardian.co.uk/article1", got.URL)
	assert.Equal(t, "Some content here", got.Content)
	assert.Equal(t, "Trail", got.Summary)
	assert.Equal(t, "Jane Doe", got.Author)
	assert.Equal(t, "https://img/x.jpg", got.FeatureImageURL)

	ext, ok := got.Guardian()
	require.True(t, ok)
	assert.Equal(t, "technology", ext.SectionID)
	assert.Equal(t, "News", ext.PillarName)

	assert.Equal(t, "/search", *path)
	assert.Equal(t, "technology", query.Get("section"))
	assert.Equal(t, "test-key", query.Get("api-key"))
	assert.Equal(t, "5", query.Get("page-size"))
	assert.Equal(t, "all", query.Get("show-fields"))
}

func TestGuardianStrictItemFailsBatch(t *testing.T) {
	srv, _, _ := jsonServer(t, http.StatusOK, `{"response":{"results":[{"webTitle":"ok","webUrl":"https://a"},{"webTitle":42}]}}`)

	a := buildAdapter(t, TypeGuardian, srv.URL)
	articles, err := a.FetchArticles(context.Background(), Query{Category: "world"})
	require.Error(t, err)
	assert.Nil(t, articles)

	var shape *apperr.ResponseShapeError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, "response.results[1]", shape.Path)
}

func TestTimesFetchArticles(t *testing.T) {
	srv, query, _ := jsonServer(t, http.StatusOK, `{"status":"OK","response":{"docs":[{
		"_id":"nyt://article/1",
		"uri":"nyt://article/1",
		"abstract":"",
		"snippet":"Snippet text",
		"web_url":"https://www.nytimes.com/2024/01/01/x.html",
		"pub_date":"2024-01-01T05:00:00+0000",
		"document_type":"article",
		"print_page":12,
		"word_count":900,
		"byline":{"original":"By Someone"},
		"headline":{"main":"Main","kicker":"Kick","print_headline":"X"},
		"keywords":[{"name":"subject","value":"Tech","rank":1}],
		"multimedia":[{"url":"images/2024/01/01/photo.jpg"}]
	}]}}`)

	a := buildAdapter(t, TypeTimes, srv.URL)
	articles, err := a.FetchArticles(context.Background(), Query{Category: "Science"})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	got := articles[0]
	assert.Equal(t, "X", got.Title)
	assert.Empty(t, got.Content)
	assert.Equal(t, "Snippet text", got.Summary)
	assert.Equal(t, "By Someone", got.Author)
	assert.Equal(t, "https://www.nytimes.com/images/2024/01/01/photo.jpg", got.FeatureImageURL)
	assert.Equal(t, domain.SourceTimes, got.Source)

	ext, ok := got.Times()
	require.True(t, ok)
	assert.Equal(t, "Main", ext.Main)
	assert.Equal(t, "Kick", ext.Kicker)
	assert.Equal(t, "12", ext.PrintPage)
	require.Len(t, ext.Keywords, 1)
	assert.Equal(t, "Tech", ext.Keywords[0].Value)

	assert.Equal(t, "science", query.Get("q"))
	assert.Equal(t, "newest", query.Get("sort"))
	assert.Equal(t, `type:("Article")`, query.Get("fq"))
}

func TestTimesMultimediaObjectForm(t *testing.T) {
	_, image := timesMultimedia([]byte(`{"default":{"url":"https://static01.nyt.com/a.jpg"}}`))
	assert.Equal(t, "https://static01.nyt.com/a.jpg", image)

	_, image = timesMultimedia([]byte(`null`))
	assert.Empty(t, image)
}

func TestBroadcastBestEffortSkipsBadItems(t *testing.T) {
	srv, query, _ := jsonServer(t, http.StatusOK, `{"meta":{"found":3},"articles":[
		{"uuid":"u1","title":"One","description":"Desc","snippet":"Snip","url":"https://www.bbc.co.uk/news/1","image_url":"https://img/1","published_at":"2024-02-01T00:00:00Z","source":"bbc.co.uk"},
		{"uuid":"u2","title":"No url"},
		{"uuid":7}
	]}`)

	a := buildAdapter(t, TypeBroadcast, srv.URL)
	articles, err := a.FetchArticles(context.Background(), Query{Category: "Politics", PageSize: 3})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	got := articles[0]
	assert.Equal(t, "One", got.Title)
	assert.Equal(t, "Desc", got.Summary)
	assert.Equal(t, "Snip", got.Content)
	assert.Equal(t, domain.SourceBroadcast, got.Source)
	ext, ok := got.Broadcast()
	require.True(t, ok)
	assert.Equal(t, "u1", ext.UUID)
	assert.Equal(t, "https://img/1", ext.ImageURL)

	assert.Equal(t, "politics", query.Get("q"))
	assert.Equal(t, "3", query.Get("limit"))
	assert.Equal(t, "test-key", query.Get("api_token"))
}

func TestGNewsFetchArticles(t *testing.T) {
	srv, query, path := jsonServer(t, http.StatusOK, `{"totalArticles":1,"articles":[{
		"title":"Headline","description":"Desc","content":"Body...","url":"https://example.com/a",
		"image":"https://example.com/a.jpg","publishedAt":"2024-03-01T09:00:00Z",
		"source":{"name":"Example","url":"https://example.com"}
	}]}`)

	a := buildAdapter(t, TypeGNews, srv.URL+"/api/v4/")
	articles, err := a.FetchArticles(context.Background(), Query{Category: "Culture"})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	got := articles[0]
	assert.Equal(t, "Desc", got.Summary)
	assert.Equal(t, "Body...", got.Content)
	assert.Equal(t, "GNews", got.Source.String())
	ext, ok := got.Aggregator()
	require.True(t, ok)
	assert.Equal(t, "Desc", ext.Description)
	assert.Equal(t, "Example", ext.PublisherName)

	assert.Equal(t, "/api/v4/top-headlines", *path)
	assert.Equal(t, "entertainment", query.Get("category"))
	assert.Equal(t, "test-key", query.Get("apikey"))
}

func TestGNewsCategory(t *testing.T) {
	cases := map[string]string{
		"Technology": "technology",
		"politics":   "nation",
		" World ":    "world",
		"unknown":    "general",
		"":           "general",
	}
	for in, want := range cases {
		if got := GNewsCategory(in); got != want {
			t.Errorf("GNewsCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmptyPayloadIsShapeError(t *testing.T) {
	wantPaths := map[string]string{
		TypeGuardian:  "response.results",
		TypeTimes:     "response.docs",
		TypeBroadcast: "articles",
		TypeGNews:     "articles",
	}
	srv, _, _ := jsonServer(t, http.StatusOK, `{}`)

	for typ, want := range wantPaths {
		t.Run(typ, func(t *testing.T) {
			a := buildAdapter(t, typ, srv.URL)
			articles, err := a.FetchArticles(context.Background(), Query{Category: "world"})
			assert.Nil(t, articles)

			var shape *apperr.ResponseShapeError
			require.True(t, errors.As(err, &shape), "expected ResponseShapeError, got %v", err)
			assert.Equal(t, want, shape.Path)
			assert.Contains(t, err.Error(), "missing "+want)
		})
	}
}

func TestEmptyResultsIsNotAnError(t *testing.T) {
	srv, _, _ := jsonServer(t, http.StatusOK, `{"response":{"results":[]}}`)
	a := buildAdapter(t, TypeGuardian, srv.URL)
	articles, err := a.FetchArticles(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestNon2xxIsHTTPFetchError(t *testing.T) {
	srv, _, _ := jsonServer(t, http.StatusInternalServerError, `{"response":{"results":[]}}`)

	for _, typ := range []string{TypeGuardian, TypeTimes, TypeBroadcast, TypeGNews} {
		t.Run(typ, func(t *testing.T) {
			a := buildAdapter(t, typ, srv.URL)
			articles, err := a.FetchArticles(context.Background(), Query{Category: "world"})
			assert.Nil(t, articles)

			var fetchErr *apperr.HTTPFetchError
			require.True(t, errors.As(err, &fetchErr), "expected HTTPFetchError, got %v", err)
			assert.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)

			var shape *apperr.ResponseShapeError
			assert.False(t, errors.As(err, &shape))
		})
	}
}

func TestFetchIssuesOneGETOnServerError(t *testing.T) {
	for _, typ := range []string{TypeGuardian, TypeTimes, TypeBroadcast, TypeGNews} {
		t.Run(typ, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			cfg := Provider{ID: typ, Name: typ, Type: typ, BaseURL: srv.URL + "/", APIKey: "k"}
			client := httpclient.New(httpclient.Options{Timeout: 2 * time.Second})
			a, err := DefaultAdapterRegistry().AdapterFor(cfg, client, nil)
			require.NoError(t, err)

			_, err = a.FetchArticles(context.Background(), Query{Category: "world"})
			var fetchErr *apperr.HTTPFetchError
			require.True(t, errors.As(err, &fetchErr), "expected HTTPFetchError, got %v", err)
			assert.EqualValues(t, 1, hits.Load())
		})
	}
}

func TestQueryPageSizeReachesProvider(t *testing.T) {
	srv, query, _ := jsonServer(t, http.StatusOK, `{"response":{"results":[]},"articles":[]}`)
	cases := map[string]string{
		TypeGuardian:  "page-size",
		TypeBroadcast: "limit",
		TypeGNews:     "max",
	}
	for typ, param := range cases {
		t.Run(typ, func(t *testing.T) {
			a := buildAdapter(t, typ, srv.URL+"/")
			_, err := a.FetchArticles(context.Background(), Query{Category: "world", PageSize: 30})
			require.NoError(t, err)
			assert.Equal(t, "30", query.Get(param))

			_, err = a.FetchArticles(context.Background(), Query{Category: "world"})
			require.NoError(t, err)
			assert.Equal(t, "5", query.Get(param), "provider page_size is the fallback")
		})
	}
}

func TestTimesTruncatesToPageSize(t *testing.T) {
	docs := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		docs = append(docs, `{"web_url":"https://nyt.example/`+strconv.Itoa(i)+`","headline":{"main":"h"}}`)
	}
	srv, _, _ := jsonServer(t, http.StatusOK, `{"response":{"docs":[`+strings.Join(docs, ",")+`]}}`)

	a := buildAdapter(t, TypeTimes, srv.URL)
	articles, err := a.FetchArticles(context.Background(), Query{Category: "world", PageSize: 3})
	require.NoError(t, err)
	require.Len(t, articles, 3)
	assert.Equal(t, "https://nyt.example/0", articles[0].URL)
}

func TestTransportErrorIsHTTPFetchError(t *testing.T) {
	boom := errors.New("connection refused")
	client := &stubClient{err: boom}
	a, err := NewTimesAdapter(Provider{ID: "nyt", BaseURL: "https://api.example/search", APIKey: "secret-key"}, client, nil)
	require.NoError(t, err)

	_, err = a.FetchArticles(context.Background(), Query{Category: "x"})
	var fetchErr *apperr.HTTPFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.ErrorIs(t, err, boom)
	assert.NotContains(t, err.Error(), "secret-key")

	require.Len(t, client.urls, 1)
	assert.True(t, strings.HasPrefix(client.urls[0], "https://api.example/search?"))
}

func TestInvalidJSONIsShapeError(t *testing.T) {
	client := &stubClient{resp: stubResponse{status: http.StatusOK, body: []byte("<html>oops</html>")}}
	a, err := NewGNewsAdapter(Provider{ID: "gnews", BaseURL: "https://gnews.example/", APIKey: "k"}, client, nil)
	require.NoError(t, err)

	_, err = a.FetchArticles(context.Background(), Query{})
	var shape *apperr.ResponseShapeError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, "$", shape.Path)
}
