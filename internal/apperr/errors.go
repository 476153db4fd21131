package apperr

import (
	"errors"
	"fmt"
)

// ErrUnknownSource is returned when a source selection matches no provider.
var ErrUnknownSource = errors.New("unknown source")

// HTTPFetchError reports a transport failure or a non-2xx provider response.
type HTTPFetchError struct {
	Provider   string
	URL        string
	StatusCode int
	Snippet    string
	Err        error
}

func (e *HTTPFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: fetch %s: status %d body: %s", e.Provider, e.URL, e.StatusCode, e.Snippet)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: fetch %s: %v", e.Provider, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: fetch %s failed", e.Provider, e.URL)
}

func (e *HTTPFetchError) Unwrap() error {
	return e.Err
}

// ResponseShapeError reports a provider payload missing an expected key path.
type ResponseShapeError struct {
	Provider string
	Path     string
	Err      error
}

func (e *ResponseShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: unexpected response shape at %s: %v", e.Provider, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: unexpected response shape: missing %s", e.Provider, e.Path)
}

func (e *ResponseShapeError) Unwrap() error {
	return e.Err
}

// EnrichmentError wraps a failure while scraping one article. It is logged
// and never returned from a batch enrichment.
type EnrichmentError struct {
	Source string
	URL    string
	Err    error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrich %s article %s: %v", e.Source, e.URL, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// LookupError reports an article id that is not in the loaded list.
type LookupError struct {
	ID string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("article %q not found", e.ID)
}

func NewLookup(id string) *LookupError {
	return &LookupError{ID: id}
}

func NewShape(provider, path string) *ResponseShapeError {
	return &ResponseShapeError{Provider: provider, Path: path}
}

func NewShapeWrap(provider, path string, err error) *ResponseShapeError {
	return &ResponseShapeError{Provider: provider, Path: path, Err: err}
}
