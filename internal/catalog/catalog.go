// Package catalog keeps the articles currently shown to readers and resolves
// them by ID.
package catalog

import (
	"sync"

	"github.com/Adda-Baaj/khobor-aggregator/internal/apperr"
	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
)

// Catalog is the in-memory list of loaded articles. It is safe for
// concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	articles []domain.Article
	byID     map[string]int
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{byID: make(map[string]int)}
}

// Replace swaps the loaded list. Articles without a URL are skipped and
// duplicates by URL keep the first occurrence. It returns the number of
// articles loaded.
func (c *Catalog) Replace(articles []domain.Article) int {
	list := make([]domain.Article, 0, len(articles))
	index := make(map[string]int, len(articles))
	for _, a := range articles {
		if a.URL == "" {
			continue
		}
		id := a.ID()
		if _, dup := index[id]; dup {
			continue
		}
		index[id] = len(list)
		list = append(list, a)
	}

	c.mu.Lock()
	c.articles = list
	c.byID = index
	c.mu.Unlock()
	return len(list)
}

// All returns a copy of the loaded articles in load order.
func (c *Catalog) All() []domain.Article {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Article(nil), c.articles...)
}

// Lookup returns the article whose ID matches id.
func (c *Catalog) Lookup(id string) (domain.Article, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return domain.Article{}, apperr.NewLookup(id)
	}
	return c.articles[i], nil
}

// Len reports how many articles are loaded.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.articles)
}
