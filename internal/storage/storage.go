// Package storage provides the local cache behind publishing and enrichment:
// which article URLs were already published, and which scrape patches were
// already recovered for an article page.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
)

// Store tracks published article ids and caches scrape patches by URL.
type Store interface {
	Close() error
	SeenArticle(id string) (bool, error)
	MarkArticle(id string) error
	LoadPatch(url string) (domain.Patch, bool, error)
	SavePatch(url string, p domain.Patch) error
}

// Supported backends.
const (
	TypeNone  = "none"
	TypeBBolt = "bbolt"
	TypeRedis = "redis"
)

// Options controls retention and connection settings for the backends.
type Options struct {
	// ArticleTTL is how long a published-article mark is kept.
	ArticleTTL time.Duration
	// PatchTTL is how long a scraped patch is served from cache.
	PatchTTL        time.Duration
	CleanupInterval time.Duration

	Path string // bbolt file

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

const (
	defaultArticleTTL      = 5 * 24 * time.Hour
	defaultPatchTTL        = 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
	defaultKeyPrefix       = "khobor"
)

// NewStore creates the configured storage backend.
func NewStore(typ string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeBBolt:
		if strings.TrimSpace(opts.Path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(opts.Path, opts)
	case TypeRedis:
		if strings.TrimSpace(opts.RedisAddr) == "" {
			return nil, fmt.Errorf("redis storage requires an address")
		}
		return openRedis(opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ArticleTTL <= 0 {
		opts.ArticleTTL = defaultArticleTTL
	}
	if opts.PatchTTL <= 0 {
		opts.PatchTTL = defaultPatchTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if strings.TrimSpace(opts.KeyPrefix) == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                 { return nil }
func (noopStore) SeenArticle(string) (bool, error)             { return false, nil }
func (noopStore) MarkArticle(string) error                     { return nil }
func (noopStore) LoadPatch(string) (domain.Patch, bool, error) { return domain.Patch{}, false, nil }
func (noopStore) SavePatch(string, domain.Patch) error         { return nil }
