package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// redisStore implements Store on top of Redis keys with native TTLs, so no
// cleanup pass is needed.
type redisStore struct {
	client     *redis.Client
	prefix     string
	articleTTL time.Duration
	patchTTL   time.Duration
}

func openRedis(opts Options) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.RedisAddr, err)
	}

	return &redisStore{
		client:     client,
		prefix:     opts.KeyPrefix,
		articleTTL: opts.ArticleTTL,
		patchTTL:   opts.PatchTTL,
	}, nil
}

func (r *redisStore) articleKey(id string) string { return r.prefix + ":article:" + id }
func (r *redisStore) patchKey(url string) string  { return r.prefix + ":patch:" + url }

func (r *redisStore) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *redisStore) SeenArticle(id string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	n, err := r.client.Exists(ctx, r.articleKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *redisStore) MarkArticle(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.articleKey(id), time.Now().Unix(), r.articleTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *redisStore) LoadPatch(url string) (domain.Patch, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := r.client.Get(ctx, r.patchKey(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Patch{}, false, nil
	}
	if err != nil {
		return domain.Patch{}, false, fmt.Errorf("redis get: %w", err)
	}

	var p domain.Patch
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Patch{}, false, fmt.Errorf("decode cached patch: %w", err)
	}
	return p, true, nil
}

func (r *redisStore) SavePatch(url string, p domain.Patch) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.patchKey(url), payload, r.patchTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
