package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	articleBucket = "articles"
	patchBucket   = "patches"
	expiryBytes   = 8
)

// boltStore keeps published marks and scrape patches in two buckets of a
// single bbolt file. Values are an 8-byte big-endian unix expiry followed by
// the payload.
type boltStore struct {
	db    *bolt.DB
	ttl   map[string]time.Duration
	sweep *sweeper
}

// sweeper rate-limits full-bucket expiry scans.
type sweeper struct {
	mu       sync.Mutex
	every    time.Duration
	lastScan time.Time
}

// due reports whether a scan should run at now and, if so, claims it.
func (s *sweeper) due(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastScan) < s.every {
		return false
	}
	s.lastScan = now
	return true
}

func openBolt(path string, opts Options) (Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("bbolt: mkdir %s: %w", dir, err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt: open %s: %w", path, err)
	}

	ttl := map[string]time.Duration{
		articleBucket: opts.ArticleTTL,
		patchBucket:   opts.PatchTTL,
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for name := range ttl {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bbolt: %w", err)
	}

	return &boltStore{
		db:    db,
		ttl:   ttl,
		sweep: &sweeper{every: opts.CleanupInterval, lastScan: time.Now()},
	}, nil
}

func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) SeenArticle(id string) (bool, error) {
	_, ok, err := b.get(articleBucket, id)
	return ok, err
}

func (b *boltStore) MarkArticle(id string) error {
	return b.put(articleBucket, id, nil)
}

func (b *boltStore) LoadPatch(url string) (domain.Patch, bool, error) {
	raw, ok, err := b.get(patchBucket, url)
	if err != nil || !ok {
		return domain.Patch{}, false, err
	}
	var p domain.Patch
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Patch{}, false, fmt.Errorf("decode cached patch for %s: %w", url, err)
	}
	return p, true, nil
}

func (b *boltStore) SavePatch(url string, p domain.Patch) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode patch for %s: %w", url, err)
	}
	return b.put(patchBucket, url, raw)
}

// get reads key from bucket. An expired or malformed entry counts as a miss
// and is deleted in a follow-up write transaction.
func (b *boltStore) get(bucket, key string) ([]byte, bool, error) {
	if b == nil || b.db == nil {
		return nil, false, nil
	}
	now := time.Now()
	if err := b.maybeSweep(now); err != nil {
		return nil, false, err
	}

	var (
		payload []byte
		found   bool
		stale   bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(bucket))
		if bkt == nil {
			return fmt.Errorf("bbolt: bucket %s missing", bucket)
		}
		v := bkt.Get([]byte(key))
		if v == nil {
			return nil
		}
		if exp, ok := decodeExpiry(v); !ok || !exp.After(now) {
			stale = true
			return nil
		}
		found = true
		payload = append([]byte(nil), v[expiryBytes:]...)
		return nil
	})
	if err != nil || !stale {
		return payload, found, err
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Delete([]byte(key))
	})
	return nil, false, err
}

func (b *boltStore) put(bucket, key string, payload []byte) error {
	if b == nil || b.db == nil {
		return nil
	}
	now := time.Now()
	if err := b.maybeSweep(now); err != nil {
		return err
	}

	value := make([]byte, expiryBytes, expiryBytes+len(payload))
	binary.BigEndian.PutUint64(value, uint64(now.Add(b.ttl[bucket]).Unix()))
	value = append(value, payload...)

	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(bucket))
		if bkt == nil {
			return fmt.Errorf("bbolt: bucket %s missing", bucket)
		}
		return bkt.Put([]byte(key), value)
	})
}

func (b *boltStore) maybeSweep(now time.Time) error {
	if !b.sweep.due(now) {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		for name := range b.ttl {
			if err := sweepBucket(tx.Bucket([]byte(name)), now); err != nil {
				return fmt.Errorf("bbolt: sweep %s: %w", name, err)
			}
		}
		return nil
	})
}

// sweepBucket deletes every expired or malformed value in bkt.
func sweepBucket(bkt *bolt.Bucket, now time.Time) error {
	if bkt == nil {
		return nil
	}
	var expired [][]byte
	err := bkt.ForEach(func(k, v []byte) error {
		if exp, ok := decodeExpiry(v); !ok || !exp.After(now) {
			expired = append(expired, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, k := range expired {
		if err := bkt.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) < expiryBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryBytes]))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
