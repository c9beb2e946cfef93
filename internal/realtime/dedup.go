package realtime

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"socialhub/internal/model"
)

// DefaultDedupSize is used when a non-positive size is configured.
const DefaultDedupSize = 10000

// DedupCache remembers the fingerprints of recently broadcast messages.
// The oldest entries are evicted once the cache holds size fingerprints.
type DedupCache struct {
	cache *lru.Cache[model.Fingerprint, struct{}]
}

// NewDedupCache returns a cache holding at most size fingerprints.
func NewDedupCache(size int) (*DedupCache, error) {
	if size <= 0 {
		size = DefaultDedupSize
	}
	c, err := lru.New[model.Fingerprint, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("dedup cache: %w", err)
	}
	return &DedupCache{cache: c}, nil
}

// Seen reports whether fp was recorded, without touching its recency.
func (d *DedupCache) Seen(fp model.Fingerprint) bool {
	return d.cache.Contains(fp)
}

// Record adds fp.
func (d *DedupCache) Record(fp model.Fingerprint) {
	d.cache.Add(fp, struct{}{})
}

// CheckAndRecord records fp and reports whether it was already present.
// Check and insert happen under one lock, so of two concurrent callers with
// the same fingerprint exactly one sees false.
func (d *DedupCache) CheckAndRecord(fp model.Fingerprint) (duplicate bool) {
	duplicate, _ = d.cache.ContainsOrAdd(fp, struct{}{})
	return duplicate
}

// Len returns the number of fingerprints held.
func (d *DedupCache) Len() int { return d.cache.Len() }
