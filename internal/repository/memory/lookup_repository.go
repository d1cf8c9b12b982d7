package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// LookupRepository caches slow external lookups (IP location, geocoding).
type LookupRepository struct {
	cache *cache.Cache
}

func NewLookupRepository() *LookupRepository {
	// Create a cache with a default expiration time of 1 hour, and which
	// purges expired items every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &LookupRepository{
		cache: c,
	}
}

// Save stores value under key; ttl 0 uses the default hour.
func (r *LookupRepository) Save(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	r.cache.Set(key, value, ttl)
}

func (r *LookupRepository) Get(key string) (interface{}, bool) {
	return r.cache.Get(key)
}

func (r *LookupRepository) Delete(key string) {
	r.cache.Delete(key)
}

func (r *LookupRepository) Count() int {
	return r.cache.ItemCount()
}
