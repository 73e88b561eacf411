package db

import (
	"log"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache keys are tracked per entity type so all caches of one type can be
// cleared when a sync or matching operation mutates rows underneath them.
var (
	Cache               *ristretto.Cache[string, any]
	ConnectionCacheKeys = struct {
		sync.RWMutex
		m map[string]struct{}
	}{m: make(map[string]struct{})}
	UnmatchedCacheKeys = struct {
		sync.RWMutex
		m map[string]struct{}
	}{m: make(map[string]struct{})}
)

func InitCache() {
	var err error
	Cache, err = ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		log.Fatalf("failed to initialize cache: %v", err)
	}
}

// Connection Status Cache Functions
func SetConnectionCache(cacheKey string, value any) {
	ConnectionCacheKeys.Lock()
	ConnectionCacheKeys.m[cacheKey] = struct{}{}
	ConnectionCacheKeys.Unlock()
	Cache.Set(cacheKey, value, 1)
}

func ClearAllConnectionCaches() {
	ConnectionCacheKeys.Lock()
	for key := range ConnectionCacheKeys.m {
		Cache.Del(key)
	}
	ConnectionCacheKeys.m = make(map[string]struct{})
	ConnectionCacheKeys.Unlock()
}

// Unmatched Transaction Cache Functions
func SetUnmatchedCache(cacheKey string, value any) {
	UnmatchedCacheKeys.Lock()
	UnmatchedCacheKeys.m[cacheKey] = struct{}{}
	UnmatchedCacheKeys.Unlock()
	Cache.Set(cacheKey, value, 1)
}

func ClearAllUnmatchedCaches() {
	UnmatchedCacheKeys.Lock()
	for key := range UnmatchedCacheKeys.m {
		Cache.Del(key)
	}
	UnmatchedCacheKeys.m = make(map[string]struct{})
	UnmatchedCacheKeys.Unlock()
}
