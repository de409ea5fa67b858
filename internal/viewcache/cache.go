// Package viewcache keeps short-lived rendered listings keyed by the view path
// they were requested for, so a mutation can drop every entry under that path.
package viewcache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const sep = "\x00"

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storeit_view_cache_hits_total",
		Help: "View cache lookups answered from memory.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storeit_view_cache_misses_total",
		Help: "View cache lookups that fell through to the store.",
	})
	cacheInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storeit_view_cache_invalidated_entries_total",
		Help: "Entries removed by path invalidation.",
	})
)

// Cache is an LRU of views with a per-entry TTL.
type Cache struct {
	lru *expirable.LRU[string, any]
}

// New creates a cache holding at most size entries, each living for ttl.
func New(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

func key(path, requester, query string) string {
	return path + sep + requester + sep + query
}

// Get returns the cached view for the path, requester and query.
func (c *Cache) Get(path, requester, query string) (any, bool) {
	v, ok := c.lru.Get(key(path, requester, query))
	if ok {
		cacheHitsTotal.Inc()
		return v, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Add stores a view.
func (c *Cache) Add(path, requester, query string, value any) {
	c.lru.Add(key(path, requester, query), value)
}

// Invalidate drops every view cached under path, for all requesters, and
// reports how many were removed.
func (c *Cache) Invalidate(path string) int {
	prefix := path + sep
	removed := 0
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) && c.lru.Remove(k) {
			removed++
		}
	}
	cacheInvalidationsTotal.Add(float64(removed))
	return removed
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}
