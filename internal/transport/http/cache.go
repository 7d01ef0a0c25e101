package transporthttp

import (
	"strings"
	"sync"
	"time"
)

// summaryCache memoizes summary responses for a short TTL so dashboard
// refresh ticks don't re-read the ledger on every poll. The change-feed
// listener invalidates a subject's entries the moment new punches land, so
// the TTL only bounds staleness when notifications are missed.
type summaryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	resp    summaryResp
	subject string
	expires time.Time
}

func newSummaryCache(ttl time.Duration) *summaryCache {
	return &summaryCache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *summaryCache) get(key string, now time.Time) (summaryResp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || now.After(e.expires) {
		delete(c.entries, key)
		return summaryResp{}, false
	}
	return e.resp, true
}

func (c *summaryCache) put(key, subject string, resp summaryResp, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{resp: resp, subject: subject, expires: now.Add(c.ttl)}
}

func (c *summaryCache) invalidateSubject(subject string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if e.subject == subject {
			delete(c.entries, k)
		}
	}
}

// InvalidateSubjects drops cached summaries for the subjects named in a
// change-feed payload (comma-separated subject ids).
func (d *ServerDeps) InvalidateSubjects(payload string) {
	if d.cache == nil {
		return
	}
	for _, s := range strings.Split(payload, ",") {
		if s = strings.TrimSpace(s); s != "" {
			d.cache.invalidateSubject(s)
		}
	}
}
