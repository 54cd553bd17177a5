package api

import (
	"strings"
	"time"
)

// chartCache holds rendered charts per format until they expire or the
// dataset changes. Callers hold Server.mu.
type chartCache struct {
	data map[string]cachedChart
	ttl  time.Duration
}

type cachedChart struct {
	expires time.Time
	payload []byte
}

func newChartCache(ttl time.Duration) *chartCache {
	return &chartCache{
		data: make(map[string]cachedChart),
		ttl:  ttl,
	}
}

func (c *chartCache) get(format string) ([]byte, bool) {
	entry, ok := c.data[cacheKey(format)]
	if !ok || !time.Now().Before(entry.expires) {
		return nil, false
	}
	return entry.payload, true
}

func (c *chartCache) put(format string, payload []byte) {
	c.data[cacheKey(format)] = cachedChart{
		expires: time.Now().Add(c.ttl),
		payload: payload,
	}
}

func (c *chartCache) clear() {
	for k := range c.data {
		delete(c.data, k)
	}
}

func cacheKey(format string) string {
	if format == "" {
		return "png"
	}
	return strings.ToLower(format)
}
