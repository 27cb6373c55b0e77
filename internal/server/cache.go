package server

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// cachedResponse is one stored response, msgpack-encoded at rest.
type cachedResponse struct {
	Status      int    `msgpack:"status"`
	ContentType string `msgpack:"content_type"`
	Body        []byte `msgpack:"body"`
}

type cacheEntry struct {
	payload []byte
	expires time.Time
}

// Cache is an in-process TTL response cache keyed by request URI.
type Cache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache creates a response cache. A non-positive TTL disables caching.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached response for a key, if present and fresh.
func (c *Cache) Get(key string) (*cachedResponse, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}

	var resp cachedResponse
	if err := msgpack.Unmarshal(entry.payload, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

// Set stores a response under a key.
func (c *Cache) Set(key string, resp cachedResponse) {
	if c.ttl <= 0 {
		return
	}
	payload, err := msgpack.Marshal(resp)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{payload: payload, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// recorder buffers a handler's response so it can be cached.
type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}

// cached wraps a handler with TTL response caching. Only 200 responses are
// stored; errors and 404s always re-run the handler.
func (s *Server) cached(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.RequestURI()
		if resp, ok := s.cache.Get(key); ok {
			w.Header().Set("Content-Type", resp.ContentType)
			w.Header().Set("X-Cache", "hit")
			w.WriteHeader(resp.Status)
			_, _ = w.Write(resp.Body)
			return
		}

		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		if rec.status == http.StatusOK {
			s.cache.Set(key, cachedResponse{
				Status:      rec.status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			})
		}
	}
}
