package server

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache(time.Minute)

	_, ok := c.Get("/api/v1/stocks")
	assert.False(t, ok)

	c.Set("/api/v1/stocks", cachedResponse{Status: 200, ContentType: "application/json", Body: []byte(`{"data":[]}`)})

	resp, ok := c.Get("/api/v1/stocks")
	require.True(t, ok)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "application/json", resp.ContentType)
	assert.JSONEq(t, `{"data":[]}`, string(resp.Body))
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	c.Set("k", cachedResponse{Status: 200, Body: []byte("x")})

	_, ok := c.Get("k")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCacheDisabled(t *testing.T) {
	c := NewCache(0)
	c.Set("k", cachedResponse{Status: 200, Body: []byte("x")})
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCachedHandlerServesHitsAndSkipsErrors(t *testing.T) {
	s := &Server{cache: NewCache(time.Minute)}

	var hits int64
	ok := s.cached(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":1}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/thing", nil)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		ok(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":1}`, rec.Body.String())
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))

	var misses int64
	notFound := s.cached(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&misses, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	req = httptest.NewRequest(http.MethodGet, "/api/v1/missing", nil)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		notFound(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
	assert.Equal(t, int64(3), atomic.LoadInt64(&misses))
}
