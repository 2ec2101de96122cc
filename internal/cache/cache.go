package cache

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache stores successful GET response bodies in redis under a
// per-group key. Mutating handlers call Invalidate with the group so readers
// never see stale data longer than one in-flight request. A nil *ResponseCache
// is valid and disables caching, which keeps redis optional at deploy time.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	if client == nil {
		return nil
	}
	return &ResponseCache{client: client, ttl: ttl, prefix: "campusconnect:resp:"}
}

// Cached wraps GET handlers for one invalidation group. Only 200 responses
// are stored; everything else passes through untouched.
func (c *ResponseCache) Cached(group string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if c == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			key := c.key(group, r)
			if payload, err := c.client.Get(r.Context(), key).Bytes(); err == nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(payload)
				return
			}

			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status == http.StatusOK && rec.body.Len() > 0 {
				if err := c.client.Set(r.Context(), key, rec.body.Bytes(), c.ttl).Err(); err != nil {
					log.Printf("cache: store %s: %v", key, err)
				}
			}
		})
	}
}

// Invalidate drops every cached response in the group.
func (c *ResponseCache) Invalidate(ctx context.Context, group string) {
	if c == nil {
		return
	}
	pattern := c.prefix + group + ":*"
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("cache: invalidate %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache: scan %s: %v", pattern, err)
	}
}

func (c *ResponseCache) key(group string, r *http.Request) string {
	key := c.prefix + group + ":" + r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	return key
}

// recorder tees the response body so a successful render can be stored after
// it has been sent to the client.
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
	if r.status == http.StatusOK {
		r.body.Write(p)
	}
	return r.ResponseWriter.Write(p)
}
