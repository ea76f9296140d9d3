package npm

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/matzehuels/npmreg/pkg/errors"
	"github.com/matzehuels/npmreg/pkg/observability"
	"github.com/matzehuels/npmreg/pkg/schema"
)

// Fetch GETs url with headers, validates the body against s and returns the
// decoded value. It is the pipeline behind every endpoint method and is
// exported for routes those methods do not cover.
//
// With a cache configured, Fetch first looks up the key derived from url and
// headers. A stored value is validated again on every read, so a stale or
// corrupted entry fails with VALIDATION_ERROR rather than being trusted.
// On a miss the validated body is written before Fetch returns; a failed
// write is returned as CACHE_ERROR. Nothing is retried.
func Fetch[T any](ctx context.Context, c *Client, s *schema.Schema[T], url string, headers map[string]string) (T, error) {
	return fetch(ctx, c, "custom", s, url, headers)
}

func fetch[T any](ctx context.Context, c *Client, endpoint string, s *schema.Schema[T], url string, headers map[string]string) (v T, err error) {
	hooks := observability.Fetch()
	ctx = hooks.OnFetchStart(ctx, endpoint, url)
	start := time.Now()
	source := observability.SourceNetwork
	defer func() {
		hooks.OnFetchComplete(ctx, endpoint, source, time.Since(start), err)
	}()

	if c.cache == nil {
		raw, err := c.get(ctx, endpoint, url, headers)
		if err != nil {
			return v, err
		}
		return s.Parse(raw)
	}

	key := c.cache.Key(url, headers)
	cached, ok, err := c.cache.Storage.Get(ctx, key)
	if err != nil {
		return v, errors.Wrap(errors.ErrCodeCache, err, "read cache entry for %s", url)
	}
	if ok && truthy(cached) {
		source = observability.SourceCache
		observability.Cache().OnCacheHit(ctx, endpoint)
		c.logger.Debug("cache hit", "endpoint", endpoint, "url", url)
		return s.Parse(cached)
	}
	observability.Cache().OnCacheMiss(ctx, endpoint)

	raw, err := c.get(ctx, endpoint, url, headers)
	if err != nil {
		return v, err
	}
	v, err = s.Parse(raw)
	if err != nil {
		return v, err
	}
	if err := c.cache.Storage.Set(ctx, key, raw); err != nil {
		var zero T
		return zero, errors.Wrap(errors.ErrCodeCache, err, "write cache entry for %s", url)
	}
	observability.Cache().OnCacheSet(ctx, endpoint, len(raw))
	return v, nil
}

func (c *Client) get(ctx context.Context, endpoint, url string, headers map[string]string) ([]byte, error) {
	c.logger.Debug("fetch", "endpoint", endpoint, "url", url)
	raw, err := c.transport.Get(ctx, url, headers)
	if err != nil {
		c.logger.Debug("fetch failed", "endpoint", endpoint, "url", url, "err", err)
		return nil, err
	}
	return raw, nil
}

// truthy reports whether a stored value counts as present. Empty values and
// the JSON literals null, false, 0 and "" are treated as misses.
func truthy(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", `""`:
		return false
	}
	if f, err := strconv.ParseFloat(string(raw), 64); err == nil && f == 0 {
		return false
	}
	return true
}
