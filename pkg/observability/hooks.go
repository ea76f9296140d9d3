// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about registry fetches, cache operations, and HTTP calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// [OTel] is the bundled implementation backed by OpenTelemetry; [Install]
// registers it for all three categories.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    o, err := observability.NewOTel(otel.GetTracerProvider(), otel.GetMeterProvider())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    observability.Install(o)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	ctx = observability.Fetch().OnFetchStart(ctx, "packument", url)
//	// ... cache lookup, HTTP GET, validation ...
//	observability.Fetch().OnFetchComplete(ctx, "packument", observability.SourceNetwork, duration, err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// Source tells where a fetched value came from.
type Source string

const (
	SourceCache   Source = "cache"
	SourceNetwork Source = "network"
)

// =============================================================================
// Fetch Hooks
// =============================================================================

// FetchHooks receives events from the fetch-validate-cache pipeline.
type FetchHooks interface {
	// OnFetchStart marks the beginning of a fetch. The returned context is
	// passed to every later hook of the same fetch, so implementations may
	// attach spans or other request-scoped values to it.
	OnFetchStart(ctx context.Context, endpoint, url string) context.Context

	// OnFetchComplete marks the end of a fetch.
	OnFetchComplete(ctx context.Context, endpoint string, source Source, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, endpoint string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, endpoint string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, endpoint string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopFetchHooks is a no-op implementation of FetchHooks.
type NoopFetchHooks struct{}

func (NoopFetchHooks) OnFetchStart(ctx context.Context, _, _ string) context.Context { return ctx }
func (NoopFetchHooks) OnFetchComplete(context.Context, string, Source, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// hookSet is the registered hooks, swapped as a unit.
type hookSet struct {
	fetch FetchHooks
	cache CacheHooks
	http  HTTPHooks
}

var noopHooks = hookSet{NoopFetchHooks{}, NoopCacheHooks{}, NoopHTTPHooks{}}

var current atomic.Pointer[hookSet]

func init() { Reset() }

// update copies the current set, applies fn and stores the result.
// Concurrent updates retry, so no registration is lost.
func update(fn func(*hookSet)) {
	for {
		old := current.Load()
		next := *old
		fn(&next)
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// SetFetchHooks registers fetch hooks. A nil h is ignored.
func SetFetchHooks(h FetchHooks) {
	if h != nil {
		update(func(s *hookSet) { s.fetch = h })
	}
}

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(s *hookSet) { s.cache = h })
	}
}

// SetHTTPHooks registers HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(s *hookSet) { s.http = h })
	}
}

// Fetch returns the registered fetch hooks.
func Fetch() FetchHooks { return current.Load().fetch }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return current.Load().cache }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return current.Load().http }

// Reset restores the no-op hooks. Tests that install hooks should defer it.
func Reset() {
	s := noopHooks
	current.Store(&s)
}
