package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans and instruments created by OTel.
const InstrumentationName = "github.com/matzehuels/npmreg"

// OTel implements every hook interface on top of OpenTelemetry. Each fetch
// becomes a span; cache and HTTP events are recorded as span events and
// counters.
type OTel struct {
	tracer trace.Tracer

	fetches       metric.Int64Counter
	fetchErrors   metric.Int64Counter
	fetchDuration metric.Float64Histogram
	cacheLookups  metric.Int64Counter
	cacheBytes    metric.Int64Counter
	httpRequests  metric.Int64Counter
	httpErrors    metric.Int64Counter
	httpDuration  metric.Float64Histogram
}

// NewOTel creates instruments from the given providers.
func NewOTel(tp trace.TracerProvider, mp metric.MeterProvider) (*OTel, error) {
	meter := mp.Meter(InstrumentationName)
	o := &OTel{tracer: tp.Tracer(InstrumentationName)}

	var err error
	if o.fetches, err = meter.Int64Counter("npmreg.fetch.total",
		metric.WithDescription("Registry fetches"),
		metric.WithUnit("{fetch}"),
	); err != nil {
		return nil, err
	}
	if o.fetchErrors, err = meter.Int64Counter("npmreg.fetch.errors",
		metric.WithDescription("Registry fetches that failed"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if o.fetchDuration, err = meter.Float64Histogram("npmreg.fetch.duration_ms",
		metric.WithDescription("Registry fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if o.cacheLookups, err = meter.Int64Counter("npmreg.cache.lookups",
		metric.WithDescription("Cache lookups by result"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}
	if o.cacheBytes, err = meter.Int64Counter("npmreg.cache.written_bytes",
		metric.WithDescription("Bytes written to the cache"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if o.httpRequests, err = meter.Int64Counter("npmreg.http.requests",
		metric.WithDescription("HTTP responses by status code"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if o.httpErrors, err = meter.Int64Counter("npmreg.http.errors",
		metric.WithDescription("HTTP transport failures"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if o.httpDuration, err = meter.Float64Histogram("npmreg.http.duration_ms",
		metric.WithDescription("HTTP round trip duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	return o, nil
}

// Install registers o for every hook category in one swap, so no fetch
// observes a partly installed set.
func Install(o *OTel) {
	current.Store(&hookSet{fetch: o, cache: o, http: o})
}

// OnFetchStart starts a span named "npm.<endpoint>".
func (o *OTel) OnFetchStart(ctx context.Context, endpoint, url string) context.Context {
	ctx, _ = o.tracer.Start(ctx, "npm."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("npm.endpoint", endpoint),
			attribute.String("url.full", url),
		),
	)
	return ctx
}

// OnFetchComplete ends the span started by OnFetchStart and records metrics.
func (o *OTel) OnFetchComplete(ctx context.Context, endpoint string, source Source, duration time.Duration, err error) {
	opt := metric.WithAttributes(
		attribute.String("npm.endpoint", endpoint),
		attribute.String("npm.source", string(source)),
	)
	o.fetches.Add(ctx, 1, opt)
	o.fetchDuration.Record(ctx, float64(duration.Milliseconds()), opt)

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("npm.source", string(source)))
	if err != nil {
		o.fetchErrors.Add(ctx, 1, opt)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (o *OTel) OnCacheHit(ctx context.Context, endpoint string) {
	o.cacheLookup(ctx, endpoint, "hit")
}

func (o *OTel) OnCacheMiss(ctx context.Context, endpoint string) {
	o.cacheLookup(ctx, endpoint, "miss")
}

func (o *OTel) cacheLookup(ctx context.Context, endpoint, result string) {
	o.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("npm.endpoint", endpoint),
		attribute.String("cache.result", result),
	))
	trace.SpanFromContext(ctx).AddEvent("cache."+result)
}

func (o *OTel) OnCacheSet(ctx context.Context, endpoint string, size int) {
	o.cacheBytes.Add(ctx, int64(size), metric.WithAttributes(attribute.String("npm.endpoint", endpoint)))
	trace.SpanFromContext(ctx).AddEvent("cache.set", trace.WithAttributes(attribute.Int("cache.size", size)))
}

func (o *OTel) OnRequest(ctx context.Context, method, host, path string) {
	trace.SpanFromContext(ctx).AddEvent("http.request", trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("server.address", host),
		attribute.String("url.path", path),
	))
}

func (o *OTel) OnResponse(ctx context.Context, method, host, _ string, statusCode int, duration time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("server.address", host),
		attribute.Int("http.response.status_code", statusCode),
	)
	o.httpRequests.Add(ctx, 1, opt)
	o.httpDuration.Record(ctx, float64(duration.Milliseconds()), opt)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.response.status_code", statusCode))
}

func (o *OTel) OnError(ctx context.Context, method, host, _ string, err error) {
	o.httpErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("server.address", host),
	))
	trace.SpanFromContext(ctx).RecordError(err)
}

var (
	_ FetchHooks = (*OTel)(nil)
	_ CacheHooks = (*OTel)(nil)
	_ HTTPHooks  = (*OTel)(nil)
)
