package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestOTel(t *testing.T) (*OTel, *tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	o, err := NewOTel(tp, mp)
	if err != nil {
		t.Fatalf("NewOTel() error: %v", err)
	}
	return o, sr, reader
}

func TestOTelFetchSpan(t *testing.T) {
	o, sr, _ := newTestOTel(t)

	ctx := o.OnFetchStart(context.Background(), "packument", "https://registry.npmjs.org/react")
	o.OnCacheMiss(ctx, "packument")
	o.OnRequest(ctx, "GET", "registry.npmjs.org", "/react")
	o.OnResponse(ctx, "GET", "registry.npmjs.org", "/react", 200, 20*time.Millisecond)
	o.OnCacheSet(ctx, "packument", 512)
	o.OnFetchComplete(ctx, "packument", SourceNetwork, 25*time.Millisecond, nil)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "npm.packument" {
		t.Errorf("span name = %q, want %q", span.Name(), "npm.packument")
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("span status = %v, want Ok", span.Status().Code)
	}

	var events []string
	for _, e := range span.Events() {
		events = append(events, e.Name)
	}
	want := []string{"cache.miss", "http.request", "cache.set"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestOTelFetchError(t *testing.T) {
	o, sr, reader := newTestOTel(t)

	ctx := o.OnFetchStart(context.Background(), "manifest", "https://registry.npmjs.org/x/latest")
	o.OnFetchComplete(ctx, "manifest", SourceNetwork, time.Millisecond, errors.New("boom"))

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", spans[0].Status().Code)
	}

	if got := sumInt64(t, reader, "npmreg.fetch.errors"); got != 1 {
		t.Errorf("npmreg.fetch.errors = %d, want 1", got)
	}
}

func TestOTelMetrics(t *testing.T) {
	o, _, reader := newTestOTel(t)
	ctx := context.Background()

	o.OnCacheHit(ctx, "packument")
	o.OnCacheHit(ctx, "packument")
	o.OnCacheMiss(ctx, "manifest")
	o.OnCacheSet(ctx, "manifest", 100)
	o.OnCacheSet(ctx, "manifest", 50)
	o.OnResponse(ctx, "GET", "registry.npmjs.org", "/react", 200, time.Millisecond)
	o.OnError(ctx, "GET", "registry.npmjs.org", "/react", errors.New("refused"))
	o.OnFetchComplete(ctx, "packument", SourceCache, time.Millisecond, nil)

	tests := []struct {
		metric string
		want   int64
	}{
		{"npmreg.cache.lookups", 3},
		{"npmreg.cache.written_bytes", 150},
		{"npmreg.http.requests", 1},
		{"npmreg.http.errors", 1},
		{"npmreg.fetch.total", 1},
	}
	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			if got := sumInt64(t, reader, tt.metric); got != tt.want {
				t.Errorf("%s = %d, want %d", tt.metric, got, tt.want)
			}
		})
	}
}

func TestInstall(t *testing.T) {
	defer Reset()
	o, _, _ := newTestOTel(t)
	Install(o)

	if Fetch() != FetchHooks(o) {
		t.Error("Install() should register fetch hooks")
	}
	if Cache() != CacheHooks(o) {
		t.Error("Install() should register cache hooks")
	}
	if HTTP() != HTTPHooks(o) {
		t.Error("Install() should register HTTP hooks")
	}
}

func sumInt64(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: data is %T, want Sum[int64]", name, m.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}
