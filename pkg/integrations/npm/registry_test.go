package npm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/npmreg/pkg/kv"
)

const reactManifest = `{
	"_id": "react@18.2.0",
	"name": "react",
	"version": "18.2.0",
	"description": "React is a JavaScript library for building user interfaces.",
	"keywords": ["react"],
	"homepage": "https://reactjs.org/",
	"bugs": {"url": "https://github.com/facebook/react/issues"},
	"license": "MIT",
	"main": "index.js",
	"repository": {"type": "git", "url": "git+https://github.com/facebook/react.git", "directory": "packages/react"},
	"engines": {"node": ">=0.10.0"},
	"dependencies": {"loose-envify": "^1.1.0"},
	"maintainers": [{"name": "gaearon", "email": "dan.abramov@gmail.com"}],
	"_npmUser": {"name": "gnoff", "email": "jcs.gnoff@gmail.com"},
	"dist": {
		"tarball": "https://registry.npmjs.org/react/-/react-18.2.0.tgz",
		"shasum": "555bd98592883255fa00de14f1151a917b5d77d5",
		"integrity": "sha512-/3IjMdb2L9QbBdWiW5e3P2/npwMBaU9mHCSCUzNln0ZCYbcfTsGbTJrU/kGemdH2IWmB2ioZ+zkxtmq6g09fGQ==",
		"fileCount": 16,
		"unpackedSize": 316036,
		"signatures": [{"keyid": "SHA256:jl3bwswu80PjjokCgh0o2w5c2U4LhQAE57gj9cz1kzA", "sig": "MEUCIQ"}]
	}
}`

const reactNextManifest = `{
	"_id": "react@19.0.0-rc",
	"name": "react",
	"version": "19.0.0-rc",
	"dist": {"tarball": "https://registry.npmjs.org/react/-/react-19.0.0-rc.tgz", "shasum": "abc"}
}`

var reactPackument = `{
	"_id": "react",
	"_rev": "1-abc",
	"name": "react",
	"dist-tags": {"latest": "18.2.0", "next": "19.0.0-rc"},
	"versions": {"18.2.0": ` + reactManifest + `, "19.0.0-rc": ` + reactNextManifest + `},
	"time": {"created": "2011-10-26T17:46:21.942Z", "18.2.0": "2022-06-14T19:46:38.369Z"},
	"license": "MIT",
	"repository": "facebook/react"
}`

const reactAbbreviated = `{
	"name": "react",
	"modified": "2024-05-01T00:00:00.000Z",
	"dist-tags": {"latest": "18.2.0"},
	"versions": {
		"18.2.0": {
			"name": "react",
			"version": "18.2.0",
			"dependencies": {"loose-envify": "^1.1.0"},
			"engines": {"node": ">=0.10.0"},
			"dist": {"tarball": "https://registry.npmjs.org/react/-/react-18.2.0.tgz", "shasum": "555bd98592883255fa00de14f1151a917b5d77d5"}
		}
	}
}`

const typesNodePackument = `{"_id": "@types/node", "name": "@types/node", "dist-tags": {"latest": "20.0.0"}, "versions": {}}`

const signingKeys = `{"keys": [
	{"expires": null, "keyid": "SHA256:jl3bwswu80PjjokCgh0o2w5c2U4LhQAE57gj9cz1kzA", "keytype": "ecdsa-sha2-nistp256", "scheme": "ecdsa-sha2-nistp256", "key": "MFkw"},
	{"expires": "2025-01-29T00:00:00.000Z", "keyid": "SHA256:old", "keytype": "ecdsa-sha2-nistp256", "scheme": "ecdsa-sha2-nistp256", "key": "MFkx"}
]}`

const registryRoot = `{"db_name": "registry", "engine": "couch_bt_engine", "doc_count": 3380000, "update_seq": "3380000-g1AAAA", "disk_size": 123, "sizes": {"file": 1, "active": 2, "external": 3}, "compact_running": false}`

const searchResponse = `{
	"objects": [{
		"package": {
			"name": "react",
			"scope": "unscoped",
			"version": "18.2.0",
			"description": "React is a JavaScript library for building user interfaces.",
			"keywords": ["react"],
			"date": "2022-06-14T19:46:38.369Z",
			"links": {"npm": "https://www.npmjs.com/package/react", "homepage": "https://reactjs.org/"},
			"publisher": {"username": "gnoff", "email": "jcs.gnoff@gmail.com"},
			"maintainers": [{"username": "gaearon", "email": "dan.abramov@gmail.com"}]
		},
		"score": {"final": 0.93, "detail": {"quality": 0.86, "popularity": 1, "maintenance": 0.99}},
		"searchScore": 100000.9,
		"downloads": {"monthly": 100, "weekly": 25},
		"dependents": 120000
	}],
	"total": 1,
	"time": "Wed Jun 14 2023 19:46:38 GMT+0000 (Coordinated Universal Time)"
}`

// recordedRequest is one request seen by the fake registry.
type recordedRequest struct {
	Path   string
	Query  string
	Accept string
}

// fakeRegistry serves the metadata and downloads APIs from two test servers,
// recording every request.
type fakeRegistry struct {
	registry  *httptest.Server
	downloads *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest

	// override, when set, answers every request instead of the routes.
	override http.HandlerFunc
}

func newFakeRegistry(t *testing.T) *fakeRegistry {
	t.Helper()
	f := &fakeRegistry{}

	reg := chi.NewRouter()
	reg.Use(f.record)
	reg.Get("/", f.json(registryRoot))
	reg.Get("/-/npm/v1/keys", f.json(signingKeys))
	reg.Get("/-/v1/search", f.json(searchResponse))
	reg.Get("/{name}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "name") != "react" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Accept") == AbbreviatedAccept {
			writeJSON(w, reactAbbreviated)
			return
		}
		writeJSON(w, reactPackument)
	})
	reg.Get("/{name}/{version}", func(w http.ResponseWriter, r *http.Request) {
		name, version := chi.URLParam(r, "name"), chi.URLParam(r, "version")
		switch {
		case name == "@types" && version == "node":
			writeJSON(w, typesNodePackument)
		case name == "react" && (version == "18.2.0" || version == "latest"):
			writeJSON(w, reactManifest)
		case name == "react" && version == "next":
			writeJSON(w, reactNextManifest)
		default:
			http.NotFound(w, r)
		}
	})

	dl := chi.NewRouter()
	dl.Use(f.record)
	dl.Get("/downloads/point/{period}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"downloads": 1000000, "start": "2024-01-01", "end": "2024-01-07"}`)
	})
	dl.Get("/downloads/range/{period}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"downloads": [{"downloads": 10, "day": "2024-01-01"}, {"downloads": 20, "day": "2024-01-02"}], "start": "2024-01-01", "end": "2024-01-02"}`)
	})
	dl.Get("/downloads/point/{period}/{names}", func(w http.ResponseWriter, r *http.Request) {
		names := strings.Split(chi.URLParam(r, "names"), ",")
		if len(names) == 1 {
			writeJSON(w, pointDownloads(names[0]))
			return
		}
		out := make(map[string]json.RawMessage, len(names))
		for _, n := range names {
			if n == "radial-guts-fool-bullseye-hypnotist" {
				out[n] = json.RawMessage("null")
				continue
			}
			out[n] = json.RawMessage(pointDownloads(n))
		}
		data, _ := json.Marshal(out)
		writeJSON(w, string(data))
	})
	dl.Get("/downloads/range/{period}/{names}", func(w http.ResponseWriter, r *http.Request) {
		names := strings.Split(chi.URLParam(r, "names"), ",")
		daily := func(n string) string {
			return `{"downloads": [{"downloads": 5, "day": "2024-01-01"}], "start": "2024-01-01", "end": "2024-01-01", "package": "` + n + `"}`
		}
		if len(names) == 1 {
			writeJSON(w, daily(names[0]))
			return
		}
		out := make(map[string]json.RawMessage, len(names))
		for _, n := range names {
			out[n] = json.RawMessage(daily(n))
		}
		data, _ := json.Marshal(out)
		writeJSON(w, string(data))
	})
	dl.Get("/versions/{name}/last-week", func(w http.ResponseWriter, r *http.Request) {
		name, err := url.PathUnescape(chi.URLParam(r, "name"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, `{"package": "`+name+`", "downloads": {"1.0.0": 3, "2.0.0": 40}}`)
	})

	f.registry = httptest.NewServer(reg)
	f.downloads = httptest.NewServer(dl)
	t.Cleanup(func() {
		f.registry.Close()
		f.downloads.Close()
	})
	return f
}

func pointDownloads(name string) string {
	return `{"downloads": 1234, "start": "2024-01-01", "end": "2024-01-31", "package": "` + name + `"}`
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func (f *fakeRegistry) json(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { writeJSON(w, body) }
}

func (f *fakeRegistry) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.RawQuery,
			Accept: r.Header.Get("Accept"),
		})
		override := f.override
		f.mu.Unlock()

		if override != nil {
			override(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeRegistry) setOverride(h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.override = h
}

func (f *fakeRegistry) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeRegistry) client(t *testing.T, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithRegistryURL(f.registry.URL),
		WithDownloadsURL(f.downloads.URL),
	}, opts...)
	c, err := NewClient(opts...)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

// countingStore wraps a kv.Store and counts calls.
type countingStore struct {
	kv.Store
	gets, sets atomic.Int64
	getErr     error
	setErr     error
}

func newCountingStore() *countingStore {
	return &countingStore{Store: kv.NewMemory()}
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.gets.Add(1)
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	return s.Store.Get(ctx, key)
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte) error {
	s.sets.Add(1)
	if s.setErr != nil {
		return s.setErr
	}
	return s.Store.Set(ctx, key, value)
}
