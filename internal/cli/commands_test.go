package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/npmreg/pkg/errors"
	"github.com/matzehuels/npmreg/pkg/integrations/npm"
	"github.com/matzehuels/npmreg/pkg/observability"
)

func manifestJSON(name, version string) string {
	return `{"_id": "` + name + `@` + version + `", "name": "` + name + `", "version": "` + version + `", "dist": {"tarball": "https://example.com/t.tgz", "shasum": "abc"}}`
}

type testRegistry struct {
	*httptest.Server
	hits atomic.Int64
}

func newTestRegistry(t *testing.T) *testRegistry {
	t.Helper()
	reg := &testRegistry{}
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, body)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", serve(`{"db_name": "registry", "doc_count": 10}`))
	mux.HandleFunc("/react", serve(`{"_id": "react", "name": "react", "dist-tags": {"latest": "18.2.0"}, "versions": {"18.2.0": `+manifestJSON("react", "18.2.0")+`}}`))
	mux.HandleFunc("/react/18.2.0", serve(manifestJSON("react", "18.2.0")))
	mux.HandleFunc("/react/latest", serve(manifestJSON("react", "18.2.0")))
	mux.HandleFunc("/@types/node/20.0.0", serve(manifestJSON("@types/node", "20.0.0")))
	mux.HandleFunc("/-/npm/v1/keys", serve(`{"keys": [{"expires": null, "keyid": "SHA256:k", "keytype": "ecdsa-sha2-nistp256", "scheme": "ecdsa-sha2-nistp256", "key": "MFkw"}]}`))
	mux.HandleFunc("/-/v1/search", serve(`{"objects": [{"package": {"name": "react", "version": "18.2.0", "description": "UI library"}, "score": {"final": 0.9, "detail": {"quality": 0.8, "popularity": 1, "maintenance": 0.9}}, "searchScore": 1}], "total": 1, "time": "now"}`))
	mux.HandleFunc("/downloads/point/last-week/react", serve(`{"downloads": 100, "start": "2024-01-01", "end": "2024-01-07", "package": "react"}`))
	mux.HandleFunc("/downloads/point/last-month/npm,react", serve(`{"npm": {"downloads": 1, "start": "a", "end": "b", "package": "npm"}, "react": {"downloads": 2, "start": "a", "end": "b", "package": "react"}}`))
	mux.HandleFunc("/downloads/range/last-week", serve(`{"downloads": [{"downloads": 5, "day": "2024-01-01"}], "start": "2024-01-01", "end": "2024-01-07"}`))
	mux.HandleFunc("/versions/{name}/last-week", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("name") != "@types/node" {
			http.NotFound(w, r)
			return
		}
		serve(`{"package": "@types/node", "downloads": {"20.0.0": 7}}`)(w, r)
	})

	reg.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reg.hits.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(reg.Close)
	return reg
}

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, reg *testRegistry, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	prev := statusOut
	statusOut = io.Discard
	t.Cleanup(func() {
		statusOut = prev
		observability.Reset()
	})

	var out, logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.SetOutput(&out)

	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if reg != nil {
		args = append([]string{"--registry", reg.URL, "--downloads", reg.URL}, args...)
	}
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestManifestCommand(t *testing.T) {
	reg := newTestRegistry(t)

	out, err := runCLI(t, reg, "--cache", "none", "manifest", "react@18.2.0")
	if err != nil {
		t.Fatalf("manifest error: %v", err)
	}
	var m npm.PackageManifest
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("output is not a manifest: %v\n%s", err, out)
	}
	if m.ID != "react@18.2.0" {
		t.Errorf("ID = %q", m.ID)
	}
}

func TestManifestCommandMany(t *testing.T) {
	reg := newTestRegistry(t)

	out, err := runCLI(t, reg, "--cache", "memory", "manifest", "@types/node@20.0.0", "react", "react@18.2.0")
	if err != nil {
		t.Fatalf("manifest error: %v", err)
	}
	var ms []npm.PackageManifest
	if err := json.Unmarshal([]byte(out), &ms); err != nil {
		t.Fatalf("output is not a manifest array: %v\n%s", err, out)
	}
	want := []string{"@types/node@20.0.0", "react@18.2.0", "react@18.2.0"}
	if len(ms) != len(want) {
		t.Fatalf("got %d manifests, want %d", len(ms), len(want))
	}
	for i, id := range want {
		if ms[i].ID != id {
			t.Errorf("manifest %d = %q, want %q", i, ms[i].ID, id)
		}
	}
}

func TestManifestCommandNotFound(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := runCLI(t, reg, "--cache", "none", "manifest", "react@18.2.0", "left-pad@1.0.0")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("manifest error = %v, want NOT_FOUND", err)
	}
	if !strings.Contains(err.Error(), "left-pad@1.0.0") {
		t.Errorf("error should name the failing spec: %v", err)
	}
}

func TestPackumentCommand(t *testing.T) {
	reg := newTestRegistry(t)

	out, err := runCLI(t, reg, "--cache", "none", "packument", "react")
	if err != nil {
		t.Fatalf("packument error: %v", err)
	}
	var p npm.Packument
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("output is not a packument: %v", err)
	}
	if latest, ok := p.Latest(); !ok || latest.Version != "18.2.0" {
		t.Errorf("Latest() = %+v, %v", latest, ok)
	}
}

func TestDownloadsCommands(t *testing.T) {
	reg := newTestRegistry(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"point", []string{"downloads", "react"}, `"downloads": 100`},
		{"bulk", []string{"downloads", "bulk", "npm", "react", "--period", "last-month"}, `"react": {`},
		{"registry daily", []string{"downloads", "registry", "--daily"}, `"day": "2024-01-01"`},
		{"versions", []string{"downloads", "versions", "@types/node"}, `"20.0.0": 7`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, reg, append([]string{"--cache", "none"}, tt.args...)...)
			if err != nil {
				t.Fatalf("%v error: %v", tt.args, err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestDownloadsInvalidPeriod(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := runCLI(t, reg, "--cache", "none", "downloads", "react", "--period", "fortnight")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("downloads error = %v, want INVALID_INPUT", err)
	}
	if n := reg.hits.Load(); n != 0 {
		t.Errorf("requests = %d, want 0", n)
	}
}

func TestDownloadsVersionsRejectsPeriodFlags(t *testing.T) {
	reg := newTestRegistry(t)

	for _, flag := range [][]string{{"--period", "last-month"}, {"--daily"}} {
		args := append([]string{"--cache", "none", "downloads", "versions", "@types/node"}, flag...)
		_, err := runCLI(t, reg, args...)
		if err == nil || !strings.Contains(err.Error(), "unknown flag") {
			t.Errorf("%v error = %v, want unknown flag", flag, err)
		}
	}
	if n := reg.hits.Load(); n != 0 {
		t.Errorf("requests = %d, want 0", n)
	}
}

func TestSearchCommand(t *testing.T) {
	reg := newTestRegistry(t)

	out, err := runCLI(t, reg, "--cache", "none", "search", "react", "--size", "5")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	var res npm.SearchResults
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not search results: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("Total = %d", res.Total)
	}

	out, err = runCLI(t, reg, "--cache", "none", "search", "react", "--table")
	if err != nil {
		t.Fatalf("search --table error: %v", err)
	}
	if !strings.Contains(out, "react") || !strings.Contains(out, "0.90") {
		t.Errorf("table output missing row:\n%s", out)
	}
}

func TestRegistryCommands(t *testing.T) {
	reg := newTestRegistry(t)

	out, err := runCLI(t, reg, "--cache", "none", "keys")
	if err != nil {
		t.Fatalf("keys error: %v", err)
	}
	if !strings.Contains(out, `"keyid": "SHA256:k"`) {
		t.Errorf("keys output:\n%s", out)
	}

	out, err = runCLI(t, reg, "--cache", "none", "metadata")
	if err != nil {
		t.Fatalf("metadata error: %v", err)
	}
	if !strings.Contains(out, `"db_name": "registry"`) {
		t.Errorf("metadata output:\n%s", out)
	}
}

func TestInvalidCacheBackend(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := runCLI(t, reg, "--cache", "bogus", "keys")
	if !errors.Is(err, errors.ErrCodeConfig) {
		t.Errorf("error = %v, want CONFIG_ERROR", err)
	}
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}

func TestFileCacheLifecycle(t *testing.T) {
	reg := newTestRegistry(t)
	dir := filepath.Join(t.TempDir(), "responses")
	config := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(config, []byte("[cache]\nbackend = \"file\"\ndir = \""+filepath.ToSlash(dir)+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for range 2 {
		if _, err := runCLI(t, reg, "--config", config, "manifest", "react@18.2.0"); err != nil {
			t.Fatalf("manifest error: %v", err)
		}
	}
	if n := reg.hits.Load(); n != 1 {
		t.Errorf("requests = %d, want 1 (second call served from cache)", n)
	}
	if n := countFiles(t, dir); n != 1 {
		t.Errorf("cache files = %d, want 1", n)
	}

	out, err := runCLI(t, nil, "--config", config, "cache", "path")
	if err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	if strings.TrimSpace(out) != filepath.ToSlash(dir) {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), dir)
	}

	if _, err := runCLI(t, nil, "--config", config, "cache", "clear"); err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if n := countFiles(t, dir); n != 0 {
		t.Errorf("cache files after clear = %d, want 0", n)
	}
}

func TestCacheClearDisabled(t *testing.T) {
	if _, err := runCLI(t, nil, "--cache", "none", "cache", "clear"); err != nil {
		t.Errorf("cache clear error: %v", err)
	}
}

func TestSplitSpec(t *testing.T) {
	tests := []struct {
		spec, name, version string
	}{
		{"react", "react", ""},
		{"react@18.2.0", "react", "18.2.0"},
		{"react@next", "react", "next"},
		{"@types/node", "@types/node", ""},
		{"@types/node@20.0.0", "@types/node", "20.0.0"},
		{"react@", "react", ""},
	}
	for _, tt := range tests {
		name, version := splitSpec(tt.spec)
		if name != tt.name || version != tt.version {
			t.Errorf("splitSpec(%q) = %q, %q; want %q, %q", tt.spec, name, version, tt.name, tt.version)
		}
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := runCLI(t, nil, "completion", shell)
			if err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(out, "npmreg") {
				t.Errorf("%s script does not mention npmreg", shell)
			}
		})
	}

	if _, err := runCLI(t, nil, "completion", "tcsh"); err == nil {
		t.Error("unsupported shell should fail")
	}
}

func TestFlagCompletions(t *testing.T) {
	got, directive := periodCompletions(nil, nil, "")
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v", directive)
	}
	if !slices.Contains(got, "last-month") {
		t.Errorf("period completions = %v", got)
	}

	got, _ = completeFixed(backends...)(nil, nil, "")
	if !slices.Equal(got, backends) {
		t.Errorf("cache completions = %v", got)
	}
}
