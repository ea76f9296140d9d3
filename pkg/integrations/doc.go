// Package integrations provides the HTTP transport shared by registry API
// clients.
//
// # Overview
//
// [Client] performs unauthenticated GET requests, applies default headers
// (such as User-Agent) and maps response statuses to coded errors from
// [errors]:
//
//   - 2xx: success, the body is returned as-is
//   - 404: NOT_FOUND, which also matches [errors.ErrNotFound] and [errors.ErrNetwork]
//   - anything else: NETWORK_ERROR wrapping an [errors.StatusError]
//   - transport failures: NETWORK_ERROR wrapping the underlying error, so
//     context cancellation stays detectable with the standard errors.Is
//
// The transport never retries and never caches. Caching is layered on top by
// registry clients such as [npm].
//
// # Getter
//
// Registry clients depend on the [Getter] interface rather than on [Client],
// so tests and embedders can substitute their own transport:
//
//	type recorder struct{ urls []string }
//
//	func (r *recorder) Get(ctx context.Context, url string, h map[string]string) ([]byte, error) {
//	    r.urls = append(r.urls, url)
//	    return []byte(`{}`), nil
//	}
//
// # Observability
//
// Every request reports to [observability.HTTP] hooks.
//
// [errors]: github.com/matzehuels/npmreg/pkg/errors
// [errors.ErrNotFound]: github.com/matzehuels/npmreg/pkg/errors.ErrNotFound
// [errors.ErrNetwork]: github.com/matzehuels/npmreg/pkg/errors.ErrNetwork
// [errors.StatusError]: github.com/matzehuels/npmreg/pkg/errors.StatusError
// [observability.HTTP]: github.com/matzehuels/npmreg/pkg/observability.HTTP
// [npm]: github.com/matzehuels/npmreg/pkg/integrations/npm
package integrations
