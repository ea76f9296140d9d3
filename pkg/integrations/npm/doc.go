// Package npm provides a typed client for the npm registry's read-only API.
//
// # Overview
//
// The client covers package metadata (packuments and manifests), download
// counts, search, signing keys and the registry root document. Every
// response is checked against a JSON Schema before it is decoded, so callers
// get either a well-formed value or a VALIDATION_ERROR, never a half-filled
// struct.
//
// # Usage
//
//	client, err := npm.NewClient()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	m, err := client.GetPackageManifest(ctx, "react", "18.2.0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(m.ID) // react@18.2.0
//
//	d, err := client.GetBulkPackageDownloads(ctx, []string{"npm", "react"}, npm.LastWeek)
//
// # Caching
//
// [WithCache] turns the client into a read-through cache over any [kv.Store]:
//
//	c := cache.New(kv.NewMemory())
//	client, err := npm.NewClient(npm.WithCache(c))
//
// Keys are derived from the request URL and headers, so the abbreviated and
// full packuments of a package are cached separately. Cached values are the
// validated response bodies and are validated again on every read. Expiry is
// up to the store: the file, Redis and MongoDB stores take a TTL.
//
// # Errors
//
// Input is validated before any I/O:
//
//   - INVALID_NAME: a package name fails the npm naming rules, or a bulk
//     query contains a scoped name
//   - INVALID_INPUT: a malformed period, version, tag or search criteria, or
//     a bulk list outside 2..128 names
//
// Failures after that surface as NETWORK_ERROR, NOT_FOUND, VALIDATION_ERROR
// or CACHE_ERROR. Nothing is retried.
//
// # Custom Endpoints
//
// [Fetch] exposes the pipeline itself for routes the client does not wrap:
//
//	s, err := schema.FromJSON[map[string]string]("dist-tags.json", []byte(`{"type":"object"}`))
//	tags, err := npm.Fetch(ctx, client, s, "https://registry.npmjs.org/-/package/react/dist-tags", nil)
//
// [kv.Store]: github.com/matzehuels/npmreg/pkg/kv.Store
package npm
