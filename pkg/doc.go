// Package pkg provides the libraries behind npmreg, a typed client for the
// npm registry's read-only API.
//
// # Overview
//
// The pkg directory is organized by concern:
//
//  1. [integrations/npm] - endpoint methods, response types and schemas
//  2. [integrations] - shared HTTP transport and URL helpers
//  3. [schema] - JSON Schema validation and decoding
//  4. [cache] - request serialization for the read-through cache
//  5. [kv] - key-value stores: memory, file, [kv/redis], [kv/mongo]
//  6. [errors] - coded errors and input validation
//  7. [observability] - fetch, cache and HTTP hooks with an OpenTelemetry bridge
//
// # Architecture
//
// Every endpoint call goes through the same pipeline:
//
//	validate input
//	     ↓
//	cache lookup (key derived from URL + headers)
//	     ↓ miss
//	HTTP GET
//	     ↓
//	schema validation + decode
//	     ↓
//	cache fill
//
// Cached documents are validated again when read, so a store never serves a
// value the schema would reject.
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/npmreg/pkg/cache"
//	    "github.com/matzehuels/npmreg/pkg/integrations/npm"
//	    "github.com/matzehuels/npmreg/pkg/kv"
//	)
//
//	client, err := npm.NewClient(npm.WithCache(cache.New(kv.NewMemory())))
//	if err != nil {
//	    return err
//	}
//	m, err := client.GetPackageManifest(ctx, "react", "18.2.0")
//
// [integrations/npm]: https://pkg.go.dev/github.com/matzehuels/npmreg/pkg/integrations/npm
// [integrations]: https://pkg.go.dev/github.com/matzehuels/npmreg/pkg/integrations
// [schema]: https://pkg.go.dev/github.com/matzehuels/npmreg/pkg/schema
// [cache]: https://pkg.go.dev/github.com/matzehuels/npmreg/pkg/cache
// [kv]: https://pkg.go.dev/github.com/matzehuels/npmreg/pkg/kv
// [kv/redis]: https://pkg.go.dev/github.com/matzehuels/npmreg/pkg/kv/redis
// [kv/mongo]: https://pkg.go.dev/github.com/matzehuels/npmreg/pkg/kv/mongo
// [errors]: https://pkg.go.dev/github.com/matzehuels/npmreg/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/npmreg/pkg/observability
package pkg
