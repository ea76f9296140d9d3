// Package schema validates untyped JSON documents against JSON Schema
// descriptors and decodes them into typed Go values.
//
// # Overview
//
// A [Schema] couples a compiled JSON Schema with a Go type. [Schema.Parse]
// first validates the raw document against the schema, then decodes it into
// the Go type; a failure at either step is reported as a VALIDATION_ERROR.
// The same Parse is used for fresh network responses and for values read back
// from a cache, so a stale or hand-edited cache entry fails exactly like a
// malformed response would.
//
// Schemas are compiled once and are immutable afterwards, so a single Schema
// may be shared by any number of goroutines.
//
// # Usage
//
//	//go:embed schemas/*.json
//	var files embed.FS
//
//	set := schema.MustLoad(files, "schemas")
//	var Downloads = schema.Must[PackageDownloads](set, "package-downloads.json")
//
//	v, err := Downloads.Parse(body)
//
// Documents inside one [Set] may reference each other with relative $ref
// values such as "manifest.json#/$defs/dist".
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/matzehuels/npmreg/pkg/errors"
)

// baseURL anchors schema documents so relative references resolve within a
// Set. Nothing is ever fetched from it.
const baseURL = "https://npmreg.local/schemas/"

// Set is a collection of schema documents compiled by one compiler.
type Set struct {
	mu       sync.Mutex
	compiler *jsonschema.Compiler
}

// Load reads every *.json file in dir of fsys into a new Set.
func Load(fsys fs.FS, dir string) (*Set, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir %s: %w", dir, err)
	}

	set := &Set{compiler: jsonschema.NewCompiler()}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if err := set.Add(e.Name(), data); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// MustLoad is like Load but panics on error. It is meant for package-level
// variables initialized from embedded files.
func MustLoad(fsys fs.FS, dir string) *Set {
	set, err := Load(fsys, dir)
	if err != nil {
		panic(err)
	}
	return set
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{compiler: jsonschema.NewCompiler()}
}

// Add registers a schema document under name.
func (s *Set) Add(name string, doc []byte) error {
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	if err != nil {
		return fmt.Errorf("parse schema %s: %w", name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.compiler.AddResource(baseURL+name, v); err != nil {
		return fmt.Errorf("add schema %s: %w", name, err)
	}
	return nil
}

func (s *Set) compile(name string) (*jsonschema.Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compiler.Compile(baseURL + name)
}

// Schema validates documents of one shape and decodes them into T.
type Schema[T any] struct {
	name     string
	compiled *jsonschema.Schema
}

// New compiles the schema registered under name in set.
func New[T any](set *Set, name string) (*Schema[T], error) {
	compiled, err := set.compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema[T]{name: name, compiled: compiled}, nil
}

// Must is like New but panics on error.
func Must[T any](set *Set, name string) *Schema[T] {
	s, err := New[T](set, name)
	if err != nil {
		panic(err)
	}
	return s
}

// FromJSON compiles a standalone schema document. It is the entry point for
// callers describing endpoints this module does not cover.
func FromJSON[T any](name string, doc []byte) (*Schema[T], error) {
	set := NewSet()
	if err := set.Add(name, doc); err != nil {
		return nil, err
	}
	return New[T](set, name)
}

// Name returns the document name the schema was compiled from.
func (s *Schema[T]) Name() string { return s.name }

// Validate checks raw against the schema without decoding it.
func (s *Schema[T]) Validate(raw []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return errors.Wrap(errors.ErrCodeValidation, err, "%s: malformed JSON", s.name)
	}
	if err := s.compiled.Validate(inst); err != nil {
		return errors.Wrap(errors.ErrCodeValidation, err, "%s: document does not match schema", s.name)
	}
	return nil
}

// Parse validates raw and decodes it into a T.
func (s *Schema[T]) Parse(raw []byte) (T, error) {
	var v T
	if err := s.Validate(raw); err != nil {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, errors.Wrap(errors.ErrCodeValidation, err, "%s: decode", s.name)
	}
	return v, nil
}
