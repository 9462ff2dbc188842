// Package bundler bundles JSON Schema documents that reference other files
// or URLs into a single self-contained document.
//
// Every $ref that points outside the root document is resolved, its target
// is copied under a definitions container of the root ("$defs" or
// "definitions"), and the reference is rewritten as a local pointer to the
// copy. References inside the root stay local. Both JSON and YAML inputs are
// supported and source key order is preserved.
//
// # Quick Start
//
// Bundle a file using functional options:
//
//	result, err := bundler.BundleWithOptions(ctx,
//		bundler.WithLocation("schemas/dedicated-schema.json"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	data, err := result.MarshalOrderedJSONIndent("", "  ")
//
// Or create a reusable Bundler:
//
//	b := bundler.New()
//	b.BaseDir = "schemas"
//	result, err := b.Bundle(ctx, "schemas/dedicated-schema.json")
//
// # Inlining Rules
//
// Targets are identified by their canonical location and JSON Pointer, so
// "./common.json#/definitions/Address" and "common.json#/definitions/Address"
// share one copy. A target inside an already inlined copy is referenced
// through that copy instead of being copied again. Copies are named after the
// last pointer segment (or the file name for whole-document references) in
// PascalCase; collisions are resolved by prefixing the file name, then by a
// numeric suffix.
//
// Reference cycles terminate: the local pointer is recorded before a copy is
// traversed, so a reference back into a target being processed resolves to
// its copy. Such references are counted in BundleStats.CircularRefs.
//
// # Security
//
// HTTP and HTTPS references are only followed with WithResolveHTTPRefs.
// WithBaseDir restricts file references to a directory tree. Each call
// caches at most MaxCachedDocuments external documents, each no larger than
// MaxFileSize. Nothing is cached between calls.
//
// # Errors
//
// Failures are reported with the types in the bundleerrors package:
// LoadError when a document cannot be read or parsed, ReferenceError when a
// pointer cannot be resolved, ResourceLimitError when a limit is exceeded and
// ConfigError for invalid options. No partial result is returned.
//
// # Post-processing
//
// Dereference replaces the local references of a bundle with copies of
// their targets. VerifySelfContained and CompileCheck confirm that a bundle
// has no references left to resolve elsewhere.
package bundler
