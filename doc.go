// Package schemabundle bundles JSON Schema documents that are split across
// several files or URLs into a single self-contained document.
//
// # Overview
//
// The library consists of two primary packages:
//
//   - bundler: resolve every external $ref, inline the targets under a
//     synthetic definitions key and rewrite the references as local pointers
//   - render: post-bundle transforms for schemas consumed by form renderers
//
// Both JSON and YAML inputs are supported. Source key order is preserved in
// the output.
//
// # Quick Start
//
// Bundle a schema from disk:
//
//	result, err := bundler.BundleWithOptions(ctx,
//	    bundler.WithLocation("schemas/dedicated-schema.json"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	data, err := result.MarshalOrderedJSONIndent("", "  ")
//
// Errors are classified in the bundleerrors package and can be inspected
// with errors.Is and errors.As:
//
//	if errors.Is(err, bundleerrors.ErrLoad) {
//	    // a document could not be read or parsed
//	}
//
// # Command-Line Tool
//
// The schemabundle command wraps the library:
//
//	schemabundle bundle -o schemas/render-schema.json schemas/dedicated-schema.json
//	schemabundle render -o resolved_schema.json common.json
//	schemabundle mcp
package schemabundle
