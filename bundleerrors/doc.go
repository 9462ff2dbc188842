// Package bundleerrors provides structured error types for schemabundle.
//
// Import path: github.com/flavors-dev/schemabundle/bundleerrors
//
// This package enables programmatic error handling via [errors.Is] and [errors.As],
// allowing callers to tell apart a document that could not be loaded from a
// pointer that does not resolve.
//
// # Error Types
//
//   - [LoadError]: a location could not be read or parsed as structured data
//   - [ReferenceError]: a $ref could not be resolved within its target document
//   - [ResourceLimitError]: resource exhaustion (depth, size, count limits)
//   - [ConfigError]: invalid configuration or input options
//
// # Sentinel Errors
//
//   - [ErrLoad]: Matches any [LoadError]
//   - [ErrReference]: Matches any [ReferenceError]
//   - [ErrPathTraversal]: Matches [ReferenceError] with IsPathTraversal=true
//   - [ErrResourceLimit]: Matches any [ResourceLimitError]
//   - [ErrConfig]: Matches any [ConfigError]
//
// # Usage Examples
//
//	result, err := bundler.BundleWithOptions(ctx, bundler.WithLocation("schema.json"))
//	if errors.Is(err, bundleerrors.ErrLoad) {
//	    // Handle unreadable input
//	}
//
//	var refErr *bundleerrors.ReferenceError
//	if errors.As(err, &refErr) {
//	    fmt.Printf("unresolvable $ref %s in %s\n", refErr.Ref, refErr.Location)
//	}
//
// All error types support chaining via the Cause field and Unwrap():
//
//	var loadErr *bundleerrors.LoadError
//	if errors.As(err, &loadErr) && errors.Is(loadErr.Cause, os.ErrNotExist) {
//	    // The referenced file doesn't exist
//	}
package bundleerrors
