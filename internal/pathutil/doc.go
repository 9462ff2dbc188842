// Copyright 2024 Erraggy
// SPDX-License-Identifier: MIT

// Package pathutil provides JSON Pointer (RFC 6901) utilities used while
// walking and rewriting schema documents.
//
// The primary type is [PathBuilder], which uses push/pop semantics to build
// pointers incrementally without allocating intermediate strings. The full
// pointer is only materialized when it is needed, typically when reporting
// an error or recording where a $ref was found.
//
// # PathBuilder Usage
//
// Use [Get] to obtain a pooled PathBuilder, and [Put] to return it:
//
//	path := pathutil.Get()
//	defer pathutil.Put(path)
//
//	path.Push("properties")
//	path.Push(propName)
//	// ... recurse ...
//	path.Pop()
//	path.Pop()
//
//	if hasError {
//	    return fmt.Errorf("error at %s", path.String())
//	}
//
// Array indices are supported via [PathBuilder.PushIndex]:
//
//	path.Push("allOf")
//	path.PushIndex(0)  // produces "/allOf/0"
//
// # Pointer Helpers
//
// [Split] and [Join] convert between pointer strings and unescaped tokens:
//
//	tokens, err := pathutil.Split("/$defs/a~1b")  // ["$defs", "a/b"]
//	ptr := pathutil.Join("definitions", "Address") // "/definitions/Address"
//
// # Output Path Sanitization
//
// [SanitizeOutputPath] validates and cleans output file paths. It rejects
// symlinks and directories:
//
//	safe, err := pathutil.SanitizeOutputPath(userProvidedPath)
//	if err != nil {
//	    return err
//	}
package pathutil
