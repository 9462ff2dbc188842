// Copyright 2024 Erraggy
// SPDX-License-Identifier: MIT

package pathutil

import (
	"fmt"
	"strings"
)

// Escape escapes a reference token per RFC 6901: "~" becomes "~0" and "/" becomes "~1".
func Escape(token string) string {
	if !strings.ContainsAny(token, "~/") {
		return token
	}
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

// Unescape reverses Escape. Per RFC 6901, ~1 is replaced before ~0.
func Unescape(token string) string {
	if !strings.Contains(token, "~") {
		return token
	}
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}

// Split parses a JSON Pointer into unescaped reference tokens.
// The empty pointer (whole document) yields no tokens. A pointer that does
// not start with "/" is rejected.
func Split(pointer string) ([]string, error) {
	if pointer == "" {
		return nil, nil
	}
	if pointer[0] != '/' {
		return nil, fmt.Errorf("pathutil: invalid JSON pointer %q: must be empty or start with '/'", pointer)
	}
	tokens := strings.Split(pointer[1:], "/")
	for i, tok := range tokens {
		tokens[i] = Unescape(tok)
	}
	return tokens, nil
}

// Join builds a JSON Pointer from unescaped reference tokens.
func Join(tokens ...string) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteByte('/')
		b.WriteString(Escape(tok))
	}
	return b.String()
}
