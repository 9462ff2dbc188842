// Package httputil provides HTTP-related helpers for fetching remote schemas.
package httputil

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

// Format names returned by the detection helpers.
const (
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatUnknown = "unknown"
)

// IsURL reports whether s is an http:// or https:// URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// FormatFromPath detects the document format from a file extension.
func FormatFromPath(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// FormatFromContentType detects the document format from a Content-Type header.
// Parameters such as charset are ignored. Structured syntax suffixes
// (application/schema+json) are recognised.
func FormatFromContentType(contentType string) string {
	if contentType == "" {
		return FormatUnknown
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatUnknown
	}
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return FormatJSON
	case mediaType == "application/yaml", mediaType == "application/x-yaml",
		mediaType == "text/yaml", mediaType == "text/x-yaml", strings.HasSuffix(mediaType, "+yaml"):
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// FormatFromURL detects the format from the URL path extension first, then
// from the Content-Type header.
func FormatFromURL(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		if format := FormatFromPath(u.Path); format != FormatUnknown {
			return format
		}
	}
	return FormatFromContentType(contentType)
}
