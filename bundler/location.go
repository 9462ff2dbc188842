package bundler

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/flavors-dev/schemabundle/internal/httputil"
)

// Locations are canonical absolute URLs: file:///abs/path for local files and
// http(s)://host/path for remote documents. Two spellings of the same
// document map to the same location, so a root document referenced through
// an alias such as "./root.json" is still recognised as the root.

// inputLocation canonicalises a user-supplied path or URL.
func inputLocation(input string) (string, error) {
	if httputil.IsURL(input) || strings.HasPrefix(input, "file:") {
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("invalid location %q: %w", input, err)
		}
		u.Fragment, u.RawFragment = "", ""
		return canonicalURL(u), nil
	}
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("invalid location %q: %w", input, err)
	}
	p := filepath.ToSlash(abs)
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		p += "/"
	}
	return canonicalURL(fileURL(p)), nil
}

// resolveReference resolves ref against the location of the document that
// contains it. It returns the canonical target location and the decoded
// fragment.
func resolveReference(base, ref string) (string, string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", "", fmt.Errorf("invalid base location %q: %w", base, err)
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", "", fmt.Errorf("malformed reference: %w", err)
	}
	target := baseURL.ResolveReference(refURL)
	fragment := target.Fragment
	target.Fragment, target.RawFragment = "", ""
	return canonicalURL(target), fragment, nil
}

// canonicalURL lower-cases scheme and host, strips default ports and
// cleans the path. File paths are resolved through symlinks when the file
// exists.
func canonicalURL(u *url.URL) string {
	out := *u
	out.Scheme = strings.ToLower(out.Scheme)
	out.Path = cleanPath(out.Path)
	out.RawPath = ""
	out.OmitHost = false

	switch out.Scheme {
	case "file":
		out.Host = ""
		if resolved, err := filepath.EvalSymlinks(filepath.FromSlash(out.Path)); err == nil {
			trailing := strings.HasSuffix(out.Path, "/")
			out.Path = filepath.ToSlash(resolved)
			if trailing && !strings.HasSuffix(out.Path, "/") {
				out.Path += "/"
			}
		}
	case "http", "https":
		host := strings.ToLower(out.Hostname())
		port := out.Port()
		if (out.Scheme == "http" && port == "80") || (out.Scheme == "https" && port == "443") {
			port = ""
		}
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
		if port != "" {
			host += ":" + port
		}
		out.Host = host
		if out.Path == "" {
			out.Path = "/"
		}
	}
	return out.String()
}

func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	cleaned := path.Clean(p)
	if strings.HasSuffix(p, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

func fileURL(slashPath string) *url.URL {
	if !strings.HasPrefix(slashPath, "/") {
		slashPath = "/" + slashPath
	}
	return &url.URL{Scheme: "file", Path: slashPath}
}

// filePath returns the local path of a file location.
func filePath(location string) (string, bool) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

// displayLocation renders a location for messages: a plain path for files,
// the URL otherwise.
func displayLocation(location string) string {
	if p, ok := filePath(location); ok {
		return p
	}
	return location
}

// sourceName renders "location#pointer" for reports.
func sourceName(location, pointer string) string {
	if pointer == "" {
		return displayLocation(location)
	}
	return displayLocation(location) + "#" + pointer
}

// localRef renders a JSON Pointer as a same-document reference, escaping the
// characters that are not allowed in a URI fragment.
func localRef(pointer string) string {
	u := url.URL{Fragment: pointer}
	return "#" + u.EscapedFragment()
}

func locationScheme(location string) string {
	if i := strings.Index(location, ":"); i > 0 {
		return location[:i]
	}
	return ""
}
