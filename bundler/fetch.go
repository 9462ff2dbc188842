package bundler

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flavors-dev/schemabundle"
	"github.com/flavors-dev/schemabundle/bundleerrors"
)

const defaultHTTPTimeout = 30 * time.Second

// newHTTPClient returns the configured client, or a default one honouring
// InsecureSkipVerify.
func newHTTPClient(b *Bundler) *http.Client {
	if b.HTTPClient != nil {
		return b.HTTPClient
	}
	if b.InsecureSkipVerify {
		return &http.Client{
			Timeout: defaultHTTPTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true, //nolint:gosec // User explicitly requested insecure mode
					MinVersion:         tls.VersionTLS12,
				},
			},
		}
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// fetch downloads a remote document and returns its body and Content-Type.
// The root document may always be fetched; referenced documents require
// ResolveHTTPRefs.
func (l *loader) fetch(ctx context.Context, location string) ([]byte, string, error) {
	if location != l.rootLocation && !l.bundler.ResolveHTTPRefs {
		return nil, "", &bundleerrors.LoadError{
			Location: location,
			Message:  "HTTP references are disabled (enable ResolveHTTPRefs to allow them)",
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, "", &bundleerrors.LoadError{Location: location, Message: "failed to create request", Cause: err}
	}
	userAgent := l.bundler.UserAgent
	if userAgent == "" {
		userAgent = schemabundle.UserAgent()
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/schema+json, application/json, application/yaml;q=0.9, */*;q=0.8")

	resp, err := l.client.Do(req) //nolint:gosec // URL comes from the schema being bundled
	if err != nil {
		return nil, "", &bundleerrors.LoadError{Location: location, Message: "failed to fetch", Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &bundleerrors.LoadError{
			Location: location,
			Message:  fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxFileSize+1))
	if err != nil {
		return nil, "", &bundleerrors.LoadError{Location: location, Message: "failed to read response body", Cause: err}
	}
	if int64(len(data)) > l.maxFileSize {
		return nil, "", &bundleerrors.ResourceLimitError{
			ResourceType: "file_size",
			Limit:        l.maxFileSize,
			Message:      fmt.Sprintf("response from %s exceeds maximum size", location),
		}
	}
	return data, resp.Header.Get("Content-Type"), nil
}
