package bundler

import (
	"context"
	"sync"

	"go.yaml.in/yaml/v4"
	"golang.org/x/sync/errgroup"

	"github.com/flavors-dev/schemabundle/internal/nodeutil"
)

// prefetch loads the documents reachable from root in breadth-first waves,
// up to concurrency at a time, so the sequential rewrite pass finds them in
// the cache. Failures are cached by load and only reported if the rewrite
// pass needs the document.
func (l *loader) prefetch(ctx context.Context, root *document, concurrency int) {
	limit := l.bundler.maxCachedDocuments()
	seen := map[string]bool{root.location: true}
	wave := []*document{root}

	for len(wave) > 0 && ctx.Err() == nil {
		var targets []string
		for _, doc := range wave {
			for _, loc := range l.externalLocations(doc) {
				if seen[loc] || len(seen) > limit {
					continue
				}
				seen[loc] = true
				targets = append(targets, loc)
			}
		}
		if len(targets) == 0 {
			return
		}
		l.log.Debug("prefetching documents", "count", len(targets))

		var (
			mu   sync.Mutex
			next []*document
		)
		g := new(errgroup.Group)
		g.SetLimit(concurrency)
		for _, loc := range targets {
			g.Go(func() error {
				doc, err := l.load(ctx, loc)
				if err != nil {
					l.log.Debug("prefetch failed", "location", displayLocation(loc), "error", err)
					return nil
				}
				mu.Lock()
				next = append(next, doc)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
		wave = next
	}
}

// externalLocations lists the distinct loadable locations referenced from
// doc, other than the root, in document order.
func (l *loader) externalLocations(doc *document) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	var visit func(n *yaml.Node)
	visit = func(n *yaml.Node) {
		if v, ok := nodeutil.Ref(n); ok {
			loc, _, err := resolveReference(doc.location, v.Value)
			if err == nil && loc != l.rootLocation && !seen[loc] && l.prefetchable(loc) {
				seen[loc] = true
				out = append(out, loc)
			}
		}
		for _, child := range n.Content {
			visit(child)
		}
	}
	visit(doc.node)
	return out
}

func (l *loader) prefetchable(location string) bool {
	switch locationScheme(location) {
	case "file":
		return true
	case "http", "https":
		return l.bundler.ResolveHTTPRefs
	default:
		return false
	}
}
