package bundler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/flavors-dev/schemabundle/bundleerrors"
	"github.com/flavors-dev/schemabundle/internal/naming"
	"github.com/flavors-dev/schemabundle/internal/nodeutil"
	"github.com/flavors-dev/schemabundle/internal/pathutil"
)

// bundleState is the per-call state of the rewrite pass. It is only used
// from the calling goroutine.
type bundleState struct {
	ctx    context.Context
	loader *loader
	log    Logger
	root   *document

	maxRefDepth int
	maxDocs     int

	defsKey     string
	defs        *yaml.Node
	createdDefs bool

	// inlined maps "location#pointer" of an external target to the local
	// pointer of its copy.
	inlined map[string]string
	// copies maps the same keys to the copied nodes.
	copies map[string]*yaml.Node
	// walked holds every node already traversed.
	walked map[*yaml.Node]bool
	// active holds the nodes on the current traversal path.
	active map[*yaml.Node]bool
	// used holds the external locations the bundle drew from.
	used map[string]bool

	definitions []InlinedDefinition
	stats       BundleStats
	warnings    []string
}

func newBundleState(ctx context.Context, b *Bundler, ld *loader, root *document, log Logger) *bundleState {
	return &bundleState{
		ctx:         ctx,
		loader:      ld,
		log:         log,
		root:        root,
		maxRefDepth: b.maxRefDepth(),
		maxDocs:     b.maxCachedDocuments(),
		defsKey:     definitionsKey(b.DefinitionsKey, root.node),
		inlined:     make(map[string]string),
		copies:      make(map[string]*yaml.Node),
		walked:      make(map[*yaml.Node]bool),
		active:      make(map[*yaml.Node]bool),
		used:        make(map[string]bool),
	}
}

// definitionsKey picks the container for inlined targets.
func definitionsKey(explicit string, root *yaml.Node) string {
	if explicit != "" {
		return explicit
	}
	for _, key := range []string{"$defs", "definitions"} {
		if n := nodeutil.Get(root, key); n != nil && n.Kind == yaml.MappingNode {
			return key
		}
	}
	if schema := nodeutil.Get(root, "$schema"); schema != nil && schema.Kind == yaml.ScalarNode {
		if strings.Contains(schema.Value, "2019-09") || strings.Contains(schema.Value, "2020-12") {
			return "$defs"
		}
	}
	return "definitions"
}

// walk traverses node depth-first. location is the resolution context:
// the document the node was originally written in. depth counts the
// inlined targets enclosing node.
func (s *bundleState) walk(node *yaml.Node, location string, depth int) error {
	if s.walked[node] {
		return nil
	}
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("bundler: %w", err)
	}
	s.walked[node] = true
	s.active[node] = true
	defer delete(s.active, node)

	switch node.Kind {
	case yaml.MappingNode:
		if ref, ok := nodeutil.Ref(node); ok {
			if err := s.reference(ref, location, depth); err != nil {
				return err
			}
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == nodeutil.RefKey {
				continue
			}
			if err := s.walk(node.Content[i+1], location, depth); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for _, child := range node.Content {
			if err := s.walk(child, location, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

// reference handles one $ref value found in a document at location.
// The value node is rewritten in place when the reference must change.
func (s *bundleState) reference(ref *yaml.Node, location string, depth int) error {
	raw := ref.Value
	target, fragment, err := resolveReference(location, raw)
	if err != nil {
		return s.refError(raw, location, "", err.Error(), nil)
	}
	if fragment != "" && !strings.HasPrefix(fragment, "/") {
		return s.refError(raw, location, fragment,
			fmt.Sprintf("unsupported fragment %q: only JSON Pointer fragments are supported", fragment), nil)
	}
	tokens, err := pathutil.Split(fragment)
	if err != nil {
		return s.refError(raw, location, fragment, "invalid JSON pointer", err)
	}

	if target == s.root.location {
		return s.localReference(ref, location, fragment, tokens, depth)
	}
	return s.externalReference(ref, location, target, fragment, tokens, depth)
}

// localReference handles a reference into the root document. Aliases of the
// root location are normalised to "#pointer".
func (s *bundleState) localReference(ref *yaml.Node, location, fragment string, tokens []string, depth int) error {
	s.stats.LocalRefs++
	node, err := nodeutil.Lookup(s.root.node, tokens)
	if err != nil {
		return s.refError(ref.Value, location, fragment, "target not found", err)
	}
	if local := localRef(fragment); ref.Value != local && !strings.HasPrefix(ref.Value, "#") {
		s.log.Debug("normalised root reference", "ref", ref.Value, "local", local)
		ref.Value = local
	}
	if s.active[node] {
		s.stats.CircularRefs++
		s.log.Debug("circular reference", "ref", ref.Value)
		return nil
	}
	return s.walk(node, s.root.location, depth)
}

// externalReference inlines the target of a reference outside the root, or
// reuses an earlier copy of it.
func (s *bundleState) externalReference(ref *yaml.Node, location, target, fragment string, tokens []string, depth int) error {
	s.stats.ExternalRefs++
	key := target + "#" + fragment

	if local, ok := s.inlined[key]; ok {
		ref.Value = localRef(local)
		if s.active[s.copies[key]] {
			s.stats.CircularRefs++
			s.log.Debug("circular reference", "ref", ref.Value, "source", sourceName(target, fragment))
		}
		return nil
	}

	doc, err := s.document(target)
	if err != nil {
		return s.loadError(err, ref.Value, location)
	}
	original, err := nodeutil.Lookup(doc.node, tokens)
	if err != nil {
		return s.refError(ref.Value, location, fragment, "target not found", err)
	}

	if local, node, ok := s.enclosingCopy(target, tokens); ok {
		s.inlined[key] = local
		s.copies[key] = node
		ref.Value = localRef(local)
		s.log.Debug("reused enclosing copy", "source", sourceName(target, fragment), "local", ref.Value)
		if s.active[node] {
			s.stats.CircularRefs++
		}
		return nil
	}

	if depth >= s.maxRefDepth {
		return &bundleerrors.ResourceLimitError{
			ResourceType: "ref_depth",
			Limit:        int64(s.maxRefDepth),
			Actual:       int64(depth + 1),
			Message:      fmt.Sprintf("inlining %s nests too deeply", sourceName(target, fragment)),
		}
	}

	defs, err := s.definitionsNode(ref.Value, location)
	if err != nil {
		return err
	}
	name := naming.Unique(naming.DefinitionName(target, tokens), target, func(n string) bool {
		return nodeutil.Get(defs, n) != nil
	})
	cp := nodeutil.Copy(original)
	if nodeutil.Delete(cp, "$id") {
		s.warnings = append(s.warnings,
			fmt.Sprintf("removed $id from inlined copy of %s so local references keep resolving", sourceName(target, fragment)))
	}
	nodeutil.Set(defs, name, cp)

	local := pathutil.Join(s.defsKey, name)
	s.inlined[key] = local
	s.copies[key] = cp
	ref.Value = localRef(local)
	s.definitions = append(s.definitions, InlinedDefinition{
		Name:   name,
		Source: sourceName(target, fragment),
		Ref:    ref.Value,
	})
	s.log.Debug("inlined reference", "source", sourceName(target, fragment), "name", name)

	return s.walk(cp, target, depth+1)
}

// enclosingCopy finds an earlier copy of an ancestor of target#tokens and
// returns the local pointer into it.
func (s *bundleState) enclosingCopy(target string, tokens []string) (string, *yaml.Node, bool) {
	for i := len(tokens) - 1; i >= 0; i-- {
		prefix := target + "#" + pathutil.Join(tokens[:i]...)
		local, ok := s.inlined[prefix]
		if !ok {
			continue
		}
		pointer := local + pathutil.Join(tokens[i:]...)
		localTokens, err := pathutil.Split(pointer)
		if err != nil {
			continue
		}
		node, err := nodeutil.Lookup(s.root.node, localTokens)
		if err != nil {
			continue
		}
		return pointer, node, true
	}
	return "", nil, false
}

// document loads an external document and enforces the document limit.
func (s *bundleState) document(location string) (*document, error) {
	if !s.used[location] && len(s.used) >= s.maxDocs {
		return nil, &bundleerrors.ResourceLimitError{
			ResourceType: "cached_documents",
			Limit:        int64(s.maxDocs),
			Actual:       int64(len(s.used) + 1),
			Message:      "too many external documents",
		}
	}
	doc, err := s.loader.load(s.ctx, location)
	if err != nil {
		return nil, err
	}
	s.used[location] = true
	return doc, nil
}

// definitionsNode returns the definitions container, creating it on first use.
func (s *bundleState) definitionsNode(ref, location string) (*yaml.Node, error) {
	if s.defs != nil {
		return s.defs, nil
	}
	if s.root.node.Kind != yaml.MappingNode {
		return nil, s.refError(ref, location, "",
			"root document is not an object, cannot add inlined definitions", nil)
	}
	defs := nodeutil.Get(s.root.node, s.defsKey)
	switch {
	case defs == nil:
		defs = nodeutil.NewMapping()
		nodeutil.Set(s.root.node, s.defsKey, defs)
		s.createdDefs = true
		s.walked[defs] = true
	case defs.Kind != yaml.MappingNode:
		return nil, s.refError(ref, location, "",
			fmt.Sprintf("definitions key %q is not an object", s.defsKey), nil)
	}
	s.defs = defs
	return defs, nil
}

func (s *bundleState) refError(ref, location, pointer, message string, cause error) error {
	refType := "local"
	if target, _, err := resolveReference(location, ref); err == nil && target != s.root.location {
		refType = locationScheme(target)
		if refType == "https" {
			refType = "http"
		}
	}
	return &bundleerrors.ReferenceError{
		Ref:      ref,
		Location: displayLocation(location),
		Pointer:  pointer,
		RefType:  refType,
		Message:  message,
		Cause:    cause,
	}
}

// loadError attaches the referencing context to a cached load failure.
func (s *bundleState) loadError(err error, ref, location string) error {
	var refErr *bundleerrors.ReferenceError
	if errors.As(err, &refErr) {
		e := *refErr
		e.Ref = ref
		e.Location = displayLocation(location)
		return &e
	}
	return err
}
