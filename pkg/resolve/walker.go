package resolve

import (
	"context"
	"io"
	"slices"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/pkglens/pkglens/pkg/errors"
	"github.com/pkglens/pkglens/pkg/observability"
)

// DefaultFetchConcurrency bounds concurrent sibling metadata fetches.
const DefaultFetchConcurrency = 8

// Walker resolves the dependency tree an install of a root package would
// produce on the target platform.
//
// The walk processes its queue in insertion order and a single goroutine
// owns the visited set, so discovery order (and therefore each node's
// recorded depth and path) is deterministic even though sibling metadata
// fetches run concurrently underneath.
type Walker struct {
	Source      MetadataSource
	Platform    TargetPlatform
	Concurrency int         // sibling fetch bound; DefaultFetchConcurrency if 0
	Logger      *log.Logger // optional
}

// queueItem carries a discovered node together with its manifest so each
// manifest is fetched at most once. A nil manifest marks a node whose
// metadata fetch failed: it stays in the result but is never expanded.
type queueItem struct {
	node     *Node
	manifest *Manifest
}

// edgeResult is the outcome of resolving one declared dependency edge.
// dropped edges carry a nil manifest and empty version.
type edgeResult struct {
	name     string
	version  string
	manifest *Manifest
}

// Walk resolves the tree rooted at name@versionSpec and returns every
// distinct package identity reached, in discovery order with the root
// first. A failure to resolve or fetch the root is fatal; failures below
// the root drop the affected edge and under-report rather than error.
//
// Cancelling ctx stops new fetches and returns the nodes accumulated so
// far without an error, provided the root itself was resolved.
func (w *Walker) Walk(ctx context.Context, name, versionSpec string) ([]*Node, error) {
	logger := w.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidPackage, "package name is empty")
	}

	start := time.Now()
	observability.Walk().OnWalkStart(ctx, name)

	rootItem, err := w.resolveRoot(ctx, name, versionSpec)
	if err != nil {
		observability.Walk().OnWalkComplete(ctx, name, 0, time.Since(start), err)
		return nil, err
	}

	visited := map[Identity]bool{rootItem.node.Identity(): true}
	nodes := []*Node{rootItem.node}
	queue := []queueItem{rootItem}

	for i := 0; i < len(queue); i++ {
		if ctx.Err() != nil {
			logger.Debug("walk cancelled, returning partial tree", "resolved", len(nodes))
			break
		}
		item := queue[i]
		if item.manifest == nil || len(item.manifest.Dependencies) == 0 {
			continue
		}

		for _, child := range w.resolveEdges(ctx, item.manifest) {
			if child.version == "" {
				continue // edge dropped
			}
			id := Identity{Name: child.name, Version: child.version}
			if visited[id] {
				// First discovery wins: keep the existing depth and path,
				// and never expand the same identity twice.
				continue
			}
			visited[id] = true

			depth := DepthTransitive
			if item.node.Depth == DepthRoot {
				depth = DepthDirect
			}
			path := append(slices.Clone(item.node.Path), item.node.Identity().String())
			node := &Node{Name: child.name, Version: child.version, Depth: depth, Path: path}

			observability.Walk().OnNodeDiscovered(ctx, node.Name, node.Version, int(depth))
			nodes = append(nodes, node)
			queue = append(queue, queueItem{node: node, manifest: child.manifest})
		}
	}

	logger.Debug("dependency walk complete", "root", rootItem.node.Identity().String(), "packages", len(nodes))
	observability.Walk().OnWalkComplete(ctx, name, len(nodes), time.Since(start), nil)
	return nodes, nil
}

// resolveRoot resolves the root spec against the published version list and
// fetches the root manifest. Any failure here fails the whole walk.
func (w *Walker) resolveRoot(ctx context.Context, name, versionSpec string) (queueItem, error) {
	available, err := w.Source.Versions(ctx, name)
	if err != nil {
		return queueItem{}, pkgerrors.Wrap(pkgerrors.ErrCodePackageNotFound, err, "fetching versions for root %s", name)
	}
	if versionSpec == "" {
		versionSpec = "*"
	}
	version, ok := ResolveVersion(versionSpec, available)
	if !ok {
		return queueItem{}, pkgerrors.New(pkgerrors.ErrCodeVersionNotFound, "no published version of %s satisfies %q", name, versionSpec)
	}
	manifest, err := w.Source.Manifest(ctx, name, version)
	if err != nil {
		return queueItem{}, pkgerrors.Wrap(pkgerrors.ErrCodeVersionNotFound, err, "fetching manifest for root %s@%s", name, version)
	}
	return queueItem{
		node:     &Node{Name: name, Version: version, Depth: DepthRoot, Path: []string{}},
		manifest: manifest,
	}, nil
}

// resolveEdges resolves every declared dependency edge of a manifest.
// Fetches fan out concurrently up to the configured bound, but results come
// back in sorted declared order so discovery stays deterministic.
func (w *Walker) resolveEdges(ctx context.Context, m *Manifest) []edgeResult {
	names := make([]string, 0, len(m.Dependencies))
	for dep := range m.Dependencies {
		names = append(names, dep)
	}
	sort.Strings(names)

	concurrency := w.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultFetchConcurrency
	}

	results := make([]edgeResult, len(names))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, dep := range names {
		i, dep := i, dep
		g.Go(func() error {
			results[i] = w.resolveEdge(ctx, dep, m.Dependencies[dep])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// resolveEdge resolves a single (name, rangeSpec) edge. An edge that cannot
// be resolved is dropped, never an error: unresolvable ranges and foreign
// sources are excluded from the analyzed graph, as is anything the target
// platform would not install. A manifest fetch failure keeps the node but
// leaves it unexpandable.
func (w *Walker) resolveEdge(ctx context.Context, name, spec string) edgeResult {
	available, err := w.Source.Versions(ctx, name)
	if err != nil {
		observability.Walk().OnEdgeDropped(ctx, name, spec, "metadata")
		return edgeResult{name: name}
	}
	version, ok := ResolveVersion(spec, available)
	if !ok {
		observability.Walk().OnEdgeDropped(ctx, name, spec, "unresolvable")
		return edgeResult{name: name}
	}
	manifest, err := w.Source.Manifest(ctx, name, version)
	if err != nil {
		// The dependency would still be installed; record it without
		// expanding its children.
		return edgeResult{name: name, version: version}
	}
	if !Matches(manifest, w.Platform) {
		observability.Walk().OnEdgeDropped(ctx, name, spec, "platform")
		return edgeResult{name: name}
	}
	return edgeResult{name: name, version: version, manifest: manifest}
}
