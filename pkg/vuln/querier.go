package vuln

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/pkglens/pkglens/pkg/observability"
	"github.com/pkglens/pkglens/pkg/registry"
	"github.com/pkglens/pkglens/pkg/resolve"
)

// DefaultConcurrency bounds parallel lookups against the vulnerability
// source. The bound is deliberately small: the external API rate-limits
// aggressively and tree sizes routinely reach hundreds of nodes.
const DefaultConcurrency = 4

// Source supplies vulnerability records for one package version.
// A not-found answer means zero vulnerabilities, not an error.
type Source interface {
	Query(ctx context.Context, name, version string) ([]Summary, error)
}

// Querier looks up vulnerabilities for every node of a resolved tree with
// bounded concurrency. Each lookup is isolated: a failure yields an empty
// result for that node and bumps the failure counter, never aborting
// sibling lookups.
type Querier struct {
	Source      Source
	Concurrency int         // DefaultConcurrency if 0
	Logger      *log.Logger // optional
}

// Report maps each queried identity to its vulnerabilities.
type Report struct {
	Summaries     map[resolve.Identity][]Summary
	FailedQueries int
}

// QueryAll fetches vulnerabilities for every node. Cancelling ctx stops
// issuing new lookups; nodes that were never queried report zero
// vulnerabilities and are not counted as failures.
func (q *Querier) QueryAll(ctx context.Context, nodes []*resolve.Node) Report {
	logger := q.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	concurrency := q.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	report := Report{Summaries: make(map[resolve.Identity][]Summary, len(nodes))}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, node := range nodes {
		if ctx.Err() != nil {
			break
		}
		node := node
		g.Go(func() error {
			id := node.Identity()
			observability.Query().OnQueryStart(ctx, id.Name, id.Version)
			start := time.Now()

			summaries, err := q.Source.Query(ctx, id.Name, id.Version)
			switch {
			case errors.Is(err, registry.ErrNotFound):
				// No database entry for this package: zero vulnerabilities.
				err = nil
				summaries = nil
			case err != nil && ctx.Err() != nil:
				// Cancelled mid-flight; the partial result stands and the
				// node is not a lookup failure.
				observability.Query().OnQueryComplete(ctx, id.Name, id.Version, -1, time.Since(start), err)
				return nil
			case err != nil:
				logger.Debug("vulnerability lookup failed", "package", id.String(), "err", err)
				observability.Query().OnQueryComplete(ctx, id.Name, id.Version, -1, time.Since(start), err)
				mu.Lock()
				report.FailedQueries++
				mu.Unlock()
				return nil
			}

			observability.Query().OnQueryComplete(ctx, id.Name, id.Version, len(summaries), time.Since(start), nil)
			if len(summaries) > 0 {
				mu.Lock()
				report.Summaries[id] = summaries
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return report
}
