// Package analysis orchestrates the full vulnerability-tree pipeline:
// resolve the dependency tree, query vulnerabilities for every node with
// bounded concurrency, and aggregate severity statistics into one result.
package analysis

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pkglens/pkglens/pkg/cache"
	pkgerrors "github.com/pkglens/pkglens/pkg/errors"
	"github.com/pkglens/pkglens/pkg/resolve"
	"github.com/pkglens/pkglens/pkg/vuln"
)

// DefaultPlatform is the target used when the caller specifies none.
var DefaultPlatform = resolve.TargetPlatform{OS: "linux", CPU: "x64", Libc: "glibc"}

// Options configures one analysis run.
type Options struct {
	// Platform is the install target the tree is resolved for.
	// Zero value selects DefaultPlatform.
	Platform resolve.TargetPlatform

	// Concurrency bounds parallel vulnerability lookups.
	// Zero selects vuln.DefaultConcurrency.
	Concurrency int

	// FetchConcurrency bounds parallel metadata fetches during the walk.
	// Zero selects resolve.DefaultFetchConcurrency.
	FetchConcurrency int

	// CacheTTL bounds how long a whole result may be served from cache.
	CacheTTL time.Duration

	// Refresh bypasses the result cache and recomputes.
	Refresh bool

	Logger *log.Logger
}

// ValidateAndSetDefaults fills in zero values and rejects nonsense.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Platform == (resolve.TargetPlatform{}) {
		o.Platform = DefaultPlatform
	}
	if o.Concurrency < 0 || o.FetchConcurrency < 0 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "concurrency must not be negative")
	}
	if o.Concurrency == 0 {
		o.Concurrency = vuln.DefaultConcurrency
	}
	if o.FetchConcurrency == 0 {
		o.FetchConcurrency = resolve.DefaultFetchConcurrency
	}
	if o.CacheTTL < 0 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "cache TTL must not be negative")
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// PackageReport is one vulnerable package in the analyzed tree.
type PackageReport struct {
	resolve.Identity
	Depth     resolve.Depth  `json:"depth"`
	Path      []string       `json:"path"`
	Summaries []vuln.Summary `json:"vulnerabilities"`
	Counts    vuln.Counts    `json:"counts"`
}

// Stats records per-stage timings of a run.
type Stats struct {
	WalkTime  time.Duration `json:"walk_time"`
	QueryTime time.Duration `json:"query_time"`
}

// TreeResult is the outcome of one analysis run. Packages lists only the
// nodes with at least one vulnerability, in discovery order; TotalPackages
// counts the whole resolved tree.
type TreeResult struct {
	ID            string                 `json:"id"`
	Root          resolve.Identity       `json:"root"`
	Platform      resolve.TargetPlatform `json:"platform"`
	Packages      []PackageReport        `json:"packages"`
	TotalPackages int                    `json:"total_packages"`
	FailedQueries int                    `json:"failed_queries"`
	Severity      vuln.TotalCounts       `json:"severity"`
	Stats         Stats                  `json:"stats"`
	GeneratedAt   time.Time              `json:"generated_at"`
}

// HighestSeverity returns the worst severity found anywhere in the tree.
func (r *TreeResult) HighestSeverity() vuln.Severity {
	return r.Severity.Highest()
}

// Runner wires the pipeline stages together. Construct with NewRunner.
type Runner struct {
	metadata resolve.MetadataSource
	vulns    vuln.Source
	cache    cache.Cache
	keyer    cache.Keyer
}

// NewRunner creates a Runner. Pass a NullCache to disable result caching.
func NewRunner(metadata resolve.MetadataSource, vulns vuln.Source, c cache.Cache) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Runner{
		metadata: metadata,
		vulns:    vulns,
		cache:    c,
		keyer:    cache.NewDefaultKeyer(),
	}
}

// Analyze resolves the tree rooted at name@versionSpec and attaches known
// vulnerabilities to every node. An empty versionSpec selects the latest
// stable version. Cancelling ctx mid-run yields the partial result
// accumulated so far rather than an error, provided the root resolved.
func (r *Runner) Analyze(ctx context.Context, name, versionSpec string, opts Options) (*TreeResult, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	treeKey := r.keyer.TreeKey(name, versionSpec, cache.TreeKeyOpts{
		OS:   opts.Platform.OS,
		CPU:  opts.Platform.CPU,
		Libc: opts.Platform.Libc,
	})
	if !opts.Refresh {
		if cached, ok := r.cachedResult(ctx, treeKey); ok {
			logger.Debug("serving analysis from cache", "package", name)
			return cached, nil
		}
	}

	walker := &resolve.Walker{
		Source:      r.metadata,
		Platform:    opts.Platform,
		Concurrency: opts.FetchConcurrency,
		Logger:      logger,
	}
	walkStart := time.Now()
	nodes, err := walker.Walk(ctx, name, versionSpec)
	if err != nil {
		return nil, err
	}
	walkTime := time.Since(walkStart)

	querier := &vuln.Querier{
		Source:      r.vulns,
		Concurrency: opts.Concurrency,
		Logger:      logger,
	}
	queryStart := time.Now()
	report := querier.QueryAll(ctx, nodes)
	queryTime := time.Since(queryStart)

	result := buildResult(nodes, report, opts.Platform)
	result.Stats = Stats{WalkTime: walkTime, QueryTime: queryTime}

	// A cancelled run produced a partial tree; don't let it shadow a
	// complete result later.
	if ctx.Err() == nil {
		r.storeResult(ctx, treeKey, result, opts.CacheTTL)
	}
	logger.Debug("analysis complete",
		"root", result.Root.String(),
		"packages", result.TotalPackages,
		"vulnerable", len(result.Packages),
		"highest", result.HighestSeverity())
	return result, nil
}

// buildResult assembles the report in tree discovery order, vulnerable
// nodes only, and aggregates the severity totals.
func buildResult(nodes []*resolve.Node, report vuln.Report, platform resolve.TargetPlatform) *TreeResult {
	result := &TreeResult{
		ID:            uuid.NewString(),
		Platform:      platform,
		TotalPackages: len(nodes),
		FailedQueries: report.FailedQueries,
		GeneratedAt:   time.Now().UTC(),
	}
	if len(nodes) > 0 {
		result.Root = nodes[0].Identity()
	}

	var perPackage []vuln.Counts
	for _, node := range nodes {
		summaries := report.Summaries[node.Identity()]
		if len(summaries) == 0 {
			continue
		}
		counts := vuln.CountSummaries(summaries)
		perPackage = append(perPackage, counts)
		result.Packages = append(result.Packages, PackageReport{
			Identity:  node.Identity(),
			Depth:     node.Depth,
			Path:      node.Path,
			Summaries: summaries,
			Counts:    counts,
		})
	}
	result.Severity = vuln.AggregateCounts(perPackage)
	return result
}

func (r *Runner) cachedResult(ctx context.Context, key string) (*TreeResult, bool) {
	data, hit, err := r.cache.Get(ctx, key)
	if err != nil || !hit {
		return nil, false
	}
	var result TreeResult
	if json.Unmarshal(data, &result) != nil {
		return nil, false
	}
	return &result, true
}

func (r *Runner) storeResult(ctx context.Context, key string, result *TreeResult, ttl time.Duration) {
	if data, err := json.Marshal(result); err == nil {
		_ = r.cache.Set(ctx, key, data, ttl)
	}
}
