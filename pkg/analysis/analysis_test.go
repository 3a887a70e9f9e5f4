package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pkglens/pkglens/pkg/cache"
	pkgerrors "github.com/pkglens/pkglens/pkg/errors"
	"github.com/pkglens/pkglens/pkg/registry"
	"github.com/pkglens/pkglens/pkg/resolve"
	"github.com/pkglens/pkglens/pkg/vuln"
)

// fakeMetadata serves manifests from an in-memory map.
type fakeMetadata struct {
	manifests map[string]*resolve.Manifest // keyed by name@version
	calls     int
}

func (f *fakeMetadata) Versions(ctx context.Context, name string) ([]string, error) {
	f.calls++
	var versions []string
	for _, m := range f.manifests {
		if m.Name == name {
			versions = append(versions, m.Version)
		}
	}
	if len(versions) == 0 {
		return nil, registry.ErrNotFound
	}
	return versions, nil
}

func (f *fakeMetadata) Manifest(ctx context.Context, name, version string) (*resolve.Manifest, error) {
	f.calls++
	m, ok := f.manifests[name+"@"+version]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return m, nil
}

type fakeVulns struct {
	records map[string][]vuln.Summary // keyed by name@version
	fail    map[string]error
}

func (f *fakeVulns) Query(ctx context.Context, name, version string) ([]vuln.Summary, error) {
	key := name + "@" + version
	if err := f.fail[key]; err != nil {
		return nil, err
	}
	if records, ok := f.records[key]; ok {
		return records, nil
	}
	return nil, registry.ErrNotFound
}

func testMetadata() *fakeMetadata {
	return &fakeMetadata{manifests: map[string]*resolve.Manifest{
		"app@1.0.0": {
			Name: "app", Version: "1.0.0",
			Dependencies: map[string]string{"lodash": "^4.17.0", "left-pad": "^1.0.0"},
		},
		"lodash@4.17.20": {Name: "lodash", Version: "4.17.20"},
		"left-pad@1.3.0": {
			Name: "left-pad", Version: "1.3.0",
			Dependencies: map[string]string{"lodash": "^4.17.0"},
		},
	}}
}

func testVulns() *fakeVulns {
	return &fakeVulns{records: map[string][]vuln.Summary{
		"lodash@4.17.20": {
			{ID: "GHSA-1", Severity: vuln.SeverityCritical},
			{ID: "GHSA-2", Severity: vuln.SeverityLow},
		},
	}}
}

func TestAnalyze(t *testing.T) {
	runner := NewRunner(testMetadata(), testVulns(), cache.NewNullCache())

	result, err := runner.Analyze(context.Background(), "app", "", Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if result.Root != (resolve.Identity{Name: "app", Version: "1.0.0"}) {
		t.Errorf("Root = %+v", result.Root)
	}
	if result.TotalPackages != 3 {
		t.Errorf("TotalPackages = %d, want 3 (lodash deduplicated)", result.TotalPackages)
	}
	if len(result.Packages) != 1 {
		t.Fatalf("Packages = %+v, want only the vulnerable node", result.Packages)
	}
	pkg := result.Packages[0]
	if pkg.Name != "lodash" || pkg.Depth != resolve.DepthDirect {
		t.Errorf("vulnerable package = %+v", pkg)
	}
	if pkg.Counts.Critical != 1 || pkg.Counts.Low != 1 {
		t.Errorf("per-package counts = %+v", pkg.Counts)
	}

	if result.Severity.Total != 2 || result.Severity.Critical != 1 {
		t.Errorf("Severity = %+v", result.Severity)
	}
	if result.HighestSeverity() != vuln.SeverityCritical {
		t.Errorf("HighestSeverity = %v", result.HighestSeverity())
	}
	if result.FailedQueries != 0 {
		t.Errorf("FailedQueries = %d", result.FailedQueries)
	}
	if result.ID == "" || result.GeneratedAt.IsZero() {
		t.Errorf("result missing id or timestamp: %q %v", result.ID, result.GeneratedAt)
	}
	if result.Platform != DefaultPlatform {
		t.Errorf("Platform = %+v, want default", result.Platform)
	}
}

func TestAnalyzeCleanTree(t *testing.T) {
	runner := NewRunner(testMetadata(), &fakeVulns{}, cache.NewNullCache())

	result, err := runner.Analyze(context.Background(), "app", "1.0.0", Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.Packages) != 0 {
		t.Errorf("Packages = %+v, want none", result.Packages)
	}
	if result.HighestSeverity() != vuln.SeverityUnknown {
		t.Errorf("HighestSeverity of clean tree = %v", result.HighestSeverity())
	}
	if result.Severity.Total != 0 {
		t.Errorf("Severity.Total = %d", result.Severity.Total)
	}
}

func TestAnalyzeFailedQueries(t *testing.T) {
	vulns := testVulns()
	vulns.fail = map[string]error{"left-pad@1.3.0": errors.New("503")}
	runner := NewRunner(testMetadata(), vulns, cache.NewNullCache())

	result, err := runner.Analyze(context.Background(), "app", "", Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.FailedQueries != 1 {
		t.Errorf("FailedQueries = %d, want 1", result.FailedQueries)
	}
	// The failed node contributes zero vulnerabilities to the totals.
	if result.Severity.Total != 2 {
		t.Errorf("Severity.Total = %d, want 2", result.Severity.Total)
	}
}

func TestAnalyzeUnknownRootFails(t *testing.T) {
	runner := NewRunner(testMetadata(), testVulns(), cache.NewNullCache())

	_, err := runner.Analyze(context.Background(), "no-such-package", "", Options{})
	if err == nil {
		t.Fatal("unknown root should fail the analysis")
	}
	if pkgerrors.GetCode(err) != pkgerrors.ErrCodePackageNotFound {
		t.Errorf("error code = %v", pkgerrors.GetCode(err))
	}
}

func TestAnalyzeResultCached(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	metadata := testMetadata()
	runner := NewRunner(metadata, testVulns(), fc)
	opts := Options{CacheTTL: time.Hour}
	ctx := context.Background()

	first, err := runner.Analyze(ctx, "app", "", opts)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	callsAfterFirst := metadata.calls

	second, err := runner.Analyze(ctx, "app", "", opts)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if metadata.calls != callsAfterFirst {
		t.Errorf("cached run should not touch the registry, calls %d -> %d", callsAfterFirst, metadata.calls)
	}
	if second.ID != first.ID {
		t.Errorf("cached result should be the stored one, id %q != %q", second.ID, first.ID)
	}

	// A different platform is a different cache key.
	darwin := opts
	darwin.Platform = resolve.TargetPlatform{OS: "darwin", CPU: "arm64", Libc: "unknown"}
	if _, err := runner.Analyze(ctx, "app", "", darwin); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if metadata.calls == callsAfterFirst {
		t.Error("platform change must bypass the cached tree")
	}

	// Refresh recomputes and restores the cache entry.
	callsBeforeRefresh := metadata.calls
	refreshed, err := runner.Analyze(ctx, "app", "", Options{CacheTTL: time.Hour, Refresh: true})
	if err != nil {
		t.Fatalf("Analyze refresh: %v", err)
	}
	if metadata.calls == callsBeforeRefresh {
		t.Error("refresh must recompute")
	}
	if refreshed.ID == first.ID {
		t.Error("refresh should produce a new result")
	}
}

func TestOptionsValidation(t *testing.T) {
	bad := Options{Concurrency: -1}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Error("negative concurrency should be rejected")
	}

	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if opts.Platform != DefaultPlatform {
		t.Errorf("Platform default = %+v", opts.Platform)
	}
	if opts.Concurrency != vuln.DefaultConcurrency {
		t.Errorf("Concurrency default = %d", opts.Concurrency)
	}
	if opts.FetchConcurrency != resolve.DefaultFetchConcurrency {
		t.Errorf("FetchConcurrency default = %d", opts.FetchConcurrency)
	}
	if opts.Logger == nil {
		t.Error("Logger default should be set")
	}
}
