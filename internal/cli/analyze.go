package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkglens/pkglens/pkg/analysis"
	"github.com/pkglens/pkglens/pkg/cache"
	"github.com/pkglens/pkglens/pkg/registry/npm"
	"github.com/pkglens/pkglens/pkg/vuln/osv"
)

// analyzeOpts holds the command-line flags for the analyze command.
type analyzeOpts struct {
	platform    string // target triple override, e.g. "linux/x64/glibc"
	concurrency int    // vulnerability lookup bound
	jsonOut     bool   // machine-readable output
	refresh     bool   // bypass all caches
	noCache     bool   // disable caching entirely
	configPath  string // explicit config file
}

// newAnalyzeCmd creates the analyze command.
//
// Examples:
//
//	pkglens analyze express              # latest stable version
//	pkglens analyze express@4.18.2       # exact version
//	pkglens analyze @types/node@^20.0.0  # scoped package, range spec
func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOpts

	cmd := &cobra.Command{
		Use:   "analyze <package>[@version]",
		Short: "Resolve a package's dependency tree and report known vulnerabilities",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runAnalyze(c.Context(), &opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.platform, "platform", "p", "", "target platform as os/cpu/libc (default from config)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "max parallel vulnerability lookups")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "output the full result as JSON")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass caches and recompute")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching entirely")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/pkglens/config.toml)")

	return cmd
}

func runAnalyze(ctx context.Context, opts *analyzeOpts, arg string) error {
	logger := loggerFromContext(ctx)

	name, versionSpec := splitPackageArg(arg)
	if name == "" {
		return fmt.Errorf("empty package name in %q", arg)
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.platform == "" {
		opts.platform = cfg.Platform
	}
	platform, err := parsePlatform(opts.platform)
	if err != nil {
		return err
	}
	concurrency := opts.concurrency
	if concurrency == 0 {
		concurrency = cfg.Concurrency
	}

	backend, err := newBackendCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer backend.Close()
	ttl := time.Duration(cfg.CacheTTL)

	metadata := npm.NewClient(backend, ttl, cfg.RegistryURL)
	metadata.SetRefresh(opts.refresh)
	vulns := osv.NewClient(backend, ttl, cfg.OSVURL)
	vulns.SetRefresh(opts.refresh)

	runner := analysis.NewRunner(metadata, vulns, backend)

	logger.Infof("Analyzing %s for %s", arg, platform)
	prog := newProgress(logger)
	result, err := runner.Analyze(ctx, name, versionSpec, analysis.Options{
		Platform:         platform,
		Concurrency:      concurrency,
		FetchConcurrency: cfg.FetchConcurrency,
		CacheTTL:         ttl,
		Refresh:          opts.refresh,
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Analyzed %d packages, %d vulnerable", result.TotalPackages, len(result.Packages)))

	if opts.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(result)
	return nil
}

func newBackendCache(ctx context.Context, cfg Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return cfg.newCache(ctx)
}

// splitPackageArg splits "name[@version]" into name and version spec.
// Scoped packages keep their leading "@": the version separator is the
// last "@" past position zero.
func splitPackageArg(arg string) (name, versionSpec string) {
	arg = strings.TrimSpace(arg)
	if at := strings.LastIndex(arg, "@"); at > 0 {
		return arg[:at], arg[at+1:]
	}
	return arg, ""
}
