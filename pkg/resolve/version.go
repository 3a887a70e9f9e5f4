package resolve

import (
	"regexp"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// schemeRe matches URL-style range specifiers (https://, git://, git+ssh://, ...).
var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// ResolveVersion picks the version an npm install would choose for spec from
// the set of published versions. ok is false when the spec points at a
// non-registry source (URL, file path, GitHub shorthand) or when no
// published version satisfies it.
//
// Resolution order:
//  1. Foreign-source specifiers are rejected outright.
//  2. "npm:<name>@<spec>" aliases unwrap to their trailing spec.
//  3. A spec that exactly names a published version wins, even a prerelease.
//  4. Otherwise the maximal satisfying version is chosen, preferring stable
//     releases over prereleases inside the same range.
func ResolveVersion(spec string, available []string) (string, bool) {
	spec = strings.TrimSpace(spec)

	if schemeRe.MatchString(spec) || strings.HasPrefix(spec, "file:") {
		return "", false
	}

	if rest, ok := strings.CutPrefix(spec, "npm:"); ok {
		// Alias form npm:<name>@<spec>; the last "@" separates the spec so
		// scoped targets like npm:@scope/pkg@^1.0.0 parse correctly.
		at := strings.LastIndex(rest, "@")
		if at <= 0 || at == len(rest)-1 {
			return "", false
		}
		return resolveRange(rest[at+1:], available)
	}

	// GitHub shorthand (owner/repo, optionally #ref). A leading "@" marks a
	// scoped package name, never a repo path.
	if strings.Contains(spec, "/") && !strings.HasPrefix(spec, "@") {
		return "", false
	}

	return resolveRange(spec, available)
}

func resolveRange(spec string, available []string) (string, bool) {
	// Exact-match short-circuit: a spec naming a published version verbatim
	// takes priority over range semantics, prereleases included.
	if slices.Contains(available, spec) {
		return spec, true
	}

	if spec == "" {
		spec = "*"
	}
	rng, err := semver.NewConstraint(spec)
	if err != nil {
		return "", false
	}

	// Stable releases are preferred over prereleases: a prerelease is only
	// selected when no stable version satisfies the range. The constraint
	// library already refuses to match prereleases unless the range itself
	// names one, which gives npm's "explicitly requested" behavior.
	var bestStable, bestPre *semver.Version
	for _, raw := range available {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if !rng.Check(v) {
			continue
		}
		if v.Prerelease() == "" {
			if bestStable == nil || v.GreaterThan(bestStable) {
				bestStable = v
			}
		} else if bestPre == nil || v.GreaterThan(bestPre) {
			bestPre = v
		}
	}

	switch {
	case bestStable != nil:
		return bestStable.Original(), true
	case bestPre != nil:
		return bestPre.Original(), true
	default:
		return "", false
	}
}
