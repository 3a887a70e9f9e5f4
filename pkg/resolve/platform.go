package resolve

import "strings"

// Matches reports whether the manifest's platform constraints admit the
// target platform. Each axis (os, cpu, libc) is checked independently and
// all three must be satisfied. An absent or empty constraint list satisfies
// its axis unconditionally.
func Matches(m *Manifest, target TargetPlatform) bool {
	return axisMatches(m.OS, target.OS) &&
		axisMatches(m.CPU, target.CPU) &&
		axisMatches(m.Libc, target.Libc)
}

// axisMatches evaluates one constraint axis. Plain tokens are inclusions,
// "!"-prefixed tokens are exclusions. The axis is satisfied iff the value
// is not excluded and, when any inclusions are present, is among them.
func axisMatches(constraints []string, value string) bool {
	if len(constraints) == 0 {
		return true
	}

	included := false
	hasInclusions := false
	for _, c := range constraints {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if excluded, ok := strings.CutPrefix(c, "!"); ok {
			if excluded == value {
				return false
			}
			continue
		}
		hasInclusions = true
		if c == value {
			included = true
		}
	}
	return !hasInclusions || included
}
