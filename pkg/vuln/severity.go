// Package vuln collects known vulnerabilities for resolved package
// versions and aggregates severity statistics across a dependency tree.
package vuln

import "strings"

// Severity is a vulnerability severity level. Levels are totally ordered
// critical > high > moderate > low, with unknown below everything; the
// ordering exists only for "highest severity" reduction.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
	SeverityLow      Severity = "low"
	SeverityUnknown  Severity = "unknown"
)

// rank returns the reduction order of a severity. Higher is more severe.
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityModerate:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ParseSeverity normalizes a severity indicator from an external record.
// Unrecognized or absent values map to SeverityUnknown; "medium" is an
// alias for moderate used by several databases.
func ParseSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "moderate", "medium":
		return SeverityModerate
	case "low":
		return SeverityLow
	default:
		return SeverityUnknown
	}
}

// Summary is one vulnerability attached to a resolved package version.
type Summary struct {
	ID       string   `json:"id"`
	Summary  string   `json:"summary"`
	Severity Severity `json:"severity"`
	Aliases  []string `json:"aliases,omitempty"`
	URL      string   `json:"url,omitempty"`
}

// Counts holds per-severity vulnerability counts. Vulnerabilities with no
// resolvable severity are not counted here; they remain visible in the
// summary list only.
type Counts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Moderate int `json:"moderate"`
	Low      int `json:"low"`
}

// Add increments the bucket for s. Unknown severities are not counted.
func (c *Counts) Add(s Severity) {
	switch s {
	case SeverityCritical:
		c.Critical++
	case SeverityHigh:
		c.High++
	case SeverityModerate:
		c.Moderate++
	case SeverityLow:
		c.Low++
	}
}

// Sum returns the total across the four named buckets.
func (c Counts) Sum() int {
	return c.Critical + c.High + c.Moderate + c.Low
}

// Highest returns the highest-ranked severity with a strictly positive
// count, or SeverityUnknown when every bucket is zero.
func (c Counts) Highest() Severity {
	switch {
	case c.Critical > 0:
		return SeverityCritical
	case c.High > 0:
		return SeverityHigh
	case c.Moderate > 0:
		return SeverityModerate
	case c.Low > 0:
		return SeverityLow
	default:
		return SeverityUnknown
	}
}

// CountSummaries tallies a package's vulnerability summaries into Counts.
func CountSummaries(summaries []Summary) Counts {
	var c Counts
	for _, s := range summaries {
		c.Add(s.Severity)
	}
	return c
}

// TotalCounts is a tree-wide severity tally. Total is the sum of the four
// named buckets.
type TotalCounts struct {
	Counts
	Total int `json:"total"`
}

// AggregateCounts sums per-package counts field-wise across the tree.
func AggregateCounts(perPackage []Counts) TotalCounts {
	var t TotalCounts
	for _, c := range perPackage {
		t.Critical += c.Critical
		t.High += c.High
		t.Moderate += c.Moderate
		t.Low += c.Low
	}
	t.Total = t.Counts.Sum()
	return t
}

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.rank() > a.rank() {
		return b
	}
	return a
}
