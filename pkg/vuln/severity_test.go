package vuln

import "testing"

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		raw  string
		want Severity
	}{
		{"critical", SeverityCritical},
		{"CRITICAL", SeverityCritical},
		{"High", SeverityHigh},
		{"moderate", SeverityModerate},
		{"MEDIUM", SeverityModerate},
		{"low", SeverityLow},
		{" low ", SeverityLow},
		{"", SeverityUnknown},
		{"7.5", SeverityUnknown},
		{"severe", SeverityUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseSeverity(tt.raw); got != tt.want {
				t.Errorf("ParseSeverity(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCountsHighest(t *testing.T) {
	tests := []struct {
		name   string
		counts Counts
		want   Severity
	}{
		{"critical dominates", Counts{Critical: 1, High: 10, Moderate: 20, Low: 30}, SeverityCritical},
		{"high without critical", Counts{High: 2, Low: 5}, SeverityHigh},
		{"moderate only", Counts{Moderate: 1}, SeverityModerate},
		{"low only", Counts{Low: 9}, SeverityLow},
		{"all zero", Counts{}, SeverityUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.counts.Highest(); got != tt.want {
				t.Errorf("Highest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCountsAddSkipsUnknown(t *testing.T) {
	var c Counts
	c.Add(SeverityCritical)
	c.Add(SeverityUnknown)
	c.Add(SeverityLow)
	if c.Sum() != 2 {
		t.Errorf("Sum() = %d, unknown must not be counted", c.Sum())
	}
}

func TestCountSummaries(t *testing.T) {
	summaries := []Summary{
		{ID: "GHSA-1", Severity: SeverityHigh},
		{ID: "GHSA-2", Severity: SeverityHigh},
		{ID: "GHSA-3", Severity: SeverityLow},
		{ID: "GHSA-4", Severity: SeverityUnknown},
	}
	c := CountSummaries(summaries)
	if c.High != 2 || c.Low != 1 || c.Critical != 0 || c.Moderate != 0 {
		t.Errorf("CountSummaries = %+v", c)
	}
	// The unknown record stays in the list but outside the four buckets.
	if c.Sum() != 3 {
		t.Errorf("Sum() = %d, want 3", c.Sum())
	}
}

func TestAggregateCounts(t *testing.T) {
	total := AggregateCounts([]Counts{
		{Critical: 1, Low: 2},
		{High: 3},
		{},
		{Moderate: 1, Low: 1},
	})
	want := TotalCounts{Counts: Counts{Critical: 1, High: 3, Moderate: 1, Low: 3}, Total: 8}
	if total != want {
		t.Errorf("AggregateCounts = %+v, want %+v", total, want)
	}

	empty := AggregateCounts(nil)
	if empty.Total != 0 {
		t.Errorf("empty aggregate Total = %d", empty.Total)
	}
}

func TestMaxSeverity(t *testing.T) {
	if got := MaxSeverity(SeverityLow, SeverityHigh); got != SeverityHigh {
		t.Errorf("MaxSeverity = %v", got)
	}
	if got := MaxSeverity(SeverityCritical, SeverityUnknown); got != SeverityCritical {
		t.Errorf("MaxSeverity = %v", got)
	}
}
