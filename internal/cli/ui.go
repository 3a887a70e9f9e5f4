package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pkglens/pkglens/pkg/analysis"
	"github.com/pkglens/pkglens/pkg/vuln"
)

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success / clean
	colorYellow = lipgloss.Color("220") // moderate
	colorOrange = lipgloss.Color("208") // high
	colorRed    = lipgloss.Color("167") // critical
	colorBlue   = lipgloss.Color("75")  // links
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // secondary text
	colorDim    = lipgloss.Color("240") // muted text
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleGray    = lipgloss.NewStyle().Foreground(colorGray)
	styleLink    = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	severityStyles = map[vuln.Severity]lipgloss.Style{
		vuln.SeverityCritical: lipgloss.NewStyle().Bold(true).Foreground(colorRed),
		vuln.SeverityHigh:     lipgloss.NewStyle().Foreground(colorOrange),
		vuln.SeverityModerate: lipgloss.NewStyle().Foreground(colorYellow),
		vuln.SeverityLow:      lipgloss.NewStyle().Foreground(colorGray),
		vuln.SeverityUnknown:  lipgloss.NewStyle().Foreground(colorDim),
	}
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
)

func renderSeverity(s vuln.Severity) string {
	return severityStyles[s].Render(string(s))
}

// printResult renders the styled terminal report for one analysis.
func printResult(result *analysis.TreeResult) {
	fmt.Println()
	fmt.Println(styleTitle.Render(result.Root.String()) + " " + styleDim.Render("on "+result.Platform.String()))
	fmt.Println(styleDim.Render(strings.Repeat("─", 60)))

	if len(result.Packages) == 0 {
		fmt.Println(styleSuccess.Render(iconSuccess) + " " + fmt.Sprintf("No known vulnerabilities in %d packages", result.TotalPackages))
		printFooter(result)
		return
	}

	for _, pkg := range result.Packages {
		printPackage(pkg)
	}

	fmt.Println(styleDim.Render(strings.Repeat("─", 60)))
	printTotals(result.Severity)
	printFooter(result)
}

func printPackage(pkg analysis.PackageReport) {
	header := styleValue.Render(pkg.String()) + " " + styleDim.Render("("+pkg.Depth.String()+")")
	fmt.Println(renderSeverity(pkg.Counts.Highest()) + " " + header)
	if len(pkg.Path) > 0 {
		fmt.Println("  " + styleDim.Render("via "+strings.Join(pkg.Path, " › ")))
	}
	for _, s := range pkg.Summaries {
		line := "  " + renderSeverity(s.Severity) + " " + styleGray.Render(s.ID)
		if s.Summary != "" {
			line += " " + styleValue.Render(s.Summary)
		}
		fmt.Println(line)
		if s.URL != "" {
			fmt.Println("    " + styleLink.Render(s.URL))
		}
	}
}

// printTotals renders the tree-wide severity tally on one line.
func printTotals(total vuln.TotalCounts) {
	parts := []string{}
	add := func(n int, s vuln.Severity) {
		if n > 0 {
			parts = append(parts, severityStyles[s].Render(fmt.Sprintf("%d %s", n, s)))
		}
	}
	add(total.Critical, vuln.SeverityCritical)
	add(total.High, vuln.SeverityHigh)
	add(total.Moderate, vuln.SeverityModerate)
	add(total.Low, vuln.SeverityLow)

	fmt.Println(fmt.Sprintf("%d vulnerabilities: ", total.Total) + strings.Join(parts, styleDim.Render(" · ")))
}

func printFooter(result *analysis.TreeResult) {
	footer := fmt.Sprintf("%d packages analyzed", result.TotalPackages)
	if result.FailedQueries > 0 {
		footer += " " + styleWarning.Render(fmt.Sprintf("%s %d lookups failed (results may under-report)", iconWarning, result.FailedQueries))
	}
	fmt.Println(styleDim.Render(iconInfo) + " " + styleDim.Render(footer))
}
