// Package report extracts issues from plain-text scanner reports and renders
// them back out as rewrite instructions and markdown.
package report

import (
	"regexp"
	"strings"

	"github.com/agusespa/securecode/internal/types"
)

// issuePattern matches one Bandit text-format finding. Descriptions may wrap,
// and the CWE / More Info lines only appear in newer Bandit releases.
var issuePattern = regexp.MustCompile(`(?s)>> Issue: (.*?)\n\s+Severity: (.*?)\s+Confidence: (.*?)\n` +
	`(?:\s+CWE: (.*?)\n)?(?:\s+More Info: (.*?)\n)?\s+Location: (.*?)\n`)

// Parse returns the issues found in report in order of appearance. A report
// without any recognizable finding yields an empty slice.
func Parse(report string) []types.Issue {
	issues := []types.Issue{}

	for _, m := range issuePattern.FindAllStringSubmatch(report, -1) {
		issues = append(issues, types.Issue{
			Description: strings.TrimSpace(m[1]),
			Severity:    strings.TrimSpace(m[2]),
			Confidence:  strings.TrimSpace(m[3]),
			CWE:         strings.TrimSpace(m[4]),
			MoreInfo:    strings.TrimSpace(m[5]),
			Location:    strings.TrimSpace(m[6]),
		})
	}

	return issues
}

// Instructions joins the display text of the issues at the given indices, in
// the order given, one issue per line block. Indices outside issues are skipped.
func Instructions(issues []types.Issue, indices []int) string {
	parts := make([]string, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(issues) {
			continue
		}
		parts = append(parts, issues[i].String())
	}
	return strings.Join(parts, "\n")
}
