package report

import (
	"fmt"
	"strings"

	"github.com/agusespa/securecode/internal/types"
)

// CountBySeverity counts issues by their severity level, ignoring case.
func CountBySeverity(issues []types.Issue) (high, medium, low int) {
	for _, issue := range issues {
		switch strings.ToUpper(issue.Severity) {
		case "HIGH":
			high++
		case "MEDIUM":
			medium++
		case "LOW":
			low++
		}
	}
	return high, medium, low
}

// Markdown renders a vulnerability report for a submission. fixed is included
// when the submission has been resolved.
func Markdown(title string, issues []types.Issue, fixed string) string {
	var b strings.Builder

	if title == "" {
		title = "Untitled submission"
	}
	b.WriteString(fmt.Sprintf("# Vulnerability Report: %s\n\n", title))

	if len(issues) == 0 {
		b.WriteString("✅ No issues found\n")
	}

	for i, issue := range issues {
		b.WriteString(fmt.Sprintf("## %s %d. %s: %s\n", SeverityIcon(issue.Severity), i+1, strings.ToUpper(issue.Severity), issue.Description))
		b.WriteString(fmt.Sprintf("**Confidence:** %s\n", issue.Confidence))
		b.WriteString(fmt.Sprintf("**Location:** `%s`\n", issue.Location))
		if issue.CWE != "" {
			b.WriteString(fmt.Sprintf("**CWE:** %s\n", issue.CWE))
		}
		if issue.MoreInfo != "" {
			b.WriteString(fmt.Sprintf("**More Info:** %s\n", issue.MoreInfo))
		}
		b.WriteString("\n---\n\n")
	}

	if fixed != "" {
		b.WriteString("## Resolved Code\n\n")
		b.WriteString(CodeBlock("", fixed))
	}

	high, medium, low := CountBySeverity(issues)
	b.WriteString(fmt.Sprintf("\n\n**Summary:** %d high, %d medium, %d low severity issues\n", high, medium, low))

	return b.String()
}

// CodeBlock wraps code in a fenced markdown block tagged with language. The
// fence is longer than any backtick run inside code.
func CodeBlock(language, code string) string {
	fence := "```"
	for strings.Contains(code, fence) {
		fence += "`"
	}
	return fence + language + "\n" + strings.TrimRight(code, "\n") + "\n" + fence + "\n"
}

// SeverityIcon maps a severity label to the icon used in reports.
func SeverityIcon(severity string) string {
	switch strings.ToUpper(severity) {
	case "HIGH":
		return "🔴"
	case "MEDIUM":
		return "🟡"
	case "LOW":
		return "🔵"
	default:
		return "⚪️"
	}
}
