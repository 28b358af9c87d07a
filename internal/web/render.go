package web

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/agusespa/securecode/internal/report"
	"github.com/agusespa/securecode/internal/types"
)

var (
	markdown  = goldmark.New(goldmark.WithExtensions(extension.GFM))
	sanitizer = bluemonday.UGCPolicy().AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code")
)

// renderMarkdown converts untrusted markdown into sanitized HTML.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}

// codeBlock renders code as a fenced markdown block tagged with its language.
func codeBlock(language, code string) template.HTML {
	return renderMarkdown(report.CodeBlock(language, code))
}

func submittedAt(s types.Submission) string {
	return s.CreatedAt.Format("2006-01-02 15:04")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var templateFuncs = template.FuncMap{
	"codeBlock":    codeBlock,
	"deref":        deref,
	"severityIcon": report.SeverityIcon,
	"timestamp":    submittedAt,
}
