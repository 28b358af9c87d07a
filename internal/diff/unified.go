// Package diff renders the difference between submitted and rewritten code
// as a unified diff and reads changed line ranges back out of one.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	godiff "github.com/sourcegraph/go-diff/diff"
)

// ContextLines is the number of unchanged lines kept around each change.
const ContextLines = 3

type op struct {
	kind byte // ' ', '-' or '+'
	text string
}

// Unified returns a unified diff turning oldText into newText. Identical
// inputs produce an empty string.
func Unified(oldName, newName, oldText, newText string) (string, error) {
	ops := lineOps(withTrailingNewline(oldText), withTrailingNewline(newText))

	hunks := buildHunks(ops, ContextLines)
	if len(hunks) == 0 {
		return "", nil
	}

	fd := &godiff.FileDiff{
		OrigName: oldName,
		NewName:  newName,
		Hunks:    hunks,
	}

	out, err := godiff.PrintFileDiff(fd)
	if err != nil {
		return "", fmt.Errorf("failed to print diff: %w", err)
	}
	return string(out), nil
}

func withTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// lineOps computes a line level edit script.
func lineOps(oldText, newText string) []op {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	a, b, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var ops []op
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}

		var kind byte
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			kind = ' '
		case diffmatchpatch.DiffDelete:
			kind = '-'
		case diffmatchpatch.DiffInsert:
			kind = '+'
		}

		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			ops = append(ops, op{kind: kind, text: line})
		}
	}
	return ops
}

// buildHunks groups changed lines with their surrounding context. Changes
// closer than twice the context share a hunk.
func buildHunks(ops []op, context int) []*godiff.Hunk {
	type span struct{ start, end int }
	var spans []span

	for i, o := range ops {
		if o.kind == ' ' {
			continue
		}
		start := max(0, i-context)
		end := min(len(ops), i+1+context)
		if n := len(spans); n > 0 && start <= spans[n-1].end {
			spans[n-1].end = max(spans[n-1].end, end)
			continue
		}
		spans = append(spans, span{start, end})
	}

	hunks := make([]*godiff.Hunk, 0, len(spans))
	for _, s := range spans {
		origStart, newStart := 1, 1
		for _, o := range ops[:s.start] {
			if o.kind != '+' {
				origStart++
			}
			if o.kind != '-' {
				newStart++
			}
		}

		var body strings.Builder
		var origLines, newLines int
		for _, o := range ops[s.start:s.end] {
			if o.kind != '+' {
				origLines++
			}
			if o.kind != '-' {
				newLines++
			}
			body.WriteByte(o.kind)
			body.WriteString(o.text)
			body.WriteByte('\n')
		}

		// An empty side points at the line before the hunk.
		if origLines == 0 {
			origStart--
		}
		if newLines == 0 {
			newStart--
		}

		hunks = append(hunks, &godiff.Hunk{
			OrigStartLine: int32(origStart),
			OrigLines:     int32(origLines),
			NewStartLine:  int32(newStart),
			NewLines:      int32(newLines),
			Body:          []byte(body.String()),
		})
	}
	return hunks
}
