package diff

import (
	"bytes"
	"fmt"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// LineRange is a run of Count lines starting at the 1-based line Start.
type LineRange struct {
	Start int
	Count int
}

// ChangedRanges returns the ranges of lines added to the new side of a
// single-file unified diff. An empty diff has no ranges.
func ChangedRanges(unified string) ([]LineRange, error) {
	ranges := []LineRange{}
	if unified == "" {
		return ranges, nil
	}

	fd, err := godiff.ParseFileDiff([]byte(unified))
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	for _, h := range fd.Hunks {
		line := int(h.NewStartLine)
		for _, l := range bytes.Split(bytes.TrimSuffix(h.Body, []byte("\n")), []byte("\n")) {
			if len(l) == 0 {
				line++
				continue
			}
			switch l[0] {
			case '+':
				if n := len(ranges); n > 0 && ranges[n-1].Start+ranges[n-1].Count == line {
					ranges[n-1].Count++
				} else {
					ranges = append(ranges, LineRange{Start: line, Count: 1})
				}
				line++
			case ' ':
				line++
			}
		}
	}

	return ranges, nil
}
