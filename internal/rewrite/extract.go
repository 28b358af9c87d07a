package rewrite

import (
	"strings"
)

// ExtractCode returns the body of the first fenced code block in a model
// response, or the whole trimmed response when it has no fence.
func ExtractCode(response string) string {
	response = strings.TrimSpace(response)
	if !strings.Contains(response, "```") {
		return response
	}

	if extracted, ok := extractFromCodeBlock(response); ok {
		return extracted
	}
	return response
}

func extractFromCodeBlock(response string) (string, bool) {
	lines := strings.Split(response, "\n")
	inCodeBlock := false
	var codeLines []string

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inCodeBlock {
				return strings.TrimSpace(strings.Join(codeLines, "\n")), true
			}
			inCodeBlock = true
			continue
		}
		if inCodeBlock {
			codeLines = append(codeLines, line)
		}
	}

	// Unterminated fence: keep what followed the opening line.
	if inCodeBlock && len(codeLines) > 0 {
		return strings.TrimSpace(strings.Join(codeLines, "\n")), true
	}
	return "", false
}
