package types

import (
	"path/filepath"
	"strings"
)

// DefaultLanguage is assumed when a submission does not name one.
const DefaultLanguage = "python"

var languageExtensions = map[string]string{
	"python":     ".py",
	"go":         ".go",
	"java":       ".java",
	"c":          ".c",
	"typescript": ".ts",
}

var languageAliases = map[string]string{
	"py":      "python",
	"python3": "python",
	"golang":  "go",
	"ts":      "typescript",
	"tsx":     "typescript",
	"h":       "c",
}

var extensionLanguages = map[string]string{
	"py":   "python",
	"pyw":  "python",
	"go":   "go",
	"java": "java",
	"c":    "c",
	"h":    "c",
	"ts":   "typescript",
	"tsx":  "typescript",
}

// NormalizeLanguage maps a user supplied language name or alias onto one of
// the known language names. ok is false for unknown languages.
func NormalizeLanguage(name string) (lang string, ok bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultLanguage, true
	}
	if alias, exists := languageAliases[name]; exists {
		name = alias
	}
	_, ok = languageExtensions[name]
	return name, ok
}

// LanguageExtension returns the source file extension for a known language.
func LanguageExtension(lang string) string {
	if ext, ok := languageExtensions[lang]; ok {
		return ext
	}
	return ".txt"
}

// LanguageFromPath detects the language of a file from its extension. Unknown
// extensions return an empty string.
func LanguageFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return extensionLanguages[ext]
}

// KnownLanguages lists the supported language names in a stable order.
func KnownLanguages() []string {
	return []string{"python", "go", "java", "c", "typescript"}
}
