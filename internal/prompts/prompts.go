// Package prompts holds the templates used to ask the model for a fixed
// version of scanned code.
package prompts

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/agusespa/securecode/internal/types"
)

type PromptVariant struct {
	Name        string
	Description string
	Template    string
}

// RewriteData is the input of every rewrite template.
type RewriteData struct {
	Language     string
	Code         string
	Instructions string
	Symbols      []types.Symbol
}

var PromptVariants = map[string]PromptVariant{
	"default": {
		Name:        "default",
		Description: "Guided rewrite with the code outline and strict output rules",
		Template:    defaultPromptTemplate,
	},
	"minimal": {
		Name:        "minimal",
		Description: "Short instruction with the issues and the code only",
		Template:    minimalPromptTemplate,
	},
}

const DefaultPrompt = "default"

var templates = template.Must(loadPromptTemplates())

func GetPromptVariant(name string) (PromptVariant, error) {
	variant, exists := PromptVariants[name]
	if !exists {
		return PromptVariant{}, fmt.Errorf("prompt variant '%s' not found", name)
	}
	return variant, nil
}

func ListPromptVariants() []string {
	names := make([]string, 0, len(PromptVariants))
	for name := range PromptVariants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loadPromptTemplates() (*template.Template, error) {
	tmpl := template.New("prompts")

	for name, variant := range PromptVariants {
		_, err := tmpl.New(name).Parse(variant.Template)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
	}

	return tmpl, nil
}

func BuildRewritePrompt(variantName string, data RewriteData) (string, error) {
	if variantName == "" {
		variantName = DefaultPrompt
	}
	if _, err := GetPromptVariant(variantName); err != nil {
		return "", err
	}

	var result strings.Builder
	if err := templates.ExecuteTemplate(&result, variantName, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", variantName, err)
	}

	return result.String(), nil
}

const defaultPromptTemplate = `You are a senior application security engineer. A static analyzer reported security issues in the {{.Language}} code below. Rewrite the code so that the selected issues are resolved.

=== SELECTED ISSUES ===
{{.Instructions}}
{{if .Symbols}}
=== CODE OUTLINE ===
{{range .Symbols}}- {{.Kind}} {{.Name}} (lines {{.StartLine}}-{{.EndLine}})
{{end}}{{end}}
=== CODE ===
` + "```{{.Language}}" + `
{{.Code}}
` + "```" + `

=== RULES ===
- Fix every selected issue at its reported location
- Keep the behavior, names and public signatures of the code otherwise unchanged
- Prefer standard library or well known safe APIs over hand written sanitizing
- Do not add explanations, comments about the change or test code

=== RESPONSE FORMAT ===
Respond with the complete corrected code in a single fenced code block and nothing else.`

const minimalPromptTemplate = `Resolve the following security issues in this {{.Language}} code and return only the corrected code.

{{.Instructions}}

` + "```{{.Language}}" + `
{{.Code}}
` + "```"
