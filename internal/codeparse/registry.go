// Package codeparse parses submitted source code with tree-sitter to outline
// its declarations and to locate syntax errors.
package codeparse

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/agusespa/securecode/internal/types"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

// grammar pairs a tree-sitter language with the query used to outline it.
// Each query pattern captures the declaration under its kind and the declared
// identifier as @name.
type grammar struct {
	language *sitter.Language
	outline  *sitter.Query
}

// Registry holds one grammar per supported language. Parsers are created per
// call, so a Registry is safe for concurrent use.
type Registry struct {
	grammars map[string]*grammar
}

func NewRegistry() (*Registry, error) {
	r := &Registry{grammars: make(map[string]*grammar)}

	for name, def := range definitions {
		lang := sitter.NewLanguage(def.language())
		q, qerr := sitter.NewQuery(lang, def.outline)
		if qerr != nil {
			r.Close()
			return nil, fmt.Errorf("failed to create %s outline query: %s", name, qerr.Message)
		}
		r.grammars[name] = &grammar{language: lang, outline: q}
	}

	return r, nil
}

// Close releases the compiled queries.
func (r *Registry) Close() {
	for _, g := range r.grammars {
		g.outline.Close()
	}
}

// Supported reports whether language (or one of its aliases) can be parsed.
func (r *Registry) Supported(language string) bool {
	_, err := r.lookup(language)
	return err == nil
}

// Languages lists the supported language names, sorted.
func (r *Registry) Languages() []string {
	names := make([]string, 0, len(r.grammars))
	for name := range r.grammars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(language string) (*grammar, error) {
	name, _ := types.NormalizeLanguage(language)
	g, ok := r.grammars[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	return g, nil
}

func (r *Registry) parse(g *grammar, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(g.language); err != nil {
		return nil, fmt.Errorf("failed to set language for parser: %w", err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse source: tree-sitter returned nil")
	}
	return tree, nil
}

// Outline returns the declarations found in code, ordered by position.
func (r *Registry) Outline(language, code string) ([]types.Symbol, error) {
	g, err := r.lookup(language)
	if err != nil {
		return nil, err
	}

	src := []byte(code)
	tree, err := r.parse(g, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()

	captureNames := g.outline.CaptureNames()
	matches := qc.Matches(g.outline, tree.RootNode(), src)

	type positioned struct {
		symbol types.Symbol
		offset uint
	}
	var found []positioned

	for {
		m := matches.Next()
		if m == nil {
			break
		}

		var decl *sitter.Node
		var kind, name string
		for _, c := range m.Captures {
			node := c.Node
			switch capture := captureNames[c.Index]; capture {
			case "name":
				name = strings.TrimSpace(node.Utf8Text(src))
			default:
				decl = &node
				kind = capture
			}
		}
		if decl == nil || name == "" {
			continue
		}

		found = append(found, positioned{
			symbol: types.Symbol{
				Name:      name,
				Kind:      refineKind(kind, decl),
				StartLine: int(decl.StartPosition().Row) + 1,
				EndLine:   int(decl.EndPosition().Row) + 1,
			},
			offset: decl.StartByte(),
		})
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].offset < found[j].offset })

	symbols := make([]types.Symbol, 0, len(found))
	for _, f := range found {
		symbols = append(symbols, f.symbol)
	}
	return symbols, nil
}

// refineKind reports functions nested in a class body as methods.
func refineKind(kind string, decl *sitter.Node) string {
	if kind != "function" {
		return kind
	}
	for parent := decl.Parent(); parent != nil; parent = parent.Parent() {
		switch parent.Kind() {
		case "class_definition", "class_declaration", "class_body":
			return "method"
		case "function_definition", "function_declaration":
			return kind
		}
	}
	return kind
}

// SyntaxErrors returns the sorted, de-duplicated 1-based lines holding
// ERROR or MISSING nodes. Valid code yields an empty slice.
func (r *Registry) SyntaxErrors(language, code string) ([]int, error) {
	g, err := r.lookup(language)
	if err != nil {
		return nil, err
	}

	src := []byte(code)
	tree, err := r.parse(g, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	lines := []int{}
	root := tree.RootNode()
	if !root.HasError() {
		return lines, nil
	}

	seen := make(map[int]bool)
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.IsError() || n.IsMissing() {
			line := int(n.StartPosition().Row) + 1
			if !seen[line] {
				seen[line] = true
				lines = append(lines, line)
			}
		}
		if !n.HasError() {
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			if child := n.Child(i); child != nil {
				walk(child)
			}
		}
	}
	walk(root)

	sort.Ints(lines)
	return lines, nil
}
