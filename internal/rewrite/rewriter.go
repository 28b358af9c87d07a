// Package rewrite asks the model for a version of the submitted code with
// the selected issues fixed and checks what came back.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agusespa/securecode/internal/codeparse"
	"github.com/agusespa/securecode/internal/diff"
	"github.com/agusespa/securecode/internal/llm"
	"github.com/agusespa/securecode/internal/prompts"
	"github.com/agusespa/securecode/internal/types"
)

var ErrEmptyResponse = errors.New("model returned no code")

// CodeParser is the part of the code parsing registry the rewriter needs.
type CodeParser interface {
	Outline(language, code string) ([]types.Symbol, error)
	SyntaxErrors(language, code string) ([]int, error)
}

type Result struct {
	Code         string
	Raw          string
	Diff         string
	Changed      []diff.LineRange
	SyntaxErrors []int
}

type Rewriter struct {
	provider llm.Provider
	parser   CodeParser
	variant  string
	logger   *zap.Logger
}

// NewRewriter builds a rewriter. parser may be nil, in which case prompts
// carry no outline and results are not syntax checked.
func NewRewriter(provider llm.Provider, parser CodeParser, variant string, logger *zap.Logger) *Rewriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if variant == "" {
		variant = prompts.DefaultPrompt
	}
	return &Rewriter{
		provider: provider,
		parser:   parser,
		variant:  variant,
		logger:   logger,
	}
}

func (r *Rewriter) Model() string {
	return r.provider.GetModel()
}

func (r *Rewriter) Rewrite(ctx context.Context, language, code, instructions string) (*Result, error) {
	prompt, err := prompts.BuildRewritePrompt(r.variant, prompts.RewriteData{
		Language:     language,
		Code:         code,
		Instructions: instructions,
		Symbols:      r.outline(language, code),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	r.logger.Debug("requesting rewrite",
		zap.String("model", r.provider.GetModel()),
		zap.String("language", language),
		zap.Int("prompt_bytes", len(prompt)))

	raw, err := r.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate rewrite: %w", err)
	}

	fixed := ExtractCode(raw)
	if fixed == "" {
		return nil, ErrEmptyResponse
	}

	ext := types.LanguageExtension(language)
	unified, err := diff.Unified("original"+ext, "resolved"+ext, code, fixed)
	if err != nil {
		return nil, err
	}
	changed, err := diff.ChangedRanges(unified)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Code:    fixed,
		Raw:     raw,
		Diff:    unified,
		Changed: changed,
	}

	if r.parser != nil {
		lines, err := r.parser.SyntaxErrors(language, fixed)
		switch {
		case errors.Is(err, codeparse.ErrUnsupportedLanguage):
		case err != nil:
			r.logger.Warn("syntax check failed", zap.String("language", language), zap.Error(err))
		default:
			result.SyntaxErrors = lines
		}
	}

	if len(result.SyntaxErrors) > 0 {
		r.logger.Warn("rewritten code has syntax errors",
			zap.String("language", language),
			zap.Ints("lines", result.SyntaxErrors))
	}

	return result, nil
}

func (r *Rewriter) outline(language, code string) []types.Symbol {
	if r.parser == nil || strings.TrimSpace(code) == "" {
		return nil
	}
	symbols, err := r.parser.Outline(language, code)
	if err != nil {
		if !errors.Is(err, codeparse.ErrUnsupportedLanguage) {
			r.logger.Debug("outline unavailable", zap.String("language", language), zap.Error(err))
		}
		return nil
	}
	return symbols
}
