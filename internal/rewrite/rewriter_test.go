package rewrite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agusespa/securecode/internal/codeparse"
	"github.com/agusespa/securecode/internal/diff"
	"github.com/agusespa/securecode/internal/types"
)

type fakeProvider struct {
	response string
	err      error
	prompts  []string
}

func (p *fakeProvider) GetModel() string { return "fake-model" }

func (p *fakeProvider) Generate(_ context.Context, prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	return p.response, p.err
}

type fakeParser struct {
	symbols   []types.Symbol
	syntaxErr []int
	err       error
}

func (p fakeParser) Outline(string, string) ([]types.Symbol, error) { return p.symbols, p.err }

func (p fakeParser) SyntaxErrors(string, string) ([]int, error) { return p.syntaxErr, p.err }

const vulnerable = `import subprocess

def run(cmd):
    return subprocess.call(cmd, shell=True)
`

const fixedResponse = "```python\nimport subprocess\n\ndef run(cmd):\n    return subprocess.call(cmd)\n```"

func TestRewriter_Rewrite(t *testing.T) {
	provider := &fakeProvider{response: fixedResponse}
	parser := fakeParser{symbols: []types.Symbol{{Name: "run", Kind: "function", StartLine: 3, EndLine: 4}}}
	r := NewRewriter(provider, parser, "", nil)

	result, err := r.Rewrite(context.Background(), "python", vulnerable, "Issue: shell=True")
	require.NoError(t, err)

	assert.Equal(t, "import subprocess\n\ndef run(cmd):\n    return subprocess.call(cmd)", result.Code)
	assert.Equal(t, fixedResponse, result.Raw)
	assert.Contains(t, result.Diff, "--- original.py")
	assert.Contains(t, result.Diff, "-    return subprocess.call(cmd, shell=True)")
	assert.Contains(t, result.Diff, "+    return subprocess.call(cmd)")
	assert.Equal(t, []diff.LineRange{{Start: 4, Count: 1}}, result.Changed)
	assert.Empty(t, result.SyntaxErrors)

	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "Issue: shell=True")
	assert.Contains(t, provider.prompts[0], "- function run (lines 3-4)")
}

func TestRewriter_ProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("boom")}
	r := NewRewriter(provider, nil, "minimal", nil)

	_, err := r.Rewrite(context.Background(), "python", vulnerable, "Issue: x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate rewrite: boom")
}

func TestRewriter_EmptyResponse(t *testing.T) {
	r := NewRewriter(&fakeProvider{response: "  \n"}, nil, "", nil)

	_, err := r.Rewrite(context.Background(), "python", vulnerable, "Issue: x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestRewriter_UnknownPromptVariant(t *testing.T) {
	provider := &fakeProvider{response: "x"}
	r := NewRewriter(provider, nil, "nope", nil)

	_, err := r.Rewrite(context.Background(), "python", vulnerable, "Issue: x")
	require.Error(t, err)
	assert.Empty(t, provider.prompts)
}

func TestRewriter_UnsupportedLanguageSkipsChecks(t *testing.T) {
	parser := fakeParser{err: codeparse.ErrUnsupportedLanguage}
	r := NewRewriter(&fakeProvider{response: "puts 1"}, parser, "", nil)

	result, err := r.Rewrite(context.Background(), "ruby", "puts 0", "Issue: x")
	require.NoError(t, err)
	assert.Nil(t, result.SyntaxErrors)
	assert.Contains(t, result.Diff, "original.txt")
}

func TestRewriter_ReportsSyntaxErrors(t *testing.T) {
	registry, err := codeparse.NewRegistry()
	require.NoError(t, err)
	defer registry.Close()

	broken := "```python\ndef run(cmd:\n    return cmd\n```"
	r := NewRewriter(&fakeProvider{response: broken}, registry, "", nil)

	result, err := r.Rewrite(context.Background(), "python", vulnerable, "Issue: x")
	require.NoError(t, err)
	assert.NotEmpty(t, result.SyntaxErrors)
}

func TestRewriter_UnchangedCode(t *testing.T) {
	r := NewRewriter(&fakeProvider{response: vulnerable}, nil, "", nil)

	result, err := r.Rewrite(context.Background(), "python", vulnerable, "Issue: x")
	require.NoError(t, err)
	assert.Empty(t, result.Diff)
	assert.Empty(t, result.Changed)
}
