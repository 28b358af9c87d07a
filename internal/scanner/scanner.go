// Package scanner runs static security analyzers over submitted code and
// returns their raw text reports.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agusespa/securecode/internal/types"
)

var (
	ErrScannerUnavailable  = errors.New("scanner is not installed")
	ErrUnsupportedLanguage = errors.New("no scanner configured for language")
)

// FilePlaceholder in a tool's arguments is replaced by the path of the file
// being scanned. Without it the path is appended.
const FilePlaceholder = "{file}"

const defaultTimeout = 60 * time.Second

type Scanner interface {
	DetectVulnerabilities(ctx context.Context, language, code string) (string, error)
}

// Tool describes how to invoke the analyzer for one language.
type Tool struct {
	Command string
	Args    []string
	Timeout time.Duration
	// SuccessCodes lists non-zero exit statuses that still mean the report
	// is complete.
	SuccessCodes []int
}

// DefaultTools scans python with Bandit's text formatter. Bandit exits
// with status 1 when it found issues.
func DefaultTools() map[string]Tool {
	return map[string]Tool{
		"python": {
			Command:      "bandit",
			Args:         []string{"-f", "txt", FilePlaceholder},
			Timeout:      defaultTimeout,
			SuccessCodes: []int{1},
		},
	}
}

type CommandScanner struct {
	runner Runner
	tools  map[string]Tool
	logger *zap.Logger
}

func NewCommandScanner(runner Runner, tools map[string]Tool, logger *zap.Logger) *CommandScanner {
	if runner == nil {
		runner = OSRunner{}
	}
	if tools == nil {
		tools = DefaultTools()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandScanner{runner: runner, tools: tools, logger: logger}
}

// Languages reports the languages a tool is configured for.
func (s *CommandScanner) Languages() []string {
	var langs []string
	for _, lang := range types.KnownLanguages() {
		if _, ok := s.tools[lang]; ok {
			langs = append(langs, lang)
		}
	}
	return langs
}

func (s *CommandScanner) DetectVulnerabilities(ctx context.Context, language, code string) (string, error) {
	lang, ok := types.NormalizeLanguage(language)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	tool, ok := s.tools[lang]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}

	if _, err := s.runner.LookPath(tool.Command); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrScannerUnavailable, tool.Command, err)
	}

	dir, err := os.MkdirTemp("", "securecode-scan-*")
	if err != nil {
		return "", fmt.Errorf("failed to create scan directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, "submission"+types.LanguageExtension(lang))
	if err := os.WriteFile(path, []byte(code), 0o600); err != nil {
		return "", fmt.Errorf("failed to write submission: %w", err)
	}

	timeout := tool.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := toolArgs(tool.Args, path)
	start := time.Now()
	out, err := s.runner.Run(ctx, tool.Command, args...)
	if err != nil && !tool.succeeded(err) {
		return "", fmt.Errorf("scan failed: %w", err)
	}

	s.logger.Debug("scan finished",
		zap.String("language", lang),
		zap.String("command", tool.Command),
		zap.Duration("took", time.Since(start)),
		zap.Int("report_bytes", len(out)))

	return string(out), nil
}

func (t Tool) succeeded(err error) bool {
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	for _, code := range t.SuccessCodes {
		if exitErr.Code == code {
			return true
		}
	}
	return false
}

func toolArgs(args []string, path string) []string {
	out := make([]string, 0, len(args)+1)
	replaced := false
	for _, arg := range args {
		if strings.Contains(arg, FilePlaceholder) {
			arg = strings.ReplaceAll(arg, FilePlaceholder, path)
			replaced = true
		}
		out = append(out, arg)
	}
	if !replaced {
		out = append(out, path)
	}
	return out
}
