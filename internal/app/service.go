// Package app ties the scanner, the rewriter and the submission store
// together behind the operations the web and CLI surfaces expose.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agusespa/securecode/internal/history"
	"github.com/agusespa/securecode/internal/report"
	"github.com/agusespa/securecode/internal/rewrite"
	"github.com/agusespa/securecode/internal/scanner"
	"github.com/agusespa/securecode/internal/session"
	"github.com/agusespa/securecode/internal/types"
)

var (
	ErrMissingInput    = errors.New("title and code are required")
	ErrUnknownIssue    = errors.New("issue is not part of the current report")
	ErrNothingSelected = errors.New("no issues selected")
	ErrNoReport        = errors.New("no scan report available")
)

const DefaultHistoryLimit = 100

type Rewriter interface {
	Rewrite(ctx context.Context, language, code, instructions string) (*rewrite.Result, error)
}

type CodeStore interface {
	SaveCode(ctx context.Context, userID int64, title, language, input string, output *string) (int64, error)
	GetRecentCodes(ctx context.Context, userID int64, limit int) ([]types.Submission, error)
}

type Service struct {
	scanner      scanner.Scanner
	rewriter     Rewriter
	codes        CodeStore
	historyLimit int
	logger       *zap.Logger
}

func NewService(sc scanner.Scanner, rw Rewriter, codes CodeStore, historyLimit int, logger *zap.Logger) *Service {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		scanner:      sc,
		rewriter:     rw,
		codes:        codes,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// Scan runs the analyzer over code and records the outcome in st. The
// previous report is cleared first and the new one is only committed once
// the scan and, for signed in users, the submission record succeeded.
func (s *Service) Scan(ctx context.Context, st *session.State, title, language, code string) error {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(code) == "" {
		return ErrMissingInput
	}
	if lang, ok := types.NormalizeLanguage(language); ok {
		language = lang
	}

	st.Title = title
	st.Language = language
	st.Code = code
	st.BeginScan()

	raw, err := s.scanner.DetectVulnerabilities(ctx, language, code)
	if err != nil {
		s.logger.Warn("scan failed", zap.String("session", st.ID), zap.Error(err))
		return err
	}
	issues := report.Parse(raw)

	if st.LoggedIn() {
		if _, err := s.codes.SaveCode(ctx, st.UserID, title, language, code, nil); err != nil {
			s.logger.Error("failed to record submission", zap.Int64("user_id", st.UserID), zap.Error(err))
			return err
		}
	}

	st.Report = raw
	st.Issues = issues
	st.ScanComplete = true
	st.IssueResolved = false
	for i := range issues {
		st.Selection.Ensure(i)
	}

	s.logger.Info("scan complete",
		zap.String("session", st.ID),
		zap.String("language", language),
		zap.Int("issues", len(issues)))
	return nil
}

// SetSelection marks exactly the listed issues as selected.
func (s *Service) SetSelection(st *session.State, indices []int) error {
	listed := make(map[int]bool, len(indices))
	for _, i := range indices {
		if err := checkIndex(st, i); err != nil {
			return err
		}
		listed[i] = true
	}

	for i := range st.Issues {
		st.Selection.Set(i, listed[i])
	}
	return nil
}

func (s *Service) Toggle(st *session.State, index int, value bool) error {
	if err := checkIndex(st, index); err != nil {
		return err
	}
	st.Selection.Set(index, value)
	return nil
}

func checkIndex(st *session.State, index int) error {
	if index < 0 || index >= len(st.Issues) {
		return fmt.Errorf("%w: %d", ErrUnknownIssue, index)
	}
	return nil
}

// Resolve asks the model to fix the selected issues. st only changes when
// the rewrite and its record succeeded.
func (s *Service) Resolve(ctx context.Context, st *session.State) (*rewrite.Result, error) {
	if !st.Selection.AnySelected() {
		return nil, ErrNothingSelected
	}

	selected := st.Selection.SelectedIndices()
	instructions := report.Instructions(st.Issues, selected)

	start := time.Now()
	result, err := s.rewriter.Rewrite(ctx, st.Language, st.Code, instructions)
	if err != nil {
		s.logger.Warn("rewrite failed", zap.String("session", st.ID), zap.Error(err))
		return nil, err
	}

	if st.LoggedIn() {
		if _, err := s.codes.SaveCode(ctx, st.UserID, st.Title, st.Language, st.Code, &result.Code); err != nil {
			s.logger.Error("failed to record resolved submission", zap.Int64("user_id", st.UserID), zap.Error(err))
			return nil, err
		}
	}

	st.FixedCode = result.Code
	st.FixedDiff = result.Diff
	st.SyntaxErrors = result.SyntaxErrors
	st.IssueResolved = true

	s.logger.Info("issues resolved",
		zap.String("session", st.ID),
		zap.Ints("issues", selected),
		zap.Duration("took", time.Since(start)))
	return result, nil
}

func (s *Service) History(ctx context.Context, userID int64, filter history.Filter, now time.Time) ([]history.Bucket, error) {
	subs, err := s.codes.GetRecentCodes(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return history.Group(subs, filter, now), nil
}

// ReportMarkdown renders the current report, with the fix once resolved.
func (s *Service) ReportMarkdown(st *session.State) (string, error) {
	if !st.ScanComplete {
		return "", ErrNoReport
	}
	fixed := ""
	if st.IssueResolved {
		fixed = st.FixedCode
	}
	return report.Markdown(st.Title, st.Issues, fixed), nil
}
