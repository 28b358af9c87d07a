package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/agusespa/securecode/internal/app"
	"github.com/agusespa/securecode/internal/codeparse"
	"github.com/agusespa/securecode/internal/report"
	"github.com/agusespa/securecode/internal/rewrite"
	"github.com/agusespa/securecode/internal/tui"
	"github.com/agusespa/securecode/pkg/spinner"
)

var (
	resolveLanguage    string
	resolveUser        string
	resolveIssues      []int
	resolveInteractive bool
	resolveOutput      string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve FILE",
	Short: "Scan a file and rewrite it so the selected issues are fixed",
	Long: `Scan a file, select issues by the numbers printed by "securecode scan"
(or pick them interactively) and ask the configured model for a fixed
version of the code.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	addSubmissionFlags(resolveCmd, &resolveLanguage, &resolveUser)
	resolveCmd.Flags().IntSliceVarP(&resolveIssues, "issue", "i", nil, "Issue number to resolve (repeatable)")
	resolveCmd.Flags().BoolVar(&resolveInteractive, "interactive", false, "Pick the issues to resolve from a list")
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "", "Write the fixed code to this file")
	resolveCmd.MarkFlagsOneRequired("issue", "interactive")
	resolveCmd.MarkFlagsMutuallyExclusive("issue", "interactive")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	db, codes, err := submissionStore(ctx, resolveUser)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	registry, err := codeparse.NewRegistry()
	if err != nil {
		return err
	}
	defer registry.Close()

	rw, err := newRewriter(registry)
	if err != nil {
		return err
	}

	svc := app.NewService(newScanner(), rw, codes, cfg.History.Limit, logger.Named("app"))
	st, err := scanFile(ctx, svc, db, args[0], resolveLanguage, resolveUser)
	if err != nil {
		return err
	}
	if len(st.Issues) == 0 {
		fmt.Fprintln(out, "No issues found, nothing to resolve.")
		return nil
	}

	var indices []int
	if resolveInteractive {
		indices, err = tui.Pick(st.Issues, cmd.InOrStdin(), out)
		if err != nil {
			return err
		}
	} else {
		for _, n := range resolveIssues {
			indices = append(indices, n-1)
		}
	}
	if err := svc.SetSelection(st, indices); err != nil {
		return err
	}

	sp := spinner.New(fmt.Sprintf("Resolving with %s...", rw.Model()))
	sp.Start()
	result, err := svc.Resolve(ctx, st)
	sp.Stop()
	if err != nil {
		return err
	}

	if resolveOutput != "" {
		if err := os.WriteFile(resolveOutput, []byte(result.Code+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", resolveOutput, err)
		}
		fmt.Fprintf(out, "Fixed code written to %s\n", resolveOutput)
	}
	return printResult(out, st.Language, result)
}

func printResult(w io.Writer, language string, result *rewrite.Result) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	rendered, err := r.Render(resultMarkdown(language, result))
	if err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	fmt.Fprint(w, rendered)

	if len(result.SyntaxErrors) > 0 {
		fmt.Fprintf(w, "%s the rewritten code has syntax errors on lines %v\n", tui.SeverityBadge("high"), result.SyntaxErrors)
	}
	return nil
}

func resultMarkdown(language string, result *rewrite.Result) string {
	md := "## Fixed code\n\n" + report.CodeBlock(language, result.Code)
	if result.Diff != "" {
		md += "\n## Changes\n\n" + report.CodeBlock("diff", result.Diff)
	}
	return md
}
