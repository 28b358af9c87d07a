package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/agusespa/securecode/internal/app"
	"github.com/agusespa/securecode/internal/session"
	"github.com/agusespa/securecode/internal/store"
	"github.com/agusespa/securecode/internal/tui"
	"github.com/agusespa/securecode/internal/types"
	"github.com/agusespa/securecode/pkg/spinner"
)

var (
	scanLanguage string
	scanJSON     bool
	scanUser     string
)

var scanCmd = &cobra.Command{
	Use:   "scan FILE",
	Short: "Scan a source file and list the reported issues",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	addSubmissionFlags(scanCmd, &scanLanguage, &scanUser)
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print the issues as JSON")
}

func addSubmissionFlags(cmd *cobra.Command, language, user *string) {
	cmd.Flags().StringVarP(language, "language", "l", "", "Source language (detected from the file extension when omitted)")
	cmd.Flags().StringVarP(user, "user", "u", "", "Record the submission under this account")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, codes, err := submissionStore(ctx, scanUser)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	svc := app.NewService(newScanner(), nil, codes, cfg.History.Limit, logger.Named("app"))
	st, err := scanFile(ctx, svc, db, args[0], scanLanguage, scanUser)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if scanJSON {
		return printIssuesJSON(out, st.Issues)
	}
	printIssues(out, st)
	return nil
}

// scanFile reads path and scans it on a fresh CLI session. When username is
// set the session is signed in so the submission is recorded.
func scanFile(ctx context.Context, svc *app.Service, db *store.Store, path, language, username string) (*session.State, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if language == "" {
		language = types.LanguageFromPath(path)
		if language == "" {
			return nil, fmt.Errorf("cannot detect the language of %s, use --language", path)
		}
	}

	st := session.NewState("cli")
	if username != "" {
		if err := attachUser(ctx, db, st, username); err != nil {
			return nil, err
		}
	}

	sp := spinner.New(fmt.Sprintf("Scanning %s...", filepath.Base(path)))
	sp.Start()
	err = svc.Scan(ctx, st, filepath.Base(path), language, string(code))
	sp.Stop()
	if err != nil {
		return nil, err
	}
	return st, nil
}

// submissionStore opens the database only when a user was named. codes stays
// a nil interface otherwise.
func submissionStore(ctx context.Context, username string) (*store.Store, app.CodeStore, error) {
	if username == "" {
		return nil, nil, nil
	}
	db, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return db, db, nil
}

func printIssues(w io.Writer, st *session.State) {
	fmt.Fprintln(w, tui.HeadingStyle.Render(fmt.Sprintf("%s (%s)", st.Title, st.Language)))
	if len(st.Issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}
	for i, issue := range st.Issues {
		fmt.Fprintf(w, "\n%d. [%s] %s\n", i+1, tui.SeverityBadge(issue.Severity), issue.Description)
		fmt.Fprintln(w, tui.MutedStyle.Render(fmt.Sprintf("   Confidence: %s | Location: %s", issue.Confidence, issue.Location)))
		if issue.CWE != "" {
			fmt.Fprintln(w, tui.MutedStyle.Render("   "+issue.CWE))
		}
	}
	fmt.Fprintf(w, "\n%d issue(s) found.\n", len(st.Issues))
}

func printIssuesJSON(w io.Writer, issues []types.Issue) error {
	if issues == nil {
		issues = []types.Issue{}
	}
	data, err := json.Marshal(issues)
	if err != nil {
		return err
	}
	_, err = w.Write(pretty.Pretty(data))
	return err
}
