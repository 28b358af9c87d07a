package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agusespa/securecode/internal/app"
	"github.com/agusespa/securecode/internal/history"
	"github.com/agusespa/securecode/internal/tui"
	"github.com/agusespa/securecode/internal/types"
)

var (
	historyUser   string
	historySearch string
	historyStart  string
	historyEnd    string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past submissions grouped by date",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyUser, "user", "u", "", "Account whose submissions are listed")
	historyCmd.Flags().StringVarP(&historySearch, "search", "s", "", "Only show submissions whose title or code contains this text (case-insensitive)")
	historyCmd.Flags().StringVar(&historyStart, "start", "", "Only show submissions on or after this date (YYYY-MM-DD)")
	historyCmd.Flags().StringVar(&historyEnd, "end", "", "Only show submissions on or before this date (YYYY-MM-DD)")
	_ = historyCmd.MarkFlagRequired("user")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	now := time.Now()

	start, err := history.ParseDate(historyStart, now.Location())
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := history.ParseDate(historyEnd, now.Location())
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := db.GetUserByUsername(ctx, historyUser)
	if err != nil {
		return fmt.Errorf("user %q: %w", historyUser, err)
	}

	svc := app.NewService(nil, nil, db, cfg.History.Limit, logger.Named("app"))
	buckets, err := svc.History(ctx, user.ID, history.Filter{Search: historySearch, Start: start, End: end}, now)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(buckets) == 0 {
		fmt.Fprintln(out, "No submissions found.")
		return nil
	}
	for i, b := range buckets {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, tui.HeadingStyle.Render(b.Label))
		for _, sub := range b.Submissions {
			fmt.Fprintf(out, "  %s  %-30s %-10s %s\n",
				sub.CreatedAt.Format("2006-01-02 15:04"), sub.Title, sub.Language, status(sub))
		}
	}
	return nil
}

func status(sub types.Submission) string {
	if sub.Resolved() {
		return "resolved"
	}
	return tui.MutedStyle.Render("scanned")
}
