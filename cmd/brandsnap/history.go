package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/brandsnap/internal/database"
	"github.com/nao1215/brandsnap/internal/model"
	"github.com/nao1215/brandsnap/internal/report"
	"github.com/spf13/cobra"
)

// historyTopColors is the number of colors shown per history line.
const historyTopColors = 3

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "List stored analyses",
		Long: `History lists the analyses stored in the local database.

Without an argument it lists every analyzed URL with its number of analyses.
With a URL it lists the analyses of that page, newest first, with their IDs
for use with 'brandsnap compare --from/--to'.

Examples:
  # List analyzed URLs
  brandsnap history

  # List the analyses of one page
  brandsnap history example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}
	addDBDirFlag(cmd)
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var url string
	if len(args) > 0 {
		var err error
		if url, err = normalizeURL(args[0]); err != nil {
			return err
		}
	}

	db, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()
	if url == "" {
		return listAnalyzedURLs(ctx, out, db)
	}
	return listHistory(ctx, out, db, url)
}

// normalizeURL maps a user-given target to the address analyses are stored
// under.
func normalizeURL(raw string) (string, error) {
	t, err := model.NewTarget(raw)
	if err != nil {
		return "", fmt.Errorf("invalid target %q: %w", raw, err)
	}
	return t.String(), nil
}

func openDB(cmd *cobra.Command) (*database.AnalysisDB, error) {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func listAnalyzedURLs(ctx context.Context, out io.Writer, db *database.AnalysisDB) error {
	urls, err := db.ListAnalyzedURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list analyzed URLs: %w", err)
	}
	if len(urls) == 0 {
		fmt.Fprintln(out, "No analyses found in the database.")
		fmt.Fprintln(out, "\nUse 'brandsnap analyze <url>' to analyze a page.")
		return nil
	}

	fmt.Fprintf(out, "Analyzed URLs (%d):\n\n", len(urls))
	fmt.Fprintf(out, "  %-5s  %-19s  %s\n", "Runs", "Last analyzed", "URL")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 60))
	for _, u := range urls {
		fmt.Fprintf(out, "  %-5d  %-19s  %s\n", u.Count, u.LastSeen.Local().Format("2006-01-02 15:04:05"), u.URL)
	}
	fmt.Fprintln(out, "\nUse 'brandsnap history <url>' to see the analyses of a page.")
	return nil
}

func listHistory(ctx context.Context, out io.Writer, db *database.AnalysisDB, url string) error {
	history, err := db.GetHistory(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}
	if len(history) == 0 {
		fmt.Fprintf(out, "No analyses found for %s\n", url)
		return nil
	}

	fmt.Fprintf(out, "Analyses of %s (%d):\n\n", url, len(history))
	fmt.Fprintf(out, "  %-36s  %-19s  %-8s  %-7s  %s\n", "ID", "Date", "Variant", "Mode", "Summary")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 100))
	for _, meta := range history {
		fmt.Fprintf(out, "  %-36s  %-19s  %-8s  %-7s  %s\n",
			meta.ID,
			meta.Timestamp.Local().Format("2006-01-02 15:04:05"),
			meta.Variant,
			meta.Mode,
			formatSummary(meta.Summary),
		)
	}
	if len(history) > 1 {
		fmt.Fprintf(out, "\nUse 'brandsnap compare %s' to compare the latest two analyses.\n", url)
	}
	return nil
}

// formatSummary renders the counts and leading colors of an analysis.
func formatSummary(s *model.Summary) string {
	if s == nil {
		return "N/A"
	}
	text := fmt.Sprintf("C:%d F:%d I:%d T:%d", s.ColorCount, s.FontCount, s.ImageCount, s.TextBlockCount)
	if n := min(len(s.TopColors), historyTopColors); n > 0 {
		hex := make([]string, n)
		for i, c := range s.TopColors[:n] {
			hex[i] = report.HexColor(c)
		}
		text += " [" + strings.Join(hex, " ") + "]"
	}
	return text
}
