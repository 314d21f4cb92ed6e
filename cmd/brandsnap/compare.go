package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/brandsnap/internal/database"
	"github.com/nao1215/brandsnap/internal/model"
	"github.com/nao1215/brandsnap/internal/report"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"
)

// errTooFewAnalyses is returned when a URL has fewer than two analyses.
var errTooFewAnalyses = errors.New("at least 2 analyses are required for comparison")

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <url>",
		Short: "Compare the brand signature of two analyses",
		Long: `Compare shows how the brand signature of a page changed between two stored
analyses:
- Colors and fonts that appeared or disappeared
- Images that were added or removed
- Changes in the number of text blocks and the page title

By default the latest two analyses are compared. Use --from and --to with the
IDs listed by 'brandsnap history <url>' to pick others.

Examples:
  # Compare the latest two analyses
  brandsnap compare example.com

  # Compare an older analysis with the latest one
  brandsnap compare --from 3f2a... example.com

  # Output the comparison as JSON
  brandsnap compare --json example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().String("from", "", "ID of the older analysis (default: the one before --to)")
	cmd.Flags().String("to", "", "ID of the newer analysis (default: the latest)")
	cmd.Flags().BoolP("json", "j", false, "Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output comparison result in Markdown format")
	addDBDirFlag(cmd)

	return cmd
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	url, err := normalizeURL(args[0])
	if err != nil {
		return err
	}
	fromID, err := cmd.Flags().GetString("from")
	if err != nil {
		return err
	}
	toID, err := cmd.Flags().GetString("to")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("--json and --markdown cannot be used together")
	}

	db, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	previous, current, err := selectAnalyses(context.Background(), db, url, fromID, toID)
	if err != nil {
		return err
	}

	result := compareAnalyses(previous, current)
	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return outputComparisonJSON(out, result)
	case markdownOutput:
		return outputComparisonMarkdown(out, result)
	default:
		return outputComparisonText(out, result)
	}
}

// selectAnalyses resolves the pair to compare. Without IDs it takes the
// latest two analyses of url.
func selectAnalyses(ctx context.Context, db *database.AnalysisDB, url, fromID, toID string) (*model.Analysis, *model.Analysis, error) {
	if fromID == "" && toID == "" {
		recent, err := db.GetRecentAnalyses(ctx, url, 2)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get analyses: %w", err)
		}
		if len(recent) < 2 {
			return nil, nil, fmt.Errorf("%w (found %d for %s)", errTooFewAnalyses, len(recent), url)
		}
		return recent[1], recent[0], nil
	}

	history, err := db.GetHistory(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get history: %w", err)
	}
	if len(history) == 0 {
		return nil, nil, fmt.Errorf("no analyses found for %s", url)
	}

	if toID == "" {
		toID = history[0].ID
	}
	if fromID == "" {
		idx := slices.IndexFunc(history, func(m database.AnalysisMetadata) bool { return m.ID == toID })
		if idx < 0 {
			return nil, nil, fmt.Errorf("analysis %s not found for %s", toID, url)
		}
		if idx+1 >= len(history) {
			return nil, nil, fmt.Errorf("analysis %s is the oldest for %s; nothing to compare with", toID, url)
		}
		fromID = history[idx+1].ID
	}

	previous, err := loadAnalysis(ctx, db, url, fromID)
	if err != nil {
		return nil, nil, err
	}
	current, err := loadAnalysis(ctx, db, url, toID)
	if err != nil {
		return nil, nil, err
	}
	return previous, current, nil
}

func loadAnalysis(ctx context.Context, db *database.AnalysisDB, url, id string) (*model.Analysis, error) {
	analysis, err := db.GetAnalysisByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis %s: %w", id, err)
	}
	if analysis == nil {
		return nil, fmt.Errorf("analysis %s not found", id)
	}
	if analysis.URL != url {
		return nil, fmt.Errorf("analysis %s belongs to %s, not %s", id, analysis.URL, url)
	}
	return analysis, nil
}

// ComparisonResult holds the differences between two analyses of a page.
type ComparisonResult struct {
	URL      string          `json:"url"`
	Previous AnalysisSummary `json:"previous"`
	Current  AnalysisSummary `json:"current"`

	// Colors are compared as hex values so computed and authored forms of
	// the same color match.
	AddedColors   []string `json:"added_colors"`
	RemovedColors []string `json:"removed_colors"`

	AddedFonts   []string `json:"added_fonts"`
	RemovedFonts []string `json:"removed_fonts"`

	AddedImages   []string `json:"added_images"`
	RemovedImages []string `json:"removed_images"`

	TextBlockDelta int  `json:"text_block_delta"`
	TitleChanged   bool `json:"title_changed"`
}

// AnalysisSummary identifies one side of a comparison.
type AnalysisSummary struct {
	ID      string         `json:"id"`
	Date    time.Time      `json:"date"`
	Variant model.Variant  `json:"variant"`
	Mode    model.Mode     `json:"mode"`
	Summary *model.Summary `json:"summary"`
}

// Unchanged reports whether the brand signature did not change.
func (r *ComparisonResult) Unchanged() bool {
	return len(r.AddedColors) == 0 && len(r.RemovedColors) == 0 &&
		len(r.AddedFonts) == 0 && len(r.RemovedFonts) == 0 &&
		len(r.AddedImages) == 0 && len(r.RemovedImages) == 0 &&
		r.TextBlockDelta == 0 && !r.TitleChanged
}

func summarize(a *model.Analysis) AnalysisSummary {
	return AnalysisSummary{
		ID:      a.ID,
		Date:    a.StartedAt,
		Variant: a.Variant,
		Mode:    a.Mode,
		Summary: model.NewSummary(a.Report),
	}
}

// compareAnalyses diffs previous against current. Added items keep the
// order of current, removed items the order of previous.
func compareAnalyses(previous, current *model.Analysis) *ComparisonResult {
	prev := reportOrEmpty(previous)
	cur := reportOrEmpty(current)

	result := &ComparisonResult{
		URL:      current.URL,
		Previous: summarize(previous),
		Current:  summarize(current),
	}

	prevColors := hexColors(prev.Colors)
	curColors := hexColors(cur.Colors)
	result.AddedColors = difference(curColors, prevColors)
	result.RemovedColors = difference(prevColors, curColors)

	result.AddedFonts = difference(cur.Fonts, prev.Fonts)
	result.RemovedFonts = difference(prev.Fonts, cur.Fonts)

	prevImages := imageURLs(prev.Images)
	curImages := imageURLs(cur.Images)
	result.AddedImages = difference(curImages, prevImages)
	result.RemovedImages = difference(prevImages, curImages)

	result.TextBlockDelta = len(cur.TextBlocks) - len(prev.TextBlocks)
	result.TitleChanged = prev.Metadata.Title != cur.Metadata.Title
	return result
}

func reportOrEmpty(a *model.Analysis) *model.ExtractionReport {
	if a.Report == nil {
		return model.NewExtractionReport()
	}
	return a.Report
}

func hexColors(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, report.HexColor(t))
	}
	return out
}

func imageURLs(images []model.ImageAsset) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		out = append(out, img.URL)
	}
	return out
}

// difference returns the distinct items of a missing from b, in a's order.
func difference(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, s := range b {
		exclude[s] = struct{}{}
	}
	out := []string{}
	for _, s := range a {
		if _, ok := exclude[s]; ok {
			continue
		}
		exclude[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func outputComparisonJSON(out io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)
	md.H1("Brand Comparison: " + result.URL)
	md.PlainText("")

	prev, cur := result.Previous.Summary, result.Current.Summary
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Analysis", "`" + result.Previous.ID + "`", "`" + result.Current.ID + "`", "-"},
			{"Date", result.Previous.Date.Format("2006-01-02 15:04"), result.Current.Date.Format("2006-01-02 15:04"), "-"},
			{"Mode", result.Previous.Mode.String(), result.Current.Mode.String(), "-"},
			{"Title", orDash(prev.Title), orDash(cur.Title), changedMark(result.TitleChanged)},
			countRow("Colors", prev.ColorCount, cur.ColorCount),
			countRow("Fonts", prev.FontCount, cur.FontCount),
			countRow("Images", prev.ImageCount, cur.ImageCount),
			countRow("Text blocks", prev.TextBlockCount, cur.TextBlockCount),
		},
	})
	md.PlainText("")

	if result.Unchanged() {
		md.Note("The brand signature did not change.")
		md.PlainText("")
		return md.Build()
	}

	markdownSection(md, "Colors", result.AddedColors, result.RemovedColors)
	markdownSection(md, "Fonts", result.AddedFonts, result.RemovedFonts)
	markdownSection(md, "Images", result.AddedImages, result.RemovedImages)
	return md.Build()
}

func markdownSection(md *markdown.Markdown, title string, added, removed []string) {
	if len(added) == 0 && len(removed) == 0 {
		return
	}
	md.H2(title)
	md.PlainText("")
	items := make([]string, 0, len(added)+len(removed))
	for _, s := range added {
		items = append(items, "Added `"+s+"`")
	}
	for _, s := range removed {
		items = append(items, "Removed ~~`"+s+"`~~")
	}
	md.BulletList(items...)
	md.PlainText("")
}

func countRow(label string, previous, current int) []string {
	return []string{label, strconv.Itoa(previous), strconv.Itoa(current), formatDelta(current - previous)}
}

func outputComparisonText(out io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(out, "Brand Comparison: %s\n", result.URL)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nPrevious: %s  %s (%s)\n", result.Previous.Date.Local().Format("2006-01-02 15:04:05"), result.Previous.ID, result.Previous.Mode)
	fmt.Fprintf(out, "Current:  %s  %s (%s)\n", result.Current.Date.Local().Format("2006-01-02 15:04:05"), result.Current.ID, result.Current.Mode)

	prev, cur := result.Previous.Summary, result.Current.Summary
	fmt.Fprintf(out, "\n  %-12s  %-9s  %-9s  %s\n", "Item", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	for _, row := range [][]string{
		countRow("Colors", prev.ColorCount, cur.ColorCount),
		countRow("Fonts", prev.FontCount, cur.FontCount),
		countRow("Images", prev.ImageCount, cur.ImageCount),
		countRow("Text blocks", prev.TextBlockCount, cur.TextBlockCount),
	} {
		fmt.Fprintf(out, "  %-12s  %-9s  %-9s  %s\n", row[0], row[1], row[2], row[3])
	}

	if result.TitleChanged {
		fmt.Fprintf(out, "\nTitle: %q -> %q\n", prev.Title, cur.Title)
	}
	if result.Unchanged() {
		fmt.Fprintln(out, "\nThe brand signature did not change.")
		return nil
	}

	textSection(out, "Colors", result.AddedColors, result.RemovedColors)
	textSection(out, "Fonts", result.AddedFonts, result.RemovedFonts)
	textSection(out, "Images", result.AddedImages, result.RemovedImages)
	return nil
}

func textSection(out io.Writer, title string, added, removed []string) {
	if len(added) == 0 && len(removed) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, s := range added {
		fmt.Fprintf(out, "  [+] %s\n", s)
	}
	for _, s := range removed {
		fmt.Fprintf(out, "  [-] %s\n", s)
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}

func changedMark(changed bool) string {
	if changed {
		return "changed"
	}
	return "-"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
