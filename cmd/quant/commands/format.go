package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/wonny/twpicks/internal/brain"
	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/s1_universe"
	"github.com/wonny/twpicks/internal/selection"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

var out io.Writer = os.Stdout

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Fprintln(out, "───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
}

// PrintHeader prints a titled block header
func PrintHeader(title string) {
	fmt.Fprintln(out)
	PrintDoubleSeparator()
	fmt.Fprintf(out, "  %s\n", title)
	PrintSeparator()
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Fprintf(out, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Fprintf(out, "✅ %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Fprintf(out, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(out, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(out, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(out, "  ")
		}
	}
	fmt.Fprintln(out)
}

// PrintJSON writes v as indented JSON
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintRunResult prints a pipeline run summary and its picks
func PrintRunResult(res *brain.RunResult) {
	r := res.Result

	PrintHeader("TW Picks " + r.Date)
	PrintKeyValue("Run ID", r.RunID, 12)
	PrintKeyValue("Pool", fmt.Sprintf("%s (%d)", r.Pool.Type, r.Pool.Size), 12)
	PrintKeyValue("Window", fmt.Sprintf("%d days", r.WindowDays), 12)
	PrintKeyValue("Bucket", r.Bucket.Label, 12)
	PrintKeyValue("FinMind", stage2Label(r), 12)
	PrintKeyValue("Scored", fmt.Sprintf("%d (passed %d)", r.CountInBucket, r.CountPassedInBucket), 12)
	PrintKeyValue("Duration", res.Duration.Round(1e6).String(), 12)
	if q := res.Quality; q != nil {
		PrintKeyValue("Quality", fmt.Sprintf("%.2f", q.QualityScore), 12)
		for _, w := range q.Warnings {
			PrintWarning(w)
		}
	}
	PrintSeparator()

	if len(r.Picks) == 0 {
		PrintWarning("No eligible picks today")
		return
	}
	printPicks(r.Picks)

	if len(r.BucketPicks) > 0 {
		fmt.Fprintln(out)
		for _, b := range selection.Buckets() {
			picks := r.BucketPicks[b.Key]
			if len(picks) == 0 {
				continue
			}
			fmt.Fprintf(out, "[%s]\n", b.Label)
			printPicks(picks)
		}
	}
}

func printPicks(picks []contracts.Pick) {
	widths := []int{6, 10, 8, 6, 8, 24, 22}
	PrintTableHeader([]string{"Symbol", "Name", "Score", "Type", "Close", "Entry / Stop", "Reason"}, widths)
	for _, p := range picks {
		reason := strings.Join(p.Reasons, ",")
		if p.FallbackReason != "" {
			reason = p.FallbackReason
		}
		PrintTableRow([]string{
			p.Symbol,
			p.Name,
			fmt.Sprintf("%.2f", p.Score),
			string(p.PickType),
			fmt.Sprintf("%.2f", p.LastClose),
			fmt.Sprintf("%.2f~%.2f / %.2f", p.Plan.EntryLow, p.Plan.EntryHigh, p.Plan.Stop),
			reason,
		}, widths)
	}
}

func stage2Label(r *contracts.PickResult) string {
	if !r.SecondaryEnabled {
		return "disabled"
	}
	return fmt.Sprintf("top %d", r.Stage2TopK)
}

// PrintScoreRecord prints the single-symbol detail view
func PrintScoreRecord(rec *contracts.ScoreRecord) {
	PrintHeader(fmt.Sprintf("%s %s", rec.Symbol, rec.Name))
	PrintKeyValue("Industry", rec.Industry, 12)
	PrintKeyValue("Score", fmt.Sprintf("%.4f (%s)", rec.Score, rec.Stage), 12)
	PrintKeyValue("Gates", rec.Diagnostics.Reason, 12)
	PrintKeyValue("Style", rec.TradeStyle, 12)
	PrintKeyValue("Close", fmt.Sprintf("%.2f", rec.Signals.LastClose), 12)
	PrintKeyValue("MA5/MA20", fmt.Sprintf("%s / %s", optional(rec.Signals.MA5), optional(rec.Signals.MA20)), 12)
	PrintKeyValue("RSI14", optional(rec.Signals.RSI14), 12)
	PrintKeyValue("Vol ratio", fmt.Sprintf("%.2f", rec.Signals.VolRatio), 12)
	PrintKeyValue("Inst total", fmt.Sprintf("%.0f (buy streak %d, %d days)", rec.Institutional.Total, rec.Institutional.ConsecutiveBuyDays, rec.Institutional.WindowDays), 12)
	PrintKeyValue("Plan", fmt.Sprintf("entry %.2f~%.2f stop %.2f tp %.2f/%.2f", rec.Plan.EntryLow, rec.Plan.EntryHigh, rec.Plan.Stop, rec.Plan.TP1, rec.Plan.TP2), 12)
	if len(rec.Badges) > 0 {
		PrintKeyValue("Badges", strings.Join(rec.Badges, ", "), 12)
	}
}

// PrintPoolDiagnostics prints the universe diagnostics
func PrintPoolDiagnostics(d *s1_universe.Diagnostics) {
	PrintHeader("Universe diagnostics")
	PrintKeyValue("Source", d.Source, 10)
	PrintKeyValue("Raw", fmt.Sprint(d.RawCount), 10)
	PrintKeyValue("Parsed", fmt.Sprint(d.ParsedCount), 10)
	PrintKeyValue("Filtered", fmt.Sprint(d.FilteredCount), 10)
	PrintKeyValue("Pool", fmt.Sprint(d.PoolCount), 10)

	reasons := make([]string, 0, len(d.Excluded))
	for reason := range d.Excluded {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		PrintKeyValue("  "+reason, fmt.Sprint(d.Excluded[reason]), 10)
	}

	if len(d.HeadPool) > 0 {
		PrintSeparator()
		widths := []int{6, 12, 14, 8}
		PrintTableHeader([]string{"Symbol", "Name", "Volume", "Close"}, widths)
		for _, e := range d.HeadPool {
			PrintTableRow([]string{e.Symbol, e.Name, fmt.Sprintf("%.0f", e.Volume), fmt.Sprintf("%.2f", e.Close)}, widths)
		}
	}
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
