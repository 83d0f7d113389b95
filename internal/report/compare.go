package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"indent-mcp/internal/engine"
)

// WriteComparison prints plant totals per run and a center-by-run matrix of
// recommended indents. The first run is the reference for the delta column.
func (wr *Writer) WriteComparison(w io.Writer, runs []engine.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs to compare.")
		return err
	}
	for _, r := range runs {
		if err := checkFinite(r); err != nil {
			return fmt.Errorf("run %s: %w", r.ID, err)
		}
	}
	ref := runs[0].Totals.TotalRecommended

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Run\tDate\tRequirement\tForecast T+3\tRecommended\tDelta\tLow conf.\t")
	for _, r := range runs {
		t := r.Totals
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t\n",
			r.Name, engine.FormatDay(t.CurrentDate),
			wr.Number(t.TotalRequirement), wr.Number(t.TotalForecast), wr.Number(t.TotalRecommended),
			wr.signed(t.TotalRecommended-ref), t.LowConfidence)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	var centers []string
	seen := make(map[string]bool)
	for _, r := range runs {
		for _, row := range r.Rows {
			if !seen[row.CenterCode] {
				seen[row.CenterCode] = true
				centers = append(centers, row.CenterCode)
			}
		}
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "Center\t")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t", r.Name)
	}
	fmt.Fprintln(tw)
	for _, c := range centers {
		fmt.Fprintf(tw, "%s\t", c)
		for _, r := range runs {
			if row, ok := r.Row(c); ok {
				fmt.Fprintf(tw, "%s\t", wr.Number(row.Recommended))
			} else {
				fmt.Fprint(tw, "-\t")
			}
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func (wr *Writer) signed(v float64) string {
	s := wr.Number(v)
	if v > 0 && s != wr.Number(0) {
		return "+" + s
	}
	return s
}
