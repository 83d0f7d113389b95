package visuals

import (
	"fmt"
	"math"
	"strings"

	"indent-mcp/internal/engine"
)

// maxCategories keeps bar charts readable in a chat client.
const maxCategories = 20

// GenerateRecommendationChart creates a Mermaid bar chart of the recommended indent per center.
func GenerateRecommendationChart(run engine.Run) string {
	if len(run.Rows) == 0 {
		return ""
	}

	var labels []string
	var values []string
	minVal, maxVal := 0.0, 0.0

	limit := len(run.Rows)
	if limit > maxCategories {
		limit = maxCategories
	}

	for _, r := range run.Rows[:limit] {
		labels = append(labels, quote(r.CenterCode))
		values = append(values, fmt.Sprintf("%.0f", r.Recommended))
		minVal = math.Min(minVal, r.Recommended)
		maxVal = math.Max(maxVal, r.Recommended)
	}

	title := "Recommended Indent per Center"
	if len(run.Rows) > limit {
		title = fmt.Sprintf("Recommended Indent (first %d of %d centers)", limit, len(run.Rows))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Quantity\" %d --> %d\n", int(math.Floor(minVal*1.1)), int(math.Ceil(maxVal*1.1))+1))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateLagProfileChart creates a Mermaid line chart with one line per center over D1..D4.
// The plant-wide profile is drawn first.
func GenerateLagProfileChart(profile engine.LagProfile) string {
	if profile.Eligible == 0 {
		return ""
	}

	series := []engine.CenterWeights{profile.Plant}
	for _, c := range profile.Centers {
		if c.Source == engine.SourceCenter {
			series = append(series, c)
		}
		if len(series) > 8 {
			break
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Arrival Lag Profile as of %s\"\n", engine.FormatDay(profile.CurrentDate)))
	sb.WriteString("    x-axis [\"D1 (same day)\", \"D2 (+1)\", \"D3 (+2)\", \"D4 (+3 or later)\"]\n")
	sb.WriteString("    y-axis \"Share of indent\" 0 --> 1\n")
	for _, w := range series {
		sb.WriteString(fmt.Sprintf("    line [%.3f, %.3f, %.3f, %.3f]\n", w.D1, w.D2, w.D3, w.D4))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateBacktestChart creates a Mermaid xychart-beta comparing projected and actual T+3 arrivals.
func GenerateBacktestChart(result engine.BacktestResult) string {
	if len(result.Checkpoints) == 0 {
		return ""
	}

	var labels []string
	var forecasts []string
	var actuals []string

	// Subsample points if the chart is too wide for Mermaid's layout engine
	subsampleRate := 1
	if len(result.Checkpoints) > 60 {
		subsampleRate = int(math.Ceil(float64(len(result.Checkpoints)) / 60.0))
	}

	maxY := 0.0
	for i, cp := range result.Checkpoints {
		maxY = math.Max(maxY, math.Max(cp.Forecast, cp.Actual))
		if i%subsampleRate == 0 || i == len(result.Checkpoints)-1 {
			labels = append(labels, quote(cp.Target.Format("Jan02")))
			forecasts = append(forecasts, fmt.Sprintf("%.0f", cp.Forecast))
			actuals = append(actuals, fmt.Sprintf("%.0f", cp.Actual))
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"T+3 Arrival Projection vs Actual\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Quantity\" 0 --> %d\n", int(math.Ceil(maxY*1.1))+1))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(forecasts, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(actuals, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateScenarioChart creates a Mermaid bar chart of total recommended indent per run.
func GenerateScenarioChart(runs []engine.Run) string {
	if len(runs) == 0 {
		return ""
	}

	var labels []string
	var values []string
	minVal, maxVal := 0.0, 0.0
	for _, r := range runs {
		labels = append(labels, quote(r.Name))
		values = append(values, fmt.Sprintf("%.0f", r.Totals.TotalRecommended))
		minVal = math.Min(minVal, r.Totals.TotalRecommended)
		maxVal = math.Max(maxVal, r.Totals.TotalRecommended)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Total Recommended Indent by Scenario\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Quantity\" %d --> %d\n", int(math.Floor(minVal*1.1)), int(math.Ceil(maxVal*1.1))+1))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// quote escapes a label for an x-axis list.
func quote(s string) string {
	return fmt.Sprintf("\"%s\"", strings.ReplaceAll(s, "\"", "'"))
}
