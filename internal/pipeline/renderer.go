package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/neurolocus/internal/model"
)

// Renderer writes reports as JSON, Markdown, terminal summaries and workbooks
type Renderer struct {
	includeFooter bool
	useColor      bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter, useColor bool) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		useColor:      useColor,
	}
}

// RenderJSON writes v as indented JSON to path
func (r *Renderer) RenderJSON(v interface{}, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return r.RenderText(string(data)+"\n", path)
}

// RenderMarkdown writes the Markdown report to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return r.RenderText(r.Markdown(report), path)
}

// RenderText writes content to path, creating parent directories
func (r *Renderer) RenderText(content, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Markdown renders a report as a clinical localization summary
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder
	res := report.Result
	if res == nil {
		res = model.NewParsedResult()
	}

	title := report.Subject
	if title == "" {
		title = "Lesion localization"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if report.Input != "" {
		fmt.Fprintf(&b, "> %s\n\n", strings.ReplaceAll(strings.TrimSpace(report.Input), "\n", "\n> "))
	}

	fmt.Fprintf(&b, "- **Level:** %s\n", levelText(res.Level))
	fmt.Fprintf(&b, "- **Confidence:** %.0f%%\n", res.Confidence*100)
	fmt.Fprintf(&b, "- **Knowledge Base:** %s\n\n", report.KnowledgeVersion)

	b.WriteString("## Findings\n\n")
	if res.FindingCount() == 0 {
		b.WriteString("No recognizable findings.\n\n")
	} else {
		b.WriteString("| Kind | Finding | Side | Confidence | Matched by |\n")
		b.WriteString("|------|---------|------|------------|------------|\n")
		for _, f := range res.CranialNerves {
			fmt.Fprintf(&b, "| Cranial nerve | %s (%s, %s) | %s | %.1f | `%s` |\n", f.CN, f.Name, f.Level, f.Side, f.Confidence, f.Heuristic)
		}
		for _, f := range res.Tracts {
			fmt.Fprintf(&b, "| Tract | %s (%s) | %s | %.1f | `%s` |\n", f.Name, f.Category, f.Side, f.Confidence, f.Heuristic)
		}
		for _, f := range res.Additional {
			fmt.Fprintf(&b, "| Sign | %s | %s | %.1f | `%s` |\n", f.Name, f.Side, f.Confidence, f.Heuristic)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Syndrome\n\n")
	if s := res.Syndrome; s != nil {
		fmt.Fprintf(&b, "**%s** (%d/%d findings, score %.2f)\n\n", s.Name, s.Matched, s.Required, s.MatchScore)
		fmt.Fprintf(&b, "- %s\n", s.Description)
		fmt.Fprintf(&b, "- Location: %s\n", s.Location)
		fmt.Fprintf(&b, "- Vascular supply: %s\n", s.Vascular)
		if len(s.MatchedTags) > 0 {
			fmt.Fprintf(&b, "- Matched: %s\n", strings.Join(s.MatchedTags, ", "))
		}
		if s.ClinicalPearl != "" {
			fmt.Fprintf(&b, "\n> **Clinical pearl:** %s\n", s.ClinicalPearl)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No syndrome reached the match threshold.\n\n")
	}

	if len(res.Differential) > 0 {
		b.WriteString("## Differential\n\n")
		b.WriteString("| # | Syndrome | Level | Matched | Confidence |\n")
		b.WriteString("|---|----------|-------|---------|------------|\n")
		for i, d := range res.Differential {
			fmt.Fprintf(&b, "| %d | %s | %s | %d/%d | %.2f |\n", i+1, d.Name, d.Level, d.Matched, d.Required, d.Confidence)
		}
		b.WriteString("\n")
	}

	if len(res.Territories) > 0 {
		b.WriteString("## Vascular territories\n\n")
		for _, t := range res.Territories {
			fmt.Fprintf(&b, "- %s: %s\n", t.Name, strings.Join(t.Findings, ", "))
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("*Deterministic localization against a fixed knowledge base. Not a diagnosis; clinical correctness is not validated.*\n")
	}

	return b.String()
}

// RenderSummary prints a short coloured summary; a nil writer means stdout
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	if w == nil {
		w = os.Stdout
	}
	res := report.Result
	if res == nil {
		res = model.NewParsedResult()
	}

	heading := r.paint(color.New(color.FgCyan, color.Bold))
	good := r.paint(color.New(color.FgGreen, color.Bold))
	warn := r.paint(color.New(color.FgYellow))
	dim := r.paint(color.New(color.FgWhite))

	fmt.Fprintln(w, heading("Lesion localization"))
	if report.Subject != "" {
		fmt.Fprintf(w, "  Subject:    %s\n", report.Subject)
	}
	fmt.Fprintf(w, "  Findings:   %d cranial nerve, %d tract, %d sign\n", len(res.CranialNerves), len(res.Tracts), len(res.Additional))
	fmt.Fprintf(w, "  Laterality: left %v, right %v, bilateral %v\n", res.Laterality.Left, res.Laterality.Right, res.Laterality.Bilateral)

	if res.Level == model.LevelNone {
		fmt.Fprintf(w, "  Level:      %s\n", warn("not inferred"))
	} else {
		fmt.Fprintf(w, "  Level:      %s\n", good(string(res.Level)))
	}

	if res.Syndrome != nil {
		fmt.Fprintf(w, "  Syndrome:   %s (%.2f)\n", good(res.Syndrome.Name), res.Syndrome.MatchScore)
	} else {
		fmt.Fprintf(w, "  Syndrome:   %s\n", warn("none above threshold"))
	}

	for i, d := range res.Differential {
		fmt.Fprintf(w, "  %d. %-45s %s\n", i+1, d.Name, dim(fmt.Sprintf("%.2f", d.Confidence)))
	}
	fmt.Fprintf(w, "  Confidence: %.0f%%\n", res.Confidence*100)
}

// paint returns a formatter that honours the renderer's colour setting
func (r *Renderer) paint(c *color.Color) func(string) string {
	if !r.useColor {
		return func(s string) string { return s }
	}
	c.EnableColor()
	return func(s string) string { return c.Sprint(s) }
}

// RenderWorkbook writes one row per report plus a findings sheet to an XLSX file
func (r *Renderer) RenderWorkbook(reports []*model.Report, path string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const summarySheet = "Localization"
	const findingSheet = "Findings"

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(findingSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	summaryHeader := []interface{}{"#", "Subject", "Level", "Syndrome", "Match score", "Differential", "Confidence", "Findings"}
	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	findingHeader := []interface{}{"#", "Subject", "Kind", "ID", "Name", "Side", "Confidence", "Matched by"}
	if err := f.SetSheetRow(findingSheet, "A1", &findingHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	findingRow := 2
	for i, report := range reports {
		res := report.Result
		if res == nil {
			res = model.NewParsedResult()
		}

		syndrome, matchScore := "", 0.0
		if res.Syndrome != nil {
			syndrome, matchScore = res.Syndrome.Name, res.Syndrome.MatchScore
		}
		names := make([]string, len(res.Differential))
		for j, d := range res.Differential {
			names[j] = fmt.Sprintf("%s (%.2f)", d.Name, d.Confidence)
		}

		row := []interface{}{i + 1, report.Subject, levelText(res.Level), syndrome, matchScore, strings.Join(names, "; "), res.Confidence, res.FindingCount()}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}

		for _, fr := range findingRows(res) {
			line := append([]interface{}{i + 1, report.Subject}, fr...)
			cell, err := excelize.CoordinatesToCellName(1, findingRow)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(findingSheet, cell, &line); err != nil {
				return fmt.Errorf("write finding row: %w", err)
			}
			findingRow++
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func findingRows(res *model.ParsedResult) [][]interface{} {
	var rows [][]interface{}
	for _, f := range res.CranialNerves {
		rows = append(rows, []interface{}{"cranial_nerve", f.CN, f.Name, string(f.Side), f.Confidence, f.Heuristic})
	}
	for _, f := range res.Tracts {
		rows = append(rows, []interface{}{"tract", f.Tract, f.Name, string(f.Side), f.Confidence, f.Heuristic})
	}
	for _, f := range res.Additional {
		rows = append(rows, []interface{}{"sign", f.Sign, f.Name, string(f.Side), f.Confidence, f.Heuristic})
	}
	return rows
}

func levelText(l model.Level) string {
	if l == model.LevelNone {
		return "not inferred"
	}
	return string(l)
}
