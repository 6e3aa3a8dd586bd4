package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"qrisk/internal/model"
)

// Renderer writes assessments as JSON or Markdown and prints terminal
// summaries.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer. includeFooter controls the trailing
// attribution line on Markdown reports.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// JSON renders the assessment as indented JSON.
func (r *Renderer) JSON(a *model.RiskAssessment) ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// RenderJSON writes the assessment to a JSON file.
func (r *Renderer) RenderJSON(a *model.RiskAssessment, path string) error {
	data, err := r.JSON(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Markdown renders the assessment as a Markdown report.
func (r *Renderer) Markdown(a *model.RiskAssessment) string {
	var b strings.Builder

	b.WriteString("# URL Risk Assessment\n\n")
	fmt.Fprintf(&b, "**URL**: `%s`\n\n", a.URL)
	if a.Host != "" {
		fmt.Fprintf(&b, "**Host**: %s\n\n", a.Host)
	}
	fmt.Fprintf(&b, "**Verdict**: %s %s\n\n", verdictMark(a.Verdict), a.Verdict)
	fmt.Fprintf(&b, "**Score**: %d/100\n\n", a.Score)
	fmt.Fprintf(&b, "**Confidence**: %.0f%%\n\n", a.Confidence*100)
	fmt.Fprintf(&b, "**Analyzed**: %s\n\n", a.AnalyzedAt.Format(time.RFC3339))

	if a.Policy != "" {
		fmt.Fprintf(&b, "> Policy decision: %s\n\n", a.Policy)
	}
	if a.Degraded {
		b.WriteString("> Brand detection was unavailable for this analysis; its weight moved to the remaining components.\n\n")
	}

	b.WriteString("## Component Scores\n\n")
	b.WriteString("| Component | Sub-score |\n")
	b.WriteString("|-----------|----------:|\n")
	fmt.Fprintf(&b, "| Heuristic rules | %d |\n", a.Components.Heuristic)
	fmt.Fprintf(&b, "| Ensemble classifier | %d |\n", a.Components.ML)
	fmt.Fprintf(&b, "| Brand detection | %d |\n", a.Components.Brand)
	fmt.Fprintf(&b, "| TLD risk | %d |\n\n", a.Components.TLD)

	if len(a.Flags) == 0 {
		b.WriteString("## Findings\n\nNo risk signals fired.\n")
	} else {
		fmt.Fprintf(&b, "## Findings (%d)\n\n", len(a.Flags))
		for i, f := range a.Flags {
			fmt.Fprintf(&b, "### %d. %s\n\n", i+1, f.Label)
			fmt.Fprintf(&b, "- Severity: %s\n", f.Severity)
			if f.Points > 0 {
				fmt.Fprintf(&b, "- Points: +%d\n", f.Points)
			}
			b.WriteString("\n")
			if f.Counterfactual != "" {
				fmt.Fprintf(&b, "> %s\n\n", f.Counterfactual)
			}
		}
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("*Generated by qrisk (offline URL risk assessment)*\n")
	}
	return b.String()
}

// RenderMarkdown writes the assessment to a Markdown file.
func (r *Renderer) RenderMarkdown(a *model.RiskAssessment, path string) error {
	return os.WriteFile(path, []byte(r.Markdown(a)), 0o644)
}

// RenderSummary prints a terminal summary to stdout.
func (r *Renderer) RenderSummary(a *model.RiskAssessment) {
	line := strings.Repeat("═", 59)
	subject := a.Host
	if subject == "" {
		subject = "unparseable input"
	}

	fmt.Println()
	fmt.Println(line)
	fmt.Printf("  Risk Assessment: %s\n", subject)
	fmt.Println(line)
	fmt.Println()
	fmt.Printf("  Verdict:     %s %s\n", verdictMark(a.Verdict), a.Verdict)
	fmt.Printf("  Score:       %d/100\n", a.Score)
	fmt.Printf("  Confidence:  %.0f%%\n", a.Confidence*100)
	fmt.Println()
	fmt.Printf("  Heuristic:   %d\n", a.Components.Heuristic)
	fmt.Printf("  Ensemble:    %d\n", a.Components.ML)
	fmt.Printf("  Brand:       %d\n", a.Components.Brand)
	fmt.Printf("  TLD:         %d\n", a.Components.TLD)
	if a.Policy != "" {
		fmt.Println()
		fmt.Printf("  Policy:      %s\n", a.Policy)
	}
	if len(a.Flags) > 0 {
		fmt.Println()
		fmt.Println("  Findings:")
		for _, f := range a.Flags {
			fmt.Printf("    [%s] %s\n", f.Severity, f.Label)
		}
	}
	fmt.Println()
}

func verdictMark(v model.Verdict) string {
	switch v {
	case model.VerdictSafe:
		return "✓"
	case model.VerdictSuspicious:
		return "⚠"
	default:
		return "✗"
	}
}
