package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"qrisk/internal/engine"
	"qrisk/internal/logging"
)

var (
	scanJSONOut  string
	scanMDOut    string
	scanNoFooter bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [url]",
	Short: "Assess a single URL",
	Long: `Assess a single URL and print the verdict to stdout.

The URL is scored offline against heuristic rules, the TLD risk
table, the brand registry, and the ensemble classifier. Use --json
or --md to also write a full report to a file.

Example:
  qrisk scan "http://secure-login.paypa1-verify.tk/update/credentials"
  qrisk scan --sensitivity paranoia --json report.json "https://example.com"`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanJSONOut, "json", "", "write the assessment as JSON to this file")
	scanCmd.Flags().StringVar(&scanMDOut, "md", "", "write the assessment as Markdown to this file")
	scanCmd.Flags().BoolVar(&scanNoFooter, "no-footer", false, "omit the generated-by footer from reports")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	rawURL := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if scanNoFooter {
		cfg.Output.IncludeFooter = false
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	logger := logging.Init(cfg.Log)

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Assessing: %s\n", rawURL)
		fmt.Fprintf(os.Stderr, "   Sensitivity: %s\n", cfg.Sensitivity)
	}

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	assessment := eng.Analyze(rawURL)

	renderer := engine.NewRenderer(cfg.Output.IncludeFooter)
	renderer.RenderSummary(assessment)

	if scanJSONOut != "" {
		if err := renderer.RenderJSON(assessment, scanJSONOut); err != nil {
			return fmt.Errorf("write JSON report: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ JSON report written to %s\n", scanJSONOut)
		}
	}

	if scanMDOut != "" {
		if err := renderer.RenderMarkdown(assessment, scanMDOut); err != nil {
			return fmt.Errorf("write Markdown report: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Markdown report written to %s\n", scanMDOut)
		}
	}

	return nil
}
