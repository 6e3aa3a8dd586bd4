package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"qrisk/internal/cache"
	"qrisk/internal/engine"
	"qrisk/internal/logging"
	"qrisk/internal/worker"
)

var (
	batchConcurrency int
	batchOutputDir   string
	batchTimeout     time.Duration
	batchRate        float64
	batchBurst       int
	batchNoCache     bool
	batchNoFooter    bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Assess every URL listed in a file",
	Long: `Assess every URL listed in a file, one per line, and write a JSON
report per URL into the output directory.

Blank lines and lines starting with # are skipped, and duplicate
URLs are assessed once. Results stream to stderr as workers finish,
so they may not match input order.

Example:
  qrisk batch urls.txt
  qrisk batch --concurrency 8 --output-dir ./reports urls.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "number of concurrent workers (default: from config)")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "./qrisk-reports", "directory for per-URL reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 0, "overall deadline for the batch (0 = none)")
	batchCmd.Flags().Float64Var(&batchRate, "rate", 0, "max assessments per second (default: from config)")
	batchCmd.Flags().IntVar(&batchBurst, "burst", 0, "throttle burst size (default: from config)")
	batchCmd.Flags().BoolVar(&batchNoCache, "no-cache", false, "disable assessment memoization")
	batchCmd.Flags().BoolVar(&batchNoFooter, "no-footer", false, "omit the generated-by footer from reports")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	inputFile := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Flags beat the config file only when set explicitly.
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = batchConcurrency
	}
	if cmd.Flags().Changed("rate") {
		cfg.RateLimiting.RequestsPerSecond = batchRate
	}
	if cmd.Flags().Changed("burst") {
		cfg.RateLimiting.BurstSize = batchBurst
	}
	if batchNoCache {
		cfg.Cache.Enabled = false
	}
	if batchNoFooter {
		cfg.Output.IncludeFooter = false
	}

	logger := logging.Init(cfg.Log)

	fmt.Fprintln(os.Stderr, strings.Repeat("═", 59))
	fmt.Fprintln(os.Stderr, "  qrisk Batch Assessment")
	fmt.Fprintln(os.Stderr, strings.Repeat("═", 59))
	fmt.Fprintf(os.Stderr, "Input:       %s\n", inputFile)
	fmt.Fprintf(os.Stderr, "Output:      %s\n", batchOutputDir)
	fmt.Fprintf(os.Stderr, "Concurrency: %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "Sensitivity: %s\n", cfg.Sensitivity)
	fmt.Fprintln(os.Stderr)

	if err := os.MkdirAll(batchOutputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	var store cache.Cache
	if cfg.Cache.Enabled {
		store = cache.NewMemory(cfg.Cache.TTL)
	}
	throttle := worker.NewThrottle(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	processor := worker.NewBatchProcessor(eng, cfg.Concurrency.Workers, store, cfg.Cache.TTL, throttle)

	ctx := context.Background()
	if batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, batchTimeout)
		defer cancel()
	}

	results, err := processor.ProcessFile(ctx, inputFile)
	if err != nil {
		return fmt.Errorf("process batch: %w", err)
	}

	renderer := engine.NewRenderer(cfg.Output.IncludeFooter)
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.URL, res.Err)
			continue
		}
		a := res.Assessment
		marker := "✓"
		if res.CacheHit {
			marker = "✓ (cached)"
		}
		fmt.Fprintf(os.Stderr, "%s %s [%s] (score: %d/100)\n", marker, res.URL, a.Verdict, a.Score)

		outPath := filepath.Join(batchOutputDir, reportFilename(res.URL, a.Host))
		if err := renderer.RenderJSON(a, outPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: write report: %v\n", res.URL, err)
		}
	}

	summary := worker.Summarize(results)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, strings.Repeat("═", 59))
	fmt.Fprintln(os.Stderr, "  Batch Complete")
	fmt.Fprintln(os.Stderr, strings.Repeat("═", 59))
	fmt.Fprintf(os.Stderr, "Total:      %d\n", summary.Total)
	fmt.Fprintf(os.Stderr, "Safe:       %d\n", summary.Safe)
	fmt.Fprintf(os.Stderr, "Suspicious: %d\n", summary.Suspicious)
	fmt.Fprintf(os.Stderr, "Malicious:  %d\n", summary.Malicious)
	fmt.Fprintf(os.Stderr, "Cache hits: %d\n", summary.CacheHits)
	fmt.Fprintf(os.Stderr, "Failures:   %d\n", summary.Failures)
	fmt.Fprintf(os.Stderr, "Reports:    %s\n", batchOutputDir)

	return nil
}

// reportFilename builds a filesystem-safe name for a per-URL report.
// The short hash keeps two URLs on the same host from clobbering each
// other's files.
func reportFilename(rawURL, host string) string {
	slug := host
	if slug == "" {
		slug = "unparseable"
	}
	r := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	slug = r.Replace(slug)
	if len(slug) > 64 {
		slug = slug[:64]
	}
	sum := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("%s-%s.json", slug, hex.EncodeToString(sum[:4]))
}
