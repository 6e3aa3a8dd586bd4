package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"qrisk/internal/cache"
	"qrisk/internal/model"
)

// Assessor analyzes one raw input string. Satisfied by engine.Engine.
type Assessor interface {
	Analyze(raw string) *model.RiskAssessment
}

// AssessJob is one URL queued for assessment.
type AssessJob struct {
	URL  string
	proc *BatchProcessor
}

// Execute runs the job: throttle, cache consult, analysis, cache fill.
func (j *AssessJob) Execute(ctx context.Context) Result {
	return j.proc.assess(ctx, j.URL)
}

// AssessResult pairs an input with its assessment. Err is only ever a
// cancellation: analysis itself cannot fail.
type AssessResult struct {
	URL        string
	Assessment *model.RiskAssessment
	CacheHit   bool
	Err        error
}

// GetError returns the job error, nil on success.
func (r *AssessResult) GetError() error {
	return r.Err
}

// BatchProcessor fans URLs out over a worker pool. The cache and
// throttle are optional; nil disables them.
type BatchProcessor struct {
	assessor    Assessor
	concurrency int
	store       cache.Cache
	cacheTTL    time.Duration
	throttle    *Throttle
}

// NewBatchProcessor wires a processor around an assessor.
func NewBatchProcessor(a Assessor, concurrency int, store cache.Cache, ttl time.Duration, throttle *Throttle) *BatchProcessor {
	return &BatchProcessor{
		assessor:    a,
		concurrency: concurrency,
		store:       store,
		cacheTTL:    ttl,
		throttle:    throttle,
	}
}

func (b *BatchProcessor) assess(ctx context.Context, raw string) *AssessResult {
	if err := b.throttle.Wait(ctx); err != nil {
		return &AssessResult{URL: raw, Err: err}
	}

	key := cache.Key(raw)
	if b.store != nil {
		if hit, ok := b.store.Get(key); ok {
			return &AssessResult{URL: raw, Assessment: hit, CacheHit: true}
		}
	}

	a := b.assessor.Analyze(raw)
	if b.store != nil {
		b.store.Set(key, a, b.cacheTTL)
	}
	return &AssessResult{URL: raw, Assessment: a}
}

// ProcessURLs assesses urls concurrently. Results arrive in completion
// order, not input order.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*AssessResult {
	if len(urls) == 0 {
		return []*AssessResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, u := range urls {
		pool.Submit(&AssessJob{URL: u, proc: b})
	}

	results := pool.Wait()

	out := make([]*AssessResult, len(results))
	for i, r := range results {
		out[i] = r.(*AssessResult)
	}
	return out
}

// ProcessFile reads URLs from a file and assesses them concurrently.
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*AssessResult, error) {
	urls, err := ReadURLsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}
	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads one URL per line, skipping blank lines and #
// comments and deduplicating exact repeats.
func ReadURLsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return urls, nil
}

// Summary aggregates a batch run for reporting.
type Summary struct {
	Total      int
	Safe       int
	Suspicious int
	Malicious  int
	CacheHits  int
	Failures   int
}

// Summarize tallies results by verdict.
func Summarize(results []*AssessResult) Summary {
	var s Summary
	for _, r := range results {
		s.Total++
		if r.Err != nil || r.Assessment == nil {
			s.Failures++
			continue
		}
		if r.CacheHit {
			s.CacheHits++
		}
		switch r.Assessment.Verdict {
		case model.VerdictSafe:
			s.Safe++
		case model.VerdictSuspicious:
			s.Suspicious++
		case model.VerdictMalicious:
			s.Malicious++
		}
	}
	return s
}
