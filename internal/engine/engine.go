// Package engine assembles the analysis pipeline: normalization, the
// policy gate, four signal components, aggregation, and explanation.
//
// Analyze never returns an error and never panics. Hostile input is
// the expected case; every string, however malformed, produces a
// complete assessment.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"qrisk/internal/brand"
	"qrisk/internal/ensemble"
	"qrisk/internal/model"
	"qrisk/internal/normalize"
	"qrisk/internal/policy"
	"qrisk/internal/rules"
	"qrisk/internal/tldrisk"
)

// Confidence model: a 0.5 base, a boost when several components agree
// on a direction, and a boost per surfaced flag.
const (
	confidenceBase = 0.5
	riskyAgreement = 40 // sub-score at or above this reads as risky
	quietAgreement = 15 // sub-score below this reads as quiet
	flagBoostStep  = 0.05
	flagBoostCap   = 0.25
)

// agreementBoost is indexed by how many components lean the same way.
var agreementBoost = [5]float64{0, 0, 0.10, 0.18, 0.25}

// Engine runs the full pipeline. Engines are safe for concurrent use:
// every field is read-only after construction.
type Engine struct {
	scoring    model.ScoringConfig
	rules      *rules.Evaluator
	tld        *tldrisk.Scorer
	detector   *brand.Detector
	classifier *ensemble.Classifier
	gate       *policy.Gate
	logger     *slog.Logger
	degraded   bool
}

// New wires an engine from configuration. Invalid scoring settings,
// an unreadable TLD override, and a broken policy document are
// construction errors. A brand registry that fails to load is not:
// the engine degrades to the remaining components, redistributes the
// brand weight among them, and logs the loss once here.
func New(cfg *model.Config, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	scoring, err := cfg.EffectiveScoring()
	if err != nil {
		return nil, err
	}

	table := tldrisk.DefaultTable()
	if cfg.Data.TLDFile != "" {
		table, err = tldrisk.LoadTable(cfg.Data.TLDFile)
		if err != nil {
			return nil, err
		}
	}

	var gate *policy.Gate
	if cfg.Policy.File != "" {
		doc, err := policy.Load(cfg.Policy.File)
		if err != nil {
			return nil, err
		}
		gate, err = policy.NewGate(doc)
		if err != nil {
			return nil, err
		}
		scoring = gate.Thresholds(scoring)
		if err := scoring.Validate(); err != nil {
			return nil, fmt.Errorf("policy threshold override: %w", err)
		}
	}

	detector := brand.NewDetector(nil)
	degraded := false
	if cfg.Data.BrandFile != "" {
		db, err := brand.LoadDB(cfg.Data.BrandFile)
		if err != nil {
			logger.Warn("brand registry failed to load, continuing without brand detection",
				"file", cfg.Data.BrandFile,
				"error", err)
			detector = nil
			degraded = true
			scoring = redistributeBrandWeight(scoring)
		} else {
			detector = brand.NewDetector(db)
		}
	}

	return &Engine{
		scoring:    scoring,
		rules:      rules.NewEvaluator(table),
		tld:        tldrisk.NewScorer(table),
		detector:   detector,
		classifier: ensemble.NewClassifier(),
		gate:       gate,
		logger:     logger,
		degraded:   degraded,
	}, nil
}

// Scoring returns the effective scoring configuration, including any
// policy threshold override and degraded-mode weight redistribution.
func (e *Engine) Scoring() model.ScoringConfig {
	return e.scoring
}

// Degraded reports whether the engine is running without its brand
// detector.
func (e *Engine) Degraded() bool {
	return e.degraded
}

// Analyze assesses one raw input string.
func (e *Engine) Analyze(raw string) *model.RiskAssessment {
	start := time.Now()

	// 1. Normalize; obfuscation tricks are recorded here.
	n := normalize.Normalize(raw)

	// 2. Policy gate, before any scoring.
	dec := e.gate.Evaluate(n)
	if dec.ShortCircuits() {
		return e.policyAssessment(raw, n, dec, start)
	}

	// 3. Signal components. A panic in one scores it zero with a
	// diagnostic flag; the analysis always completes.
	heuristic := e.safeSignal("heuristic", func() model.SignalResult {
		return e.rules.Evaluate(n)
	})
	tld := e.safeSignal("tld", func() model.SignalResult {
		return e.tld.Score(n)
	})
	var brandRes model.SignalResult
	if e.detector != nil {
		brandRes = e.safeSignal("brand", func() model.SignalResult {
			return e.detector.Detect(n)
		})
	}
	ml := e.safeSignal("ml", func() model.SignalResult {
		return e.classifier.Classify(n, tld.Score, brandRes.Score)
	})

	// 4. Aggregate.
	weighted := float64(heuristic.Score)*e.scoring.HeuristicWeight +
		float64(ml.Score)*e.scoring.MLWeight +
		float64(brandRes.Score)*e.scoring.BrandWeight +
		float64(tld.Score)*e.scoring.TLDWeight
	score := model.ClampScore(int(math.Round(weighted)))

	flags := dedupeFlags(heuristic.Flags, tld.Flags, brandRes.Flags, ml.Flags)
	annotate(flags)

	subScores := []int{heuristic.Score, ml.Score, tld.Score}
	if !e.degraded {
		subScores = append(subScores, brandRes.Score)
	}

	a := &model.RiskAssessment{
		ID:         uuid.New(),
		URL:        raw,
		Host:       n.Host,
		Score:      score,
		Verdict:    e.scoring.VerdictFor(score),
		Confidence: confidence(subScores, len(flags)),
		Flags:      flags,
		Components: model.ComponentScores{
			Heuristic: heuristic.Score,
			ML:        ml.Score,
			Brand:     brandRes.Score,
			TLD:       tld.Score,
		},
		Degraded:   e.degraded,
		AnalyzedAt: time.Now().UTC(),
		Duration:   time.Since(start),
	}
	if dec.Verdict == policy.Allowed {
		a.Policy = string(policy.Allowed)
	}
	return a
}

// policyAssessment builds the short-circuit result for a blocked or
// review-bound URL: score forced to the malicious floor, one flag
// naming the rule.
func (e *Engine) policyAssessment(raw string, n *model.NormalizedURL, dec policy.Decision, start time.Time) *model.RiskAssessment {
	score := e.scoring.MaliciousThreshold

	flagID := model.FlagPolicyBlocked
	severity := model.SeverityCritical
	if dec.Verdict == policy.RequiresReview {
		flagID = model.FlagPolicyReview
		severity = model.SeverityHigh
	}
	flags := []model.Flag{{
		ID:       flagID,
		Severity: severity,
		Label:    dec.Reason,
		Points:   score,
	}}
	annotate(flags)

	return &model.RiskAssessment{
		ID:      uuid.New(),
		URL:     raw,
		Host:    n.Host,
		Score:   score,
		Verdict: e.scoring.VerdictFor(score),
		// An organization rule is a certainty, not an estimate.
		Confidence: 1,
		Flags:      flags,
		Policy:     string(dec.Verdict),
		Degraded:   e.degraded,
		AnalyzedAt: time.Now().UTC(),
		Duration:   time.Since(start),
	}
}

// safeSignal contains a component panic: the component scores zero
// and the assessment carries a diagnostic flag.
func (e *Engine) safeSignal(component string, fn func() model.SignalResult) (res model.SignalResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("analysis component panicked",
				"component", component,
				"panic", r)
			res = model.SignalResult{Flags: []model.Flag{{
				ID:       model.FlagComponentFailure,
				Severity: model.SeverityLow,
				Label:    fmt.Sprintf("The %s component failed and scored zero", component),
			}}}
		}
	}()
	return fn()
}

// dedupeFlags collapses flags sharing an ID. The first occurrence
// keeps its position in the report; the highest-scoring duplicate
// supplies the content.
func dedupeFlags(lists ...[]model.Flag) []model.Flag {
	out := make([]model.Flag, 0, 8)
	index := make(map[string]int)
	for _, list := range lists {
		for _, f := range list {
			if i, ok := index[f.ID]; ok {
				if f.Points > out[i].Points {
					out[i] = f
				}
				continue
			}
			index[f.ID] = len(out)
			out = append(out, f)
		}
	}
	return out
}

// confidence combines the agreement boost with the flag-count boost.
func confidence(subScores []int, flagCount int) float64 {
	risky, quiet := 0, 0
	for _, s := range subScores {
		switch {
		case s >= riskyAgreement:
			risky++
		case s < quietAgreement:
			quiet++
		}
	}
	agree := max(risky, quiet)
	if agree >= len(agreementBoost) {
		agree = len(agreementBoost) - 1
	}

	c := confidenceBase + agreementBoost[agree] + math.Min(flagBoostStep*float64(flagCount), flagBoostCap)
	return math.Min(math.Max(c, 0), 1)
}

// redistributeBrandWeight spreads the brand weight across the other
// components, preserving their relative proportions.
func redistributeBrandWeight(cfg model.ScoringConfig) model.ScoringConfig {
	rest := 1 - cfg.BrandWeight
	if rest <= 0 {
		return cfg
	}
	cfg.HeuristicWeight /= rest
	cfg.MLWeight /= rest
	cfg.TLDWeight /= rest
	cfg.BrandWeight = 0
	return cfg
}
