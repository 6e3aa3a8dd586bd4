// Package tldrisk rates effective top-level domains by observed abuse.
// It owns the single authoritative TLD table: both the heuristic
// catalogue and the TLD pipeline component read from it, so an
// operator override changes every consumer at once.
package tldrisk

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"qrisk/internal/model"
)

// RiskTier buckets effective TLDs by observed abuse volume.
type RiskTier int

const (
	TierNeutral RiskTier = iota
	TierMedium
	TierHigh
)

// Tier weights on the 0-100 component scale.
const (
	WeightHigh   = 48
	WeightMedium = 20
)

// highRiskTLDs see sustained, large-scale phishing abuse. The free
// Freenom zones dominate takedown feeds; zip and mov read as file
// names to humans.
var highRiskTLDs = []string{
	"tk", "ml", "ga", "cf", "gq",
	"zip", "mov", "gdn", "men", "bid",
	"faith", "download", "racing", "stream", "accountant",
}

// mediumRiskTLDs are legitimate but cheap zones with elevated abuse
// rates.
var mediumRiskTLDs = []string{
	"xyz", "top", "club", "icu", "buzz",
	"click", "link", "rest", "lol", "pw",
	"su", "cc", "online", "site", "website",
}

// Table maps effective TLDs to risk weights.
type Table struct {
	weights map[string]int
}

// DefaultTable returns the bundled risk table.
func DefaultTable() *Table {
	t := &Table{weights: make(map[string]int, len(highRiskTLDs)+len(mediumRiskTLDs))}
	for _, tld := range highRiskTLDs {
		t.weights[tld] = WeightHigh
	}
	for _, tld := range mediumRiskTLDs {
		t.weights[tld] = WeightMedium
	}
	return t
}

// tableFile is the YAML override schema:
//
//	high: [tk, ml]
//	medium: [xyz, top]
type tableFile struct {
	High   []string `yaml:"high"`
	Medium []string `yaml:"medium"`
}

// LoadTable reads a YAML override file replacing the bundled table.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tld table: %w", err)
	}
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse tld table %s: %w", path, err)
	}

	t := &Table{weights: make(map[string]int)}
	for _, tld := range tf.High {
		t.weights[normalizeTLD(tld)] = WeightHigh
	}
	for _, tld := range tf.Medium {
		t.weights[normalizeTLD(tld)] = WeightMedium
	}
	if len(t.weights) == 0 {
		return nil, fmt.Errorf("tld table %s lists no TLDs", path)
	}
	return t, nil
}

func normalizeTLD(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
}

// Weight returns the risk weight for an effective TLD, or zero for
// neutral zones. Multi-label suffixes like co.uk fall back to their
// rightmost label. Lookups are case-insensitive and only ever see the
// suffix itself, never subdomain labels.
func (t *Table) Weight(suffix string) int {
	s := normalizeTLD(suffix)
	if s == "" {
		return 0
	}
	if w, ok := t.weights[s]; ok {
		return w
	}
	if i := strings.LastIndex(s, "."); i >= 0 {
		if w, ok := t.weights[s[i+1:]]; ok {
			return w
		}
	}
	return 0
}

// Tier buckets the weight for a suffix.
func (t *Table) Tier(suffix string) RiskTier {
	switch w := t.Weight(suffix); {
	case w >= WeightHigh:
		return TierHigh
	case w >= WeightMedium:
		return TierMedium
	default:
		return TierNeutral
	}
}

// Scorer is the pipeline component wrapping a Table.
type Scorer struct {
	table *Table
}

// NewScorer wraps the given table; nil means the bundled default.
func NewScorer(table *Table) *Scorer {
	if table == nil {
		table = DefaultTable()
	}
	return &Scorer{table: table}
}

// Table exposes the scorer's table so other components share it.
func (s *Scorer) Table() *Table {
	return s.table
}

// Score rates the effective TLD of the normalized URL. IP hosts have
// no TLD and score zero here; the heuristic catalogue already covers
// them.
func (s *Scorer) Score(n *model.NormalizedURL) model.SignalResult {
	if n.Unparseable || n.IsIPHost || n.Suffix == "" {
		return model.SignalResult{}
	}

	w := s.table.Weight(n.Suffix)
	if w == 0 {
		return model.SignalResult{}
	}

	var flag model.Flag
	switch s.table.Tier(n.Suffix) {
	case TierHigh:
		flag = model.Flag{
			ID:       model.FlagSuspiciousTLD,
			Severity: model.SeverityHigh,
			Label:    fmt.Sprintf("TLD .%s is heavily abused by phishing campaigns", n.Suffix),
			Points:   w,
		}
	default:
		flag = model.Flag{
			ID:       model.FlagWatchlistTLD,
			Severity: model.SeverityLow,
			Label:    fmt.Sprintf("TLD .%s sees elevated abuse rates", n.Suffix),
			Points:   w,
		}
	}

	score := model.ClampScore(w)
	return model.SignalResult{
		Score:                  score,
		ConfidenceContribution: float64(score) / 100,
		Flags:                  []model.Flag{flag},
	}
}
