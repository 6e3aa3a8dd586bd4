package model

import (
	"time"

	"github.com/google/uuid"
)

// Verdict buckets an assessment score into an actionable category.
type Verdict string

const (
	VerdictSafe       Verdict = "SAFE"
	VerdictSuspicious Verdict = "SUSPICIOUS"
	VerdictMalicious  Verdict = "MALICIOUS"
)

// FlagSeverity indicates how strongly a single finding should pull a
// reviewer's attention.
type FlagSeverity string

const (
	SeverityLow      FlagSeverity = "low"
	SeverityMedium   FlagSeverity = "medium"
	SeverityHigh     FlagSeverity = "high"
	SeverityCritical FlagSeverity = "critical"
)

// Rank orders severities; higher means more severe.
func (s FlagSeverity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Flag identifiers emitted by the analysis components. The explainer
// keys its counterfactual registry on these, so they are part of the
// report schema and must stay stable.
const (
	FlagNoHTTPS            = "no_https"
	FlagAtSymbol           = "at_symbol_credentials"
	FlagIPHost             = "ip_address_host"
	FlagDeepSubdomains     = "deep_subdomains"
	FlagUrgencyKeywords    = "urgency_keywords"
	FlagHighEntropyHost    = "high_entropy_host"
	FlagOverlongURL        = "overlong_url"
	FlagShortener          = "url_shortener"
	FlagRedirectParam      = "redirect_in_query"
	FlagSuspiciousTLD      = "suspicious_tld"
	FlagWatchlistTLD       = "watchlist_tld"
	FlagBrandImpersonation = "brand_impersonation"
	FlagBrandPattern       = "brand_lookalike_pattern"
	FlagMixedScript        = "mixed_script"
	FlagRTLOverride        = "rtl_override"
	FlagDoubleEncoded      = "double_encoded"
	FlagZeroWidth          = "zero_width_chars"
	FlagIPDecimal          = "ip_host_decimal"
	FlagIPHex              = "ip_host_hex"
	FlagIPOctal            = "ip_host_octal"
	FlagUnparseable        = "unparseable_input"
	FlagMLHighRisk         = "ml_high_risk"
	FlagPolicyBlocked      = "policy_blocked"
	FlagPolicyReview       = "policy_review"
	FlagComponentFailure   = "component_failure"
)

// Flag is a single explainable finding attached to an assessment.
// Points are display-only: the weighted math lives in the component
// sub-scores, flags exist so a human can audit the verdict.
type Flag struct {
	ID             string       `json:"id"`
	Severity       FlagSeverity `json:"severity"`
	Label          string       `json:"label"`
	Points         int          `json:"points"`
	Counterfactual string       `json:"counterfactual,omitempty"`
}

// SignalResult is the output of one analysis component: a 0-100
// sub-score plus the flags that justify it.
type SignalResult struct {
	Score                  int     `json:"score"`
	ConfidenceContribution float64 `json:"confidence_contribution"`
	Flags                  []Flag  `json:"flags,omitempty"`
}

// ComponentScores breaks the final score into per-component sub-scores
// so reports stay auditable.
type ComponentScores struct {
	Heuristic int `json:"heuristic"`
	ML        int `json:"ml"`
	Brand     int `json:"brand"`
	TLD       int `json:"tld"`
}

// RiskAssessment is the complete verdict for one URL.
type RiskAssessment struct {
	ID         uuid.UUID       `json:"id"`
	URL        string          `json:"url"`                // Input exactly as received
	Host       string          `json:"host,omitempty"`     // Normalized host, when parseable
	Score      int             `json:"score"`              // 0-100, higher is riskier
	Verdict    Verdict         `json:"verdict"`
	Confidence float64         `json:"confidence"`         // 0.0-1.0
	Flags      []Flag          `json:"flags"`
	Components ComponentScores `json:"components"`
	Policy     string          `json:"policy,omitempty"`   // Set when an org policy decided the verdict
	Degraded   bool            `json:"degraded,omitempty"` // Reference data failed to load
	AnalyzedAt time.Time       `json:"analyzed_at"`
	Duration   time.Duration   `json:"duration_ns"`
}

// HighestSeverity returns the most severe flag rank present, or
// SeverityLow for an empty flag list.
func (a *RiskAssessment) HighestSeverity() FlagSeverity {
	top := SeverityLow
	for _, f := range a.Flags {
		if f.Severity.Rank() > top.Rank() {
			top = f.Severity
		}
	}
	return top
}

// ClampScore bounds a raw component total to the 0-100 scale.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
