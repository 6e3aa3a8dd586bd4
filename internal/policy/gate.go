package policy

import (
	"fmt"
	"strings"

	"qrisk/internal/model"
)

// Verdict is the gate's pre-scoring decision.
type Verdict string

const (
	Allowed        Verdict = "allowed"
	Blocked        Verdict = "blocked"
	RequiresReview Verdict = "requires_review"
	NotApplicable  Verdict = "not_applicable"
)

// Decision couples a verdict with the rule that produced it.
type Decision struct {
	Verdict Verdict
	Reason  string
}

// ShortCircuits reports whether the decision terminates scoring.
func (d Decision) ShortCircuits() bool {
	return d.Verdict == Blocked || d.Verdict == RequiresReview
}

// Gate evaluates one validated policy document. A nil gate, or a gate
// built from a nil document, always answers NotApplicable.
type Gate struct {
	doc *Document
}

// NewGate validates the document and wraps it.
func NewGate(doc *Document) (*Gate, error) {
	if doc == nil {
		return &Gate{}, nil
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &Gate{doc: doc}, nil
}

// Name returns the policy name, empty when no document is loaded.
func (g *Gate) Name() string {
	if g == nil || g.doc == nil {
		return ""
	}
	return g.doc.Name
}

// Thresholds applies the document's override to cfg. Without an
// override cfg passes through unchanged.
func (g *Gate) Thresholds(cfg model.ScoringConfig) model.ScoringConfig {
	if g == nil || g.doc == nil || g.doc.MaliciousThreshold == nil {
		return cfg
	}
	cfg.SafeThreshold = *g.doc.SafeThreshold
	cfg.MaliciousThreshold = *g.doc.MaliciousThreshold
	return cfg
}

// Evaluate runs the rule lists in precedence order: allow first, then
// deny, review, and the structural requirements. Unparseable input is
// never a policy matter; the scoring pipeline handles it.
func (g *Gate) Evaluate(n *model.NormalizedURL) Decision {
	if g == nil || g.doc == nil || n == nil || n.Unparseable {
		return Decision{Verdict: NotApplicable}
	}

	if pattern, ok := matchDomain(g.doc.AllowDomains, n); ok {
		return Decision{Verdict: Allowed, Reason: fmt.Sprintf("%s matches allow entry %s", n.ASCIIHost, pattern)}
	}
	if pattern, ok := matchDomain(g.doc.DenyDomains, n); ok {
		return Decision{Verdict: Blocked, Reason: fmt.Sprintf("%s matches deny entry %s", n.ASCIIHost, pattern)}
	}
	if pattern, ok := matchDomain(g.doc.ReviewDomains, n); ok {
		return Decision{Verdict: RequiresReview, Reason: fmt.Sprintf("%s matches review entry %s", n.ASCIIHost, pattern)}
	}
	if tld, ok := g.matchTLD(n); ok {
		return Decision{Verdict: Blocked, Reason: fmt.Sprintf("top-level domain .%s is deny-listed", tld)}
	}
	if g.doc.BlockIPHosts && n.IsIPHost {
		return Decision{Verdict: Blocked, Reason: fmt.Sprintf("IP-address host %s is blocked by policy", n.Host)}
	}
	if g.doc.RequireHTTPS && n.Scheme != "https" {
		return Decision{Verdict: Blocked, Reason: "policy requires HTTPS"}
	}
	return Decision{Verdict: NotApplicable}
}

func (g *Gate) matchTLD(n *model.NormalizedURL) (string, bool) {
	if n.IsIPHost || n.Suffix == "" {
		return "", false
	}
	suffix := strings.ToLower(n.Suffix)
	last := suffix
	if i := strings.LastIndex(suffix, "."); i >= 0 {
		last = suffix[i+1:]
	}
	for _, tld := range g.doc.DenyTLDs {
		if suffix == tld || last == tld {
			return tld, true
		}
	}
	return "", false
}

// matchDomain checks both host spellings against a pattern list.
// "example.com" matches exactly that host; "*.example.com" matches the
// apex and every subdomain.
func matchDomain(patterns []string, n *model.NormalizedURL) (string, bool) {
	ascii := strings.ToLower(n.ASCIIHost)
	decoded := strings.ToLower(n.Host)

	for _, p := range patterns {
		if base, ok := strings.CutPrefix(p, "*."); ok {
			if hostUnder(ascii, base) || hostUnder(decoded, base) {
				return p, true
			}
			continue
		}
		if p == ascii || p == decoded {
			return p, true
		}
	}
	return "", false
}

func hostUnder(host, base string) bool {
	return host != "" && (host == base || strings.HasSuffix(host, "."+base))
}
