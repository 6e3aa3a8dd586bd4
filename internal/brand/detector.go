package brand

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Zamiell/confusables"

	"qrisk/internal/model"
)

// Scores for the two detection outcomes. A lookalike match and a
// naming-pattern match never stack; the stronger one wins.
const (
	ScoreLookalike = 40
	ScorePattern   = 25
)

// qualifierTokens are the generic words phishing hostnames pair with a
// brand-style token ("secure-chasebank"). A qualifier on its own never
// flags.
var qualifierTokens = map[string]bool{
	"secure":   true,
	"login":    true,
	"signin":   true,
	"verify":   true,
	"account":  true,
	"accounts": true,
	"support":  true,
	"update":   true,
	"billing":  true,
	"auth":     true,
	"portal":   true,
	"help":     true,
	"service":  true,
	"customer": true,
	"confirm":  true,
}

// infrastructureLabels name hosting plumbing rather than brands; they
// never count as brand-like.
var infrastructureLabels = map[string]bool{
	"www":     true,
	"mail":    true,
	"smtp":    true,
	"imap":    true,
	"pop":     true,
	"ftp":     true,
	"cdn":     true,
	"static":  true,
	"assets":  true,
	"img":     true,
	"api":     true,
	"app":     true,
	"apps":    true,
	"web":     true,
	"dev":     true,
	"test":    true,
	"staging": true,
	"beta":    true,
	"vpn":     true,
	"ns1":     true,
	"ns2":     true,
}

// Pattern-stage structural bounds.
const (
	hyphenLimit         = 3
	deepSubdomainLevels = 2
)

// Detector scores hosts for brand impersonation. Only the host is
// inspected; brands in paths or query strings are out of scope.
type Detector struct {
	db *DB
}

// NewDetector returns a detector backed by db, or by the bundled
// registry when db is nil.
func NewDetector(db *DB) *Detector {
	if db == nil {
		db = DefaultDB()
	}
	return &Detector{db: db}
}

// DB exposes the backing registry.
func (d *Detector) DB() *DB { return d.db }

// Detect scores one normalized URL. Official brand domains and their
// subdomains always score zero. Otherwise the strongest single match
// wins: a lookalike of a registered brand scores ScoreLookalike, and a
// qualifier-plus-token naming pattern scores ScorePattern.
func (d *Detector) Detect(n *model.NormalizedURL) model.SignalResult {
	if n == nil || n.Unparseable || n.IsIPHost || len(n.Labels) == 0 {
		return model.SignalResult{}
	}
	if n.Registrable != "" && d.db.IsOfficial(n.Registrable) {
		return model.SignalResult{}
	}

	if f, ok := d.lookalikeFlag(n); ok {
		return signalFor(f)
	}
	if f, ok := patternFlag(n); ok {
		return signalFor(f)
	}
	return model.SignalResult{}
}

func signalFor(f model.Flag) model.SignalResult {
	return model.SignalResult{
		Score:                  f.Points,
		ConfidenceContribution: float64(f.Points) / 100,
		Flags:                  []model.Flag{f},
	}
}

// lookalikeFlag checks the base host label against every registered
// brand token, then checks whether a brand token is planted as a
// subdomain of an unrelated domain.
func (d *Detector) lookalikeFlag(n *model.NormalizedURL) (model.Flag, bool) {
	candidates := candidateTokens(baseLabel(n))
	for _, e := range d.db.entries {
		for _, token := range e.tokens {
			for _, c := range candidates {
				if how, ok := tokenMatches(c, token); ok {
					return model.Flag{
						ID:       model.FlagBrandImpersonation,
						Severity: model.SeverityCritical,
						Label:    fmt.Sprintf("Host imitates %s (%s)", e.Name, how),
						Points:   ScoreLookalike,
					}, true
				}
			}
		}
	}

	for _, label := range subdomainLabels(n) {
		folded := leetNormalize(label)
		for _, e := range d.db.entries {
			for _, token := range e.tokens {
				if label == token || folded == token {
					return model.Flag{
						ID:       model.FlagBrandImpersonation,
						Severity: model.SeverityCritical,
						Label:    fmt.Sprintf("%s appears as a subdomain of %s", e.Name, parentDomain(n)),
						Points:   ScoreLookalike,
					}, true
				}
			}
		}
	}
	return model.Flag{}, false
}

// tokenMatches reports whether a host-derived candidate imitates a
// brand token, and how. Checks run cheapest first; the edit-distance
// pass runs on the substitution-folded candidate so paypa1 and paypall
// land in the same bucket.
func tokenMatches(candidate, token string) (how string, ok bool) {
	if candidate == token {
		return "lookalike token", true
	}
	if confusables.ContainsHomoglyphs(candidate) {
		if strings.ToLower(confusables.Normalize(candidate)) == token {
			return "homograph spelling", true
		}
	}
	folded := leetNormalize(candidate)
	if folded == token {
		return "character substitution", true
	}
	// Edit distance only for tokens long enough that one typo cannot
	// turn an unrelated word into a brand.
	cl, tl := len([]rune(candidate)), len([]rune(token))
	if cl >= 4 && tl >= 4 {
		limit := 1
		if tl >= 8 {
			limit = 2
		}
		if editDistance(folded, token) <= limit {
			return "typosquat spelling", true
		}
	}
	return "", false
}

// patternFlag looks for impersonation of brands the registry does not
// list. Three shapes flag: a hyphenated label pairing a qualifier word
// with a name-like token (the secure-chasebank shape), a label
// chaining three or more hyphens, and a name-like label parked two or
// more subdomain levels deep.
func patternFlag(n *model.NormalizedURL) (model.Flag, bool) {
	for _, label := range labelsLeftOfSuffix(n) {
		if !strings.Contains(label, "-") {
			continue
		}
		if qualifier, subject, ok := qualifierPair(label); ok {
			return model.Flag{
				ID:       model.FlagBrandPattern,
				Severity: model.SeverityMedium,
				Label:    fmt.Sprintf("Label %q pairs %q with %q", label, qualifier, subject),
				Points:   ScorePattern,
			}, true
		}
		if hyphens := strings.Count(label, "-"); hyphens >= hyphenLimit {
			return model.Flag{
				ID:       model.FlagBrandPattern,
				Severity: model.SeverityMedium,
				Label:    fmt.Sprintf("Label %q chains %d hyphenated words", label, hyphens+1),
				Points:   ScorePattern,
			}, true
		}
	}

	if n.Subdomains >= deepSubdomainLevels {
		for _, label := range subdomainLabels(n) {
			if nameLike(label) {
				return model.Flag{
					ID:       model.FlagBrandPattern,
					Severity: model.SeverityMedium,
					Label:    fmt.Sprintf("Name-like label %q sits %d levels above %s", label, n.Subdomains, parentDomain(n)),
					Points:   ScorePattern,
				}, true
			}
		}
	}
	return model.Flag{}, false
}

// qualifierPair splits a hyphenated label and reports the first
// qualifier word and the first name-like token, when both appear.
func qualifierPair(label string) (qualifier, subject string, ok bool) {
	for _, part := range strings.Split(label, "-") {
		if qualifierTokens[part] {
			if qualifier == "" {
				qualifier = part
			}
			continue
		}
		if subject == "" && nameLike(part) {
			subject = part
		}
	}
	return qualifier, subject, qualifier != "" && subject != ""
}

// nameLike reports whether a token could plausibly name a brand: four
// to twenty alphanumeric runes including a letter, and not a generic
// qualifier or infrastructure word.
func nameLike(token string) bool {
	rl := len([]rune(token))
	if rl < 4 || rl > 20 {
		return false
	}
	if qualifierTokens[token] || infrastructureLabels[token] {
		return false
	}
	hasLetter := false
	for _, r := range token {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// baseLabel returns the leftmost label of the registrable domain, the
// label attackers vary when typosquatting.
func baseLabel(n *model.NormalizedURL) string {
	if len(n.Labels) == 0 {
		return ""
	}
	i := n.Subdomains
	if i >= len(n.Labels) {
		i = len(n.Labels) - 1
	}
	return n.Labels[i]
}

// subdomainLabels returns the labels left of the registrable domain.
func subdomainLabels(n *model.NormalizedURL) []string {
	if n.Subdomains <= 0 || n.Subdomains > len(n.Labels) {
		return nil
	}
	return n.Labels[:n.Subdomains]
}

// labelsLeftOfSuffix returns every label that is not part of the
// public suffix.
func labelsLeftOfSuffix(n *model.NormalizedURL) []string {
	if n.Suffix == "" {
		return n.Labels
	}
	cut := len(n.Labels) - len(strings.Split(n.Suffix, "."))
	if cut <= 0 {
		return nil
	}
	return n.Labels[:cut]
}

func parentDomain(n *model.NormalizedURL) string {
	if n.Registrable != "" {
		return n.Registrable
	}
	return n.Host
}

// candidateTokens derives the strings compared against brand tokens
// from the base label: the label itself, the label with hyphens
// removed, and each hyphen-split part.
func candidateTokens(label string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if len([]rune(s)) >= 3 && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	add(label)
	if strings.Contains(label, "-") {
		add(strings.ReplaceAll(label, "-", ""))
		for _, part := range strings.Split(label, "-") {
			add(part)
		}
	}
	return out
}
