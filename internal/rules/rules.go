// Package rules implements the heuristic rule catalogue. Every rule is
// a pure function over the normalized URL: rules never see each
// other's output and never mutate their input, so the catalogue can be
// extended without re-tuning existing entries.
package rules

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"qrisk/internal/model"
	"qrisk/internal/normalize"
	"qrisk/internal/tldrisk"
)

// Point values for the catalogue. The summed total is capped at 100.
const (
	PointsNoHTTPS        = 18
	PointsAtSymbol       = 52
	PointsIPHost         = 45
	PointsDeepSubdomains = 15
	PointsUrgency        = 18
	PointsHighEntropy    = 15
	PointsOverlongURL    = 15
	PointsShortener      = 20
	PointsRedirectParam  = 15
	PointsRiskyTLDHigh   = 35
	PointsRiskyTLDMedium = 15
)

// subdomainDepthLimit is how many labels left of the registrable
// domain are tolerated before the depth rule fires.
const subdomainDepthLimit = 3

// entropyThreshold is the bits-per-character bound above which a host
// label reads as machine-generated.
const entropyThreshold = 3.5

// urgencyKeywords are scanned in the path and query. Keywords in host
// labels are brand-detector territory, not the heuristic's.
var urgencyKeywords = []string{
	"verify", "secure", "account", "update", "confirm",
	"login", "signin", "password", "credential", "banking",
	"suspend", "urgent", "expire", "unlock", "invoice",
	"refund", "wallet", "reactivate",
}

// shortenerDomains hide the real destination behind a redirect, which
// defeats offline assessment.
var shortenerDomains = map[string]bool{
	"bit.ly":      true,
	"tinyurl.com": true,
	"goo.gl":      true,
	"t.co":        true,
	"ow.ly":       true,
	"is.gd":       true,
	"buff.ly":     true,
	"rebrand.ly":  true,
	"cutt.ly":     true,
	"shorturl.at": true,
	"rb.gy":       true,
	"t.ly":        true,
	"tiny.cc":     true,
	"v.gd":        true,
	"s.id":        true,
	"lnkd.in":     true,
}

// redirectParams are query keys whose URL-shaped values indicate an
// open-redirect hop.
var redirectParams = map[string]bool{
	"url":          true,
	"redirect":     true,
	"redirect_uri": true,
	"redirect_url": true,
	"next":         true,
	"goto":         true,
	"dest":         true,
	"destination":  true,
	"continue":     true,
	"return":       true,
	"returnurl":    true,
	"target":       true,
	"link":         true,
	"u":            true,
	"r":            true,
}

// Rule is one named entry in the catalogue.
type Rule struct {
	ID    string
	Check func(n *model.NormalizedURL) *model.Flag
}

// Evaluator runs the catalogue against normalized URLs.
type Evaluator struct {
	tlds  *tldrisk.Table
	rules []Rule
}

// NewEvaluator builds the standard catalogue. The TLD table is shared
// with the TLD scorer so operator overrides apply everywhere; nil
// means the bundled default.
func NewEvaluator(tlds *tldrisk.Table) *Evaluator {
	e := &Evaluator{tlds: tlds}
	if e.tlds == nil {
		e.tlds = tldrisk.DefaultTable()
	}
	e.rules = []Rule{
		{model.FlagNoHTTPS, checkHTTPS},
		{model.FlagAtSymbol, checkUserinfo},
		{model.FlagIPHost, checkIPHost},
		{model.FlagDeepSubdomains, checkSubdomainDepth},
		{model.FlagUrgencyKeywords, checkUrgencyKeywords},
		{model.FlagHighEntropyHost, checkHostEntropy},
		{model.FlagOverlongURL, checkLength},
		{model.FlagShortener, checkShortener},
		{model.FlagRedirectParam, checkRedirectParam},
		{model.FlagSuspiciousTLD, e.checkRiskyTLD},
	}
	return e
}

// Rules exposes the catalogue for inspection.
func (e *Evaluator) Rules() []Rule {
	return e.rules
}

// Evaluate runs every rule independently, folds in the obfuscation
// flags found during normalization at full weight, and caps the summed
// points at 100. Unparseable input short-circuits to its synthetic
// score: no other rule can meaningfully fire without parsed parts.
func (e *Evaluator) Evaluate(n *model.NormalizedURL) model.SignalResult {
	flags := obfuscationFlags(n)
	total := n.ObfuscationScore()

	if !n.Unparseable {
		for _, r := range e.rules {
			if f := r.Check(n); f != nil {
				flags = append(flags, *f)
				total += f.Points
			}
		}
	}

	score := model.ClampScore(total)
	return model.SignalResult{
		Score:                  score,
		ConfidenceContribution: float64(score) / 100,
		Flags:                  flags,
	}
}

// obfuscationMeta maps normalizer findings onto report flags.
var obfuscationMeta = map[model.ObfuscationKind]struct {
	id       string
	severity model.FlagSeverity
	label    string
}{
	model.ObfuscationMixedScript:   {model.FlagMixedScript, model.SeverityHigh, "Host label mixes characters from multiple scripts"},
	model.ObfuscationRTLOverride:   {model.FlagRTLOverride, model.SeverityCritical, "Right-to-left override characters disguise the URL"},
	model.ObfuscationDoubleEncoded: {model.FlagDoubleEncoded, model.SeverityMedium, "URL is percent-encoded more than once"},
	model.ObfuscationZeroWidth:     {model.FlagZeroWidth, model.SeverityHigh, "Invisible zero-width characters embedded in the URL"},
	model.ObfuscationIPDecimal:     {model.FlagIPDecimal, model.SeverityHigh, "Host is an IP address"},
	model.ObfuscationIPHex:         {model.FlagIPHex, model.SeverityHigh, "Host is an IP address spelled in hex"},
	model.ObfuscationIPOctal:       {model.FlagIPOctal, model.SeverityHigh, "Host is an IP address spelled in octal"},
	model.ObfuscationUnparseable:   {model.FlagUnparseable, model.SeverityHigh, "Input could not be parsed as a URL"},
}

func obfuscationFlags(n *model.NormalizedURL) []model.Flag {
	var out []model.Flag
	for _, ob := range n.Obfuscation {
		meta, ok := obfuscationMeta[ob.Kind]
		if !ok {
			continue
		}
		label := meta.label
		if ob.Detail != "" {
			label += ": " + ob.Detail
		}
		out = append(out, model.Flag{
			ID:       meta.id,
			Severity: meta.severity,
			Label:    label,
			Points:   ob.Points,
		})
	}
	return out
}

func checkHTTPS(n *model.NormalizedURL) *model.Flag {
	if n.Scheme == "https" {
		return nil
	}
	return &model.Flag{
		ID:       model.FlagNoHTTPS,
		Severity: model.SeverityMedium,
		Label:    "Not served over HTTPS",
		Points:   PointsNoHTTPS,
	}
}

func checkUserinfo(n *model.NormalizedURL) *model.Flag {
	if !n.HasUserinfo {
		return nil
	}
	return &model.Flag{
		ID:       model.FlagAtSymbol,
		Severity: model.SeverityCritical,
		Label:    "Userinfo before @ disguises the real host",
		Points:   PointsAtSymbol,
	}
}

func checkIPHost(n *model.NormalizedURL) *model.Flag {
	if !n.IsIPHost {
		return nil
	}
	return &model.Flag{
		ID:       model.FlagIPHost,
		Severity: model.SeverityHigh,
		Label:    "Host is a raw IP address instead of a domain",
		Points:   PointsIPHost,
	}
}

func checkSubdomainDepth(n *model.NormalizedURL) *model.Flag {
	if n.Subdomains <= subdomainDepthLimit {
		return nil
	}
	return &model.Flag{
		ID:       model.FlagDeepSubdomains,
		Severity: model.SeverityLow,
		Label:    fmt.Sprintf("%d subdomain levels bury the real domain", n.Subdomains),
		Points:   PointsDeepSubdomains,
	}
}

func checkUrgencyKeywords(n *model.NormalizedURL) *model.Flag {
	haystack := strings.ToLower(n.Path)
	if n.Query != "" {
		haystack += "?" + strings.ToLower(n.Query)
	}
	if haystack == "" {
		return nil
	}

	var matched []string
	for _, kw := range urgencyKeywords {
		if strings.Contains(haystack, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	if len(matched) > 4 {
		matched = matched[:4]
	}
	return &model.Flag{
		ID:       model.FlagUrgencyKeywords,
		Severity: model.SeverityMedium,
		Label:    "Urgency keywords in path or query: " + strings.Join(matched, ", "),
		Points:   PointsUrgency,
	}
}

func checkHostEntropy(n *model.NormalizedURL) *model.Flag {
	if n.IsIPHost {
		return nil
	}
	label := LongestLabel(n.Labels)
	if label == "" {
		return nil
	}
	h := Shannon(label)
	if h <= entropyThreshold {
		return nil
	}
	return &model.Flag{
		ID:       model.FlagHighEntropyHost,
		Severity: model.SeverityLow,
		Label:    fmt.Sprintf("Host label %q looks machine-generated (%.2f bits/char)", label, h),
		Points:   PointsHighEntropy,
	}
}

func checkLength(n *model.NormalizedURL) *model.Flag {
	if !n.Truncated {
		return nil
	}
	return &model.Flag{
		ID:       model.FlagOverlongURL,
		Severity: model.SeverityLow,
		Label:    fmt.Sprintf("URL length %d exceeds the %d-character bound", len(n.Raw), normalize.MaxURLLength),
		Points:   PointsOverlongURL,
	}
}

func checkShortener(n *model.NormalizedURL) *model.Flag {
	if n.Registrable == "" || !shortenerDomains[n.Registrable] {
		return nil
	}
	return &model.Flag{
		ID:       model.FlagShortener,
		Severity: model.SeverityMedium,
		Label:    fmt.Sprintf("%s is a URL shortener hiding the destination", n.Registrable),
		Points:   PointsShortener,
	}
}

func checkRedirectParam(n *model.NormalizedURL) *model.Flag {
	if n.Query == "" {
		return nil
	}
	vals, err := url.ParseQuery(n.Query)
	if err != nil {
		return nil
	}

	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !redirectParams[strings.ToLower(key)] {
			continue
		}
		for _, v := range vals[key] {
			lv := strings.ToLower(v)
			if strings.HasPrefix(lv, "http://") || strings.HasPrefix(lv, "https://") || strings.HasPrefix(lv, "//") {
				return &model.Flag{
					ID:       model.FlagRedirectParam,
					Severity: model.SeverityMedium,
					Label:    fmt.Sprintf("Query parameter %q embeds a redirect target", key),
					Points:   PointsRedirectParam,
				}
			}
		}
	}
	return nil
}

func (e *Evaluator) checkRiskyTLD(n *model.NormalizedURL) *model.Flag {
	if n.IsIPHost || n.Suffix == "" {
		return nil
	}
	switch e.tlds.Tier(n.Suffix) {
	case tldrisk.TierHigh:
		return &model.Flag{
			ID:       model.FlagSuspiciousTLD,
			Severity: model.SeverityHigh,
			Label:    fmt.Sprintf("TLD .%s is heavily abused by phishing campaigns", n.Suffix),
			Points:   PointsRiskyTLDHigh,
		}
	case tldrisk.TierMedium:
		return &model.Flag{
			ID:       model.FlagWatchlistTLD,
			Severity: model.SeverityLow,
			Label:    fmt.Sprintf("TLD .%s sees elevated abuse rates", n.Suffix),
			Points:   PointsRiskyTLDMedium,
		}
	}
	return nil
}
