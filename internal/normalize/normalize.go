// Package normalize canonicalizes raw URL strings before any scoring
// runs. It is the only place obfuscation tricks are detected; every
// downstream component works from the NormalizedURL it produces.
//
// Normalize never returns an error and never panics: hostile input is
// the expected case, and an input that defeats parsing is itself a
// strong signal.
package normalize

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/unicode/norm"

	"qrisk/internal/model"
)

// MaxURLLength is the hard input bound. Longer inputs are truncated
// before parsing and marked so the heuristics can penalize them.
const MaxURLLength = 2048

// maxDecodePasses bounds iterative percent-decoding during
// double-encoding detection.
const maxDecodePasses = 3

// Fixed point values for detected obfuscation tricks.
const (
	pointsMixedScript   = 35
	pointsRTLOverride   = 45
	pointsDoubleEncoded = 25
	pointsZeroWidth     = 30
	pointsIPDecimal     = 25
	pointsIPHex         = 30
	pointsIPOctal       = 30

	// pointsUnparseable is the synthetic partial score for input that
	// defeats parsing. At balanced weights it alone keeps the verdict
	// out of SAFE.
	pointsUnparseable = 60
)

// Normalize decomposes a raw URL string into its canonical parts,
// recording every obfuscation trick found along the way. The returned
// value is always usable: unparseable input yields a NormalizedURL
// with the Unparseable flag set so the pipeline still produces a
// verdict.
func Normalize(raw string) *model.NormalizedURL {
	n := &model.NormalizedURL{Raw: raw}

	s := strings.TrimSpace(raw)
	if s == "" {
		return markUnparseable(n, "empty input")
	}

	if len(s) > MaxURLLength {
		s = s[:MaxURLLength]
		for len(s) > 0 && !utf8.ValidString(s) {
			s = s[:len(s)-1]
		}
		n.Truncated = true
	}

	// Unicode compatibility normalization first: fullwidth and other
	// compatibility forms of ASCII letters must not dodge the checks
	// below.
	s = norm.NFKC.String(s)

	cleaned, zeroWidth, bidi := stripInvisible(s)
	if zeroWidth > 0 {
		addObfuscation(n, model.ObfuscationZeroWidth, pointsZeroWidth, countDetail(zeroWidth, "zero-width character"))
	}
	if bidi > 0 {
		addObfuscation(n, model.ObfuscationRTLOverride, pointsRTLOverride, countDetail(bidi, "bidi control character"))
	}
	s = cleaned

	if isDoubleEncoded(s) {
		addObfuscation(n, model.ObfuscationDoubleEncoded, pointsDoubleEncoded, "percent-decoding twice still changes the input")
	}

	u, ok := parseLenient(s)
	if !ok {
		return markUnparseable(n, "no parseable host")
	}

	n.Scheme = strings.ToLower(u.Scheme)
	n.HasUserinfo = u.User != nil
	n.Port = u.Port()
	n.Path = u.Path
	n.Query = u.RawQuery

	host := strings.ToLower(u.Hostname())
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return markUnparseable(n, "no parseable host")
	}

	if ip := classifyIPHost(host); ip != nil {
		n.IsIPHost = true
		n.Host = ip.canonical
		n.ASCIIHost = ip.canonical
		n.Labels = strings.Split(ip.canonical, ".")
		addObfuscation(n, ip.kind, ip.points, ip.detail)
		return n
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil || ascii == "" {
		ascii = host
	}
	decoded, err := idna.Lookup.ToUnicode(ascii)
	if err != nil || decoded == "" {
		decoded = host
	}

	n.Host = decoded
	n.ASCIIHost = ascii
	n.IsIDN = ascii != decoded
	n.Labels = strings.Split(decoded, ".")

	if offenders := mixedScriptLabels(n.Labels); len(offenders) > 0 {
		addObfuscation(n, model.ObfuscationMixedScript, pointsMixedScript, strings.Join(offenders, ", "))
	}

	suffix, _ := publicsuffix.PublicSuffix(ascii)
	n.Suffix = suffix
	if reg, err := publicsuffix.EffectiveTLDPlusOne(ascii); err == nil {
		n.Registrable = reg
		n.Subdomains = len(n.Labels) - len(strings.Split(reg, "."))
		if n.Subdomains < 0 {
			n.Subdomains = 0
		}
	}

	return n
}

func markUnparseable(n *model.NormalizedURL, detail string) *model.NormalizedURL {
	n.Unparseable = true
	addObfuscation(n, model.ObfuscationUnparseable, pointsUnparseable, detail)
	return n
}

func addObfuscation(n *model.NormalizedURL, kind model.ObfuscationKind, points int, detail string) {
	n.Obfuscation = append(n.Obfuscation, model.ObfuscationFlag{
		Kind:   kind,
		Points: points,
		Detail: detail,
	})
}

func countDetail(count int, noun string) string {
	if count == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(count) + " " + noun + "s"
}

// parseLenient parses with net/url, retrying with an http prefix for
// the scheme-less strings QR payloads frequently carry.
func parseLenient(s string) (*url.URL, bool) {
	u, err := url.Parse(s)
	if err == nil && u.Host != "" {
		return u, true
	}
	if err == nil && u.Scheme != "" {
		// host:port shorthand parses as scheme plus opaque part
		if len(u.Opaque) > 0 && u.Opaque[0] >= '0' && u.Opaque[0] <= '9' {
			if u2, err2 := url.Parse("http://" + s); err2 == nil && u2.Host != "" {
				return u2, true
			}
		}
		// A real scheme with no authority (mailto:, javascript:) is
		// not something this pipeline can assess.
		return nil, false
	}
	u, err = url.Parse("http://" + s)
	if err == nil && u.Host != "" {
		return u, true
	}
	return nil, false
}

// stripInvisible removes zero-width and bidi control characters,
// reporting how many of each were present.
func stripInvisible(s string) (cleaned string, zeroWidth, bidi int) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case isZeroWidth(r):
			zeroWidth++
		case isBidiControl(r):
			bidi++
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), zeroWidth, bidi
}

// Zero-width set: ZWSP, ZWNJ, ZWJ, word joiner, BOM, soft hyphen.
func isZeroWidth(r rune) bool {
	switch r {
	case '​', '‌', '‍', '⁠', '\uFEFF', '­':
		return true
	}
	return false
}

// Bidi controls: LRE/RLE/PDF/LRO/RLO, the isolate set, and ALM.
func isBidiControl(r rune) bool {
	switch r {
	case '‪', '‫', '‬', '‭', '‮',
		'⁦', '⁧', '⁨', '⁩', '؜':
		return true
	}
	return false
}

// isDoubleEncoded reports whether percent-decoding a second time still
// changes the input. Path-style unescaping is used so literal plus
// signs do not trip the check, and passes are bounded so crafted input
// cannot recurse deeply.
func isDoubleEncoded(s string) bool {
	cur := s
	for pass := 0; pass < maxDecodePasses; pass++ {
		if !strings.Contains(cur, "%") {
			return false
		}
		dec, err := url.PathUnescape(cur)
		if err != nil || dec == cur {
			return false
		}
		if pass >= 1 {
			return true
		}
		cur = dec
	}
	return false
}

// scriptRanges maps the script classes checked per host label. Digits,
// hyphens, and other Common characters never count toward a script.
var scriptRanges = []struct {
	name  string
	table *unicode.RangeTable
}{
	{"latin", unicode.Latin},
	{"cyrillic", unicode.Cyrillic},
	{"greek", unicode.Greek},
	{"han", unicode.Han},
	{"hangul", unicode.Hangul},
	{"hiragana", unicode.Hiragana},
	{"katakana", unicode.Katakana},
	{"arabic", unicode.Arabic},
	{"hebrew", unicode.Hebrew},
	{"thai", unicode.Thai},
	{"devanagari", unicode.Devanagari},
}

func labelScripts(label string) []string {
	seen := make(map[string]bool)
	for _, r := range label {
		for _, s := range scriptRanges {
			if unicode.In(r, s.table) {
				seen[s.name] = true
				break
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// mixedScriptLabels returns a description for every label whose
// characters span more than one script. Checking per label keeps
// legitimate multi-script hosts (an ASCII subdomain on an IDN domain)
// from firing.
func mixedScriptLabels(labels []string) []string {
	var out []string
	for _, label := range labels {
		if scripts := labelScripts(label); len(scripts) > 1 {
			out = append(out, label+" ("+strings.Join(scripts, "+")+")")
		}
	}
	return out
}
