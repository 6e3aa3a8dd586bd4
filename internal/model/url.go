package model

// ObfuscationKind enumerates the encoding tricks the normalizer
// detects before any scoring runs.
type ObfuscationKind string

const (
	ObfuscationMixedScript   ObfuscationKind = "mixed_script"
	ObfuscationRTLOverride   ObfuscationKind = "rtl_override"
	ObfuscationDoubleEncoded ObfuscationKind = "double_encoded"
	ObfuscationZeroWidth     ObfuscationKind = "zero_width_chars"
	ObfuscationIPDecimal     ObfuscationKind = "ip_host_decimal"
	ObfuscationIPHex         ObfuscationKind = "ip_host_hex"
	ObfuscationIPOctal       ObfuscationKind = "ip_host_octal"
	ObfuscationUnparseable   ObfuscationKind = "unparseable_input"
)

// ObfuscationFlag records one detected trick with its fixed point
// value. Points feed the heuristic sub-score at full weight.
type ObfuscationFlag struct {
	Kind   ObfuscationKind `json:"kind"`
	Points int             `json:"points"`
	Detail string          `json:"detail,omitempty"`
}

// NormalizedURL is the canonical decomposition every analysis
// component consumes. Raw preserves the input byte-for-byte; all other
// fields are best-effort and may be empty when parsing degraded.
type NormalizedURL struct {
	Raw         string
	Scheme      string
	Host        string   // lowercase, IDNA-decoded where decodable
	ASCIIHost   string   // punycode form, used for suffix lookups
	Port        string
	Path        string   // percent-decoded once, best effort
	Query       string
	Labels      []string // Host split on dots
	Registrable string   // eTLD+1; empty for IP hosts and unlisted suffixes
	Suffix      string   // effective TLD ("com", "co.uk")
	Subdomains  int      // labels left of the registrable domain
	HasUserinfo bool
	IsIPHost    bool
	IsIDN       bool
	Truncated   bool
	Unparseable bool
	Obfuscation []ObfuscationFlag
}

// ObfuscationScore sums the detected flag points, capped at 100.
func (n *NormalizedURL) ObfuscationScore() int {
	total := 0
	for _, f := range n.Obfuscation {
		total += f.Points
	}
	return ClampScore(total)
}

// HasObfuscation reports whether a specific trick was detected.
func (n *NormalizedURL) HasObfuscation(kind ObfuscationKind) bool {
	for _, f := range n.Obfuscation {
		if f.Kind == kind {
			return true
		}
	}
	return false
}
