package ensemble

import (
	"qrisk/internal/model"
	"qrisk/internal/rules"
)

// Feature vector layout. Order is load-bearing: the weight tables in
// ensemble.go are indexed by these positions.
const (
	featMissingHTTPS = iota // 1 when the scheme is anything but https
	featIPHost              // 1 when the host is an IP literal
	featUserinfo            // 1 when userinfo precedes the host
	featTLDWeight           // suspicious-TLD weight scaled to roughly [0,1]
	featBrandHit            // 1 when the brand detector scored the host
	featEntropy             // Shannon entropy of the longest label, bits per character
	featPathLength          // path length in units of 64 bytes
	featSubdomains          // subdomain label count
	featureCount
)

// featureClamp bounds every feature so no single input can saturate
// the linear term.
const featureClamp = 10.0

// tldWeightScale maps suspicious-TLD table weights onto the unit
// range.
const tldWeightScale = 50.0

// Extract builds the feature vector for one URL. tldScore and
// brandScore are the sub-scores those components already produced for
// the same URL.
func Extract(n *model.NormalizedURL, tldScore, brandScore int) [featureCount]float64 {
	var f [featureCount]float64
	if n == nil {
		return f
	}

	if n.Scheme != "https" {
		f[featMissingHTTPS] = 1
	}
	if n.IsIPHost {
		f[featIPHost] = 1
	}
	if n.HasUserinfo {
		f[featUserinfo] = 1
	}
	f[featTLDWeight] = float64(tldScore) / tldWeightScale
	if brandScore > 0 {
		f[featBrandHit] = 1
	}
	f[featEntropy] = rules.Shannon(rules.LongestLabel(n.Labels))
	f[featPathLength] = float64(len(n.Path)) / 64
	f[featSubdomains] = float64(n.Subdomains)

	for i := range f {
		f[i] = clampFeature(f[i])
	}
	return f
}

func clampFeature(v float64) float64 {
	if v > featureClamp {
		return featureClamp
	}
	if v < -featureClamp {
		return -featureClamp
	}
	return v
}
