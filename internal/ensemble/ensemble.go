// Package ensemble scores URLs with a blend of three small learner
// families: a logistic model over the feature vector, boosted decision
// stumps, and hard indicator rules. All weights live in source;
// retraining is an offline exercise that lands here as new constants.
package ensemble

import (
	"fmt"
	"math"

	"qrisk/internal/model"
)

// Blend weights across the learner families; they sum to 1.
const (
	weightLinear = 0.40
	weightStumps = 0.35
	weightRules  = 0.25
)

// HighRiskThreshold is the blended probability at which the classifier
// raises its own flag.
const HighRiskThreshold = 0.7

// linearWeights and linearBias define the logistic term.
var linearWeights = [featureCount]float64{
	featMissingHTTPS: 1.1,
	featIPHost:       1.7,
	featUserinfo:     1.9,
	featTLDWeight:    1.5,
	featBrandHit:     1.7,
	featEntropy:      0.30,
	featPathLength:   0.35,
	featSubdomains:   0.25,
}

const linearBias = -2.6

// split fires its weight when the feature reaches the threshold.
type split struct {
	feature   int
	threshold float64
	weight    float64
}

// boostedStumps were fit one at a time against the labeled seed set.
// Votes sum and cap at 1.
var boostedStumps = []split{
	{featMissingHTTPS, 1, 0.10},
	{featIPHost, 1, 0.20},
	{featUserinfo, 1, 0.25},
	{featTLDWeight, 0.5, 0.20},
	{featTLDWeight, 0.9, 0.10},
	{featBrandHit, 1, 0.25},
	{featEntropy, 3.5, 0.10},
	{featEntropy, 4.2, 0.10},
	{featSubdomains, 4, 0.10},
	{featPathLength, 2.0, 0.05},
}

// floorRules keep the strongest indicators from washing out when the
// logistic term is soft. Hand-written; sum and cap at 1.
var floorRules = []split{
	{featMissingHTTPS, 1, 0.15},
	{featIPHost, 1, 0.30},
	{featUserinfo, 1, 0.35},
	{featBrandHit, 1, 0.35},
	{featTLDWeight, 0.9, 0.25},
}

// Classifier blends the learner families into one probability that
// the URL is hostile.
type Classifier struct{}

// NewClassifier returns a classifier using the compiled-in weights.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Predict returns the blended probability in [0,1]. The same vector
// always produces the same probability: there is no randomness
// anywhere in the model.
func (c *Classifier) Predict(f [featureCount]float64) float64 {
	// 1. Logistic term
	z := linearBias
	for i, w := range linearWeights {
		z += w * f[i]
	}
	logit := sigmoid(z)

	// 2. Boosted stump votes (capped at 1)
	stumpSum := 0.0
	for _, s := range boostedStumps {
		if f[s.feature] >= s.threshold {
			stumpSum += s.weight
		}
	}
	stumpSum = math.Min(stumpSum, 1)

	// 3. Indicator floors (capped at 1)
	ruleSum := 0.0
	for _, r := range floorRules {
		if f[r.feature] >= r.threshold {
			ruleSum += r.weight
		}
	}
	ruleSum = math.Min(ruleSum, 1)

	p := weightLinear*logit + weightStumps*stumpSum + weightRules*ruleSum
	return math.Min(math.Max(p, 0), 1)
}

// Classify scores one URL, raising a flag when the probability crosses
// HighRiskThreshold.
func (c *Classifier) Classify(n *model.NormalizedURL, tldScore, brandScore int) model.SignalResult {
	p := c.Predict(Extract(n, tldScore, brandScore))
	score := model.ClampScore(int(math.Round(p * 100)))

	res := model.SignalResult{
		Score:                  score,
		ConfidenceContribution: float64(score) / 100,
	}
	if p >= HighRiskThreshold {
		res.Flags = append(res.Flags, model.Flag{
			ID:       model.FlagMLHighRisk,
			Severity: model.SeverityHigh,
			Label:    fmt.Sprintf("Classifier probability %.2f", p),
			Points:   score,
		})
	}
	return res
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
