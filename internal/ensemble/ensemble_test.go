package ensemble

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrisk/internal/model"
	"qrisk/internal/normalize"
)

func TestExtract(t *testing.T) {
	n := normalize.Normalize("http://a.b.c.example.com/some/path")
	f := Extract(n, 48, 40)

	assert.Equal(t, 1.0, f[featMissingHTTPS])
	assert.Equal(t, 0.0, f[featIPHost])
	assert.Equal(t, 0.0, f[featUserinfo])
	assert.InDelta(t, 0.96, f[featTLDWeight], 1e-9)
	assert.Equal(t, 1.0, f[featBrandHit])
	assert.Equal(t, 3.0, f[featSubdomains])
	assert.Greater(t, f[featEntropy], 0.0)

	https := Extract(normalize.Normalize("https://example.com"), 0, 0)
	assert.Equal(t, 0.0, https[featMissingHTTPS])
	assert.Equal(t, 0.0, https[featTLDWeight])
	assert.Equal(t, 0.0, https[featBrandHit])

	ip := Extract(normalize.Normalize("http://192.168.1.1/admin"), 0, 0)
	assert.Equal(t, 1.0, ip[featIPHost])

	userinfo := Extract(normalize.Normalize("https://user@example.com"), 0, 0)
	assert.Equal(t, 1.0, userinfo[featUserinfo])
}

func TestExtract_Clamped(t *testing.T) {
	n := &model.NormalizedURL{
		Scheme: "https",
		Path:   "/" + strings.Repeat("a", 5000),
	}
	f := Extract(n, 0, 0)
	assert.Equal(t, featureClamp, f[featPathLength])
}

func TestExtract_NilURL(t *testing.T) {
	f := Extract(nil, 48, 40)
	assert.Equal(t, [featureCount]float64{}, f)
}

func TestPredict_Bounds(t *testing.T) {
	var zero [featureCount]float64
	p := NewClassifier().Predict(zero)
	assert.Greater(t, p, 0.0)
	assert.Less(t, p, 0.25, "empty feature vector stays low")

	var max [featureCount]float64
	for i := range max {
		max[i] = featureClamp
	}
	p = NewClassifier().Predict(max)
	assert.LessOrEqual(t, p, 1.0)
	assert.Greater(t, p, 0.9)
}

func TestPredict_MoreSignalNeverLowers(t *testing.T) {
	c := NewClassifier()

	indicators := []int{featMissingHTTPS, featIPHost, featUserinfo, featBrandHit}
	var f [featureCount]float64
	prev := c.Predict(f)
	for _, idx := range indicators {
		f[idx] = 1
		p := c.Predict(f)
		assert.GreaterOrEqual(t, p, prev, "setting feature %d lowered the probability", idx)
		prev = p
	}
}

func TestPredict_Deterministic(t *testing.T) {
	c := NewClassifier()
	f := Extract(normalize.Normalize("http://paypa1-verify.tk/login"), 48, 40)
	first := c.Predict(f)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, c.Predict(f))
	}
}

func TestClassify_CleanURL(t *testing.T) {
	c := NewClassifier()
	res := c.Classify(normalize.Normalize("https://www.google.com"), 0, 0)

	assert.LessOrEqual(t, res.Score, 10)
	assert.Empty(t, res.Flags)
	assert.InDelta(t, float64(res.Score)/100, res.ConfidenceContribution, 1e-9)
}

func TestClassify_HostileURL(t *testing.T) {
	c := NewClassifier()
	res := c.Classify(normalize.Normalize("http://paypa1-verify.tk/login"), 48, 40)

	assert.GreaterOrEqual(t, res.Score, 70)
	require.Len(t, res.Flags, 1)
	assert.Equal(t, model.FlagMLHighRisk, res.Flags[0].ID)
	assert.Equal(t, model.SeverityHigh, res.Flags[0].Severity)
}

func TestClassify_Unparseable(t *testing.T) {
	c := NewClassifier()
	res := c.Classify(normalize.Normalize("   "), 0, 0)

	assert.Less(t, res.Score, 25)
	assert.Empty(t, res.Flags)
}
