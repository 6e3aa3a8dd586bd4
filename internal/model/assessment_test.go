package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, ClampScore(-5))
	assert.Equal(t, 0, ClampScore(0))
	assert.Equal(t, 57, ClampScore(57))
	assert.Equal(t, 100, ClampScore(100))
	assert.Equal(t, 100, ClampScore(340))
}

func TestFlagSeverity_Rank(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Equal(t, 0, FlagSeverity("unknown").Rank())
}

func TestRiskAssessment_HighestSeverity(t *testing.T) {
	a := &RiskAssessment{}
	assert.Equal(t, SeverityLow, a.HighestSeverity())

	a.Flags = []Flag{
		{ID: FlagNoHTTPS, Severity: SeverityMedium},
		{ID: FlagAtSymbol, Severity: SeverityCritical},
		{ID: FlagDeepSubdomains, Severity: SeverityLow},
	}
	assert.Equal(t, SeverityCritical, a.HighestSeverity())
}

func TestNormalizedURL_ObfuscationScore(t *testing.T) {
	n := &NormalizedURL{}
	assert.Equal(t, 0, n.ObfuscationScore())

	n.Obfuscation = []ObfuscationFlag{
		{Kind: ObfuscationMixedScript, Points: 35},
		{Kind: ObfuscationZeroWidth, Points: 30},
	}
	assert.Equal(t, 65, n.ObfuscationScore())

	n.Obfuscation = append(n.Obfuscation,
		ObfuscationFlag{Kind: ObfuscationRTLOverride, Points: 45},
		ObfuscationFlag{Kind: ObfuscationDoubleEncoded, Points: 25},
	)
	assert.Equal(t, 100, n.ObfuscationScore(), "obfuscation points cap at 100")

	assert.True(t, n.HasObfuscation(ObfuscationMixedScript))
	assert.False(t, n.HasObfuscation(ObfuscationIPHex))
}
