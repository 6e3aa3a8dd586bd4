package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrisk/internal/model"
	"qrisk/internal/normalize"
)

func hasFlag(res model.SignalResult, id string) bool {
	for _, f := range res.Flags {
		if f.ID == id {
			return true
		}
	}
	return false
}

func flagPoints(res model.SignalResult, id string) int {
	for _, f := range res.Flags {
		if f.ID == id {
			return f.Points
		}
	}
	return 0
}

func TestEvaluate_CleanURL(t *testing.T) {
	e := NewEvaluator(nil)
	res := e.Evaluate(normalize.Normalize("https://www.google.com/search?q=weather"))

	assert.Equal(t, 0, res.Score)
	assert.Empty(t, res.Flags)
}

func TestEvaluate_MissingHTTPS(t *testing.T) {
	e := NewEvaluator(nil)
	res := e.Evaluate(normalize.Normalize("http://example.com/"))

	assert.True(t, hasFlag(res, model.FlagNoHTTPS))
	assert.Equal(t, PointsNoHTTPS, res.Score)
}

func TestEvaluate_Userinfo(t *testing.T) {
	e := NewEvaluator(nil)
	res := e.Evaluate(normalize.Normalize("https://google.com@evil.example/"))

	assert.True(t, hasFlag(res, model.FlagAtSymbol))
	assert.Equal(t, PointsAtSymbol, flagPoints(res, model.FlagAtSymbol))
}

func TestEvaluate_IPHost(t *testing.T) {
	e := NewEvaluator(nil)
	res := e.Evaluate(normalize.Normalize("http://192.168.1.1/login"))

	assert.True(t, hasFlag(res, model.FlagIPHost))
	assert.True(t, hasFlag(res, model.FlagIPDecimal))
	assert.True(t, hasFlag(res, model.FlagNoHTTPS))
	// 45 for the IP rule, 25 for the encoding flag, 18 each for
	// missing HTTPS and the login keyword: capped at 100.
	assert.Equal(t, 100, res.Score)
	assert.GreaterOrEqual(t, flagPoints(res, model.FlagIPHost), PointsIPHost)
}

func TestEvaluate_SubdomainDepth(t *testing.T) {
	e := NewEvaluator(nil)

	deep := e.Evaluate(normalize.Normalize("https://a.b.c.d.example.com/"))
	assert.True(t, hasFlag(deep, model.FlagDeepSubdomains))

	shallow := e.Evaluate(normalize.Normalize("https://mail.example.com/"))
	assert.False(t, hasFlag(shallow, model.FlagDeepSubdomains))
}

func TestEvaluate_UrgencyKeywords(t *testing.T) {
	e := NewEvaluator(nil)

	res := e.Evaluate(normalize.Normalize("https://example.com/verify-account?action=update"))
	require.True(t, hasFlag(res, model.FlagUrgencyKeywords))
	assert.Equal(t, PointsUrgency, flagPoints(res, model.FlagUrgencyKeywords),
		"multiple keywords still fire the rule once")

	quiet := e.Evaluate(normalize.Normalize("https://example.com/blog/recipes"))
	assert.False(t, hasFlag(quiet, model.FlagUrgencyKeywords))
}

func TestEvaluate_UrgencyKeywordsIgnoreHost(t *testing.T) {
	e := NewEvaluator(nil)

	// Keywords in host labels are the brand detector's concern.
	res := e.Evaluate(normalize.Normalize("https://secure-login.example.com/"))
	assert.False(t, hasFlag(res, model.FlagUrgencyKeywords))
}

func TestEvaluate_HighEntropyHost(t *testing.T) {
	e := NewEvaluator(nil)

	res := e.Evaluate(normalize.Normalize("https://xk9q2zr7w8v3p5mjh4t6.com/"))
	assert.True(t, hasFlag(res, model.FlagHighEntropyHost))

	normal := e.Evaluate(normalize.Normalize("https://www.google.com/"))
	assert.False(t, hasFlag(normal, model.FlagHighEntropyHost))
}

func TestEvaluate_OverlongURL(t *testing.T) {
	e := NewEvaluator(nil)

	long := "https://example.com/?p="
	for len(long) <= normalize.MaxURLLength {
		long += "xxxxxxxxxx"
	}
	res := e.Evaluate(normalize.Normalize(long))
	assert.True(t, hasFlag(res, model.FlagOverlongURL))
}

func TestEvaluate_Shortener(t *testing.T) {
	e := NewEvaluator(nil)

	res := e.Evaluate(normalize.Normalize("https://bit.ly/3xYzAbC"))
	assert.True(t, hasFlag(res, model.FlagShortener))

	notShort := e.Evaluate(normalize.Normalize("https://bitly.example.com/x"))
	assert.False(t, hasFlag(notShort, model.FlagShortener))
}

func TestEvaluate_RedirectParam(t *testing.T) {
	e := NewEvaluator(nil)

	res := e.Evaluate(normalize.Normalize("https://example.com/out?url=https://evil.example/"))
	assert.True(t, hasFlag(res, model.FlagRedirectParam))

	schemeless := e.Evaluate(normalize.Normalize("https://example.com/out?next=//evil.example/"))
	assert.True(t, hasFlag(schemeless, model.FlagRedirectParam))

	harmless := e.Evaluate(normalize.Normalize("https://example.com/search?url=kittens"))
	assert.False(t, hasFlag(harmless, model.FlagRedirectParam),
		"redirect keys with non-URL values are fine")
}

func TestEvaluate_RiskyTLD(t *testing.T) {
	e := NewEvaluator(nil)

	high := e.Evaluate(normalize.Normalize("https://example.tk/"))
	assert.True(t, hasFlag(high, model.FlagSuspiciousTLD))
	assert.Equal(t, PointsRiskyTLDHigh, flagPoints(high, model.FlagSuspiciousTLD))

	medium := e.Evaluate(normalize.Normalize("https://example.xyz/"))
	assert.True(t, hasFlag(medium, model.FlagWatchlistTLD))

	neutral := e.Evaluate(normalize.Normalize("https://example.com/"))
	assert.False(t, hasFlag(neutral, model.FlagSuspiciousTLD))
	assert.False(t, hasFlag(neutral, model.FlagWatchlistTLD))
}

func TestEvaluate_MixedScriptFolded(t *testing.T) {
	e := NewEvaluator(nil)

	res := e.Evaluate(normalize.Normalize("https://аpple.com/"))
	assert.True(t, hasFlag(res, model.FlagMixedScript))
	assert.Equal(t, 35, res.Score, "obfuscation points fold in at full weight")
}

func TestEvaluate_Unparseable(t *testing.T) {
	e := NewEvaluator(nil)

	res := e.Evaluate(normalize.Normalize(""))
	require.True(t, hasFlag(res, model.FlagUnparseable))
	assert.Equal(t, 60, res.Score, "synthetic score keeps garbage out of SAFE")
	assert.Len(t, res.Flags, 1, "no other rule fires without parsed parts")
}

func TestEvaluate_ScoreCapped(t *testing.T) {
	e := NewEvaluator(nil)

	// http, IP host, login path: well past 100 before the cap.
	res := e.Evaluate(normalize.Normalize("http://0xc0.0xa8.0x1.0x1/login?next=https://evil.example/"))
	assert.Equal(t, 100, res.Score)

	total := 0
	for _, f := range res.Flags {
		total += f.Points
	}
	assert.Greater(t, total, 100, "flag points are preserved uncapped for auditing")
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := NewEvaluator(nil)
	inputs := []string{
		"https://www.google.com/",
		"http://192.168.1.1/login",
		"https://example.com/out?url=https://a/&next=https://b/",
		"",
	}
	for _, in := range inputs {
		a := e.Evaluate(normalize.Normalize(in))
		b := e.Evaluate(normalize.Normalize(in))
		assert.Equal(t, a, b, "input %q", in)
	}
}

func TestEvaluate_RulesIndependent(t *testing.T) {
	e := NewEvaluator(nil)
	n := normalize.Normalize("http://192.168.1.1/login")

	// Running individual rules in any order must reproduce the same
	// flags the full evaluation found.
	fired := make(map[string]bool)
	for _, r := range e.Rules() {
		if f := r.Check(n); f != nil {
			fired[f.ID] = true
		}
	}
	assert.True(t, fired[model.FlagNoHTTPS])
	assert.True(t, fired[model.FlagIPHost])
	assert.True(t, fired[model.FlagUrgencyKeywords])
}

func TestNewEvaluator_CatalogueSize(t *testing.T) {
	e := NewEvaluator(nil)
	assert.Len(t, e.Rules(), 10)
}

func TestShannon(t *testing.T) {
	assert.Equal(t, 0.0, Shannon(""))
	assert.Equal(t, 0.0, Shannon("aaaa"))
	assert.InDelta(t, 1.0, Shannon("ab"), 1e-9)
	assert.Greater(t, Shannon("xk9q2zr7w8v3p5mjh4t6"), entropyThreshold)
	assert.Less(t, Shannon("google"), entropyThreshold)
}

func TestLongestLabel(t *testing.T) {
	assert.Equal(t, "accounts", LongestLabel([]string{"www", "accounts", "com"}))
	assert.Equal(t, "", LongestLabel(nil))
	assert.Equal(t, "aa", LongestLabel([]string{"aa", "bb"}), "first label wins ties")
}
