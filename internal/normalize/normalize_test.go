package normalize

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrisk/internal/model"
)

func TestNormalize_PlainURL(t *testing.T) {
	n := Normalize("https://www.google.com/search?q=laksa")

	require.False(t, n.Unparseable)
	assert.Equal(t, "https", n.Scheme)
	assert.Equal(t, "www.google.com", n.Host)
	assert.Equal(t, "www.google.com", n.ASCIIHost)
	assert.Equal(t, "google.com", n.Registrable)
	assert.Equal(t, "com", n.Suffix)
	assert.Equal(t, 1, n.Subdomains)
	assert.Equal(t, "/search", n.Path)
	assert.Equal(t, "q=laksa", n.Query)
	assert.False(t, n.IsIPHost)
	assert.Empty(t, n.Obfuscation)
}

func TestNormalize_CaseAndTrailingDot(t *testing.T) {
	n := Normalize("HTTPS://WWW.GitHub.COM./explore")

	require.False(t, n.Unparseable)
	assert.Equal(t, "https", n.Scheme)
	assert.Equal(t, "www.github.com", n.Host)
	assert.Equal(t, "github.com", n.Registrable)
}

func TestNormalize_SchemelessInput(t *testing.T) {
	n := Normalize("example.com/login")

	require.False(t, n.Unparseable)
	assert.Equal(t, "http", n.Scheme)
	assert.Equal(t, "example.com", n.Host)
	assert.Equal(t, "/login", n.Path)
}

func TestNormalize_HostPortShorthand(t *testing.T) {
	n := Normalize("localhost:8080/admin")

	require.False(t, n.Unparseable)
	assert.Equal(t, "localhost", n.Host)
	assert.Equal(t, "8080", n.Port)
}

func TestNormalize_FullwidthCompatibility(t *testing.T) {
	// NFKC folds fullwidth forms back to ASCII before any check runs.
	n := Normalize("https://ｇｏｏｇｌｅ.com/")

	require.False(t, n.Unparseable)
	assert.Equal(t, "google.com", n.Host)
}

func TestNormalize_ZeroWidthCharacters(t *testing.T) {
	n := Normalize("https://goo​gle.com/")

	require.False(t, n.Unparseable)
	assert.Equal(t, "google.com", n.Host, "zero-width characters must be stripped")
	assert.True(t, n.HasObfuscation(model.ObfuscationZeroWidth))
}

func TestNormalize_BidiControls(t *testing.T) {
	n := Normalize("https://evil.com/‮gnp.exe")

	require.False(t, n.Unparseable)
	assert.True(t, n.HasObfuscation(model.ObfuscationRTLOverride))
	assert.Equal(t, "evil.com", n.Host)
}

func TestNormalize_DoubleEncoding(t *testing.T) {
	n := Normalize("https://example.com/%252e%252e/admin")
	assert.True(t, n.HasObfuscation(model.ObfuscationDoubleEncoded))

	single := Normalize("https://example.com/a%20b")
	assert.False(t, single.HasObfuscation(model.ObfuscationDoubleEncoded),
		"single encoding is normal and must not flag")

	plus := Normalize("https://example.com/search?q=%2B1%2B1")
	assert.False(t, plus.HasObfuscation(model.ObfuscationDoubleEncoded),
		"encoded plus signs are not double encoding")
}

func TestNormalize_MixedScript(t *testing.T) {
	// Cyrillic а followed by Latin pple in one label.
	n := Normalize("https://аpple.com/")

	require.False(t, n.Unparseable)
	assert.True(t, n.HasObfuscation(model.ObfuscationMixedScript))
	assert.True(t, n.IsIDN)
}

func TestNormalize_PureCyrillicNotMixed(t *testing.T) {
	n := Normalize("https://яндекс.рф/")

	require.False(t, n.Unparseable)
	assert.False(t, n.HasObfuscation(model.ObfuscationMixedScript),
		"a single-script IDN host is legitimate")
	assert.True(t, n.IsIDN)
}

func TestNormalize_ASCIISubdomainOnIDN(t *testing.T) {
	// Scripts are checked per label: an ASCII www in front of a
	// Cyrillic domain is not a homograph trick.
	n := Normalize("https://www.яндекс.рф/")

	require.False(t, n.Unparseable)
	assert.False(t, n.HasObfuscation(model.ObfuscationMixedScript))
}

func TestNormalize_PunycodeDecoded(t *testing.T) {
	// xn--pple-43d decodes to Cyrillic-а + pple, which is mixed script.
	n := Normalize("https://xn--pple-43d.com/")

	require.False(t, n.Unparseable)
	assert.True(t, n.IsIDN)
	assert.True(t, n.HasObfuscation(model.ObfuscationMixedScript))
	assert.Equal(t, "xn--pple-43d.com", n.ASCIIHost)
}

func TestNormalize_Userinfo(t *testing.T) {
	n := Normalize("https://google.com@evil.example/")

	require.False(t, n.Unparseable)
	assert.True(t, n.HasUserinfo)
	assert.Equal(t, "evil.example", n.Host)
}

func TestNormalize_IPHosts(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		canonical string
		kind      model.ObfuscationKind
	}{
		{"dotted quad", "http://192.168.1.1/login", "192.168.1.1", model.ObfuscationIPDecimal},
		{"decimal integer", "http://3232235777/login", "192.168.1.1", model.ObfuscationIPDecimal},
		{"hex integer", "http://0xc0a80101/", "192.168.1.1", model.ObfuscationIPHex},
		{"hex octets", "http://0xc0.0xa8.0x1.0x1/", "192.168.1.1", model.ObfuscationIPHex},
		{"octal octets", "http://0300.0250.0001.0001/", "192.168.1.1", model.ObfuscationIPOctal},
		{"ipv6 loopback", "http://[::1]/", "::1", model.ObfuscationIPDecimal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Normalize(tt.input)
			require.False(t, n.Unparseable)
			assert.True(t, n.IsIPHost)
			assert.Equal(t, tt.canonical, n.Host)
			assert.True(t, n.HasObfuscation(tt.kind), "want %s flag", tt.kind)
		})
	}
}

func TestNormalize_NotAnIPHost(t *testing.T) {
	inputs := []string{
		"http://999.1.2.3/",
		"http://1.2.3.4.5/",
		"http://v1.2.example.com/",
		"http://0x.0x.0x.0x/",
	}
	for _, in := range inputs {
		n := Normalize(in)
		assert.False(t, n.IsIPHost, "input %q", in)
	}
}

func TestNormalize_Unparseable(t *testing.T) {
	inputs := []string{
		"",
		"    ",
		"javascript:alert(1)",
		"mailto:someone@example.com",
		"http://",
		"ht tp://bro ken",
	}

	for _, in := range inputs {
		n := Normalize(in)
		assert.True(t, n.Unparseable, "input %q must be unparseable", in)
		assert.True(t, n.HasObfuscation(model.ObfuscationUnparseable), "input %q", in)
		assert.Equal(t, in, n.Raw, "raw input must be preserved byte-for-byte")
	}
}

func TestNormalize_Truncation(t *testing.T) {
	long := "https://example.com/"
	for len(long) <= MaxURLLength {
		long += "aaaaaaaaaa"
	}

	n := Normalize(long)
	assert.True(t, n.Truncated)
	assert.Equal(t, long, n.Raw)
	assert.Equal(t, "example.com", n.Host, "truncation happens after the host")
}

func TestNormalize_Deterministic(t *testing.T) {
	inputs := []string{
		"https://www.google.com/search?q=x",
		"http://0xc0.0xa8.0x1.0x1/",
		"https://аpple.com/",
		"not a url at all",
	}
	for _, in := range inputs {
		a := Normalize(in)
		b := Normalize(in)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Normalize(%q) is not deterministic", in)
		}
	}
}

func TestNormalize_NeverPanics(t *testing.T) {
	// Byte soup, control characters, nested escapes: none of it may
	// panic or return nil.
	inputs := []string{
		"\x00\x01\x02",
		"%%%%%%%%",
		"%25%25%25%25%25",
		"https://%ff%fe/",
		"....",
		"https://" + string(rune(0x202e)) + string(rune(0x200b)),
		"ｈｔｔｐ://x",
		"http://[not-an-ip]/",
		"https://a.b.c.d.e.f.g.h.i.j.k.l.m.n.o.p/",
	}
	for _, in := range inputs {
		n := Normalize(in)
		require.NotNil(t, n, "input %q", in)
		assert.Equal(t, in, n.Raw)
	}
}

func TestIsDoubleEncoded_Bounded(t *testing.T) {
	// Deeply nested encoding must still be detected within the pass
	// bound, not decoded to exhaustion.
	nested := "%25252525252525252e"
	assert.True(t, isDoubleEncoded(nested))
	assert.False(t, isDoubleEncoded("plain text"))
	assert.False(t, isDoubleEncoded("50%"))
}

func TestLabelScripts(t *testing.T) {
	assert.Equal(t, []string{"latin"}, labelScripts("google"))
	assert.Equal(t, []string{"cyrillic", "latin"}, labelScripts("аpple"))
	assert.Empty(t, labelScripts("123-456"))
}
