package charref

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestUnescapeAll(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		expected string
	}{
		{"amp", "&amp;", "&"},
		{"lt gt", "&lt;&gt;", "<>"},
		{"decimal", "&#65;", "A"},
		{"hex", "&#x41;", "A"},
		{"hex upper prefix", "&#X41;", "A"},
		{"zero", "&#0;", "\uFFFD"},
		{"out of range", "&#x110000;", "\uFFFD"},
		{"too many digits", "&#12345678901;", "&#12345678901;"},
		{"unknown name", "&notareal;", "&notareal;"},
		{"unterminated", "&amp", "&amp"},
		{"lone ampersand", "a & b", "a & b"},
		{"trailing ampersand", "a &", "a &"},
		{"ampersand before reference", "&&amp;", "&&"},
		{"decoded ampersand not redecoded", "&amp;lt;", "&lt;"},
		{"mixed", "x &lt; y &#x26;&#38; z&eacute;", "x < y && z\u00e9"},
		{"surrogate quirk", "[&#57344;]", "[\uFFFD]"},
		{"name too long", "&CounterClockwiseContourIntegral;", "&CounterClockwiseContourIntegral;"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, string(UnescapeAll([]byte(tc.raw))))
			require.Equal(t, tc.expected, UnescapeString(tc.raw))
			require.Equal(t, "prefix:"+tc.expected, string(AppendUnescape([]byte("prefix:"), []byte(tc.raw))))
		})
	}
}

func TestUnescapeAllNoEscapes(t *testing.T) {
	src := []byte("plain text; no references # here")

	out := UnescapeAll(src)
	require.Same(t, &src[0], &out[0])
	require.Len(t, out, len(src))

	allocs := testing.AllocsPerRun(100, func() {
		out = UnescapeAll(src)
	})
	require.Zero(t, allocs)

	require.Empty(t, UnescapeAll(nil))
}

func TestUnescapeAllTwice(t *testing.T) {
	once := UnescapeAll([]byte("fish &amp;chips &amp; &amp;amp;"))
	require.Equal(t, "fish &chips & &amp;", string(once))

	// A decoded '&' only decodes again when it now starts a valid reference.
	twice := UnescapeAll(once)
	require.Equal(t, "fish &chips & &", string(twice))
}

func TestUnescapeAllMatchesHTML(t *testing.T) {
	// For well-formed, terminated references to known names the result agrees
	// with golang.org/x/net/html.
	names := []string{
		"amp", "lt", "gt", "quot", "apos", "nbsp", "copy", "eacute", "Eacute", "euro",
		"hellip", "mdash", "Abreve", "abreve", "nGt", "NotEqualTilde", "notin", "fjlig", "Afr", "ClockwiseContourIntegral",
	}

	var b strings.Builder
	for i, name := range names {
		b.WriteString("<p>")
		b.WriteString(strings.Repeat("x", i))
		b.WriteString("&")
		b.WriteString(name)
		b.WriteString(";</p>")
	}
	b.WriteString("&#65;&#x3b1;&#X1F600;&#10;")
	src := b.String()

	require.Equal(t, html.UnescapeString(src), UnescapeString(src))
}

func TestTableUnescapeAll(t *testing.T) {
	table, err := NewTable(
		Entity{Spelling: "&foo;", Characters: []byte("F")},
		Entity{Spelling: "&amp;", Characters: []byte("AMP")},
	)
	require.NoError(t, err)

	require.Equal(t, "F AMP &lt; A", string(table.UnescapeAll([]byte("&foo; &amp; &lt; &#65;"))))
	require.Equal(t, "F", table.UnescapeString("&foo;"))
}

func TestUnescapeAllNumericFallsBackToName(t *testing.T) {
	table, err := NewTable(
		Entity{Spelling: "&#y1;", Characters: []byte("Y")},
		Entity{Spelling: "&#12345678901;", Characters: []byte("N")},
	)
	require.NoError(t, err)

	require.Equal(t, "Y N A", string(table.UnescapeAll([]byte("&#y1; &#12345678901; &#65;"))))
	require.Equal(t, "&#y1;", UnescapeString("&#y1;"))
}

func BenchmarkUnescapeAll(b *testing.B) {
	src := bytes.Repeat([]byte("Fish &amp; chips &lt;&#x20AC;5&gt; &notareal; caf&eacute; "), 4096)

	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for b.Loop() {
		UnescapeAll(src)
	}
}

func BenchmarkUnescapeAllNoEscapes(b *testing.B) {
	src := bytes.Repeat([]byte("Fish and chips for five pounds. "), 4096)

	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for b.Loop() {
		UnescapeAll(src)
	}
}
