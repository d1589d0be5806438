package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBodyMarkdown(t *testing.T) {
	out, err := RenderBody("## Intro\n\nHello *world*.\n\n- one\n- two", "Title", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "<h2>Intro</h2>")
	assert.Contains(t, out, "<em>world</em>")
	assert.Contains(t, out, "<li>one</li>")
}

func TestRenderBodyPassesHTMLThrough(t *testing.T) {
	out, err := RenderBody("<h2>Direto</h2>\n<p>Já em HTML</p>", "Title", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "<h2>Direto</h2>")
	assert.Contains(t, out, "<p>Já em HTML</p>")
}

func TestRenderBodyStripsDuplicateTitle(t *testing.T) {
	out, err := RenderBody("# My  Title\n\nBody", "my title", nil)
	require.NoError(t, err)
	assert.NotContains(t, out, "<h1>")

	out, err = RenderBody("# Other heading\n\nBody", "my title", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Other heading</h1>")
}

func TestRenderBodyCTABlockMarker(t *testing.T) {
	body := "Intro\n\n[CTA]\nCompre agora\nLink: https://x.example\n[/CTA]\n\nOutro"
	out, err := RenderBody(body, "T", &CTA{Text: "Compre agora", Link: "https://x.example"})
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "bloggen-cta"))
	assert.NotContains(t, out, "[/CTA]")
	assert.NotContains(t, out, ctaSlot)
	assert.Less(t, strings.Index(out, "bloggen-cta"), strings.Index(out, "Outro"), "CTA stays where the marker was")
}

func TestRenderBodyCTAAppendedWithoutMarker(t *testing.T) {
	out, err := RenderBody("Only body", "T", &CTA{Text: "Fale <conosco>", Link: "https://x.example/?a=1&b=2"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "</div>"))
	assert.Contains(t, out, "Fale &lt;conosco&gt;")
}

func TestRenderBodyRemovesMarkersWithoutCTA(t *testing.T) {
	out, err := RenderBody("Body\n\n[CTA]\nx\n[/CTA]\n\n[CTA]", "T", nil)
	require.NoError(t, err)
	assert.NotContains(t, out, "CTA")
}

func TestDeriveExcerptTruncates(t *testing.T) {
	long := "<p>" + strings.Repeat("palavra ", 60) + "</p>"
	ex := DeriveExcerpt(long, "T")
	assert.LessOrEqual(t, len([]rune(ex)), MaxExcerptLength)
	assert.True(t, strings.HasSuffix(ex, "..."))
	assert.True(t, strings.HasPrefix(ex, "palavra palavra"))
}

func TestDeriveExcerptShortText(t *testing.T) {
	ex := DeriveExcerpt("<p>Texto   curto\n sobre pão.</p>", "T")
	assert.Equal(t, "Texto curto sobre pão.", ex)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ção ção...", truncate("ção ção ção ção", 11))
}
