package content

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply   string
	err     error
	prompts []string
	tokens  []int
}

func (f *fakeProvider) Generate(_ context.Context, prompt string, maxTokens int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.tokens = append(f.tokens, maxTokens)
	return f.reply, f.err
}

func (f *fakeProvider) IsConfigured() bool { return true }

type fakeHeadlines []string

func (f fakeHeadlines) Headlines(context.Context, string) []string { return f }

func TestGenerateTrends(t *testing.T) {
	p := &fakeProvider{reply: "```json\n{\"trends\": [\"IA no varejo\", \"Pix parcelado\"]}\n```"}
	g := NewGenerator(p, "", 0, nil)
	g.SetHeadlineSource(fakeHeadlines{"Varejo cresce 5%"})

	trends, err := g.GenerateTrends(context.Background(), "varejo")
	require.NoError(t, err)
	assert.Equal(t, []string{"IA no varejo", "Pix parcelado"}, trends)
	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], `"varejo"`)
	assert.Contains(t, p.prompts[0], "Varejo cresce 5%")
	assert.Contains(t, p.prompts[0], "Brazilian Portuguese")
}

func TestGenerateTrendsProviderError(t *testing.T) {
	cause := errors.New("401 invalid x-api-key")
	g := NewGenerator(&fakeProvider{err: cause}, "", 0, nil)
	trends, err := g.GenerateTrends(context.Background(), "x")
	require.ErrorIs(t, err, cause)
	assert.Equal(t, "researching trends: 401 invalid x-api-key", err.Error())
	assert.Nil(t, trends)
}

func TestGenerateTrendsUnparseableYieldsEmpty(t *testing.T) {
	g := NewGenerator(&fakeProvider{reply: "I can't help with that"}, "", 0, nil)
	trends, err := g.GenerateTrends(context.Background(), "x")
	require.NoError(t, err)
	assert.NotNil(t, trends)
	assert.Empty(t, trends)
}

func TestGenerateWithoutProvider(t *testing.T) {
	g := NewGenerator(nil, "", 0, nil)
	_, err := g.GenerateTrends(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoProvider)
	_, err = g.GenerateArticle(context.Background(), "x", nil, nil)
	assert.ErrorIs(t, err, ErrNoProvider)

	q, err := g.PickImageQuery(context.Background(), "topic")
	require.NoError(t, err)
	assert.Equal(t, "topic", q)
}

func TestGenerateKeywordsShapes(t *testing.T) {
	for _, reply := range []string{
		`{"keywords": ["a", "b"]}`,
		`["a", "b"]`,
		`{"list": ["a", "b"]}`,
	} {
		g := NewGenerator(&fakeProvider{reply: reply}, "", 0, nil)
		kw, err := g.GenerateKeywords(context.Background(), "topic")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, kw, "reply %s", reply)
	}

	g := NewGenerator(&fakeProvider{reply: "nope"}, "", 0, nil)
	kw, err := g.GenerateKeywords(context.Background(), "topic")
	require.NoError(t, err)
	assert.Empty(t, kw)

	g = NewGenerator(&fakeProvider{err: errors.New("down")}, "", 0, nil)
	_, err = g.GenerateKeywords(context.Background(), "topic")
	assert.Error(t, err)
}

func TestGenerateArticle(t *testing.T) {
	p := &fakeProvider{reply: `{"title": "Pão perfeito", "content": "# Pão perfeito\n\n## Fermentação\n\nTexto **forte**.\n\n[CTA]", "excerpt": "Resumo"}`}
	g := NewGenerator(p, "Brazilian Portuguese", 2048, nil)

	a, err := g.GenerateArticle(context.Background(), "pão", []string{"fermento", "farinha"},
		&CTA{Text: "Encomende", Link: "https://padaria.example/pedido"})
	require.NoError(t, err)

	assert.Equal(t, "Pão perfeito", a.Title)
	assert.Equal(t, "Resumo", a.Excerpt)
	assert.NotContains(t, a.Content, "<h1>")
	assert.Contains(t, a.Content, "<h2>Fermentação</h2>")
	assert.Contains(t, a.Content, "<strong>forte</strong>")
	assert.Contains(t, a.Content, `href="https://padaria.example/pedido"`)
	assert.NotContains(t, a.Content, "[CTA]")
	assert.Contains(t, p.prompts[0], "fermento, farinha")
	assert.Contains(t, p.prompts[0], ctaMarker)
	assert.Equal(t, []int{2048}, p.tokens)
}

func TestGenerateArticleFallbacks(t *testing.T) {
	p := &fakeProvider{reply: `{"content": "Primeiro parágrafo do artigo sobre fermentação natural."}`}
	g := NewGenerator(p, "", 0, nil)

	a, err := g.GenerateArticle(context.Background(), "fermentação", nil, &CTA{Text: "only text"})
	require.NoError(t, err)
	assert.Equal(t, "fermentação", a.Title)
	assert.NotEmpty(t, a.Excerpt)
	assert.LessOrEqual(t, len([]rune(a.Excerpt)), MaxExcerptLength)
	assert.NotContains(t, a.Content, "bloggen-cta", "incomplete CTA is ignored")
	assert.NotContains(t, p.prompts[0], ctaMarker)
}

func TestGenerateArticleInvalidJSON(t *testing.T) {
	g := NewGenerator(&fakeProvider{reply: "Here is your post!"}, "", 0, nil)
	_, err := g.GenerateArticle(context.Background(), "x", nil, nil)
	assert.Error(t, err)
}

func TestPickImageQuery(t *testing.T) {
	g := NewGenerator(&fakeProvider{reply: ` "fresh bread" `}, "", 0, nil)
	q, err := g.PickImageQuery(context.Background(), "pão")
	require.NoError(t, err)
	assert.Equal(t, "fresh bread", q)

	g = NewGenerator(&fakeProvider{reply: "  "}, "", 0, nil)
	q, _ = g.PickImageQuery(context.Background(), "pão")
	assert.Equal(t, "pão", q)

	g = NewGenerator(&fakeProvider{err: errors.New("x")}, "", 0, nil)
	q, _ = g.PickImageQuery(context.Background(), "pão")
	assert.Equal(t, "pão", q)
}

func TestGenerateArticlePromptMentionsLanguage(t *testing.T) {
	p := &fakeProvider{reply: `{"title": "t", "content": "c"}`}
	g := NewGenerator(p, "English", 0, nil)
	_, err := g.GenerateArticle(context.Background(), "topic", nil, nil)
	require.NoError(t, err)
	assert.True(t, strings.Contains(p.prompts[0], "in English about"))
}
