package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityIdentical(t *testing.T) {
	for _, s := range []string{"marketing", "SEO para pequenas empresas", "  spaced   out  words "} {
		assert.Equal(t, 1.0, Similarity(s, s), "similarity(%q, %q)", s, s)
	}
}

func TestSimilarityDisjoint(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("marketing digital", "receitas veganas"))
	assert.Equal(t, 0.0, Similarity("alpha", ""))
}

func TestSimilarityBothEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("   ", "\t\n"))
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"marketing digital 2025", "tendências de marketing digital"},
		{"", ""},
		{"a b c", "c d"},
		{"Inteligência Artificial", "inteligência artificial no varejo"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "pair %v", p)
	}
}

func TestSimilarityCaseAndSetSemantics(t *testing.T) {
	// {marketing, digital} vs {marketing, digital}: repeats collapse.
	assert.Equal(t, 1.0, Similarity("Marketing marketing DIGITAL", "marketing digital"))

	// {a, b, c} vs {b, c, d}: 2 shared of 4 total.
	assert.InDelta(t, 0.5, Similarity("a b c", "b c d"), 1e-9)
}
