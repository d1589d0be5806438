// Package content asks an LLM for trend ideas, keywords, articles and image
// queries, and turns the answers into publishable HTML.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Guidantas28/blog-generator/internal/llm"
)

const (
	trendsPrompt = `You are a digital marketing specialist who tracks content trends.

Business category: "%s"
%s
Identify the 5 most relevant trending topics right now that would make good blog posts for this business. Consider current market trends, topics that drive engagement, and subjects the target audience searches for.

Write every topic in %s.

Respond with ONLY this JSON:
{"trends": ["Topic 1", "Topic 2", "Topic 3", "Topic 4", "Topic 5"]}`

	keywordsPrompt = `You are an SEO specialist.

Generate 10 SEO keywords for a blog post about "%s". Mix short and long-tail keywords with good search volume. Write them in %s.

Respond with ONLY this JSON:
{"keywords": ["keyword 1", "keyword 2"]}`

	articlePrompt = `You are an expert blog writer focused on SEO and digital marketing.

Write a complete, professional blog post in %s about "%s".

Keywords to include naturally: %s

Requirements:
- An attractive, SEO-optimized title
- Well-structured body with ## and ### subheadings
- Clear, informative paragraphs
- A conclusion section
%s
Write the body in Markdown. Do not repeat the title as a heading.

Respond with ONLY this JSON:
{
    "title": "Post title",
    "content": "Full post body in Markdown",
    "excerpt": "Short summary of at most 150 characters"
}`

	ctaInstruction = "- End the post with a line containing only " + ctaMarker + " where the call to action goes\n"

	imageQueryPrompt = `Suggest a short image search phrase (at most 3 words, in English) for a blog post about "%s".

Reply with only the phrase, no quotes and no explanation.`
)

const (
	trendsMaxTokens     = 500
	keywordsMaxTokens   = 300
	imageQueryMaxTokens = 20
)

// ErrNoProvider is returned when generation is requested without an LLM.
var ErrNoProvider = errors.New("no LLM provider configured")

// CTA is a call to action appended to generated articles.
type CTA struct {
	Text string
	Link string
}

// Article is a generated blog post ready to publish.
type Article struct {
	Title   string
	Content string
	Excerpt string
}

// HeadlineSource supplies recent headlines used as research context.
type HeadlineSource interface {
	Headlines(ctx context.Context, query string) []string
}

// Generator produces blog content with an LLM.
type Generator struct {
	provider  llm.Provider
	language  string
	maxTokens int
	headlines HeadlineSource
	logger    *slog.Logger
}

// NewGenerator creates a generator writing in the given language.
func NewGenerator(provider llm.Provider, language string, maxTokens int, logger *slog.Logger) *Generator {
	if language == "" {
		language = "Brazilian Portuguese"
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{provider: provider, language: language, maxTokens: maxTokens, logger: logger}
}

// SetHeadlineSource attaches optional news context for trend research.
func (g *Generator) SetHeadlineSource(h HeadlineSource) {
	g.headlines = h
}

// GenerateTrends returns trending topics for a business category. An
// unparseable answer yields an empty list.
func (g *Generator) GenerateTrends(ctx context.Context, category string) ([]string, error) {
	if g.provider == nil {
		return nil, ErrNoProvider
	}

	var news string
	if g.headlines != nil {
		if lines := g.headlines.Headlines(ctx, category); len(lines) > 0 {
			news = "\nRecent headlines for this category:\n- " + strings.Join(lines, "\n- ") + "\n"
		}
	}

	prompt := fmt.Sprintf(trendsPrompt, category, news, g.language)
	resp, err := g.provider.Generate(ctx, prompt, trendsMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("researching trends: %w", err)
	}

	trends := llm.StringList(llm.ParseJSONValue(resp), "trends")
	if trends == nil {
		g.logger.Warn("trend research returned no usable list", "category", category)
		return []string{}, nil
	}
	return trends, nil
}

// GenerateKeywords returns SEO keywords for a topic. An unparseable answer
// yields an empty list.
func (g *Generator) GenerateKeywords(ctx context.Context, topic string) ([]string, error) {
	if g.provider == nil {
		return nil, ErrNoProvider
	}

	resp, err := g.provider.Generate(ctx, fmt.Sprintf(keywordsPrompt, topic, g.language), keywordsMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generating keywords: %w", err)
	}

	keywords := llm.StringList(llm.ParseJSONValue(resp), "keywords")
	if keywords == nil {
		g.logger.Warn("keyword response not parseable", "topic", topic)
		return []string{}, nil
	}
	return keywords, nil
}

// GenerateArticle writes a full post. The title falls back to the topic and
// the CTA, when complete, is rendered as a button block.
func (g *Generator) GenerateArticle(ctx context.Context, topic string, keywords []string, cta *CTA) (Article, error) {
	if g.provider == nil {
		return Article{}, ErrNoProvider
	}
	if cta != nil && (strings.TrimSpace(cta.Text) == "" || strings.TrimSpace(cta.Link) == "") {
		cta = nil
	}

	var extra string
	if cta != nil {
		extra = ctaInstruction
	}
	prompt := fmt.Sprintf(articlePrompt, g.language, topic, strings.Join(keywords, ", "), extra)

	resp, err := g.provider.Generate(ctx, prompt, g.maxTokens)
	if err != nil {
		return Article{}, fmt.Errorf("generating article: %w", err)
	}

	parsed := llm.ParseJSONResponse(resp)
	if parsed == nil {
		return Article{}, fmt.Errorf("article response is not valid JSON")
	}

	title := strings.TrimSpace(stringField(parsed, "title"))
	if title == "" {
		title = topic
	}

	body, err := RenderBody(stringField(parsed, "content"), title, cta)
	if err != nil {
		return Article{}, err
	}

	excerpt := strings.TrimSpace(stringField(parsed, "excerpt"))
	if excerpt == "" {
		excerpt = DeriveExcerpt(body, title)
	}

	return Article{Title: title, Content: body, Excerpt: excerpt}, nil
}

// PickImageQuery returns a short stock-photo search phrase for a topic,
// falling back to the topic itself.
func (g *Generator) PickImageQuery(ctx context.Context, topic string) (string, error) {
	if g.provider == nil {
		return topic, nil
	}
	resp, err := g.provider.Generate(ctx, fmt.Sprintf(imageQueryPrompt, topic), imageQueryMaxTokens)
	if err != nil {
		g.logger.Warn("image query selection failed", "topic", topic, "error", err)
		return topic, nil
	}
	query := strings.Trim(strings.TrimSpace(resp), `"'`)
	if query == "" {
		return topic, nil
	}
	return query, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
