package content

import (
	"bytes"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

const (
	ctaMarker = "[CTA]"
	// ctaSlot survives markdown rendering untouched.
	ctaSlot = "BLOGGENCTASLOT"

	// MaxExcerptLength bounds derived excerpts, in characters.
	MaxExcerptLength = 160
)

var (
	ctaBlock = regexp.MustCompile(`(?s)\[CTA\].*?\[/CTA\]`)
	spaces   = regexp.MustCompile(`\s+`)

	// Raw HTML in model output is passed through.
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
	)

	excerptBase = &url.URL{Scheme: "https", Host: "localhost", Path: "/"}
)

const ctaTemplate = `<div class="bloggen-cta" style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 30px; margin: 40px 0; border-radius: 12px; text-align: center;">` +
	`<a href="%s" target="_blank" rel="noopener noreferrer" style="display: inline-block; background: #ffffff; color: #667eea; padding: 16px 32px; text-decoration: none; border-radius: 8px; font-weight: 700; font-size: 18px;">%s</a>` +
	`</div>`

// CTAHTML renders the call-to-action button block.
func CTAHTML(cta CTA) string {
	return fmt.Sprintf(ctaTemplate, html.EscapeString(cta.Link), html.EscapeString(cta.Text))
}

// RenderBody converts a Markdown (or HTML) body to HTML. A leading <h1> that
// repeats the title is dropped. With a CTA, the [CTA] marker (or a
// [CTA]...[/CTA] block) is replaced by the button, which is appended when the
// model left no marker. Without a CTA, markers are removed.
func RenderBody(body, title string, cta *CTA) (string, error) {
	body = ctaBlock.ReplaceAllString(body, ctaMarker)
	if cta != nil {
		if !strings.Contains(body, ctaMarker) {
			body = strings.TrimRight(body, "\n") + "\n\n" + ctaMarker
		}
		body = strings.ReplaceAll(body, ctaMarker, "\n\n"+ctaSlot+"\n\n")
	} else {
		body = strings.ReplaceAll(body, ctaMarker, "")
		body = strings.ReplaceAll(body, "[/CTA]", "")
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return "", fmt.Errorf("parsing rendered html: %w", err)
	}

	first := doc.Find("body").Children().First()
	if goquery.NodeName(first) == "h1" && strings.EqualFold(normalize(first.Text()), normalize(title)) {
		first.Remove()
	}

	if cta != nil {
		block := CTAHTML(*cta)
		doc.Find("p").Each(func(_ int, p *goquery.Selection) {
			if strings.TrimSpace(p.Text()) == ctaSlot {
				p.ReplaceWithHtml(block)
			}
		})
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("serializing html: %w", err)
	}
	if cta != nil {
		out = strings.ReplaceAll(out, ctaSlot, CTAHTML(*cta))
	}
	return strings.TrimSpace(out), nil
}

// DeriveExcerpt extracts a plain-text summary of an HTML body, capped at
// MaxExcerptLength characters.
func DeriveExcerpt(bodyHTML, title string) string {
	page := "<html><head><title>" + html.EscapeString(title) + "</title></head><body><article>" +
		bodyHTML + "</article></body></html>"

	var text string
	if article, err := readability.FromReader(strings.NewReader(page), excerptBase); err == nil {
		text = article.TextContent
	}
	if strings.TrimSpace(text) == "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(bodyHTML)); err == nil {
			doc.Find(".bloggen-cta, h1, h2, h3").Remove()
			text = doc.Text()
		}
	}
	return truncate(normalize(text), MaxExcerptLength)
}

func normalize(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// truncate cuts s to at most max characters, preferring a word boundary.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:max-3])
	if i := strings.LastIndex(cut, " "); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}
