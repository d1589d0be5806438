// Package trends gathers recent news headlines used as context for trend research.
package trends

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// DefaultMaxHeadlines caps the headlines returned per query.
const DefaultMaxHeadlines = 10

const queryPlaceholder = "{query}"

// FeedSource reads headlines from RSS/Atom feed URL templates. A template
// may contain "{query}", replaced by the escaped search query.
type FeedSource struct {
	templates []string
	max       int
	parser    *gofeed.Parser
	logger    *slog.Logger
}

// NewFeedSource creates a feed source over the given templates.
func NewFeedSource(templates []string, maxHeadlines int, logger *slog.Logger) *FeedSource {
	if maxHeadlines <= 0 {
		maxHeadlines = DefaultMaxHeadlines
	}
	if logger == nil {
		logger = slog.Default()
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 15 * time.Second}
	parser.UserAgent = "bloggen/1.0 (trend research)"
	return &FeedSource{templates: templates, max: maxHeadlines, parser: parser, logger: logger}
}

// Headlines returns up to the configured number of distinct headlines, in
// feed order. Feeds that fail are logged and skipped.
func (f *FeedSource) Headlines(ctx context.Context, query string) []string {
	seen := make(map[string]struct{})
	var out []string

	for _, tpl := range f.templates {
		if len(out) >= f.max {
			break
		}
		feedURL := strings.ReplaceAll(tpl, queryPlaceholder, url.QueryEscape(query))

		feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			f.logger.Warn("failed to parse feed", "url", feedURL, "error", err)
			continue
		}

		for _, item := range feed.Items {
			if len(out) >= f.max {
				break
			}
			title := strings.Join(strings.Fields(item.Title), " ")
			if title == "" {
				continue
			}
			key := strings.ToLower(title)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, title)
		}
	}

	f.logger.Debug("collected headlines", "query", query, "count", len(out))
	return out
}
