package dedup

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

const (
	// DefaultThreshold is the similarity at or above which a post counts as similar.
	DefaultThreshold = 0.5
	// DefaultHistoryLimit is how many recent posts are read from each source.
	DefaultHistoryLimit = 50
)

// HistoricalPost is the read-only projection of a previously produced post.
type HistoricalPost struct {
	Title     string    `json:"title"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"created_at"`
}

// HistorySource yields the most recent posts of one store for a site,
// newest first.
type HistorySource interface {
	RecentPosts(ctx context.Context, siteID string, limit int) ([]HistoricalPost, error)
}

// CheckResult is the outcome of a duplicate check. SimilarPosts lists every
// matching historical post.
type CheckResult struct {
	IsDuplicate  bool             `json:"isDuplicate"`
	SimilarPosts []HistoricalPost `json:"similarPosts"`
}

// Checker compares candidates against the post history of a site.
type Checker struct {
	sources []HistorySource
	limit   int
	logger  *slog.Logger
}

// NewChecker creates a checker reading from all given sources. Posts are
// combined across sources without cross-source deduplication.
func NewChecker(logger *slog.Logger, sources ...HistorySource) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{sources: sources, limit: DefaultHistoryLimit, logger: logger}
}

// SetHistoryLimit changes the per-source history window.
func (c *Checker) SetHistoryLimit(limit int) {
	if limit > 0 {
		c.limit = limit
	}
}

// CheckDuplicateTopic reports whether topic (or title, when non-empty) is at
// least threshold-similar to any recent post of the site. A history read
// failure is treated as "not duplicate" so generation is never blocked.
func (c *Checker) CheckDuplicateTopic(ctx context.Context, siteID, topic, title string, threshold float64) CheckResult {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	history, err := c.history(ctx, siteID)
	if err != nil {
		c.logger.Warn("reading post history failed, treating as not duplicate",
			"site_id", siteID, "error", err)
		return CheckResult{SimilarPosts: []HistoricalPost{}}
	}

	similar := []HistoricalPost{}
	title = strings.TrimSpace(title)
	for _, post := range history {
		topicScore := Similarity(topic, post.Topic)

		var titleScore float64
		if title != "" && strings.TrimSpace(post.Title) != "" {
			titleScore = Similarity(title, post.Title)
		}

		if topicScore >= threshold || titleScore >= threshold {
			similar = append(similar, post)
		}
	}

	return CheckResult{IsDuplicate: len(similar) > 0, SimilarPosts: similar}
}

// FilterDuplicateTrends returns the trends that are not duplicates, in input order.
func (c *Checker) FilterDuplicateTrends(ctx context.Context, siteID string, trends []string, threshold float64) []string {
	kept := make([]string, 0, len(trends))
	for _, trend := range trends {
		if !c.CheckDuplicateTopic(ctx, siteID, trend, "", threshold).IsDuplicate {
			kept = append(kept, trend)
		}
	}
	return kept
}

func (c *Checker) history(ctx context.Context, siteID string) ([]HistoricalPost, error) {
	var all []HistoricalPost
	for _, src := range c.sources {
		posts, err := src.RecentPosts(ctx, siteID, c.limit)
		if err != nil {
			return nil, err
		}
		all = append(all, posts...)
	}
	return all, nil
}
