package automation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Guidantas28/blog-generator/internal/database"
	"github.com/Guidantas28/blog-generator/internal/wordpress"
)

// ErrTopicRequired rejects a manual post with neither a topic nor a
// category to research one from.
var ErrTopicRequired = errors.New("a topic or a business category is required")

// PublishRequest asks for one post outside any schedule.
type PublishRequest struct {
	UserID string
	SiteID string
	// Topic is written as given. When empty a topic is researched for
	// Category and picked against the site's history.
	Topic    string
	Category string
	// Draft keeps the post unpublished.
	Draft bool
}

// PublishResult reports a manual post.
type PublishResult struct {
	Title       string      `json:"title"`
	Status      string      `json:"status"`
	Topic       string      `json:"topic"`
	PostID      string      `json:"postId"`
	WordPressID int64       `json:"wordpressPostId"`
	Diagnostics Diagnostics `json:"-"`
}

// Publish writes one post for a site now and records it in the published
// store, so later scheduled runs treat its topic as already covered. It does
// not create an execution and may run alongside RunDue.
func (r *Runner) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	topic := strings.TrimSpace(req.Topic)
	category := strings.TrimSpace(req.Category)
	if topic == "" && category == "" {
		return nil, ErrTopicRequired
	}

	status := wordpress.StatusPublish
	if req.Draft {
		status = wordpress.StatusDraft
	}
	log := r.logger.With("site_id", req.SiteID, "manual", true)
	res := &PublishResult{Status: status}

	site, pub, err := r.openSite(ctx, req.SiteID)
	if err != nil {
		return nil, err
	}
	userID := req.UserID
	if userID == "" {
		userID = site.UserID
	}

	var trendSource *string
	if topic == "" {
		topic, err = r.researchTopic(ctx, site.ID, category, &res.Diagnostics, log)
		if err != nil {
			return nil, err
		}
		trendSource = &topic
	}
	res.Topic = topic
	res.Diagnostics.Topic = topic

	title, err := r.write(ctx, site, pub, draft{
		userID:      userID,
		category:    category,
		topic:       topic,
		status:      status,
		store:       database.PublishedPosts,
		trendSource: trendSource,
	}, &res.Diagnostics, log)
	if err != nil {
		return nil, fmt.Errorf("publishing %q: %w", topic, err)
	}

	res.Title = title
	res.PostID = res.Diagnostics.PostID
	res.WordPressID = res.Diagnostics.WordPressPostID
	log.Info("manual post created", "title", title, "status", status, "wordpress_post_id", res.WordPressID)
	return res, nil
}
