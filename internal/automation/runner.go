// Package automation decides which automations are due and runs the
// research, writing and publishing pipeline for each of them.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Guidantas28/blog-generator/internal/content"
	"github.com/Guidantas28/blog-generator/internal/database"
	"github.com/Guidantas28/blog-generator/internal/dedup"
	"github.com/Guidantas28/blog-generator/internal/metrics"
	"github.com/Guidantas28/blog-generator/internal/secrets"
	"github.com/Guidantas28/blog-generator/internal/wordpress"
)

var (
	// ErrNoTrends fails an execution whose research produced nothing.
	ErrNoTrends = errors.New("no trends found")
	// ErrRunInProgress is returned when a pass is already running in this process.
	ErrRunInProgress = errors.New("an automation run is already in progress")
)

const (
	defaultCategory = "Blog"
	imageMIME       = "image/jpeg"
)

// Store is the persistence the runner needs.
type Store interface {
	ListAutomations(ctx context.Context) ([]database.AutomationSetting, error)
	LastCompletedExecution(ctx context.Context, automationID string) (*database.Execution, error)
	CreateExecution(ctx context.Context, automationID, userID, siteID string) (*database.Execution, error)
	CompleteExecution(ctx context.Context, id, postID string) error
	FailExecution(ctx context.Context, id, message string) error
	GetSite(ctx context.Context, id string) (*database.Site, error)
	GetUserSettings(ctx context.Context, userID string) (*database.UserSettings, error)
	InsertPost(ctx context.Context, store database.PostStore, p database.Post) (string, error)
}

// TrendResearcher proposes candidate topics for a business category.
type TrendResearcher interface {
	GenerateTrends(ctx context.Context, category string) ([]string, error)
}

// ContentGenerator writes the post for a chosen topic.
type ContentGenerator interface {
	GenerateKeywords(ctx context.Context, topic string) ([]string, error)
	GenerateArticle(ctx context.Context, topic string, keywords []string, cta *content.CTA) (content.Article, error)
	PickImageQuery(ctx context.Context, topic string) (string, error)
}

// ImageFinder searches and downloads featured images.
type ImageFinder interface {
	Search(ctx context.Context, query string, count int) ([]string, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Publisher is a WordPress site session.
type Publisher interface {
	CreatePost(ctx context.Context, p wordpress.NewPost) (wordpress.CreatedPost, error)
	UploadMedia(ctx context.Context, filename string, data []byte, contentType string) (int64, error)
	GetOrCreateCategory(ctx context.Context, name string) (int64, error)
	UpdateSEOMeta(ctx context.Context, postID int64, meta wordpress.SEOMeta) error
}

// PublisherFactory opens a session for a site with its decrypted password.
type PublisherFactory func(site *database.Site, password string) (Publisher, error)

// Decrypter opens stored site passwords.
type Decrypter interface {
	Decrypt(stored string) (string, error)
}

// WordPressPublishers is the production PublisherFactory.
func WordPressPublishers(site *database.Site, password string) (Publisher, error) {
	c, err := wordpress.NewClient(site.URL, site.Username, password)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Options tunes the pipeline.
type Options struct {
	SimilarityThreshold float64
	MaxSelectAttempts   int
	ImageSearchCount    int
}

// Deps are the collaborators of a Runner. Store, Checker, Trends, Content,
// Images and Publishers are required.
type Deps struct {
	Store      Store
	Checker    *dedup.Checker
	Trends     TrendResearcher
	Content    ContentGenerator
	Images     ImageFinder
	Publishers PublisherFactory
	Decrypter  Decrypter
	Clock      func() time.Time
	Rand       *rand.Rand
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Options    Options
}

// Runner executes due automations, one pass at a time.
type Runner struct {
	store      Store
	checker    *dedup.Checker
	trends     TrendResearcher
	content    ContentGenerator
	images     ImageFinder
	publishers PublisherFactory
	decrypter  Decrypter
	now        func() time.Time
	rng        *rand.Rand
	logger     *slog.Logger
	metrics    *metrics.Metrics
	opts       Options

	mu    sync.Mutex
	rngMu sync.Mutex
}

// NewRunner creates a runner, filling defaults for optional dependencies.
func NewRunner(d Deps) *Runner {
	r := &Runner{
		store:      d.Store,
		checker:    d.Checker,
		trends:     d.Trends,
		content:    d.Content,
		images:     d.Images,
		publishers: d.Publishers,
		decrypter:  d.Decrypter,
		now:        d.Clock,
		rng:        d.Rand,
		logger:     d.Logger,
		metrics:    d.Metrics,
		opts:       d.Options,
	}
	if r.decrypter == nil {
		r.decrypter = legacyDecrypter{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.opts.SimilarityThreshold <= 0 {
		r.opts.SimilarityThreshold = dedup.DefaultThreshold
	}
	if r.opts.MaxSelectAttempts <= 0 {
		r.opts.MaxSelectAttempts = dedup.DefaultMaxAttempts
	}
	if r.opts.ImageSearchCount <= 0 {
		r.opts.ImageSearchCount = 5
	}
	return r
}

type legacyDecrypter struct{}

func (legacyDecrypter) Decrypt(stored string) (string, error) { return secrets.DecodeLegacy(stored) }

// RunDue runs every due automation once. Only failing to list automations
// aborts the pass; each automation's failure is recorded on its execution
// and in the result.
func (r *Runner) RunDue(ctx context.Context) (*RunResult, error) {
	if !r.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()

	start := r.now()
	defer func() { r.metrics.RecordRun(r.now().Sub(start).Seconds()) }()

	configs, err := r.store.ListAutomations(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing automations: %w", err)
	}

	res := &RunResult{Details: []Detail{}}
	if len(configs) == 0 {
		res.Message = MessageNoAutomations
		return res, nil
	}

	for _, cfg := range configs {
		log := r.logger.With("automation_id", cfg.ID, "site_id", cfg.SiteID)

		due, err := r.isDue(ctx, cfg)
		if err != nil {
			log.Error("checking due date failed", "error", err)
			res.Processed++
			res.Failed++
			res.Details = append(res.Details, Detail{
				AutomationID: cfg.ID,
				SiteID:       cfg.SiteID,
				Status:       DetailError,
				Message:      err.Error(),
			})
			continue
		}
		if !due {
			log.Debug("automation not due")
			continue
		}

		res.Processed++
		detail := r.runOne(ctx, cfg, log)
		if detail.Status == DetailSuccess {
			res.Succeeded++
		} else {
			res.Failed++
		}
		res.Details = append(res.Details, detail)
	}

	res.Message = MessageDone
	r.logger.Info("automation pass finished",
		"processed", res.Processed, "succeeded", res.Succeeded, "failed", res.Failed)
	return res, nil
}

func (r *Runner) isDue(ctx context.Context, cfg database.AutomationSetting) (bool, error) {
	last, err := r.store.LastCompletedExecution(ctx, cfg.ID)
	if errors.Is(err, database.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading last execution: %w", err)
	}
	return ShouldRun(Frequency(cfg.Frequency), &last.StartedAt, r.now()), nil
}

func (r *Runner) runOne(ctx context.Context, cfg database.AutomationSetting, log *slog.Logger) Detail {
	start := r.now()
	detail := Detail{AutomationID: cfg.ID, SiteID: cfg.SiteID}

	exec, err := r.store.CreateExecution(ctx, cfg.ID, cfg.UserID, cfg.SiteID)
	if err != nil {
		log.Error("creating execution failed", "error", err)
		detail.Status = DetailError
		detail.Message = fmt.Sprintf("creating execution: %v", err)
		r.metrics.RecordExecution(string(database.StatusFailed), r.now().Sub(start).Seconds())
		return detail
	}
	detail.Diagnostics.ExecutionID = exec.ID
	log = log.With("execution_id", exec.ID)

	// Terminal writes must land even when the trigger's context is gone.
	finalCtx := context.WithoutCancel(ctx)

	title, err := r.pipeline(ctx, cfg, &detail.Diagnostics, log)
	if err == nil {
		err = r.store.CompleteExecution(finalCtx, exec.ID, detail.Diagnostics.PostID)
		if err != nil {
			err = fmt.Errorf("completing execution: %w", err)
		}
	}
	if err != nil {
		log.Error("automation failed", "error", err)
		if ferr := r.store.FailExecution(finalCtx, exec.ID, err.Error()); ferr != nil {
			log.Error("recording failure failed", "error", ferr)
		}
		detail.Status = DetailError
		detail.Message = err.Error()
		r.metrics.RecordExecution(string(database.StatusFailed), r.now().Sub(start).Seconds())
		return detail
	}

	log.Info("post created", "title", title, "wordpress_post_id", detail.Diagnostics.WordPressPostID)
	detail.Status = DetailSuccess
	detail.Message = "post created: " + title
	r.metrics.RecordExecution(string(database.StatusCompleted), r.now().Sub(start).Seconds())
	return detail
}

// pipeline produces one draft post and returns its title.
func (r *Runner) pipeline(ctx context.Context, cfg database.AutomationSetting, diag *Diagnostics, log *slog.Logger) (string, error) {
	site, pub, err := r.openSite(ctx, cfg.SiteID)
	if err != nil {
		return "", err
	}

	topic, err := r.researchTopic(ctx, cfg.SiteID, cfg.BusinessCategory, diag, log)
	if err != nil {
		return "", err
	}

	return r.write(ctx, site, pub, draft{
		userID:      cfg.UserID,
		category:    cfg.BusinessCategory,
		topic:       topic,
		status:      wordpress.StatusDraft,
		store:       database.AutomatedPosts,
		trendSource: &topic,
	}, diag, log)
}

// openSite loads a site and opens a WordPress session with its password.
func (r *Runner) openSite(ctx context.Context, siteID string) (*database.Site, Publisher, error) {
	site, err := r.store.GetSite(ctx, siteID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading site: %w", err)
	}
	password, err := r.decrypter.Decrypt(site.PasswordEncrypted)
	if err != nil {
		return nil, nil, fmt.Errorf("decrypting site credentials: %w", err)
	}
	pub, err := r.publishers(site, password)
	if err != nil {
		return nil, nil, fmt.Errorf("opening WordPress session: %w", err)
	}
	return site, pub, nil
}

// researchTopic asks for trends in a category and picks one that avoids
// the site's history where possible.
func (r *Runner) researchTopic(ctx context.Context, siteID, category string, diag *Diagnostics, log *slog.Logger) (string, error) {
	trends, err := r.trends.GenerateTrends(ctx, category)
	if err != nil {
		return "", err
	}
	if len(trends) == 0 {
		return "", ErrNoTrends
	}

	topic := r.selectTopic(ctx, siteID, trends, diag, log)
	diag.Topic = topic
	return topic, nil
}

// draft describes the post write shares between scheduled and manual posts.
type draft struct {
	userID      string
	category    string
	topic       string
	status      string
	store       database.PostStore
	trendSource *string
}

// write generates the article for d.topic, sends it to WordPress and records
// it in d.store. It returns the article title.
func (r *Runner) write(ctx context.Context, site *database.Site, pub Publisher, d draft, diag *Diagnostics, log *slog.Logger) (string, error) {
	keywords, err := r.content.GenerateKeywords(ctx, d.topic)
	if err != nil {
		return "", err
	}
	article, err := r.content.GenerateArticle(ctx, d.topic, keywords, r.resolveCTA(ctx, d.userID, site, diag, log))
	if err != nil {
		return "", err
	}

	titleCheck := r.checker.CheckDuplicateTopic(ctx, site.ID, d.topic, article.Title, r.opts.SimilarityThreshold)
	if titleCheck.IsDuplicate {
		log.Warn("generated title resembles existing posts", "title", article.Title, "similar", len(titleCheck.SimilarPosts))
		r.metrics.RecordAdvisoryDuplicate()
		diag.add(Event{
			Kind:         EventTitleDuplicate,
			Step:         "title_check",
			Message:      fmt.Sprintf("title %q resembles %d existing posts", article.Title, len(titleCheck.SimilarPosts)),
			SimilarPosts: titleCheck.SimilarPosts,
		})
	}

	image := r.findImage(ctx, d.topic)
	r.note(diag, log, "image_search", image.Warning)

	var mediaID int64
	if image.Value != "" {
		media := r.uploadImage(ctx, pub, image.Value)
		r.note(diag, log, "image_upload", media.Warning)
		mediaID = media.Value
	}

	category := r.resolveCategory(ctx, pub, d.category, keywords)
	r.note(diag, log, "category", category.Warning)

	post := wordpress.NewPost{
		Title:         article.Title,
		Content:       article.Content,
		Excerpt:       article.Excerpt,
		Status:        d.status,
		FeaturedMedia: mediaID,
	}
	if category.OK() && category.Value != 0 {
		post.Categories = []int64{category.Value}
	}
	created, err := pub.CreatePost(ctx, post)
	if err != nil {
		return "", err
	}
	diag.WordPressPostID = created.ID

	seo := r.updateSEO(ctx, pub, created.ID, article, keywords)
	r.note(diag, log, "seo_meta", seo.Warning)

	row := database.Post{
		UserID:           d.userID,
		SiteID:           site.ID,
		Topic:            d.topic,
		Title:            article.Title,
		Content:          article.Content,
		Excerpt:          article.Excerpt,
		Keywords:         keywords,
		WordPressPostID:  created.ID,
		WordPressPostURL: created.Link,
		Status:           d.status,
		TrendSource:      d.trendSource,
	}
	if image.Value != "" {
		row.ImageURL = &image.Value
	}
	postID, err := r.store.InsertPost(ctx, d.store, row)
	if err != nil {
		return "", fmt.Errorf("saving post (WordPress post %d was created): %w", created.ID, err)
	}
	diag.PostID = postID

	return article.Title, nil
}

// selectTopic filters researched trends against history and picks one,
// retrying a bounded number of times to avoid duplicates.
func (r *Runner) selectTopic(ctx context.Context, siteID string, trends []string, diag *Diagnostics, log *slog.Logger) string {
	threshold := r.opts.SimilarityThreshold

	working := r.checker.FilterDuplicateTrends(ctx, siteID, trends, threshold)
	if len(working) == 0 {
		log.Warn("all trends resemble previous posts, using unfiltered list", "trends", len(trends))
		diag.add(Event{Kind: EventAllTrendsDuplicate, Step: "filter", Message: "all researched trends resemble previous posts"})
		working = trends
	}

	isDuplicate := func(trend string) bool {
		return r.checker.CheckDuplicateTopic(ctx, siteID, trend, "", threshold).IsDuplicate
	}
	r.rngMu.Lock()
	sel := dedup.SelectNonDuplicate(working, isDuplicate, r.opts.MaxSelectAttempts, r.rng)
	r.rngMu.Unlock()
	diag.Selection = sel

	if sel.Forced {
		log.Warn("proceeding with a duplicate trend", "trend", sel.Selected, "attempts", sel.Attempts)
		r.metrics.RecordForcedSelection()
		diag.add(Event{Kind: EventForcedDuplicate, Step: "select", Message: fmt.Sprintf("trend %q resembles previous posts", sel.Selected)})
	}
	return sel.Selected
}

// resolveCTA prefers the site's CTA, then the user's default. Only complete
// pairs are used.
func (r *Runner) resolveCTA(ctx context.Context, userID string, site *database.Site, diag *Diagnostics, log *slog.Logger) *content.CTA {
	if cta := ctaFrom(site.CTAText, site.CTALink); cta != nil {
		return cta
	}
	settings, err := r.store.GetUserSettings(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		r.note(diag, log, "cta", fmt.Errorf("reading user settings: %w", err))
		return nil
	}
	return ctaFrom(settings.DefaultCTAText, settings.DefaultCTALink)
}

func ctaFrom(text, link *string) *content.CTA {
	if text == nil || link == nil || strings.TrimSpace(*text) == "" || strings.TrimSpace(*link) == "" {
		return nil
	}
	return &content.CTA{Text: *text, Link: *link}
}

func (r *Runner) findImage(ctx context.Context, topic string) Outcome[string] {
	query, err := r.content.PickImageQuery(ctx, topic)
	if err != nil || strings.TrimSpace(query) == "" {
		query = topic
	}
	urls, err := r.images.Search(ctx, query, r.opts.ImageSearchCount)
	if err != nil {
		return degraded[string](fmt.Errorf("searching images for %q: %w", query, err))
	}
	if len(urls) == 0 {
		return success("")
	}
	return success(urls[0])
}

func (r *Runner) uploadImage(ctx context.Context, pub Publisher, url string) Outcome[int64] {
	data, err := r.images.Download(ctx, url)
	if err != nil {
		return degraded[int64](err)
	}
	filename := fmt.Sprintf("blog-image-%d.jpg", r.now().UnixMilli())
	id, err := pub.UploadMedia(ctx, filename, data, imageMIME)
	if err != nil {
		return degraded[int64](fmt.Errorf("uploading image: %w", err))
	}
	return success(id)
}

func (r *Runner) resolveCategory(ctx context.Context, pub Publisher, businessCategory string, keywords []string) Outcome[int64] {
	id, err := pub.GetOrCreateCategory(ctx, categoryName(businessCategory, keywords))
	if err != nil {
		return degraded[int64](fmt.Errorf("resolving category: %w", err))
	}
	return success(id)
}

// categoryName prefers the business category, then the first keyword.
func categoryName(businessCategory string, keywords []string) string {
	if name := strings.TrimSpace(businessCategory); name != "" {
		return name
	}
	if len(keywords) > 0 && strings.TrimSpace(keywords[0]) != "" {
		return strings.TrimSpace(keywords[0])
	}
	return defaultCategory
}

func (r *Runner) updateSEO(ctx context.Context, pub Publisher, postID int64, article content.Article, keywords []string) Outcome[struct{}] {
	meta := wordpress.SEOMeta{Title: article.Title, Description: article.Excerpt}
	if len(keywords) > 0 {
		meta.FocusKeyword = keywords[0]
	}
	if err := pub.UpdateSEOMeta(ctx, postID, meta); err != nil {
		return degraded[struct{}](err)
	}
	return success(struct{}{})
}

// note records a degraded step, if any.
func (r *Runner) note(diag *Diagnostics, log *slog.Logger, step string, warning error) {
	if warning == nil {
		return
	}
	log.Warn("step degraded, continuing", "step", step, "error", warning)
	r.metrics.RecordWarning(step)
	diag.add(Event{Kind: EventWarning, Step: step, Message: warning.Error()})
}
