// Package pipeline assembles the automation runner from configuration.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Guidantas28/blog-generator/internal/automation"
	"github.com/Guidantas28/blog-generator/internal/config"
	"github.com/Guidantas28/blog-generator/internal/content"
	"github.com/Guidantas28/blog-generator/internal/database"
	"github.com/Guidantas28/blog-generator/internal/dedup"
	"github.com/Guidantas28/blog-generator/internal/images"
	"github.com/Guidantas28/blog-generator/internal/llm"
	"github.com/Guidantas28/blog-generator/internal/metrics"
	"github.com/Guidantas28/blog-generator/internal/secrets"
	"github.com/Guidantas28/blog-generator/internal/trends"
)

// Components are the collaborators wired into a runner, exposed so callers
// can report on them.
type Components struct {
	Provider  llm.Provider
	Generator *content.Generator
	Images    *images.Finder
	Checker   *dedup.Checker
	Cipher    *secrets.Cipher
}

// Build wires a runner over db using cfg. m may be nil.
func Build(cfg *config.Config, db *database.DB, logger *slog.Logger, m *metrics.Metrics) (*automation.Runner, *Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider := llm.CreateProvider(cfg.LLM, logger)
	if provider == nil {
		logger.Warn("no LLM provider available, automations will fail until one is configured")
	}

	gen := content.NewGenerator(provider, cfg.LLM.Language, cfg.LLM.MaxTokens, logger)
	if len(cfg.Trends.Feeds) > 0 {
		gen.SetHeadlineSource(trends.NewFeedSource(cfg.Trends.Feeds, cfg.Trends.MaxHeadlines, logger))
	}

	finder := images.NewFinder(cfg.Images, logger)
	if !finder.IsConfigured() {
		logger.Info("no image API keys configured, posts will have no featured image")
	}

	checker := dedup.NewChecker(logger,
		db.History(database.PublishedPosts),
		db.History(database.AutomatedPosts))
	checker.SetHistoryLimit(cfg.Automation.HistoryLimit)

	cipher, err := OpenCipher(cfg)
	if err != nil && !errors.Is(err, secrets.ErrNoKey) {
		return nil, nil, err
	}

	deps := automation.Deps{
		Store:      db,
		Checker:    checker,
		Trends:     gen,
		Content:    gen,
		Images:     finder,
		Publishers: automation.WordPressPublishers,
		Logger:     logger,
		Metrics:    m,
		Options: automation.Options{
			SimilarityThreshold: cfg.Automation.SimilarityThreshold,
			MaxSelectAttempts:   cfg.Automation.MaxSelectAttempts,
			ImageSearchCount:    cfg.Images.SearchCount,
		},
	}
	// Without a key only legacy base64 passwords can be read.
	if cipher != nil {
		deps.Decrypter = cipher
	}

	comps := &Components{
		Provider:  provider,
		Generator: gen,
		Images:    finder,
		Checker:   checker,
		Cipher:    cipher,
	}
	return automation.NewRunner(deps), comps, nil
}

// OpenCipher builds the site password cipher from the configured key.
// It returns secrets.ErrNoKey when no key is set.
func OpenCipher(cfg *config.Config) (*secrets.Cipher, error) {
	c, err := secrets.NewCipher(cfg.SecretKey())
	if err != nil {
		if errors.Is(err, secrets.ErrNoKey) {
			return nil, err
		}
		return nil, fmt.Errorf("loading secret key from $%s: %w", cfg.Security.SecretKeyEnv, err)
	}
	return c, nil
}
