// Package images searches stock photo APIs and downloads the chosen image.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/Guidantas28/blog-generator/internal/config"
)

const (
	unsplashSearchURL = "https://api.unsplash.com/search/photos"
	pexelsSearchURL   = "https://api.pexels.com/v1/search"

	// MaxDownloadBytes caps a downloaded image.
	MaxDownloadBytes = 15 << 20

	DefaultSearchCount = 5
)

// Finder looks up landscape photos on Unsplash, falling back to Pexels.
type Finder struct {
	unsplashKey string
	pexelsKey   string
	UnsplashURL string
	PexelsURL   string
	client      *http.Client
	logger      *slog.Logger
}

// NewFinder creates a finder reading API keys from the configured env vars.
func NewFinder(cfg config.Images, logger *slog.Logger) *Finder {
	return NewFinderWithKeys(os.Getenv(cfg.UnsplashKeyEnv), os.Getenv(cfg.PexelsKeyEnv), logger)
}

// NewFinderWithKeys creates a finder with explicit keys. Empty keys disable a backend.
func NewFinderWithKeys(unsplashKey, pexelsKey string, logger *slog.Logger) *Finder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{
		unsplashKey: unsplashKey,
		pexelsKey:   pexelsKey,
		UnsplashURL: unsplashSearchURL,
		PexelsURL:   pexelsSearchURL,
		client:      &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

// IsConfigured reports whether any backend has a key.
func (f *Finder) IsConfigured() bool {
	return f.unsplashKey != "" || f.pexelsKey != ""
}

// Search returns up to count image URLs for query. Backend failures degrade
// to the next backend and finally to an empty list.
func (f *Finder) Search(ctx context.Context, query string, count int) ([]string, error) {
	if count <= 0 {
		count = DefaultSearchCount
	}

	if f.unsplashKey != "" {
		urls, err := f.searchUnsplash(ctx, query, count)
		if err == nil {
			return urls, nil
		}
		f.logger.Warn("unsplash search failed, trying pexels", "query", query, "error", err)
	}

	if f.pexelsKey == "" {
		return []string{}, nil
	}
	urls, err := f.searchPexels(ctx, query, count)
	if err != nil {
		f.logger.Warn("pexels search failed", "query", query, "error", err)
		return []string{}, nil
	}
	return urls, nil
}

func (f *Finder) searchUnsplash(ctx context.Context, query string, count int) ([]string, error) {
	var data struct {
		Results []struct {
			URLs struct {
				Regular string `json:"regular"`
			} `json:"urls"`
		} `json:"results"`
	}
	if err := f.getJSON(ctx, f.UnsplashURL, query, count, "Client-ID "+f.unsplashKey, &data); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(data.Results))
	for _, r := range data.Results {
		if r.URLs.Regular != "" {
			urls = append(urls, r.URLs.Regular)
		}
	}
	return urls, nil
}

func (f *Finder) searchPexels(ctx context.Context, query string, count int) ([]string, error) {
	var data struct {
		Photos []struct {
			Src struct {
				Large string `json:"large"`
			} `json:"src"`
		} `json:"photos"`
	}
	if err := f.getJSON(ctx, f.PexelsURL, query, count, f.pexelsKey, &data); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(data.Photos))
	for _, p := range data.Photos {
		if p.Src.Large != "" {
			urls = append(urls, p.Src.Large)
		}
	}
	return urls, nil
}

func (f *Finder) getJSON(ctx context.Context, base, query string, count int, auth string, out any) error {
	params := url.Values{
		"query":       {query},
		"per_page":    {strconv.Itoa(count)},
		"orientation": {"landscape"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", auth)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Download fetches an image body.
func (f *Finder) Download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("downloading image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data) > MaxDownloadBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", MaxDownloadBytes)
	}
	return data, nil
}
