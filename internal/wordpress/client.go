// Package wordpress talks to the WordPress REST API of a user's site using
// application-password basic auth.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnexpectedStatus is wrapped by every *APIError.
var ErrUnexpectedStatus = errors.New("unexpected status from WordPress")

// APIError describes a non-2xx WordPress response.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: WordPress returned %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return ErrUnexpectedStatus }

// Post statuses accepted by CreatePost.
const (
	StatusDraft   = "draft"
	StatusPublish = "publish"
)

// NewPost is the payload of CreatePost.
type NewPost struct {
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Excerpt       string  `json:"excerpt"`
	Status        string  `json:"status"`
	FeaturedMedia int64   `json:"featured_media,omitempty"`
	Categories    []int64 `json:"categories,omitempty"`
}

// CreatedPost identifies a post on the remote site.
type CreatedPost struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

// SEOMeta holds the Yoast SEO fields of a post.
type SEOMeta struct {
	Title        string
	Description  string
	FocusKeyword string
}

// IsZero reports whether no field is set.
func (m SEOMeta) IsZero() bool {
	return m.Title == "" && m.Description == "" && m.FocusKeyword == ""
}

// Client is bound to one site and its credentials.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// NewClient creates a client for siteURL. Only http and https URLs are accepted.
func NewClient(siteURL, username, password string) (*Client, error) {
	if !ValidateSiteURL(siteURL) {
		return nil, fmt.Errorf("invalid WordPress site URL %q", siteURL)
	}
	return &Client{
		baseURL:  strings.TrimRight(siteURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// ValidateSiteURL reports whether u parses as an http or https URL.
func ValidateSiteURL(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// CreatePost creates a post. Status defaults to publish.
func (c *Client) CreatePost(ctx context.Context, p NewPost) (CreatedPost, error) {
	if p.Status == "" {
		p.Status = StatusPublish
	}
	var out CreatedPost
	if err := c.doJSON(ctx, "create post", http.MethodPost, "/wp-json/wp/v2/posts", p, &out); err != nil {
		return CreatedPost{}, err
	}
	return out, nil
}

// UploadMedia uploads a file to the media library and returns its ID.
func (c *Client) UploadMedia(ctx context.Context, filename string, data []byte, contentType string) (int64, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	if contentType == "" {
		contentType = "image/jpeg"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return 0, err
	}
	if _, err := part.Write(data); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/wp-json/wp/v2/media", &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.do(req, "upload media", &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// GetOrCreateCategory returns the ID of the category whose name matches
// case-insensitively, creating it when absent.
func (c *Client) GetOrCreateCategory(ctx context.Context, name string) (int64, error) {
	var found []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	path := "/wp-json/wp/v2/categories?search=" + url.QueryEscape(name)
	if err := c.doJSON(ctx, "search categories", http.MethodGet, path, nil, &found); err == nil {
		for _, cat := range found {
			if strings.EqualFold(cat.Name, name) {
				return cat.ID, nil
			}
		}
	}

	payload := map[string]string{"name": name, "slug": Slugify(name)}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := c.doJSON(ctx, "create category", http.MethodPost, "/wp-json/wp/v2/categories", payload, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// UpdateSEOMeta sets Yoast fields through post meta, falling back to the
// Yoast REST route. It errors only when both attempts fail.
func (c *Client) UpdateSEOMeta(ctx context.Context, postID int64, meta SEOMeta) error {
	id := strconv.FormatInt(postID, 10)

	metaBody := map[string]any{"meta": map[string]string{
		"_yoast_wpseo_title":    meta.Title,
		"_yoast_wpseo_metadesc": meta.Description,
		"_yoast_wpseo_focuskw":  meta.FocusKeyword,
	}}
	firstErr := c.doJSON(ctx, "update post meta", http.MethodPost, "/wp-json/wp/v2/posts/"+id, metaBody, nil)
	if firstErr == nil {
		return nil
	}

	yoastBody := map[string]any{"yoast_meta": map[string]string{
		"yoast_wpseo_title":    meta.Title,
		"yoast_wpseo_metadesc": meta.Description,
		"yoast_wpseo_focuskw":  meta.FocusKeyword,
	}}
	if err := c.doJSON(ctx, "update yoast meta", http.MethodPost, "/wp-json/yoast/v1/posts/"+id, yoastBody, nil); err != nil {
		return fmt.Errorf("SEO meta not updated (Yoast SEO may not be installed): %w", errors.Join(firstErr, err))
	}
	return nil
}

// DeletePost permanently deletes a post.
func (c *Client) DeletePost(ctx context.Context, postID int64) error {
	path := "/wp-json/wp/v2/posts/" + strconv.FormatInt(postID, 10) + "?force=true"
	return c.doJSON(ctx, "delete post", http.MethodDelete, path, nil, nil)
}

var (
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slugify lowercases name, joins words with '-' and drops anything outside [a-z0-9-].
func Slugify(name string) string {
	s := slugSpaces.ReplaceAllString(strings.ToLower(name), "-")
	return slugInvalid.ReplaceAllString(s, "")
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshaling request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, op, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}
