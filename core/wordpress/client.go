// Package wordpress publishes collected drafts to a WordPress site over the
// REST API (wp/v2), authenticated with an application password.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	coreconfig "postbot/core/config"
	"postbot/core/logger"
)

// Post is a draft assembled by the conversation, ready to submit.
type Post struct {
	Title    string
	Tags     []string
	Category string
	Content  string
}

// Result identifies the created post.
type Result struct {
	ID   int64
	Link string
}

// Stage values for PublishError.
const (
	StageCategory = "category"
	StageTags     = "tags"
	StagePost     = "post"
)

// PublishError reports which step of publishing failed, so callers can word
// the user-facing reply accordingly.
type PublishError struct {
	Stage string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("wordpress: %s: %v", e.Stage, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Client talks to one WordPress site.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// NewClient builds a client from configuration. The base URL should point at
// the site root; the REST prefix is appended per request.
func NewClient(cfg coreconfig.WordPressConfig) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.AppPassword,
		http:     &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// Publish resolves the category and tags (creating missing ones) and creates
// the post as a draft. Any failure is returned as a *PublishError.
func (c *Client) Publish(ctx context.Context, post Post) (Result, error) {
	start := time.Now()

	var categoryIDs []int64
	if post.Category != "" {
		id, err := c.resolveTerm(ctx, "categories", post.Category)
		if err != nil {
			return Result{}, &PublishError{Stage: StageCategory, Err: err}
		}
		categoryIDs = append(categoryIDs, id)
	}

	var tagIDs []int64
	for _, tag := range post.Tags {
		id, err := c.resolveTerm(ctx, "tags", tag)
		if err != nil {
			return Result{}, &PublishError{Stage: StageTags, Err: err}
		}
		tagIDs = append(tagIDs, id)
	}

	body := map[string]any{
		"title":   post.Title,
		"content": post.Content,
		"status":  "draft",
	}
	if len(categoryIDs) > 0 {
		body["categories"] = categoryIDs
	}
	if len(tagIDs) > 0 {
		body["tags"] = tagIDs
	}

	var created struct {
		ID   int64  `json:"id"`
		Link string `json:"link"`
	}
	if err := c.do(ctx, http.MethodPost, "/wp-json/wp/v2/posts", body, &created); err != nil {
		return Result{}, &PublishError{Stage: StagePost, Err: err}
	}

	logger.Info(ctx, "wordpress", "publish",
		slog.Int64("post_id", created.ID),
		slog.String("permalink", created.Link),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return Result{ID: created.ID, Link: created.Link}, nil
}

// resolveTerm looks a term up by slug under the given taxonomy route and
// creates it when absent.
func (c *Client) resolveTerm(ctx context.Context, route, name string) (int64, error) {
	type term struct {
		ID int64 `json:"id"`
	}

	var found []term
	query := "/wp-json/wp/v2/" + route + "?slug=" + url.QueryEscape(Slugify(name))
	if err := c.do(ctx, http.MethodGet, query, nil, &found); err != nil {
		return 0, err
	}
	if len(found) > 0 {
		return found[0].ID, nil
	}

	var created term
	if err := c.do(ctx, http.MethodPost, "/wp-json/wp/v2/"+route, map[string]any{"name": name}, &created); err != nil {
		return 0, err
	}

	logger.Info(ctx, "wordpress", "term_create",
		slog.String("payload", route+":"+name),
	)
	return created.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.username, c.password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s %s: %s (%s)", method, path, apiErr.Message, resp.Status)
		}
		return fmt.Errorf("%s %s: unexpected status %s", method, path, resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Slugify lowercases a term name and collapses separator runs into single
// hyphens, matching how WordPress derives slugs for ASCII names.
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	prevHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
