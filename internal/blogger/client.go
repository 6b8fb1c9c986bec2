// internal/blogger/client.go
package blogger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Corphon/yt2blog/internal/config"
	apperrors "github.com/Corphon/yt2blog/internal/errors"
	"github.com/Corphon/yt2blog/internal/utils"
)

// Post is the content of a new blog post.
type Post struct {
	Title       string
	Content     string
	Labels      []string
	Description string
}

// PublishResult is the API answer, returned whatever the status code.
type PublishResult struct {
	StatusCode int `json:"status_code"`
	// Body is the decoded JSON response, or the raw text when it is not JSON.
	Body interface{} `json:"body"`
}

// Success reports whether the post was accepted.
func (r *PublishResult) Success() bool {
	return r.StatusCode == http.StatusOK
}

// Client posts articles to a blog.
type Client struct {
	apiKey  string
	blogID  string
	baseURL string
	client  *http.Client
	logger  *utils.Logger
}

// NewClient creates a publishing client.
func NewClient(cfg config.BloggerConfig, logger *utils.Logger) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		blogID:  cfg.BlogID,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

// Configured reports whether both the key and the blog id are set.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.blogID != ""
}

// Publish sends one post. Only transport failures are returned as errors; a
// rejected post comes back as a result with Success() == false.
func (c *Client) Publish(ctx context.Context, post Post) (*PublishResult, error) {
	if !c.Configured() {
		return nil, apperrors.NewValidationError("BLOGGER_API_KEY and BLOG_ID must be configured to publish", nil)
	}

	labels := post.Labels
	if labels == nil {
		labels = []string{}
	}
	payload, err := json.Marshal(map[string]interface{}{
		"kind":           "blogger#post",
		"title":          post.Title,
		"content":        post.Content,
		"labels":         labels,
		"customMetaData": post.Description,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/blogs/%s/posts/?%s", c.baseURL, url.PathEscape(c.blogID), url.Values{"key": {c.apiKey}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// url.Error carries the request URL, which holds the key
		return nil, apperrors.NewUpstreamError("blog API request failed", unwrapURLError(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperrors.NewUpstreamError("read blog API response", err)
	}

	result := &PublishResult{StatusCode: resp.StatusCode, Body: decodeBody(raw)}
	fields := map[string]interface{}{"status": resp.StatusCode, "title": post.Title}
	if result.Success() {
		c.logger.Info("article published", fields)
	} else {
		c.logger.Warn("blog API rejected the post", fields)
	}
	return result, nil
}

func decodeBody(raw []byte) interface{} {
	var body interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return string(raw)
	}
	return body
}

func unwrapURLError(err error) error {
	if urlErr, ok := err.(*url.Error); ok {
		return urlErr.Err
	}
	return err
}
