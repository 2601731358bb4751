// Package upstream implements the client for the remote read-only API that
// seeds user, post, and comment data. All three endpoints return flat JSON
// arrays; nesting them into full user documents is the aggregator's job.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nhudang/user-aggregator/internal/core/domain"
)

var upstreamRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Total number of requests issued to the upstream seed-data API",
	},
	[]string{"collection", "code"},
)

// Client talks to the upstream collection endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an upstream client. A zero timeout disables the
// client-side deadline and leaves only transport defaults; a hung upstream
// call then blocks the aggregation that issued it, which is accepted.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchUsers retrieves up to limit users.
func (c *Client) FetchUsers(ctx context.Context, limit int) ([]domain.APIUser, error) {
	var users []domain.APIUser
	endpoint := fmt.Sprintf("/users?_limit=%d", limit)
	if err := c.get(ctx, "users", endpoint, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FetchPostsForUser retrieves all posts authored by the given user.
func (c *Client) FetchPostsForUser(ctx context.Context, userID int64) ([]domain.APIPost, error) {
	var posts []domain.APIPost
	endpoint := fmt.Sprintf("/posts?userId=%d", userID)
	if err := c.get(ctx, "posts", endpoint, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// FetchCommentsForPost retrieves all comments on the given post.
func (c *Client) FetchCommentsForPost(ctx context.Context, postID int64) ([]domain.APIComment, error) {
	var comments []domain.APIComment
	endpoint := fmt.Sprintf("/comments?postId=%d", postID)
	if err := c.get(ctx, "comments", endpoint, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// get issues a single read request and decodes the JSON array response.
// No retries: one failed call fails the caller's whole aggregation.
func (c *Client) get(ctx context.Context, collection, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return domain.RemoteFetchError(http.StatusInternalServerError, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No response at all: transport failure, reported as 500.
		upstreamRequests.WithLabelValues(collection, "error").Inc()
		return domain.RemoteFetchError(http.StatusInternalServerError, endpoint, err)
	}
	defer resp.Body.Close()

	upstreamRequests.WithLabelValues(collection, fmt.Sprint(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.RemoteFetchError(resp.StatusCode, endpoint, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.RemoteFetchError(http.StatusInternalServerError, endpoint, fmt.Errorf("decode response: %w", err))
	}

	return nil
}
