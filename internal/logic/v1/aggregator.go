package v1

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/nhudang/user-aggregator/internal/core/domain"
	"github.com/nhudang/user-aggregator/internal/upstream"
	"github.com/nhudang/user-aggregator/middleware"
)

// DefaultFetchConcurrency bounds the parallel fan-out per aggregation level
// when no explicit bound is configured. The source behavior was one task per
// post and per comment with no cap; the cap keeps resource use bounded for
// large inputs without changing result ordering.
const DefaultFetchConcurrency = 8

// Aggregator builds full nested user documents from the upstream API:
// users, then each user's posts, then each post's comments.
type Aggregator struct {
	client      *upstream.Client
	concurrency int
}

// NewAggregator creates an aggregator over the given upstream client.
// concurrency bounds the fan-out at each nesting level independently; values
// below 1 fall back to DefaultFetchConcurrency.
func NewAggregator(client *upstream.Client, concurrency int) *Aggregator {
	if concurrency < 1 {
		concurrency = DefaultFetchConcurrency
	}
	return &Aggregator{client: client, concurrency: concurrency}
}

// Assemble fetches up to limit users and resolves each one into a complete
// User document. All-or-nothing: the first fetch failure at any level
// cancels the remaining work and fails the whole assembly; partial results
// are discarded.
//
// Fan-out runs concurrently but results are written into index-addressed
// slots, so output order always matches the upstream fetch order of users
// and, within a user, of posts.
func (a *Aggregator) Assemble(ctx context.Context, limit int) ([]domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "aggregation.assemble", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("user.limit", limit),
	))
	defer span.End()

	apiUsers, err := a.client.FetchUsers(ctx, limit)
	if err != nil {
		span.RecordError(err)
		return nil, domain.AggregationError(err)
	}

	users := make([]domain.User, len(apiUsers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, au := range apiUsers {
		g.Go(func() error {
			posts, err := a.assemblePosts(gctx, au.ID)
			if err != nil {
				return err
			}
			users[i] = domain.User{
				ID:       au.ID,
				Name:     au.Name,
				Username: au.Username,
				Email:    au.Email,
				Address:  au.Address,
				Phone:    au.Phone,
				Website:  au.Website,
				Company:  au.Company,
				Posts:    posts,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, domain.AggregationError(err)
	}

	span.SetAttributes(attribute.Int("users.assembled", len(users)))
	return users, nil
}

// assemblePosts fetches one user's posts and, concurrently per post, each
// post's comments. A separate errgroup per user keeps the bound local to
// this level: a blocked outer goroutine can never starve inner slots.
func (a *Aggregator) assemblePosts(ctx context.Context, userID int64) ([]domain.Post, error) {
	apiPosts, err := a.client.FetchPostsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	posts := make([]domain.Post, len(apiPosts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for j, ap := range apiPosts {
		g.Go(func() error {
			apiComments, err := a.client.FetchCommentsForPost(gctx, ap.ID)
			if err != nil {
				return err
			}
			comments := make([]domain.Comment, len(apiComments))
			for k, ac := range apiComments {
				// The postId back-reference is dropped here; a comment's
				// identity is its id within the owning post.
				comments[k] = domain.Comment{
					ID:    ac.ID,
					Name:  ac.Name,
					Email: ac.Email,
					Body:  ac.Body,
				}
			}
			posts[j] = domain.Post{
				ID:       ap.ID,
				Title:    ap.Title,
				Body:     ap.Body,
				Comments: comments,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return posts, nil
}
