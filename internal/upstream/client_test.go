package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhudang/user-aggregator/internal/core/domain"
)

func TestFetchUsersSendsLimitParameter(t *testing.T) {
	var gotPath, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLimit = r.URL.Query().Get("_limit")
		w.Write([]byte(`[{"id":1,"name":"Leanne","username":"Bret","email":"l@e.com"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	users, err := client.FetchUsers(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, "/users", gotPath)
	assert.Equal(t, "5", gotLimit)
	require.Len(t, users, 1)
	assert.Equal(t, int64(1), users[0].ID)
	assert.Equal(t, "Bret", users[0].Username)
}

func TestFetchPostsFiltersByUser(t *testing.T) {
	var gotUserID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts", r.URL.Path)
		gotUserID = r.URL.Query().Get("userId")
		w.Write([]byte(`[{"id":10,"userId":3,"title":"t","body":"b"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	posts, err := client.FetchPostsForUser(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, "3", gotUserID)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(3), posts[0].UserID)
}

func TestFetchCommentsFiltersByPost(t *testing.T) {
	var gotPostID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/comments", r.URL.Path)
		gotPostID = r.URL.Query().Get("postId")
		w.Write([]byte(`[{"id":100,"postId":10,"name":"n","email":"e","body":"b"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	comments, err := client.FetchCommentsForPost(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, "10", gotPostID)
	require.Len(t, comments, 1)
}

func TestNonSuccessStatusBecomesRemoteFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	_, err := client.FetchUsers(context.Background(), 10)
	require.Error(t, err)

	de := domain.AsError(err)
	require.NotNil(t, de)
	assert.Equal(t, domain.KindRemoteFetch, de.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, de.Status)
	assert.Equal(t, "failed to fetch data from /users?_limit=10", de.Message)
}

func TestTransportFailureDefaultsToStatus500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, 0)
	_, err := client.FetchPostsForUser(context.Background(), 1)
	require.Error(t, err)

	de := domain.AsError(err)
	require.NotNil(t, de)
	assert.Equal(t, domain.KindRemoteFetch, de.Kind)
	assert.Equal(t, http.StatusInternalServerError, de.Status)
	assert.Contains(t, de.Message, "/posts?userId=1")
}

func TestMalformedBodyBecomesRemoteFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"not":"an array"`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	_, err := client.FetchCommentsForPost(context.Background(), 1)
	require.Error(t, err)

	de := domain.AsError(err)
	require.NotNil(t, de)
	assert.Equal(t, domain.KindRemoteFetch, de.Kind)
	assert.Equal(t, http.StatusInternalServerError, de.Status)
}

func TestRequestHonorsContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL, 0)
	_, err := client.FetchUsers(ctx, 10)
	require.Error(t, err)
	assert.Equal(t, domain.KindRemoteFetch, domain.KindOf(err))
}
