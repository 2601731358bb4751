package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhudang/user-aggregator/internal/core/domain"
	logicv1 "github.com/nhudang/user-aggregator/internal/logic/v1"
	"github.com/nhudang/user-aggregator/internal/upstream"
	"github.com/nhudang/user-aggregator/middleware"
)

type memoryRepo struct {
	mu       sync.Mutex
	docs     map[int64][]byte
	failWith error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{docs: map[int64][]byte{}}
}

func (m *memoryRepo) Upsert(_ context.Context, id int64, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.docs[id] = append([]byte(nil), doc...)
	return nil
}

func (m *memoryRepo) Create(_ context.Context, id int64, doc []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if _, exists := m.docs[id]; exists {
		return nil, domain.ConflictError(id)
	}
	m.docs[id] = append([]byte(nil), doc...)
	return m.docs[id], nil
}

func (m *memoryRepo) GetByID(_ context.Context, id int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	doc, exists := m.docs[id]
	if !exists {
		return nil, domain.NotFoundError(id)
	}
	return doc, nil
}

func (m *memoryRepo) DeleteByID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, exists := m.docs[id]; !exists {
		return domain.NotFoundError(id)
	}
	delete(m.docs, id)
	return nil
}

func (m *memoryRepo) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.docs = map[int64][]byte{}
	return nil
}

// newTestRouter wires the full HTTP surface the way main does, over an
// in-memory repository and (for /load) a fake upstream server.
func newTestRouter(t *testing.T, repo *memoryRepo, upstreamURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client := upstream.NewClient(upstreamURL, 0)
	aggregator := logicv1.NewAggregator(client, 4)
	service := logicv1.NewUserService(repo, aggregator, 10)
	handler := NewUserHandler(service)

	r := gin.New()
	r.Use(middleware.LoggingMiddleware(zap.NewNop()))
	r.GET("/load", handler.Load)
	r.GET("/users/:id", handler.GetUser)
	r.PUT("/users", handler.CreateUser)
	r.DELETE("/users", handler.DeleteAllUsers)
	r.DELETE("/users/:id", handler.DeleteUser)
	r.NoRoute(NotFound)
	return r
}

func doRequest(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validUserJSON(t *testing.T, id int64) []byte {
	t.Helper()
	payload := map[string]any{
		"id":       id,
		"name":     "Leanne Graham",
		"username": "Bret",
		"email":    "leanne@example.com",
		"address": map[string]any{
			"street": "Kulas Light", "suite": "Apt. 556", "city": "Gwenborough",
			"zipcode": "92998-3874", "geo": map[string]any{"lat": "-37", "lng": "81"},
		},
		"phone":   "1-770-736-8031",
		"website": "hildegard.org",
		"company": map[string]any{"name": "Romaguera-Crona", "catchPhrase": "cp", "bs": "bs"},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return raw
}

func TestGetUserNotFoundBody(t *testing.T) {
	r := newTestRouter(t, newMemoryRepo(), "http://127.0.0.1:0")

	w := doRequest(r, http.MethodGet, "/users/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"User with ID 42 not found"}`, w.Body.String())
}

func TestGetUserReturnsStoredDocumentVerbatim(t *testing.T) {
	repo := newMemoryRepo()
	doc := []byte(`{"id":1,"name":"n","posts":[]}`)
	repo.docs[1] = doc
	r := newTestRouter(t, repo, "http://127.0.0.1:0")

	w := doRequest(r, http.MethodGet, "/users/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, string(doc), w.Body.String())
}

func TestGetUserInvalidIDSegment(t *testing.T) {
	r := newTestRouter(t, newMemoryRepo(), "http://127.0.0.1:0")

	w := doRequest(r, http.MethodGet, "/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid user ID"}`, w.Body.String())
}

func TestPutUserCreates(t *testing.T) {
	repo := newMemoryRepo()
	r := newTestRouter(t, repo, "http://127.0.0.1:0")

	w := doRequest(r, http.MethodPut, "/users", validUserJSON(t, 7))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"posts":[]`)
	assert.Contains(t, repo.docs, int64(7))
}

func TestPutUserMissingEmail(t *testing.T) {
	payload := map[string]any{"id": 7, "name": "n", "username": "u"}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	r := newTestRouter(t, newMemoryRepo(), "http://127.0.0.1:0")

	w := doRequest(r, http.MethodPut, "/users", raw)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid user data: Missing required field 'email'"}`, w.Body.String())
}

func TestPutUserInvalidJSONBody(t *testing.T) {
	r := newTestRouter(t, newMemoryRepo(), "http://127.0.0.1:0")

	w := doRequest(r, http.MethodPut, "/users", []byte(`{"id":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid JSON body"}`, w.Body.String())
}

func TestPutUserConflictMapsTo400(t *testing.T) {
	repo := newMemoryRepo()
	r := newTestRouter(t, repo, "http://127.0.0.1:0")

	w := doRequest(r, http.MethodPut, "/users", validUserJSON(t, 7))
	require.Equal(t, http.StatusCreated, w.Code)

	// Deliberately 400, not 409: kept from the original API contract.
	w = doRequest(r, http.MethodPut, "/users", validUserJSON(t, 7))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"User with ID 7 already exists"}`, w.Body.String())
}

func TestDeleteUserInvalidIDSegment(t *testing.T) {
	r := newTestRouter(t, newMemoryRepo(), "http://127.0.0.1:0")

	w := doRequest(r, http.MethodDelete, "/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid user ID"}`, w.Body.String())
}

func TestDeleteUserByID(t *testing.T) {
	repo := newMemoryRepo()
	repo.docs[5] = []byte(`{"id":5}`)
	r := newTestRouter(t, repo, "http://127.0.0.1:0")

	w := doRequest(r, http.MethodDelete, "/users/5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"User with ID 5 deleted successfully"}`, w.Body.String())

	w = doRequest(r, http.MethodDelete, "/users/5", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"User with ID 5 not found"}`, w.Body.String())
}

func TestDeleteAllUsers(t *testing.T) {
	repo := newMemoryRepo()
	repo.docs[1] = []byte(`{"id":1}`)
	repo.docs[2] = []byte(`{"id":2}`)
	r := newTestRouter(t, repo, "http://127.0.0.1:0")

	w := doRequest(r, http.MethodDelete, "/users", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"All users deleted successfully"}`, w.Body.String())
	assert.Empty(t, repo.docs)
}

func TestUnmatchedRoute(t *testing.T) {
	r := newTestRouter(t, newMemoryRepo(), "http://127.0.0.1:0")

	w := doRequest(r, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Endpoint not found"}`, w.Body.String())
}

func TestLoadPersistsUpstreamUsers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"name":"Leanne","username":"Bret","email":"l@e.com"},
			{"id":2,"name":"Ervin","username":"Antonette","email":"e@e.com"}]`))
	})
	mux.HandleFunc("/posts", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("userId") == "1" {
			w.Write([]byte(`[{"id":10,"userId":1,"title":"t","body":"b"}]`))
			return
		}
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/comments", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":100,"postId":10,"name":"n","email":"e","body":"b"}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	repo := newMemoryRepo()
	r := newTestRouter(t, repo, srv.URL)

	w := doRequest(r, http.MethodGet, "/load", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String(), "success is a 200 with an empty body")

	require.Len(t, repo.docs, 2)
	var user domain.User
	require.NoError(t, json.Unmarshal(repo.docs[1], &user))
	require.Len(t, user.Posts, 1)
	assert.Len(t, user.Posts[0].Comments, 1)
}

func TestLoadFailurePropagatesAsGeneric500(t *testing.T) {
	// No upstream reachable: the aggregation fails, the client gets a
	// generic body with no internal details.
	r := newTestRouter(t, newMemoryRepo(), "http://127.0.0.1:0")

	w := doRequest(r, http.MethodGet, "/load", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
}

func TestStorageErrorNeverLeaksCause(t *testing.T) {
	repo := newMemoryRepo()
	repo.failWith = domain.StorageError("query user", assert.AnError)
	r := newTestRouter(t, repo, "http://127.0.0.1:0")

	w := doRequest(r, http.MethodGet, "/users/1", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}
