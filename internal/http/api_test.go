package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"list-manager/internal/auth"
	"list-manager/internal/database"
	"list-manager/internal/domain"
	"list-manager/internal/invalidate"
	"list-manager/internal/repository/sqlite"
	"list-manager/internal/service"
	"list-manager/internal/storage"
)

type testServer struct {
	router   *gin.Engine
	users    service.UserService
	recorder *invalidate.Recorder
}

func newTestServer(t *testing.T, health HealthFunc) *testServer {
	t.Helper()
	return newTestServerWithSnapshots(t, health, nil)
}

func newTestServerWithSnapshots(t *testing.T, health HealthFunc, snapshots storage.Service) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	conns := database.NewManager(sqlite.Dialer(filepath.Join(t.TempDir(), "lists.db")), logger)
	t.Cleanup(func() { _ = conns.Close(context.Background()) })

	listRepo := sqlite.NewListRepository(conns)
	itemRepo := sqlite.NewItemRepository(conns)
	users := service.NewUserService(sqlite.NewUserRepository(conns))
	rec := &invalidate.Recorder{}

	if health == nil {
		health = func(ctx context.Context) error {
			_, err := conns.Acquire(ctx)
			return err
		}
	}

	router := gin.New()
	NewHandler(Options{
		Lists:       service.NewListService(listRepo, rec, logger),
		Items:       service.NewItemService(listRepo, itemRepo, rec, logger),
		Users:       users,
		Exports:     service.NewExportService(listRepo, itemRepo, snapshots, logger),
		Tokens:      auth.NewTokenManager("test-secret", time.Hour),
		Health:      health,
		Logger:      logger,
		CORSOrigins: []string{"*"},
	}).RegisterRoutes(router)

	return &testServer{router: router, users: users, recorder: rec}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()

	_, err := s.users.Provision(context.Background(), username, "password123", "")
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, username, resp.User.Username)
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	down := newTestServer(t, func(context.Context) error { return errors.New("no route to host") })
	w = down.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t, nil)
	_ = s.login(t, "alice")

	w := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutesRequireBearerToken(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/api/lists", "/api/items/x", "/api/exports"} {
		w := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)

		w = s.do(t, http.MethodGet, path, "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestListAndItemLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "alice")

	w := s.do(t, http.MethodPost, "/api/lists", token, gin.H{"name": "Groceries"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	listID := decode[service.CreateResult](t, w).ID

	w = s.do(t, http.MethodPost, "/api/lists/"+listID+"/items", token, gin.H{"title": "Milk"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	milk := decode[service.CreateResult](t, w).ID

	w = s.do(t, http.MethodPost, "/api/lists/"+listID+"/items", token, gin.H{"title": "Bread", "detail": "sourdough"})
	require.Equal(t, http.StatusCreated, w.Code)
	bread := decode[service.CreateResult](t, w).ID

	w = s.do(t, http.MethodGet, "/api/lists", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	lists := decode[[]ListResponse](t, w)
	require.Len(t, lists, 1)
	assert.Equal(t, 2, lists[0].ItemCount)

	w = s.do(t, http.MethodGet, "/api/lists/"+listID+"/items", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[[]ItemResponse](t, w)
	require.Len(t, items, 2)
	assert.Equal(t, bread, items[0].ID, "newest first")
	assert.Equal(t, milk, items[1].ID)

	w = s.do(t, http.MethodPost, "/api/items/"+milk+"/toggle", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[service.Result](t, w).Success)

	w = s.do(t, http.MethodPut, "/api/items/"+milk, token, gin.H{"title": "Oat milk"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/items/"+milk, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	item := decode[ItemResponse](t, w)
	assert.Equal(t, "Oat milk", item.Title)
	assert.True(t, item.Completed)

	w = s.do(t, http.MethodPut, "/api/lists/"+listID, token, gin.H{"name": "Shopping"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/api/items/"+bread, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/api/lists/"+listID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/items/"+milk, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodGet, "/api/lists/"+listID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Contains(t, s.recorder.Paths(), "/dashboard/lists/"+listID)
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "alice")

	w := s.do(t, http.MethodPost, "/api/lists", token, gin.H{"name": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "validation failed", body["error"])

	w = s.do(t, http.MethodPost, "/api/lists", token, gin.H{"name": "Todo"})
	listID := decode[service.CreateResult](t, w).ID

	w = s.do(t, http.MethodPost, "/api/lists/"+listID+"/items", token, gin.H{"detail": "no title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOtherUsersDataIsInvisible(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.login(t, "alice")
	mallory := s.login(t, "mallory")

	w := s.do(t, http.MethodPost, "/api/lists", alice, gin.H{"name": "Private"})
	listID := decode[service.CreateResult](t, w).ID
	w = s.do(t, http.MethodPost, "/api/lists/"+listID+"/items", alice, gin.H{"title": "Secret"})
	itemID := decode[service.CreateResult](t, w).ID

	w = s.do(t, http.MethodGet, "/api/lists", mallory, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]ListResponse](t, w))

	tests := []struct {
		method string
		path   string
		body   any
		want   int
	}{
		{http.MethodGet, "/api/lists/" + listID, nil, http.StatusNotFound},
		{http.MethodGet, "/api/lists/" + listID + "/items", nil, http.StatusNotFound},
		{http.MethodPut, "/api/lists/" + listID, gin.H{"name": "Mine now"}, http.StatusNotFound},
		{http.MethodDelete, "/api/lists/" + listID, nil, http.StatusNotFound},
		{http.MethodPost, "/api/lists/" + listID + "/items", gin.H{"title": "Spam"}, http.StatusNotFound},
		{http.MethodGet, "/api/items/" + itemID, nil, http.StatusNotFound},
		{http.MethodPut, "/api/items/" + itemID, gin.H{"title": "Defaced"}, http.StatusUnauthorized},
		{http.MethodPost, "/api/items/" + itemID + "/toggle", nil, http.StatusUnauthorized},
		{http.MethodDelete, "/api/items/" + itemID, nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		w := s.do(t, tt.method, tt.path, mallory, tt.body)
		assert.Equal(t, tt.want, w.Code, "%s %s", tt.method, tt.path)
	}

	w = s.do(t, http.MethodGet, "/api/items/"+itemID, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	item := decode[ItemResponse](t, w)
	assert.Equal(t, "Secret", item.Title)
	assert.False(t, item.Completed)
}

func TestMe(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "alice")

	w := s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := decode[UserResponse](t, w)
	assert.Equal(t, "alice", me.Username)
	assert.NotEmpty(t, me.ID)

	w = s.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ghost, _, err := auth.NewTokenManager("test-secret", time.Hour).Issue(&domain.User{ID: "ghost", Username: "ghost"})
	require.NoError(t, err)
	w = s.do(t, http.MethodGet, "/api/auth/me", ghost, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// memSnapshots stores snapshot metadata in memory and signs every key.
type memSnapshots struct {
	objects []storage.ObjectInfo
}

func (m *memSnapshots) PutSnapshot(_ context.Context, snap *storage.Snapshot) (string, error) {
	key := snap.UserID + "/snap.json"
	m.objects = append(m.objects, storage.ObjectInfo{Key: key, Size: 1})
	return "s3://bucket/" + key, nil
}

func (m *memSnapshots) ListSnapshots(_ context.Context, userID string) ([]storage.ObjectInfo, error) {
	out := make([]storage.ObjectInfo, 0)
	for _, obj := range m.objects {
		if strings.HasPrefix(obj.Key, userID+"/") {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (m *memSnapshots) DeleteSnapshots(_ context.Context, userID string) error {
	kept := m.objects[:0]
	for _, obj := range m.objects {
		if !strings.HasPrefix(obj.Key, userID+"/") {
			kept = append(kept, obj)
		}
	}
	m.objects = kept
	return nil
}

func (m *memSnapshots) GetSnapshotURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

func TestExportsListSignedURLs(t *testing.T) {
	s := newTestServerWithSnapshots(t, nil, &memSnapshots{})
	token := s.login(t, "alice")

	w := s.do(t, http.MethodPost, "/api/exports", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/exports", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	objects := decode[[]StorageObjectResponse](t, w)
	require.Len(t, objects, 1)
	assert.Equal(t, "https://signed.example/"+objects[0].Key, objects[0].URL)

	w = s.do(t, http.MethodDelete, "/api/exports", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/exports", token, nil)
	assert.Empty(t, decode[[]StorageObjectResponse](t, w))
}

func TestExportsDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "alice")

	w := s.do(t, http.MethodPost, "/api/exports", token, nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/lists", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
