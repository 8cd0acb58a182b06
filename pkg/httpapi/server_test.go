package httpapi

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bobboyms/vkv/pkg/storage"
)

func newTestService(t *testing.T) *storage.Service {
	t.Helper()
	dir := t.TempDir()
	svc, err := storage.Open(filepath.Join(dir, "data"), filepath.Join(dir, "wal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestBannerRoute(t *testing.T) {
	svc := newTestService(t)
	router := NewRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, banner, rec.Body.String())
}

func TestSetThenGetRoute(t *testing.T) {
	svc := newTestService(t)
	router := NewRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/set/hello/world", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Set key: hello to value: world", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/get/hello", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "world", rec.Body.String())
}

func TestGetMissingKeyRoute(t *testing.T) {
	svc := newTestService(t)
	router := NewRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/get/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Not found!", rec.Body.String())
}

func TestInsertAndGetRowRoute(t *testing.T) {
	svc := newTestService(t)
	router := NewRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/tables/people/rows",
		strings.NewReader(`{"columns":{"name":"ada lovelace","job":"mathematician"},"indexed":["job"]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/tables/people/rows/0", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ada lovelace")
}
