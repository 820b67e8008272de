package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(r *Router, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestExactRoute(t *testing.T) {
	r := New(zerolog.Nop())
	r.GET("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/other").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	r := New(zerolog.Nop())
	r.GET("/api/v1/readings", func(w http.ResponseWriter, _ *http.Request) {})

	assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodPost, "/api/v1/readings").Code)
}

func TestWildcardSegment(t *testing.T) {
	r := New(zerolog.Nop())
	var hit string
	r.GET("/api/v1/machines/*/readings", func(_ http.ResponseWriter, req *http.Request) {
		hit = req.URL.Path
	})

	rec := serve(r, http.MethodGet, "/api/v1/machines/m1/readings")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/v1/machines/m1/readings", hit)

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/v1/machines/m1").Code)
}

func TestTrailingWildcard(t *testing.T) {
	r := New(zerolog.Nop())
	r.GET("/files/*", func(w http.ResponseWriter, _ *http.Request) {})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/files/a/b/c").Code)
}
