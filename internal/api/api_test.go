package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/meur/equicenter/internal/feedback"
	"github.com/meur/equicenter/internal/images"
	"github.com/meur/equicenter/internal/models"
	"github.com/meur/equicenter/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server *Server
	store  *storage.Store
	clock  *clockwork.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := prometheus.NewRegistry()
	clock := clockwork.NewFakeClock()
	resolver := images.New(store, images.WithClock(clock), images.WithMetrics(images.NewMetrics(reg)))
	fb, err := feedback.New(store, nil)
	require.NoError(t, err)

	srv := New(Deps{
		Images:   resolver,
		Feedback: fb,
		Store:    store,
		Gatherer: reg,
		PageSize: 2,
	})
	return &testEnv{server: srv, store: store, clock: clock}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestResolveImage(t *testing.T) {
	t.Run("Should resolve a stored key", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPut, "/api/images/hero-main", `{"url":"https://cdn.example.com/hero.jpg","alt":"Arena"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = env.do(t, http.MethodGet, "/api/images/hero-main?fallback=/fb.jpg", "")
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[models.ResolvedImage](t, rec)
		assert.Equal(t, "https://cdn.example.com/hero.jpg", got.URL)
	})

	t.Run("Should fall back for unknown keys", func(t *testing.T) {
		env := newTestEnv(t)

		got := decode[models.ResolvedImage](t, env.do(t, http.MethodGet, "/api/images/arena-night?fallback=/fb.jpg", ""))
		assert.Equal(t, "/fb.jpg", got.URL)

		got = decode[models.ResolvedImage](t, env.do(t, http.MethodGet, "/api/images/logo", ""))
		assert.Equal(t, models.DefaultImages()["logo"], got.URL)
	})

	t.Run("Should degrade to the fallback when the store is down", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.store.Close())

		rec := env.do(t, http.MethodGet, "/api/images/hero-main?fallback=/fb.jpg", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/fb.jpg", decode[models.ResolvedImage](t, rec).URL)
	})

	t.Run("Should see writes immediately because writes clear the cache", func(t *testing.T) {
		env := newTestEnv(t)
		env.do(t, http.MethodPut, "/api/images/hero-main", `{"url":"https://cdn.example.com/a.jpg"}`)
		env.do(t, http.MethodGet, "/api/images/hero-main", "")
		env.do(t, http.MethodPut, "/api/images/hero-main", `{"url":"https://cdn.example.com/b.jpg"}`)

		got := decode[models.ResolvedImage](t, env.do(t, http.MethodGet, "/api/images/hero-main", ""))
		assert.Equal(t, "https://cdn.example.com/b.jpg", got.URL)
	})

	t.Run("Should serve the snapshot until the cache is cleared", func(t *testing.T) {
		env := newTestEnv(t)
		env.do(t, http.MethodPut, "/api/images/hero-main", `{"url":"https://cdn.example.com/a.jpg"}`)
		env.do(t, http.MethodGet, "/api/images/hero-main", "")
		_, err := env.store.UpsertSiteImage(t.Context(), "hero-main", &models.SiteImageUpsert{URL: "https://cdn.example.com/direct.jpg"})
		require.NoError(t, err)

		got := decode[models.ResolvedImage](t, env.do(t, http.MethodGet, "/api/images/hero-main", ""))
		assert.Equal(t, "https://cdn.example.com/a.jpg", got.URL)

		rec := env.do(t, http.MethodPost, "/api/images/cache/clear", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cached", decode[map[string]string](t, rec)["policy"])

		got = decode[models.ResolvedImage](t, env.do(t, http.MethodGet, "/api/images/hero-main", ""))
		assert.Equal(t, "https://cdn.example.com/direct.jpg", got.URL)
	})
}

func TestPutImage(t *testing.T) {
	t.Run("Should reject invalid bodies", func(t *testing.T) {
		env := newTestEnv(t)

		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/images/hero-main", `{`).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/images/hero-main", `{"url":"not a url"}`).Code)
	})

	t.Run("Should not route keys with invalid characters", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPut, "/api/images/Hero%20Main", `{"url":"https://cdn.example.com/a.jpg"}`)

		assert.NotEqual(t, http.StatusOK, rec.Code)
	})

	t.Run("Should refuse writes without a local store", func(t *testing.T) {
		env := newTestEnv(t)
		env.server.store = nil

		rec := env.do(t, http.MethodPut, "/api/images/hero-main", `{"url":"https://cdn.example.com/a.jpg"}`)
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})
}

func TestDeleteImage(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPut, "/api/images/logo", `{"url":"https://cdn.example.com/logo.svg"}`)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/images/logo", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/images/logo", "").Code)
}

func TestListImages(t *testing.T) {
	t.Run("Should page search and sort the directory", func(t *testing.T) {
		env := newTestEnv(t)
		for _, k := range []string{"hero-main", "hero-lessons", "logo", "about-arena"} {
			rec := env.do(t, http.MethodPut, "/api/images/"+k, fmt.Sprintf(`{"url":"https://cdn.example.com/%s.jpg"}`, k))
			require.Equal(t, http.StatusOK, rec.Code)
		}

		page := decode[models.TablePage](t, env.do(t, http.MethodGet, "/api/images?q=HERO&sort=key&dir=desc", ""))
		assert.Equal(t, 2, page.TotalCount)
		assert.Equal(t, 1, page.TotalPages)
		require.Len(t, page.Rows, 2)
		assert.Equal(t, "hero-main", page.Rows[0]["key"])
		assert.Equal(t, "key", page.Sort)
		assert.Equal(t, "desc", page.Dir)

		page = decode[models.TablePage](t, env.do(t, http.MethodGet, "/api/images?sort=key&page=99", ""))
		assert.Equal(t, 4, page.TotalCount)
		assert.Equal(t, 2, page.TotalPages)
		assert.Equal(t, 2, page.Page)
		require.Len(t, page.Rows, 2)
		assert.Equal(t, "hero-main", page.Rows[0]["key"])
		assert.Equal(t, "logo", page.Rows[1]["key"])
	})
}

func TestFeedback(t *testing.T) {
	t.Run("Should create feedback and list it in the admin table", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/api/feedback", `{"name":"Ana","rating":5,"message":"Loved the trail ride"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		created := decode[map[string]string](t, rec)
		assert.NotEmpty(t, created["id"])

		env.do(t, http.MethodPost, "/api/feedback", `{"name":"Zoe","rating":3,"message":"Parking was hard"}`)
		env.do(t, http.MethodPost, "/api/feedback", `{"name":"ana","rating":4,"message":"Friendly staff"}`)

		page := decode[models.TablePage](t, env.do(t, http.MethodGet, "/api/admin/feedback?sort=name", ""))
		assert.Equal(t, 3, page.TotalCount)
		assert.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Rows, 2)
		assert.Equal(t, "Ana", page.Rows[0]["name"])
		assert.Equal(t, "Zoe", page.Rows[1]["name"])

		page = decode[models.TablePage](t, env.do(t, http.MethodGet, "/api/admin/feedback?q=an", ""))
		assert.Equal(t, 2, page.TotalCount)
	})

	t.Run("Should report invalid fields", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/api/feedback", `{"rating":0,"message":""}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode[map[string]any](t, rec)
		fields, ok := body["fields"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, fields, "rating")
		assert.Contains(t, fields, "message")
	})

	t.Run("Should reject malformed JSON", func(t *testing.T) {
		env := newTestEnv(t)
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/feedback", `nope`).Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/images/logo", "")
	env.do(t, http.MethodGet, "/api/images/logo", "")
	env.clock.Advance(10 * time.Minute)
	env.do(t, http.MethodGet, "/api/images/logo", "")

	rec := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "equicenter_image_fetches_total 2")
	assert.Contains(t, body, "equicenter_image_cache_hits_total 1")
}
