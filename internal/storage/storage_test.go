package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/meur/equicenter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "equicenter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SiteImages(t *testing.T) {
	t.Run("Should upsert and list images ordered by key", func(t *testing.T) {
		store := openTestStore(t)
		ctx := t.Context()

		_, err := store.UpsertSiteImage(ctx, "logo", &models.SiteImageUpsert{URL: "https://cdn.example.com/logo.svg"})
		require.NoError(t, err)
		img, err := store.UpsertSiteImage(ctx, "hero-main", &models.SiteImageUpsert{URL: "https://cdn.example.com/a.jpg", Alt: "Arena"})
		require.NoError(t, err)
		assert.Equal(t, "Arena", img.Alt)
		assert.NotEmpty(t, img.ID)

		images, err := store.ListSiteImages(ctx)
		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.Equal(t, "hero-main", images[0].Key)
		assert.Equal(t, "logo", images[1].Key)
	})

	t.Run("Should replace the URL on a second upsert", func(t *testing.T) {
		store := openTestStore(t)
		ctx := t.Context()

		first, err := store.UpsertSiteImage(ctx, "hero-main", &models.SiteImageUpsert{URL: "https://cdn.example.com/a.jpg"})
		require.NoError(t, err)
		second, err := store.UpsertSiteImage(ctx, "hero-main", &models.SiteImageUpsert{URL: "https://cdn.example.com/b.jpg"})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "https://cdn.example.com/b.jpg", second.URL)
	})

	t.Run("Should return ErrNotFound for missing keys", func(t *testing.T) {
		store := openTestStore(t)

		_, err := store.GetSiteImage(t.Context(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.DeleteSiteImage(t.Context(), "nope"), ErrNotFound)
	})

	t.Run("Should bulk upsert and delete", func(t *testing.T) {
		store := openTestStore(t)
		ctx := t.Context()

		err := store.BulkUpsertSiteImages(ctx, []models.SiteImage{
			{Key: "hero-main", URL: "https://cdn.example.com/hero.jpg"},
			{Key: "about-arena", URL: "https://cdn.example.com/arena.jpg"},
		})
		require.NoError(t, err)
		require.NoError(t, store.DeleteSiteImage(ctx, "hero-main"))

		images, err := store.ListSiteImages(ctx)
		require.NoError(t, err)
		require.Len(t, images, 1)
		assert.Equal(t, "about-arena", images[0].Key)
	})

	t.Run("Should return an empty list for an empty table", func(t *testing.T) {
		images, err := openTestStore(t).ListSiteImages(t.Context())
		require.NoError(t, err)
		assert.NotNil(t, images)
		assert.Empty(t, images)
	})
}

func TestStore_Feedback(t *testing.T) {
	t.Run("Should create and list newest first", func(t *testing.T) {
		store := openTestStore(t)
		ctx := t.Context()
		base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

		older := &models.Feedback{Rating: 4, Message: "Great lesson", CreatedAt: base}
		newer := &models.Feedback{Rating: 5, Message: "Lovely ponies", Name: "Ana", CreatedAt: base.Add(time.Hour)}
		require.NoError(t, store.CreateFeedback(ctx, older))
		require.NoError(t, store.CreateFeedback(ctx, newer))
		assert.NotEmpty(t, older.ID)

		entries, err := store.ListFeedback(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "Lovely ponies", entries[0].Message)
		assert.Equal(t, "Ana", entries[0].Name)
		assert.True(t, entries[1].CreatedAt.Equal(base))
	})

	t.Run("Should reject ratings out of range", func(t *testing.T) {
		store := openTestStore(t)
		err := store.CreateFeedback(t.Context(), &models.Feedback{Rating: 9, Message: "?"})
		assert.Error(t, err)
	})
}
