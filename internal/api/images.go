package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/meur/equicenter/internal/models"
	"github.com/meur/equicenter/internal/storage"
	"github.com/meur/equicenter/internal/tableview"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var imageColumns = []tableview.Column{
	{Key: "key", Label: "Key"},
	{Key: "url", Label: "URL"},
	{Key: "alt", Label: "Alt text"},
	{
		Key:   "updated_at",
		Label: "Updated",
		Render: func(r tableview.Row) any {
			if t, ok := r.Fields["updated_at"].(time.Time); ok && !t.IsZero() {
				return t.Format("2006-01-02 15:04")
			}
			return ""
		},
	},
}

// handleResolveImage returns the URL for an image key. It always answers 200:
// an unreachable directory degrades to the fallback.
func (s *Server) handleResolveImage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	fallback := r.URL.Query().Get("fallback")

	url := s.images.Resolve(r.Context(), key, fallback)
	respondJSON(w, http.StatusOK, models.ResolvedImage{Key: key, URL: url})
}

// handleListImages returns the image directory as an admin table page
func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	list := s.images.List(r.Context())

	rows := make([]tableview.Row, len(list))
	for i, img := range list {
		rows[i] = tableview.Row{
			ID: img.ID,
			Fields: map[string]any{
				"key":        img.Key,
				"url":        img.URL,
				"alt":        img.Alt,
				"updated_at": img.UpdatedAt,
			},
		}
	}
	respondJSON(w, http.StatusOK, s.tablePage(r, rows, imageColumns))
}

// handlePutImage sets the URL behind a key in the local store
func (s *Server) handlePutImage(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusNotImplemented, "Images are managed by the hosted backend")
		return
	}
	key := chi.URLParam(r, "key")

	var req models.SiteImageUpsert
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "url must be an absolute URL")
		return
	}

	img, err := s.store.UpsertSiteImage(r.Context(), key, &req)
	if err != nil {
		s.log.Error("failed to save image", "key", key, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to save image")
		return
	}
	s.images.ClearCache()

	respondJSON(w, http.StatusOK, img)
}

// handleDeleteImage removes a key from the local store
func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusNotImplemented, "Images are managed by the hosted backend")
		return
	}
	key := chi.URLParam(r, "key")

	err := s.store.DeleteSiteImage(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Image not found")
		return
	}
	if err != nil {
		s.log.Error("failed to delete image", "key", key, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete image")
		return
	}
	s.images.ClearCache()

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleClearImageCache drops the cached image snapshot
func (s *Server) handleClearImageCache(w http.ResponseWriter, r *http.Request) {
	s.images.ClearCache()
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "cleared",
		"policy": string(s.images.Policy()),
	})
}
