package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/meur/equicenter/internal/feedback"
	"github.com/meur/equicenter/internal/models"
	"github.com/meur/equicenter/internal/tableview"
)

var feedbackColumns = []tableview.Column{
	{Key: "name", Label: "Name"},
	{Key: "email", Label: "Email"},
	{Key: "rating", Label: "Rating"},
	{Key: "message", Label: "Message", DisableSort: true},
	{Key: "page_url", Label: "Page"},
	{
		Key:   "created_at",
		Label: "Received",
		Render: func(r tableview.Row) any {
			if t, ok := r.Fields["created_at"].(time.Time); ok {
				return t.Format("2006-01-02 15:04")
			}
			return ""
		},
	},
}

// handleCreateFeedback stores a feedback modal submission
func (s *Server) handleCreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req models.FeedbackCreate
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fb, err := s.feedback.Submit(r.Context(), req, r.UserAgent())
	var verr *feedback.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "Invalid feedback",
			"fields": verr.Fields,
		})
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save feedback")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": fb.ID, "status": "ok"})
}

// handleListFeedback returns feedback as an admin table page
func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	entries, err := s.feedback.List(r.Context())
	if err != nil {
		s.log.Error("failed to list feedback", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch feedback")
		return
	}

	rows := make([]tableview.Row, len(entries))
	for i, fb := range entries {
		rows[i] = tableview.Row{
			ID: fb.ID,
			Fields: map[string]any{
				"name":       fb.Name,
				"email":      fb.Email,
				"rating":     fb.Rating,
				"message":    fb.Message,
				"page_url":   fb.PageURL,
				"created_at": fb.CreatedAt,
			},
		}
	}
	respondJSON(w, http.StatusOK, s.tablePage(r, rows, feedbackColumns))
}
