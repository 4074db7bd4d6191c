package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/meur/equicenter/internal/models"
)

// CreateFeedback stores a feedback entry, filling in its ID and timestamp
func (s *Store) CreateFeedback(ctx context.Context, fb *models.Feedback) error {
	if fb.ID == "" {
		fb.ID = newID()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, name, email, rating, message, page_url, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, fb.ID, fb.Name, fb.Email, fb.Rating, fb.Message, fb.PageURL, fb.UserAgent, fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// ListFeedback returns all feedback, newest first
func (s *Store) ListFeedback(ctx context.Context) ([]models.Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, rating, message, page_url, user_agent, created_at
		FROM feedback ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.Feedback{}
	for rows.Next() {
		var fb models.Feedback
		err := rows.Scan(&fb.ID, &fb.Name, &fb.Email, &fb.Rating, &fb.Message,
			&fb.PageURL, &fb.UserAgent, &fb.CreatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fb)
	}
	return entries, rows.Err()
}
