package models

import "time"

// MaxFeedbackMessage caps the stored message length in bytes
const MaxFeedbackMessage = 5000

// Feedback is a visitor rating left through the feedback modal
type Feedback struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Rating    int       `json:"rating"`
	Message   string    `json:"message"`
	PageURL   string    `json:"page_url,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackCreate is the request body for submitting feedback
type FeedbackCreate struct {
	Name    string `json:"name" validate:"max=120"`
	Email   string `json:"email" validate:"omitempty,email,max=254"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Message string `json:"message" validate:"required"`
	PageURL string `json:"page_url" validate:"omitempty,url,max=2048"`
}
