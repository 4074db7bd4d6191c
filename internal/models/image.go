package models

import (
	"time"
)

// SiteImage maps a symbolic image key (e.g. "hero-main") to the URL currently
// configured for it.
type SiteImage struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Alt       string    `json:"alt,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SiteImageUpsert is the request body for setting the URL behind a key
type SiteImageUpsert struct {
	URL string `json:"url" validate:"required,url"`
	Alt string `json:"alt" validate:"max=300"`
}

// ResolvedImage is what the front end receives for an image key
type ResolvedImage struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// DefaultImages is the static table used when neither the directory nor the
// caller can supply a URL for a key.
func DefaultImages() map[string]string {
	return map[string]string{
		"hero-main":      "/images/defaults/hero-main.jpg",
		"hero-lessons":   "/images/defaults/hero-lessons.jpg",
		"hero-boarding":  "/images/defaults/hero-boarding.jpg",
		"about-stables":  "/images/defaults/about-stables.jpg",
		"about-arena":    "/images/defaults/about-arena.jpg",
		"testimonial-bg": "/images/defaults/testimonial-bg.jpg",
		"booking-banner": "/images/defaults/booking-banner.jpg",
		"logo":           "/images/defaults/logo.svg",
	}
}
