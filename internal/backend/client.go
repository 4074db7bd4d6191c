// Package backend talks to the hosted backend-as-a-service that owns site
// images and feedback when the service is not using its local store.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/meur/equicenter/internal/models"
)

// Config holds the hosted backend settings
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is a REST client for the hosted backend
type Client struct {
	http *resty.Client
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *apiError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// New validates cfg and builds a Client. Requests are never retried: a failed
// call is reported to the caller, which treats it as "no data this cycle".
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("backend URL must be absolute http(s), got %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: client}, nil
}

// ListSiteImages fetches the full image directory
func (c *Client) ListSiteImages(ctx context.Context) ([]models.SiteImage, error) {
	var images []models.SiteImage
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&images).
		SetError(&apiError{}).
		Get("/site_images")
	if err := checkResponse(resp, err, "list site images"); err != nil {
		return nil, err
	}
	if images == nil {
		images = []models.SiteImage{}
	}
	return images, nil
}

// CreateFeedback forwards a feedback entry and copies back the stored ID
func (c *Client) CreateFeedback(ctx context.Context, fb *models.Feedback) error {
	var created models.Feedback
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(fb).
		SetResult(&created).
		SetError(&apiError{}).
		Post("/feedback")
	if err := checkResponse(resp, err, "create feedback"); err != nil {
		return err
	}
	if created.ID != "" {
		fb.ID = created.ID
	}
	if !created.CreatedAt.IsZero() {
		fb.CreatedAt = created.CreatedAt
	}
	return nil
}

// ListFeedback fetches all feedback entries
func (c *Client) ListFeedback(ctx context.Context) ([]models.Feedback, error) {
	var entries []models.Feedback
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&entries).
		SetError(&apiError{}).
		Get("/feedback")
	if err := checkResponse(resp, err, "list feedback"); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.Feedback{}
	}
	return entries, nil
}

// ErrUnexpectedStatus wraps non-2xx responses
var ErrUnexpectedStatus = errors.New("unexpected status")

func checkResponse(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if e, ok := resp.Error().(*apiError); ok && e.text() != "" {
			msg = e.text()
		}
		return fmt.Errorf("%s: %w %d: %s", op, ErrUnexpectedStatus, resp.StatusCode(), msg)
	}
	return nil
}
