// Package feedback validates visitor feedback and hands it to whichever store
// backs the site (local SQLite or the hosted backend).
package feedback

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/meur/equicenter/internal/logger"
	"github.com/meur/equicenter/internal/models"
)

// Store persists feedback entries.
type Store interface {
	CreateFeedback(ctx context.Context, fb *models.Feedback) error
	ListFeedback(ctx context.Context) ([]models.Feedback, error)
}

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, rule := range e.Fields {
		parts = append(parts, f+": "+rule)
	}
	return "invalid feedback: " + strings.Join(parts, ", ")
}

// Service accepts feedback submissions.
type Service struct {
	store    Store
	validate *validator.Validate
	log      logger.Logger
	now      func() time.Time
}

// New returns a Service writing to store.
func New(store Store, log logger.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("feedback: store is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonTagName)
	return &Service{
		store:    store,
		validate: v,
		log:      log.With("component", "feedback"),
		now:      time.Now,
	}, nil
}

// Submit validates req and stores it. The message is trimmed and cut to
// models.MaxFeedbackMessage bytes.
func (s *Service) Submit(ctx context.Context, req models.FeedbackCreate, userAgent string) (*models.Feedback, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validate.Struct(req); err != nil {
		return nil, toValidationError(err)
	}
	if len(req.Message) > models.MaxFeedbackMessage {
		req.Message = truncate(req.Message, models.MaxFeedbackMessage)
	}

	fb := &models.Feedback{
		Name:      req.Name,
		Email:     req.Email,
		Rating:    req.Rating,
		Message:   req.Message,
		PageURL:   req.PageURL,
		UserAgent: userAgent,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateFeedback(ctx, fb); err != nil {
		s.log.Error("feedback store failed", "error", err)
		return nil, fmt.Errorf("store feedback: %w", err)
	}
	s.log.Info("feedback received", "id", fb.ID, "rating", fb.Rating)
	return fb, nil
}

// List returns every stored entry.
func (s *Service) List(ctx context.Context) ([]models.Feedback, error) {
	return s.store.ListFeedback(ctx)
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		ve.Fields[fe.Field()] = fe.Tag()
	}
	return ve
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
