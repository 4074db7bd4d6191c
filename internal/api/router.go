package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/meur/equicenter/internal/feedback"
	"github.com/meur/equicenter/internal/images"
	"github.com/meur/equicenter/internal/logger"
	"github.com/meur/equicenter/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP server needs
type Deps struct {
	Images   *images.Resolver
	Feedback *feedback.Service
	// Store is the local database. Image writes are refused when it is nil,
	// since the hosted backend owns them then.
	Store          *storage.Store
	Logger         logger.Logger
	Gatherer       prometheus.Gatherer
	PageSize       int
	AllowedOrigins []string
}

// Server holds the HTTP server dependencies
type Server struct {
	images   *images.Resolver
	feedback *feedback.Service
	store    *storage.Store
	log      logger.Logger
	gatherer prometheus.Gatherer
	pageSize int
	origins  []string
	router   chi.Router
}

// New creates a new API server
func New(d Deps) *Server {
	s := &Server{
		images:   d.Images,
		feedback: d.Feedback,
		store:    d.Store,
		log:      d.Logger,
		gatherer: d.Gatherer,
		pageSize: d.PageSize,
		origins:  d.AllowedOrigins,
		router:   chi.NewRouter(),
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if len(s.origins) == 0 {
		s.origins = []string{"http://localhost:*"}
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the chi router so callers can mount extra handlers
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// Images
		r.Get("/images", s.handleListImages)
		r.Post("/images/cache/clear", s.handleClearImageCache)
		r.Get("/images/{key:[a-z0-9][a-z0-9_-]*}", s.handleResolveImage)
		r.Put("/images/{key:[a-z0-9][a-z0-9_-]*}", s.handlePutImage)
		r.Delete("/images/{key:[a-z0-9][a-z0-9_-]*}", s.handleDeleteImage)

		// Feedback
		r.Post("/feedback", s.handleCreateFeedback)

		// Admin tables
		r.Get("/admin/feedback", s.handleListFeedback)
	})

	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// Health check
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 32*1024)
	return json.NewDecoder(r.Body).Decode(v)
}
