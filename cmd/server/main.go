package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/meur/equicenter/internal/api"
	"github.com/meur/equicenter/internal/backend"
	"github.com/meur/equicenter/internal/config"
	"github.com/meur/equicenter/internal/feedback"
	"github.com/meur/equicenter/internal/images"
	"github.com/meur/equicenter/internal/logger"
	"github.com/meur/equicenter/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override the environment
	port := flag.String("port", cfg.Server.Port, "Server port")
	dbPath := flag.String("db", cfg.Database.Path, "SQLite database path")
	policy := flag.String("image-cache", cfg.Images.Policy, "Image cache policy (cached|uncached)")
	flag.Parse()

	appLog := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.Log.Level),
		Output:     os.Stdout,
		JSON:       cfg.Log.JSON,
		AddSource:  cfg.Log.Source,
		TimeFormat: "15:04:05",
	})

	imagePolicy, err := images.ParsePolicy(*policy)
	if err != nil {
		appLog.Error("invalid image cache policy", "error", err)
		os.Exit(1)
	}

	// Initialize storage
	store, err := storage.New(*dbPath)
	if err != nil {
		appLog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var (
		directory     images.Directory = store
		feedbackStore feedback.Store   = store
		localStore                     = store
	)
	if cfg.Backend.URL != "" {
		client, err := backend.New(backend.Config{
			BaseURL: cfg.Backend.URL,
			APIKey:  cfg.Backend.APIKey,
			Timeout: cfg.Backend.Timeout,
		})
		if err != nil {
			appLog.Error("invalid backend configuration", "error", err)
			os.Exit(1)
		}
		directory, feedbackStore, localStore = client, client, nil
		appLog.Info("using hosted backend", "url", cfg.Backend.URL)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	resolver := images.New(directory,
		images.WithPolicy(imagePolicy),
		images.WithTTL(cfg.Images.TTL),
		images.WithLogger(appLog),
		images.WithMetrics(images.NewMetrics(reg)),
	)

	feedbackSvc, err := feedback.New(feedbackStore, appLog)
	if err != nil {
		appLog.Error("failed to initialize feedback", "error", err)
		os.Exit(1)
	}

	// Create router
	srv := api.New(api.Deps{
		Images:         resolver,
		Feedback:       feedbackSvc,
		Store:          localStore,
		Logger:         appLog,
		Gatherer:       reg,
		PageSize:       cfg.Table.PageSize,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	// Serve frontend static files (for production deployment)
	if cfg.Server.StaticDir != "" {
		staticDir := cfg.Server.StaticDir
		if !filepath.IsAbs(staticDir) {
			workDir, _ := os.Getwd()
			staticDir = filepath.Join(workDir, staticDir)
		}
		FileServer(srv.Router(), "/", http.Dir(staticDir))
	}

	httpServer := &http.Server{
		Addr:              ":" + *port,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		appLog.Info("equicenter API starting", "addr", "http://localhost:"+*port)
		appLog.Info("configuration", "db", *dbPath, "image_cache", imagePolicy, "page_size", cfg.Table.PageSize)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("shutdown failed", "error", err)
	}
	appLog.Info("server stopped")
}

// FileServer conveniently sets up a http.FileServer handler to serve
// static files from a http.FileSystem.
func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit URL parameters.")
	}

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", http.StatusMovedPermanently).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		rctx := chi.RouteContext(req.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		fs := http.StripPrefix(pathPrefix, http.FileServer(root))
		fs.ServeHTTP(w, req)
	})
}
