// main is the entry point of the alumnos API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the configured storage backend
//  4. Build the image uploader
//  5. Register all HTTP routes
//  6. Start the HTTP server in a separate goroutine
//  7. Block until an OS signal (Ctrl+C / kill) arrives, then shut down
//     gracefully: finish in-flight requests, close storage, exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/alumnos-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/alumnos-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aanand-mishra/alumnos-api/internal/config"
	"github.com/aanand-mishra/alumnos-api/internal/http/handlers/group"
	"github.com/aanand-mishra/alumnos-api/internal/http/handlers/student"
	"github.com/aanand-mishra/alumnos-api/internal/service"
	"github.com/aanand-mishra/alumnos-api/internal/storage"
	"github.com/aanand-mishra/alumnos-api/internal/storage/gormstore"
	"github.com/aanand-mishra/alumnos-api/internal/storage/memory"
	"github.com/aanand-mishra/alumnos-api/internal/storage/sqlite"
	"github.com/aanand-mishra/alumnos-api/internal/upload"
	"github.com/aanand-mishra/alumnos-api/internal/upload/cloudinary"
	"github.com/aanand-mishra/alumnos-api/internal/upload/local"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting alumnos-api",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	// ── Storage ───────────────────────────────────────────────────────────
	// The rest of the code only knows the storage.Store interface, so the
	// backend is a config switch.
	store, err := openStore(cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	log.Info("storage initialised", slog.String("driver", cfg.Storage.Driver))

	// ── Uploads ───────────────────────────────────────────────────────────
	uploader, uploadDir, err := openUploader(cfg)
	if err != nil {
		log.Error("failed to initialise uploader", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("uploader initialised", slog.String("provider", cfg.Upload.Provider))

	// ── Routes ────────────────────────────────────────────────────────────
	students := service.NewStudentService(store.Students(), store.Groups(), uploader, log)
	groups := service.NewGroupService(store.Groups(), log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	student.Register(router, students, student.UploadOptions{
		DefaultFolder: cfg.Upload.DefaultFolder,
		MaxBytes:      cfg.HTTPServer.MaxUploadMB << 20,
	})
	group.Register(router, groups)

	if uploadDir != "" {
		fs := http.StripPrefix(local.URLPrefix+"/", http.FileServer(http.Dir(uploadDir)))
		router.Handle(local.URLPrefix+"/*", fs)
	}

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: router,

		// Timeouts protect against slow clients.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ListenAndServe returns http.ErrServerClosed when Shutdown() is
		// called, which is not an error.
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped gracefully")
}

// openStore opens the backend named by cfg.Storage.Driver.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		return sqlite.New(cfg)
	case config.DriverPostgres:
		return gormstore.NewPostgres(cfg.Storage.DSN)
	case config.DriverGormSQLite:
		return gormstore.NewSQLite(cfg.Storage.Path)
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// openUploader builds the configured uploader. For the local provider it
// also returns the directory to serve under /uploads.
func openUploader(cfg *config.Config) (upload.Uploader, string, error) {
	switch cfg.Upload.Provider {
	case config.ProviderCloudinary:
		u, err := cloudinary.New(cfg.Upload.CloudinaryURL)
		return u, "", err
	case config.ProviderLocal:
		u, err := local.New(cfg.Upload.LocalDir, cfg.Upload.BaseURL)
		if err != nil {
			return nil, "", err
		}
		return u, u.Dir(), nil
	default:
		return nil, "", fmt.Errorf("unknown upload provider %q", cfg.Upload.Provider)
	}
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
