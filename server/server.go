package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"CutRoom/cache"
	"CutRoom/config"
	"CutRoom/core/peaks"
	"CutRoom/core/renderapi"
	"CutRoom/core/workbench"
	"CutRoom/db"
	"CutRoom/logger"
	"CutRoom/repository"
	"CutRoom/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      logger.LogLevel(getLogLevel()),
		OutputPath: "logs/cutroom.log",
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := storage.Init(cfg); err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	if err := db.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(
		&repository.TimelineRecord{},
		&repository.SegmentRecord{},
		&repository.ShotRecord{},
		&repository.ShotMediaRecord{},
		&repository.UserRecord{},
	); err != nil {
		log.Fatalf("Failed to migrate database schema: %v", err)
	}

	if err := cache.ConnectRedis(cfg); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.CloseRedis()
	log.Println("Successfully connected to Redis")

	timelineRepo := repository.NewTimelineRepository()
	userRepo := repository.NewUserRepository()

	backend := renderapi.NewClient(cfg.RenderAPIBaseURL, cfg.RenderAPITimeout)
	peakCache := peaks.NewCache(
		peaks.NewResolver(storage.Default()),
		peaks.NewFFmpegExtractor(cfg.FFmpegPath),
	)

	ctrl := workbench.NewController(cfg, timelineRepo, backend, peakCache)
	apiHandler := NewAPIHandler(ctrl, userRepo, cfg)

	var dropWatcher *workbench.RenderDropWatcher
	if cfg.RenderDropDir != "" {
		ensureDirExists(cfg.RenderDropDir)
		w, err := workbench.NewRenderDropWatcher(cfg.RenderDropDir, storage.Default(), ctrl.Session)
		if err != nil {
			log.Fatalf("Failed to watch render drop directory: %v", err)
		}
		dropWatcher = w
		go dropWatcher.Run()
		defer dropWatcher.Stop()
	}

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Auth endpoints
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	// Workbench session endpoints
	router.HandleFunc("/api/workbench/{projectId}", apiHandler.AuthMiddleware(apiHandler.OpenWorkbenchHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/workbench/{projectId}", apiHandler.AuthMiddleware(apiHandler.CloseWorkbenchHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/workbench/{projectId}/shots/{shotId}/duration", apiHandler.AuthMiddleware(apiHandler.ResizeShotHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/workbench/{projectId}/shots/{shotId}/drag", apiHandler.AuthMiddleware(apiHandler.DragShotHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/workbench/{projectId}/align", apiHandler.AuthMiddleware(apiHandler.AlignHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/workbench/{projectId}/violations", apiHandler.AuthMiddleware(apiHandler.ViolationsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/workbench/{projectId}/save", apiHandler.AuthMiddleware(apiHandler.SaveHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/workbench/{projectId}/generate", apiHandler.AuthMiddleware(apiHandler.GenerateVoiceHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/workbench/{projectId}/master", apiHandler.AuthMiddleware(apiHandler.RenderMasterHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/workbench/{projectId}/extract", apiHandler.AuthMiddleware(apiHandler.ExtractAudioHandler)).Methods(http.MethodPost)

	// Lane geometry and persisted view preferences
	router.HandleFunc("/api/geometry/{projectId}", apiHandler.AuthMiddleware(apiHandler.GeometryHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/prefs/zoom", apiHandler.AuthMiddleware(apiHandler.ZoomPrefHandler)).Methods(http.MethodGet, http.MethodPut)

	// Waveform endpoints
	router.HandleFunc("/api/peaks", apiHandler.AuthMiddleware(apiHandler.PeaksHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/waveform.png", apiHandler.WaveformPNGHandler).Methods(http.MethodGet)

	// Transport endpoints
	router.HandleFunc("/api/workbench/{projectId}/transport/load", apiHandler.AuthMiddleware(apiHandler.TransportLoadHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/workbench/{projectId}/transport/play", apiHandler.AuthMiddleware(apiHandler.TransportPlayHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/workbench/{projectId}/transport/pause", apiHandler.AuthMiddleware(apiHandler.TransportPauseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/workbench/{projectId}/transport/seek", apiHandler.AuthMiddleware(apiHandler.TransportSeekHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/workbench/{projectId}/transport/status", apiHandler.AuthMiddleware(apiHandler.TransportStatusHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/workbench/{projectId}/transport/frame.png", apiHandler.TransportFramePNGHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws/transport/{projectId}", apiHandler.TransportEventsHandler)

	// MinIO-backed static audio assets
	router.PathPrefix("/static/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		objectPath := strings.TrimPrefix(r.URL.Path, "/static/")
		store := storage.Default()
		if store == nil {
			http.Error(w, "Object storage not available", http.StatusInternalServerError)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		object, err := store.FetchObject(ctx, objectPath)
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer object.Close()

		var contentType string
		if strings.HasSuffix(objectPath, ".wav") {
			contentType = "audio/wav"
		} else if strings.HasSuffix(objectPath, ".mp3") {
			contentType = "audio/mpeg"
		} else if strings.HasSuffix(objectPath, ".png") {
			contentType = "image/png"
		} else {
			contentType = "application/octet-stream"
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=31536000")

		if _, err = io.Copy(w, object); err != nil {
			log.Printf("Error serving file from MinIO: %v", err)
		}
	})

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s...", cfg.ServerAddr)
		log.Println("Open a workbench via GET /api/workbench/{projectId}")
		log.Println("Drive playback via /api/workbench/{projectId}/transport endpoints")
		log.Println("Watch transport events on /ws/transport/{projectId}")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func getLogLevel() string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "info"
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("Creating directory: %s", path)
		if err := os.MkdirAll(path, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", path, err)
		}
	} else if err != nil {
		log.Fatalf("Failed to check directory %s: %v", path, err)
	}
}
