package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/montagy/voxify/internal/api"
	"github.com/montagy/voxify/internal/config"
	"github.com/montagy/voxify/internal/db"
	"github.com/montagy/voxify/internal/queue"
	"github.com/montagy/voxify/internal/services"
	"github.com/montagy/voxify/internal/storage"
	"github.com/montagy/voxify/internal/worker"
)

func main() {
	log.Println("Starting Voxify API...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	log.Println("Connected to database")

	// Connect to Redis queue
	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()
	log.Println("Connected to Redis queue")

	// Initialize audio storage
	stor, err := storage.New(cfg.AudioRoot)
	if err != nil {
		log.Fatalf("Failed to initialize audio storage: %v", err)
	}
	log.Printf("Audio storage root: %s", cfg.AudioRoot)

	// Create API handler
	handler := api.NewHandler(database, q, stor)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Start worker if enabled
	var workerCtx context.Context
	var workerCancel context.CancelFunc
	if cfg.WorkerEnabled {
		log.Println("Worker enabled, starting background processing...")

		// Clone engine — F5-TTS preferred, Coqui as legacy fallback, remote GPU last
		var cloneEngine services.TTSEngine
		switch {
		case cfg.F5TTSURL != "":
			cloneEngine = services.NewF5TTSService(cfg.F5TTSURL)
			log.Printf("Clone engine: F5-TTS (%s)", cfg.F5TTSURL)
		case cfg.CoquiURL != "":
			cloneEngine = services.NewCoquiServiceWithLanguage(cfg.CoquiURL, cfg.CoquiLanguage)
			log.Printf("Clone engine: Coqui XTTS (legacy, %s)", cfg.CoquiURL)
		default:
			cloneEngine = services.NewRemoteGPUService(cfg.FaaSEndpoint, cfg.FaaSToken)
			log.Printf("Clone engine: remote GPU endpoint (%s)", cfg.FaaSEndpoint)
		}

		// Stock voices — optional, only when a Gemini key is configured
		var stockEngine services.TTSEngine
		if cfg.GeminiKey != "" {
			stockEngine = services.NewGeminiTTSService(cfg.GeminiKey)
			log.Println("Stock voice engine: Gemini")
		} else {
			log.Println("No GEMINI_API_KEY set — stock voices disabled")
		}

		whisperSvc := services.NewTranscriptionService(cfg.OpenAIKey)
		encoderSvc := services.NewEncoderService(cfg.EncoderURL)

		w := worker.New(database, q, stor, cloneEngine, stockEngine, whisperSvc, encoderSvc)

		// Start worker in background
		workerCtx, workerCancel = context.WithCancel(context.Background())
		go w.Start(workerCtx, cfg.MaxConcurrentJobs)
	}

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Shutdown worker
	if workerCancel != nil {
		workerCancel()
	}

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
