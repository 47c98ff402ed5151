package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scriptforge-backend/internal/config"
	"scriptforge-backend/internal/database"
	"scriptforge-backend/internal/handlers"
	"scriptforge-backend/internal/middleware"
	"scriptforge-backend/internal/repository"
	"scriptforge-backend/internal/router"
	"scriptforge-backend/internal/services"
	"scriptforge-backend/internal/websocket"
	"scriptforge-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting ScriptForge Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	projectRepo := repository.NewProjectRepo(pool)
	dnaRepo := repository.NewDNARepo(pool)
	templateRepo := repository.NewTemplateRepo(pool)
	folderRepo := repository.NewFolderRepo(pool)
	noteRepo := repository.NewNoteRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Step 5: Initialize OpenRouter Client ────
	openrouter := services.NewOpenRouterClient(
		cfg.OpenRouterBaseURL,
		cfg.OpenRouterTemperature,
		cfg.OpenRouterMaxTokens,
		cfg.OpenRouterConcurrent,
	)
	log.Println("✓ OpenRouter client initialized")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, redisClients.Queue, jwtAuth)
	feed := services.NewChangeFeed(redisClients.Queue)
	projectService := services.NewProjectService(projectRepo, feed)
	dnaService := services.NewDNAService(openrouter, cfg.DNABatchSize)
	nicheService := services.NewNicheService(openrouter)
	blueprintService := services.NewBlueprintService(openrouter)
	writerService := services.NewWriterService(openrouter)
	refineService := services.NewRefineService(openrouter)
	scoringService := services.NewScoringService(openrouter)
	exportService := services.NewExportService()
	referenceService := services.NewReferenceService(cfg.YouTubeAPIKey)
	fileImportService := services.NewFileImportService()

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	projectHandler := handlers.NewProjectHandler(
		projectService, projectRepo, userRepo, templateRepo,
		blueprintService, writerService, refineService, scoringService, exportService,
	)
	dnaHandler := handlers.NewDNAHandler(
		dnaRepo, projectRepo, userRepo, jobRepo, redisClients.Queue,
		dnaService, nicheService, feed,
	)
	templateHandler := handlers.NewTemplateHandler(templateRepo, feed)
	folderHandler := handlers.NewFolderHandler(folderRepo, feed)
	noteHandler := handlers.NewNoteHandler(noteRepo, feed)
	referenceHandler := handlers.NewReferenceHandler(referenceService, fileImportService, cfg.StoragePath)
	userHandler := handlers.NewUserHandler(userRepo)
	jobHandler := handlers.NewJobHandler(jobRepo)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		dnaService,
		feed,
		userRepo,
		projectRepo,
		dnaRepo,
		jobRepo,
		3,
	)
	workerPool.Start()
	log.Println("✓ Worker pool started (3 goroutines)")

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		projectHandler,
		dnaHandler,
		templateHandler,
		folderHandler,
		noteHandler,
		referenceHandler,
		userHandler,
		jobHandler,
		wsHub,
		cfg.FrontendURL,
	)

	// Script generation runs synchronously and a long blueprint or
	// multi-section write can take minutes, hence the generous write
	// timeout.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ ScriptForge Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
