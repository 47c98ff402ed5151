package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"scriptforge-backend/internal/handlers"
	"scriptforge-backend/internal/middleware"
	"scriptforge-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	projectHandler *handlers.ProjectHandler,
	dnaHandler *handlers.DNAHandler,
	templateHandler *handlers.TemplateHandler,
	folderHandler *handlers.FolderHandler,
	noteHandler *handlers.NoteHandler,
	referenceHandler *handlers.ReferenceHandler,
	userHandler *handlers.UserHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Project Routes ────
		r.Route("/projects", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", projectHandler.Create)
			r.Get("/", projectHandler.List)
			r.Get("/{id}", projectHandler.Get)
			r.Put("/{id}", projectHandler.Update)
			r.Delete("/{id}", projectHandler.Delete)

			r.Put("/{id}/input", projectHandler.UpdateInput)
			r.Post("/{id}/navigate", projectHandler.Navigate)
			r.Put("/{id}/models", projectHandler.SelectModels)

			r.Post("/{id}/blueprint", projectHandler.GenerateBlueprint)
			r.Put("/{id}/blueprint", projectHandler.EditBlueprint)
			r.Put("/{id}/blueprint-prompt", projectHandler.SetBlueprintPrompt)
			r.Post("/{id}/blueprint/restore", projectHandler.RestoreBlueprintVersion)
			r.Post("/{id}/blueprint/section-script", projectHandler.WriteBlueprintSection)

			r.Post("/{id}/script", projectHandler.GenerateScript)
			r.Put("/{id}/script/section", projectHandler.EditSection)
			r.Post("/{id}/script/refine-section", projectHandler.RefineSection)
			r.Post("/{id}/script/refine", projectHandler.RefineScript)
			r.Post("/{id}/script/restore", projectHandler.RestoreResultVersion)

			r.Post("/{id}/score", projectHandler.ScoreScript)
			r.Post("/{id}/score/section", projectHandler.ScoreSection)
			r.Put("/{id}/scoring-template", projectHandler.SelectScoringTemplate)

			r.Get("/{id}/export", projectHandler.Export)
		})

		// ──── DNA Routes ────
		r.Route("/dna", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", dnaHandler.List)
			r.Post("/", dnaHandler.Save)
			r.Get("/{id}", dnaHandler.Get)
			r.Put("/{id}", dnaHandler.Update)
			r.Delete("/{id}", dnaHandler.Delete)
			r.Get("/{id}/export", dnaHandler.Export)
			r.Post("/import", dnaHandler.Import)
			r.Post("/manual", dnaHandler.CreateManual)
			r.Post("/niche-check", dnaHandler.CheckNiche)
			r.Post("/extract", dnaHandler.StartExtraction)
		})

		// ──── Scoring Template Routes ────
		r.Route("/scoring-templates", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", templateHandler.List)
			r.Post("/", templateHandler.Create)
			r.Put("/{id}", templateHandler.Update)
			r.Delete("/{id}", templateHandler.Delete)
		})

		// ──── Folder Routes ────
		r.Route("/folders", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", folderHandler.List)
			r.Post("/", folderHandler.Create)
			r.Put("/{id}", folderHandler.Rename)
			r.Delete("/{id}", folderHandler.Delete)
		})

		// ──── Note Routes ────
		r.Route("/notes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", noteHandler.List)
			r.Post("/", noteHandler.Create)
			r.Put("/{id}", noteHandler.Update)
			r.Delete("/{id}", noteHandler.Delete)
		})

		// ──── Reference Routes ────
		r.Route("/references", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/validate-youtube", referenceHandler.ValidateYouTube)
			r.Post("/transcript", referenceHandler.FetchTranscript)
			r.Post("/comments", referenceHandler.FetchComments)
			r.Post("/import-video", referenceHandler.ImportVideo)
			r.Post("/upload", referenceHandler.Upload)
		})

		// ──── User & Settings Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", userHandler.GetMe)
			r.Put("/me", userHandler.UpdateMe)
			r.Put("/password", userHandler.ChangePassword)
			r.Delete("/me", userHandler.DeleteMe)
			r.Get("/settings", userHandler.GetSettings)
			r.Put("/settings", userHandler.UpdateSettings)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", jobHandler.GetJob)
			r.Delete("/{id}", jobHandler.CancelJob)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
