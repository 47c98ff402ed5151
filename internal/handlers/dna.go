package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"scriptforge-backend/internal/middleware"
	"scriptforge-backend/internal/models"
	"scriptforge-backend/internal/repository"
	"scriptforge-backend/internal/services"
)

const extractionQueue = "queue:dna-extraction"

type DNAHandler struct {
	dnaRepo     *repository.DNARepo
	projectRepo *repository.ProjectRepo
	userRepo    *repository.UserRepo
	jobRepo     *repository.JobRepo
	redis       *redis.Client
	dnaSvc      *services.DNAService
	nicheSvc    *services.NicheService
	feed        *services.ChangeFeed
}

func NewDNAHandler(
	dnaRepo *repository.DNARepo,
	projectRepo *repository.ProjectRepo,
	userRepo *repository.UserRepo,
	jobRepo *repository.JobRepo,
	redisClient *redis.Client,
	dnaSvc *services.DNAService,
	nicheSvc *services.NicheService,
	feed *services.ChangeFeed,
) *DNAHandler {
	return &DNAHandler{
		dnaRepo:     dnaRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		jobRepo:     jobRepo,
		redis:       redisClient,
		dnaSvc:      dnaSvc,
		nicheSvc:    nicheSvc,
		feed:        feed,
	}
}

func (h *DNAHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*repository.SavedDNA, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid DNA ID", r))
		return nil, false
	}

	saved, err := h.dnaRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "DNA not found", r))
		return nil, false
	}

	if saved.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}

	return saved, true
}

// Library

func (h *DNAHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	saved, err := h.dnaRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list DNAs", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"dnas": saved})
}

func (h *DNAHandler) Get(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *DNAHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var dna models.ScriptDNA
	if err := json.NewDecoder(r.Body).Decode(&dna); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if dna.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"name": "Name is required"}, r))
		return
	}
	if dna.ID == "" {
		dna.ID = uuid.NewString()
	}

	rowID, err := h.dnaRepo.Create(r.Context(), userID, &dna)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save DNA", r))
		return
	}

	h.feed.Publish(r.Context(), userID, "dnas", "insert", rowID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": rowID, "dna": dna})
}

func (h *DNAHandler) Update(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var dna models.ScriptDNA
	if err := json.NewDecoder(r.Body).Decode(&dna); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if dna.ID == "" {
		dna.ID = saved.DNA.ID
	}

	if err := h.dnaRepo.Update(r.Context(), saved.RowID, &dna); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update DNA", r))
		return
	}

	h.feed.Publish(r.Context(), saved.UserID, "dnas", "update", saved.RowID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": saved.RowID, "dna": dna})
}

func (h *DNAHandler) Delete(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.dnaRepo.Delete(r.Context(), saved.RowID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete DNA", r))
		return
	}

	h.feed.Publish(r.Context(), saved.UserID, "dnas", "delete", saved.RowID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "DNA deleted"})
}

// Export returns a single profile as a downloadable JSON document.
func (h *DNAHandler) Export(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	body, err := json.MarshalIndent(saved.DNA, "", "  ")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to render DNA", r))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", saved.DNA.Name+".dna.json"))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Import accepts a previously exported profile. The profile gets a
// fresh ID so re-importing never collides with the original.
func (h *DNAHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var dna models.ScriptDNA
	if err := json.NewDecoder(r.Body).Decode(&dna); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid DNA document", r))
		return
	}
	if dna.Name == "" || len(dna.Analysis.StructureSkeleton.SectionNames()) == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"dna": "The document is missing a name or a structure skeleton"}, r))
		return
	}

	dna.ID = uuid.NewString()
	rowID, err := h.dnaRepo.Create(r.Context(), userID, &dna)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to import DNA", r))
		return
	}

	h.feed.Publish(r.Context(), userID, "dnas", "insert", rowID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": rowID, "dna": dna})
}

// CreateManual builds an empty editable profile, for users who want to
// define a style by hand instead of extracting one.
func (h *DNAHandler) CreateManual(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if req.Name == "" {
		req.Name = "Manual DNA"
	}

	dna := h.dnaSvc.ManualTemplate(req.Name)
	rowID, err := h.dnaRepo.Create(r.Context(), userID, dna)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save DNA", r))
		return
	}

	h.feed.Publish(r.Context(), userID, "dnas", "insert", rowID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": rowID, "dna": dna})
}

// Niche consistency

func (h *DNAHandler) CheckNiche(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID uuid.UUID `json:"project_id"`
		BaseDNAID *string   `json:"base_dna_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	project, ok := h.loadOwnedProject(w, r, req.ProjectID)
	if !ok {
		return
	}

	if !services.ShouldCheckNiche(len(project.Data.Virals), req.BaseDNAID != nil) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"checked": false})
		return
	}

	report := h.nicheSvc.Check(r.Context(), h.apiKey(r), h.extractionModel(r, project), project.Data.Virals)
	if report == nil {
		// Detection failed; the gate opens rather than blocking the user.
		writeJSON(w, http.StatusOK, map[string]interface{}{"checked": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"checked":    true,
		"consistent": report.Consistent(),
		"report":     report,
	})
}

// Extraction job

// extractionVirals applies the niche gate's "continue with matched
// only" choice. Flops pass through untouched; the gate is about which
// references define the style, not which ones to avoid.
func extractionVirals(virals []models.ContentPiece, matchedOnly bool, report *services.NicheReport) []models.ContentPiece {
	if !matchedOnly {
		return virals
	}
	return services.FilterMatched(virals, report)
}

func (h *DNAHandler) StartExtraction(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		ProjectID    uuid.UUID             `json:"project_id"`
		Name         string                `json:"name"`
		Platform     string                `json:"platform"`
		TargetLength string                `json:"target_length"`
		UserNotes    string                `json:"user_notes"`
		BaseDNAID    *string               `json:"base_dna_id"`
		MatchedOnly  bool                  `json:"matched_only"`
		NicheReport  *services.NicheReport `json:"niche_report"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	project, ok := h.loadOwnedProject(w, r, req.ProjectID)
	if !ok {
		return
	}

	virals := extractionVirals(project.Data.Virals, req.MatchedOnly, req.NicheReport)
	if len(virals) == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"virals": "At least one viral reference is required"}, r))
		return
	}

	config := models.ExtractionJobConfig{
		ProjectID:    project.ID,
		Virals:       virals,
		Flops:        project.Data.Flops,
		UserNotes:    req.UserNotes,
		BaseDNAID:    req.BaseDNAID,
		Platform:     req.Platform,
		TargetLength: req.TargetLength,
		Model:        h.extractionModel(r, project),
		Name:         req.Name,
	}
	configBytes, _ := json.Marshal(config)

	job := &models.Job{
		UserID:      userID,
		Type:        "dna-extraction",
		ReferenceID: project.ID,
		ConfigJSON:  configBytes,
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	if err := h.redis.LPush(r.Context(), extractionQueue, string(jobBytes)).Err(); err != nil {
		h.jobRepo.UpdateStatus(r.Context(), job.ID, "failed")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{"job_id": job.ID})
}

func (h *DNAHandler) loadOwnedProject(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*models.Project, bool) {
	project, err := h.projectRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Project not found", r))
		return nil, false
	}
	if project.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return project, true
}

func (h *DNAHandler) apiKey(r *http.Request) string {
	user, err := h.userRepo.GetByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil || user.OpenRouterAPIKey == nil {
		return ""
	}
	return *user.OpenRouterAPIKey
}

func (h *DNAHandler) extractionModel(r *http.Request, project *models.Project) string {
	if project.Data.Models != nil && project.Data.Models.DNAExtraction != "" {
		return project.Data.Models.DNAExtraction
	}
	if project.Data.SelectedModel != nil && *project.Data.SelectedModel != "" {
		return *project.Data.SelectedModel
	}

	settings, err := h.userRepo.GetSettings(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		return ""
	}
	if settings.StageModels.DNAExtraction != "" {
		return settings.StageModels.DNAExtraction
	}
	return settings.DefaultModel
}
