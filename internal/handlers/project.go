package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"scriptforge-backend/internal/middleware"
	"scriptforge-backend/internal/models"
	"scriptforge-backend/internal/repository"
	"scriptforge-backend/internal/services"
)

type ProjectHandler struct {
	projectSvc   *services.ProjectService
	projectRepo  *repository.ProjectRepo
	userRepo     *repository.UserRepo
	templateRepo *repository.TemplateRepo
	blueprint    *services.BlueprintService
	writer       *services.WriterService
	refine       *services.RefineService
	scoring      *services.ScoringService
	export       *services.ExportService
}

func NewProjectHandler(
	projectSvc *services.ProjectService,
	projectRepo *repository.ProjectRepo,
	userRepo *repository.UserRepo,
	templateRepo *repository.TemplateRepo,
	blueprint *services.BlueprintService,
	writer *services.WriterService,
	refine *services.RefineService,
	scoring *services.ScoringService,
	export *services.ExportService,
) *ProjectHandler {
	return &ProjectHandler{
		projectSvc:   projectSvc,
		projectRepo:  projectRepo,
		userRepo:     userRepo,
		templateRepo: templateRepo,
		blueprint:    blueprint,
		writer:       writer,
		refine:       refine,
		scoring:      scoring,
		export:       export,
	}
}

// loadOwned fetches the project in the URL and rejects cross-user
// access. On failure the response is already written.
func (h *ProjectHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid project ID", r))
		return nil, false
	}

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

// apiKey returns the caller's stored OpenRouter key, or "" when none is
// set. Generation fails with a typed error on an empty key, so there is
// no need to reject here.
func (h *ProjectHandler) apiKey(r *http.Request) string {
	user, err := h.userRepo.GetByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil || user.OpenRouterAPIKey == nil {
		return ""
	}
	return *user.OpenRouterAPIKey
}

// stageModel resolves which model serves a pipeline stage: the
// project's per-stage override, then the project's single selected
// model, then the user's settings.
func (h *ProjectHandler) stageModel(r *http.Request, data *models.ProjectData, stage string) string {
	pick := func(m models.StageModels) string {
		switch stage {
		case "blueprint":
			return m.Blueprint
		case "scriptGeneration":
			return m.ScriptGeneration
		case "refinement":
			return m.Refinement
		default:
			return m.DNAExtraction
		}
	}

	if data.Models != nil {
		if m := pick(*data.Models); m != "" {
			return m
		}
	}
	if data.SelectedModel != nil && *data.SelectedModel != "" {
		return *data.SelectedModel
	}

	settings, err := h.userRepo.GetSettings(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		return ""
	}
	if m := pick(settings.StageModels); m != "" {
		return m
	}
	return settings.DefaultModel
}

// respondSaved writes the project back, attaching a warning when the
// save failed but the in-memory state is good.
func respondSaved(w http.ResponseWriter, r *http.Request, project *models.Project, perr *services.PersistenceError) {
	resp := map[string]interface{}{"project": project}
	if perr != nil {
		resp["warning"] = perr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// CRUD

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Name     string     `json:"name"`
		FolderID *uuid.UUID `json:"folder_id"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	defaults := models.UserSettings{}
	if settings, err := h.userRepo.GetSettings(r.Context(), userID); err == nil {
		defaults = *settings
	}

	project, err := h.projectSvc.Create(r.Context(), userID, req.Name, req.FolderID, defaults)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var folderID *uuid.UUID
	if f := r.URL.Query().Get("folder_id"); f != "" {
		id, err := uuid.Parse(f)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid folder ID", r))
			return
		}
		folderID = &id
	}

	limit := 20
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	offset := 0
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o > 0 {
		offset = o
	}

	projects, total, err := h.projectRepo.ListByUser(r.Context(), userID, folderID, r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list projects", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"projects": projects,
		"total":    total,
	})
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        *string    `json:"name"`
		FolderID    *uuid.UUID `json:"folder_id"`
		ClearFolder bool       `json:"clear_folder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Name != nil && *req.Name != "" {
		project.Name = *req.Name
	}
	if req.ClearFolder {
		project.FolderID = nil
	} else if req.FolderID != nil {
		project.FolderID = req.FolderID
	}

	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.projectSvc.Delete(r.Context(), project); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete project", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Project deleted"})
}

// State-machine operations

func (h *ProjectHandler) UpdateInput(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		Mode                  *models.CreationMode  `json:"mode"`
		Language              *string               `json:"language"`
		UserDraft             *string               `json:"user_draft"`
		Virals                []models.ContentPiece `json:"virals"`
		Flops                 []models.ContentPiece `json:"flops"`
		TargetWordCount       *int                  `json:"target_word_count"`
		CustomStructurePrompt *string               `json:"custom_structure_prompt"`
		SelectedDNA           *models.ScriptDNA     `json:"selected_dna"`
		ClearSelectedDNA      bool                  `json:"clear_selected_dna"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.TargetWordCount != nil && *req.TargetWordCount <= 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"target_word_count": "Target word count must be positive"}, r))
		return
	}
	if req.Mode != nil && *req.Mode != models.ModeRewrite && *req.Mode != models.ModeIdea {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"mode": "Mode must be rewrite or idea"}, r))
		return
	}

	services.ApplyInputPatch(&project.Data, services.InputPatch{
		Mode:                  req.Mode,
		Language:              req.Language,
		UserDraft:             req.UserDraft,
		Virals:                req.Virals,
		Flops:                 req.Flops,
		TargetWordCount:       req.TargetWordCount,
		CustomStructurePrompt: req.CustomStructurePrompt,
		SelectedDNA:           req.SelectedDNA,
		ClearSelectedDNA:      req.ClearSelectedDNA,
	})

	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

func (h *ProjectHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		Step models.Step `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := services.NavigateTo(&project.Data, req.Step); err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

func (h *ProjectHandler) SelectModels(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		SelectedModel *string             `json:"selected_model"`
		Models        *models.StageModels `json:"models"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.SelectedModel != nil {
		project.Data.SelectedModel = req.SelectedModel
	}
	if req.Models != nil {
		project.Data.Models = req.Models
	}

	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

// Blueprint stage

func (h *ProjectHandler) GenerateBlueprint(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	bp, violation, err := h.blueprint.Generate(r.Context(), services.BlueprintRequest{
		DNA:                   project.Data.SelectedDNA,
		Mode:                  project.Data.Mode,
		UserDraft:             project.Data.UserDraft,
		TargetWordCount:       project.Data.TargetWordCount,
		Language:              project.Data.Language,
		CustomStructurePrompt: project.Data.CustomStructurePrompt,
		CustomBlueprintPrompt: project.Data.CustomBlueprintPrompt,
		Flops:                 project.Data.Flops,
		Model:                 h.stageModel(r, &project.Data, "blueprint"),
		APIKey:                h.apiKey(r),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	services.CommitBlueprint(&project.Data, bp)

	// The plan is committed even when it breaks the structural contract;
	// the violation travels with the response so the word-count totals
	// can show the discrepancy.
	resp := map[string]interface{}{"project": project}
	if violation != nil {
		resp["contract_violation"] = violation.Error()
	}
	if perr := h.projectSvc.Save(r.Context(), project); perr != nil {
		resp["warning"] = perr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ProjectHandler) EditBlueprint(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var bp models.ScriptBlueprint
	if err := json.NewDecoder(r.Body).Decode(&bp); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if len(bp.Sections) == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"sections": "A blueprint needs at least one section"}, r))
		return
	}

	services.EditBlueprint(&project.Data, &bp)
	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

func (h *ProjectHandler) SetBlueprintPrompt(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		Prompt *string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	services.SetCustomBlueprintPrompt(&project.Data, req.Prompt)
	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

// WriteBlueprintSection generates narration for a single blueprint
// section and stores it on that section, without touching the script
// stage.
func (h *ProjectHandler) WriteBlueprintSection(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		SectionID   string `json:"section_id"`
		Instruction string `json:"instruction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	bp := project.Data.Blueprint
	index := -1
	if bp != nil {
		for i := range bp.Sections {
			if bp.Sections[i].ID == req.SectionID {
				index = i
				break
			}
		}
	}
	if index < 0 {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Section not found", r))
		return
	}

	content, err := h.writer.WriteBlueprintSection(r.Context(), bp, index,
		project.Data.Language,
		h.stageModel(r, &project.Data, "scriptGeneration"),
		h.apiKey(r),
		req.Instruction)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	bp.Sections[index].GeneratedContent = &content
	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

// Script stage

func (h *ProjectHandler) GenerateScript(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	result, err := h.writer.WriteScript(r.Context(), services.ScriptWriteRequest{
		Blueprint: project.Data.Blueprint,
		DNA:       project.Data.SelectedDNA,
		UserDraft: project.Data.UserDraft,
		Language:  project.Data.Language,
		Model:     h.stageModel(r, &project.Data, "scriptGeneration"),
		APIKey:    h.apiKey(r),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	services.CommitResult(&project.Data, result)
	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

func (h *ProjectHandler) EditSection(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		SectionID string `json:"section_id"`
		Content   string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if !services.EditResultSection(&project.Data, req.SectionID, req.Content) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Section not found", r))
		return
	}

	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

func (h *ProjectHandler) RefineSection(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		SectionID      string `json:"section_id"`
		Instruction    string `json:"instruction"`
		FromSuggestion bool   `json:"from_suggestion"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	index := sectionIndexByID(project.Data.Result, req.SectionID)
	if index < 0 {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Section not found", r))
		return
	}

	content, err := h.refine.RefineSection(r.Context(), services.RefineSectionRequest{
		Result:       project.Data.Result,
		SectionIndex: index,
		Instruction:  req.Instruction,
		Language:     project.Data.Language,
		Model:        h.stageModel(r, &project.Data, "refinement"),
		APIKey:       h.apiKey(r),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	services.EditResultSection(&project.Data, req.SectionID, content)
	if req.FromSuggestion {
		services.InvalidateFullScore(&project.Data)
	}
	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

func (h *ProjectHandler) RefineScript(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		Feedback string `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	result, err := h.refine.RefineScript(r.Context(), services.RefineScriptRequest{
		Result:   project.Data.Result,
		Feedback: req.Feedback,
		Language: project.Data.Language,
		Model:    h.stageModel(r, &project.Data, "refinement"),
		APIKey:   h.apiKey(r),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	services.CommitResult(&project.Data, result)
	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

// Scoring

func (h *ProjectHandler) resolveRubric(r *http.Request, data *models.ProjectData) (models.ScoringTemplate, models.ScoreSourceInfo) {
	var selected *models.ScoringTemplate
	if data.SelectedScoringTemplateID != nil {
		for i := range data.ScoringTemplates {
			if data.ScoringTemplates[i].ID == *data.SelectedScoringTemplateID {
				selected = &data.ScoringTemplates[i]
				break
			}
		}
	}

	var saved []models.ScoringTemplate
	if rows, err := h.templateRepo.ListByUser(r.Context(), middleware.GetUserID(r.Context())); err == nil {
		for _, row := range rows {
			saved = append(saved, row.Template)
		}
	}

	return services.ResolveRubric(data.SelectedDNA, selected, saved)
}

func (h *ProjectHandler) ScoreScript(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if project.Data.Result == nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"result": "There is no script to score"}, r))
		return
	}

	rubric, source := h.resolveRubric(r, &project.Data)
	score, err := h.scoring.Score(r.Context(), services.ScoreRequest{
		ScriptText: project.Data.Result.FullScriptText(),
		Rubric:     rubric,
		Source:     source,
		Language:   project.Data.Language,
		Model:      h.stageModel(r, &project.Data, "refinement"),
		APIKey:     h.apiKey(r),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	services.ApplyFullScore(&project.Data, score)
	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

func (h *ProjectHandler) ScoreSection(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		SectionID string `json:"section_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	index := sectionIndexByID(project.Data.Result, req.SectionID)
	if index < 0 {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Section not found", r))
		return
	}

	sec := &project.Data.Result.Rewritten.ScriptSections[index]
	rubric, source := h.resolveRubric(r, &project.Data)
	score, err := h.scoring.Score(r.Context(), services.ScoreRequest{
		ScriptText: sec.Content,
		Rubric:     rubric,
		Source:     source,
		Language:   project.Data.Language,
		Model:      h.stageModel(r, &project.Data, "refinement"),
		APIKey:     h.apiKey(r),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	sec.ScoringResult = score
	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

func (h *ProjectHandler) SelectScoringTemplate(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		TemplateID *string                  `json:"template_id"`
		Templates  []models.ScoringTemplate `json:"templates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Templates != nil {
		project.Data.ScoringTemplates = req.Templates
	}
	project.Data.SelectedScoringTemplateID = req.TemplateID

	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

// Versions

func (h *ProjectHandler) RestoreBlueprintVersion(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		VersionID string `json:"version_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if !services.RestoreBlueprint(&project.Data, req.VersionID) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Blueprint version not found", r))
		return
	}

	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

func (h *ProjectHandler) RestoreResultVersion(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		VersionID string `json:"version_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if !services.RestoreResult(&project.Data, req.VersionID) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Script version not found", r))
		return
	}

	respondSaved(w, r, project, h.projectSvc.Save(r.Context(), project))
}

// Export

func (h *ProjectHandler) Export(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	format := services.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = services.ExportMarkdown
	}

	file, err := h.export.Render(project.Name, project.Data.Result, format)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Body)
}

func sectionIndexByID(result *models.OptimizedResult, sectionID string) int {
	if result == nil {
		return -1
	}
	for i, sec := range result.Rewritten.ScriptSections {
		if sec.ID == sectionID {
			return i
		}
	}
	return -1
}
