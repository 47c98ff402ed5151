package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"scriptforge-backend/internal/middleware"
	"scriptforge-backend/internal/models"
	"scriptforge-backend/internal/repository"
	"scriptforge-backend/internal/services"
)

type TemplateHandler struct {
	templateRepo *repository.TemplateRepo
	feed         *services.ChangeFeed
}

func NewTemplateHandler(templateRepo *repository.TemplateRepo, feed *services.ChangeFeed) *TemplateHandler {
	return &TemplateHandler{templateRepo: templateRepo, feed: feed}
}

func (h *TemplateHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*repository.SavedTemplate, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid template ID", r))
		return nil, false
	}

	saved, err := h.templateRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Template not found", r))
		return nil, false
	}

	if saved.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}

	return saved, true
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	saved, err := h.templateRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list templates", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": saved})
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var t models.ScoringTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if t.Name == "" || len(t.Criteria) == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"template": "A template needs a name and at least one criterion"}, r))
		return
	}

	rowID, err := h.templateRepo.Create(r.Context(), userID, &t)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save template", r))
		return
	}

	h.feed.Publish(r.Context(), userID, "scoring_templates", "insert", rowID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": rowID, "template": t})
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var t models.ScoringTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if len(t.Criteria) == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"criteria": "At least one criterion is required"}, r))
		return
	}

	if err := h.templateRepo.Update(r.Context(), saved.RowID, &t); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update template", r))
		return
	}

	h.feed.Publish(r.Context(), saved.UserID, "scoring_templates", "update", saved.RowID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": saved.RowID, "template": t})
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	saved, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.templateRepo.Delete(r.Context(), saved.RowID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete template", r))
		return
	}

	h.feed.Publish(r.Context(), saved.UserID, "scoring_templates", "delete", saved.RowID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Template deleted"})
}
