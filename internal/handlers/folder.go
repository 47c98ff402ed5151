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

type FolderHandler struct {
	folderRepo *repository.FolderRepo
	feed       *services.ChangeFeed
}

func NewFolderHandler(folderRepo *repository.FolderRepo, feed *services.ChangeFeed) *FolderHandler {
	return &FolderHandler{folderRepo: folderRepo, feed: feed}
}

func (h *FolderHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*models.Folder, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid folder ID", r))
		return nil, false
	}

	folder, err := h.folderRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Folder not found", r))
		return nil, false
	}

	if folder.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}

	return folder, true
}

func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	folders, err := h.folderRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list folders", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"folders": folders})
}

func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"name": "Name is required"}, r))
		return
	}

	folder := &models.Folder{UserID: userID, Name: req.Name}
	if err := h.folderRepo.Create(r.Context(), folder); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create folder", r))
		return
	}

	h.feed.Publish(r.Context(), userID, "folders", "insert", folder.ID)
	writeJSON(w, http.StatusCreated, folder)
}

func (h *FolderHandler) Rename(w http.ResponseWriter, r *http.Request) {
	folder, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"name": "Name is required"}, r))
		return
	}

	if err := h.folderRepo.Rename(r.Context(), folder.ID, req.Name); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to rename folder", r))
		return
	}

	folder.Name = req.Name
	h.feed.Publish(r.Context(), folder.UserID, "folders", "update", folder.ID)
	writeJSON(w, http.StatusOK, folder)
}

// Delete removes the folder. Projects inside it survive with their
// folder reference cleared.
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	folder, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.folderRepo.Delete(r.Context(), folder.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete folder", r))
		return
	}

	h.feed.Publish(r.Context(), folder.UserID, "folders", "delete", folder.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Folder deleted"})
}

// Notes

type NoteHandler struct {
	noteRepo *repository.NoteRepo
	feed     *services.ChangeFeed
}

func NewNoteHandler(noteRepo *repository.NoteRepo, feed *services.ChangeFeed) *NoteHandler {
	return &NoteHandler{noteRepo: noteRepo, feed: feed}
}

func (h *NoteHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*models.Note, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid note ID", r))
		return nil, false
	}

	note, err := h.noteRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Note not found", r))
		return nil, false
	}

	if note.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}

	return note, true
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	notes, err := h.noteRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list notes", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": notes})
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Title == "" {
		req.Title = "Untitled Note"
	}

	note := &models.Note{UserID: userID, Title: req.Title, Content: req.Content}
	if err := h.noteRepo.Create(r.Context(), note); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create note", r))
		return
	}

	h.feed.Publish(r.Context(), userID, "notes", "insert", note.ID)
	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	note, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Title != nil && *req.Title != "" {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}

	if err := h.noteRepo.Update(r.Context(), note); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update note", r))
		return
	}

	h.feed.Publish(r.Context(), note.UserID, "notes", "update", note.ID)
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	note, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.noteRepo.Delete(r.Context(), note.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete note", r))
		return
	}

	h.feed.Publish(r.Context(), note.UserID, "notes", "delete", note.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted"})
}
