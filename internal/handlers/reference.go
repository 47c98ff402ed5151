package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"scriptforge-backend/internal/middleware"
	"scriptforge-backend/internal/models"
	"scriptforge-backend/internal/services"
)

// ReferenceHandler ingests reference material: YouTube videos become
// ContentPieces with transcript and comments, uploaded files become
// pieces with their extracted text as the script.
type ReferenceHandler struct {
	reference   *services.ReferenceService
	fileImport  *services.FileImportService
	storagePath string
}

func NewReferenceHandler(reference *services.ReferenceService, fileImport *services.FileImportService, storagePath string) *ReferenceHandler {
	return &ReferenceHandler{
		reference:   reference,
		fileImport:  fileImport,
		storagePath: storagePath,
	}
}

func (h *ReferenceHandler) ValidateYouTube(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateYouTubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	videoID, err := services.VideoID(req.URL)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	meta, err := h.reference.GetMetadata(r.Context(), videoID)
	if err != nil {
		// The URL shape is valid even when metadata is unreachable.
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"valid":    true,
			"video_id": videoID,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":    true,
		"video_id": videoID,
		"metadata": meta,
	})
}

func (h *ReferenceHandler) FetchTranscript(w http.ResponseWriter, r *http.Request) {
	var req models.FetchTranscriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	videoID, err := services.VideoID(req.URL)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	transcript, err := h.reference.GetTranscript(videoID)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResp("TRANSCRIPT_UNAVAILABLE", "Could not fetch a transcript for this video", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"video_id":   videoID,
		"transcript": transcript,
	})
}

func (h *ReferenceHandler) FetchComments(w http.ResponseWriter, r *http.Request) {
	var req models.FetchCommentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	videoID, err := services.VideoID(req.URL)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	comments, err := h.reference.FetchComments(r.Context(), videoID)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResp("COMMENTS_UNAVAILABLE", err.Error(), r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"video_id": videoID,
		"comments": comments,
	})
}

// ImportVideo builds a complete ContentPiece from a YouTube URL in one
// call: transcript, title and top comments.
func (h *ReferenceHandler) ImportVideo(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateYouTubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	piece, err := h.reference.BuildPiece(r.Context(), req.URL)
	if err != nil {
		if _, ok := err.(*services.ValidationError); ok {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusBadGateway, errorResp("TRANSCRIPT_UNAVAILABLE", "Could not fetch a transcript for this video", r))
		return
	}

	writeJSON(w, http.StatusOK, piece)
}

// Upload extracts text from an uploaded .txt, .pdf or .docx file and
// returns it as a ContentPiece.
func (h *ReferenceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > 25*1024*1024 { // 25MB
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 25MB limit", r))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 25*1024*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".txt" && ext != ".pdf" && ext != ".docx" {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", "Only .txt, .pdf and .docx files are supported", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	dir := filepath.Join(h.storagePath, "users", userID.String(), "uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}

	path := filepath.Join(dir, uuid.NewString()+ext)
	dst, err := os.Create(path)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}
	dst.Close()

	title := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	piece, err := h.fileImport.ImportPiece(path, title)
	os.Remove(path)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("EXTRACTION_FAILED", "Could not extract text from the file", r))
		return
	}

	writeJSON(w, http.StatusOK, piece)
}
