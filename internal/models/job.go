package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Job struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Type         string          `json:"type"` // "dna-extraction"
	ReferenceID  uuid.UUID       `json:"reference_id"`
	ConfigJSON   json.RawMessage `json:"config"`
	Status       string          `json:"status"` // "pending" | "processing" | "completed" | "failed"
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	ErrorMessage *string         `json:"error_message"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// ExtractionJobConfig is the payload of a dna-extraction job.
type ExtractionJobConfig struct {
	ProjectID    uuid.UUID      `json:"project_id"`
	Virals       []ContentPiece `json:"virals"`
	Flops        []ContentPiece `json:"flops"`
	UserNotes    string         `json:"user_notes"`
	BaseDNAID    *string        `json:"base_dna_id,omitempty"`
	BaseDNA      *ScriptDNA     `json:"base_dna,omitempty"`
	Platform     string         `json:"platform"`
	TargetLength string         `json:"target_length"`
	Model        string         `json:"model"`
	Name         string         `json:"name"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ProgressUpdate reports sub-batch progress of a running extraction.
type ProgressUpdate struct {
	JobID   uuid.UUID `json:"job_id"`
	Current int       `json:"current"`
	Total   int       `json:"total"`
	Stage   string    `json:"stage"`
}

type CompletedEvent struct {
	JobID      uuid.UUID `json:"job_id"`
	ResultID   uuid.UUID `json:"result_id"`
	ResultType string    `json:"result_type"`
}

type ErrorEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// ChangeEvent mirrors a repository write so other sessions of the same
// user can refresh. Published on the user's update channel.
type ChangeEvent struct {
	Table  string    `json:"table"`
	Action string    `json:"action"` // "insert" | "update" | "delete"
	ID     uuid.UUID `json:"id"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
