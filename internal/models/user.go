package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	FullName         string     `json:"full_name"`
	AvatarURL        *string    `json:"avatar_url"`
	IsActive         bool       `json:"is_active"`
	Plan             string     `json:"plan"`
	OpenRouterAPIKey *string    `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	LastLoginAt      *time.Time `json:"last_login_at"`
}

type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserSettings holds per-user defaults for new projects and the
// per-stage model selection.
type UserSettings struct {
	UserID                 uuid.UUID   `json:"user_id"`
	Language               string      `json:"language"`
	DefaultTargetWordCount int         `json:"default_target_word_count"`
	DefaultModel           string      `json:"default_model"`
	StageModels            StageModels `json:"stage_models"`
	HasOpenRouterKey       bool        `json:"has_openrouter_key"`
	UpdatedAt              time.Time   `json:"updated_at"`
}

type UpdateSettingsRequest struct {
	Language               *string      `json:"language,omitempty"`
	DefaultTargetWordCount *int         `json:"default_target_word_count,omitempty"`
	DefaultModel           *string      `json:"default_model,omitempty"`
	StageModels            *StageModels `json:"stage_models,omitempty"`
	OpenRouterAPIKey       *string      `json:"openrouter_api_key,omitempty"`
}
