package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"scriptforge-backend/internal/middleware"
	"scriptforge-backend/internal/models"
)

type stubUserRepoForSettings struct {
	user              *models.User
	settings          *models.UserSettings
	updateSettingsErr error

	updatedSettings bool
	storedKey       *string
	keyUpdated      bool
}

func (s *stubUserRepoForSettings) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil {
		return nil, errors.New("user not found")
	}
	return s.user, nil
}

func (s *stubUserRepoForSettings) Update(ctx context.Context, user *models.User) error {
	return nil
}

func (s *stubUserRepoForSettings) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return nil
}

func (s *stubUserRepoForSettings) UpdateOpenRouterKey(ctx context.Context, userID uuid.UUID, key *string) error {
	s.keyUpdated = true
	s.storedKey = key
	return nil
}

func (s *stubUserRepoForSettings) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *stubUserRepoForSettings) GetSettings(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	if s.settings == nil {
		return nil, errors.New("settings not found")
	}
	return s.settings, nil
}

func (s *stubUserRepoForSettings) UpdateSettings(ctx context.Context, settings *models.UserSettings) error {
	s.updatedSettings = true
	if s.updateSettingsErr != nil {
		return s.updateSettingsErr
	}
	s.settings = settings
	return nil
}

func settingsRequest(t *testing.T, userID uuid.UUID, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/user/settings", strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestUserHandler_UpdateSettings_MergesFields(t *testing.T) {
	userID := uuid.New()
	repo := &stubUserRepoForSettings{
		user: &models.User{ID: userID},
		settings: &models.UserSettings{
			UserID:                 userID,
			Language:               "English",
			DefaultTargetWordCount: 1500,
			DefaultModel:           "openai/gpt-4o-mini",
		},
	}
	h := &UserHandler{userRepo: repo}

	rr := httptest.NewRecorder()
	h.UpdateSettings(rr, settingsRequest(t, userID, `{"language":"Spanish","default_target_word_count":2000}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !repo.updatedSettings {
		t.Fatalf("expected settings update to be attempted")
	}
	if repo.settings.Language != "Spanish" {
		t.Errorf("expected language Spanish, got %q", repo.settings.Language)
	}
	if repo.settings.DefaultTargetWordCount != 2000 {
		t.Errorf("expected target 2000, got %d", repo.settings.DefaultTargetWordCount)
	}
	if repo.settings.DefaultModel != "openai/gpt-4o-mini" {
		t.Errorf("untouched field changed: %q", repo.settings.DefaultModel)
	}
}

func TestUserHandler_UpdateSettings_RejectsNonPositiveTarget(t *testing.T) {
	userID := uuid.New()
	repo := &stubUserRepoForSettings{
		user:     &models.User{ID: userID},
		settings: &models.UserSettings{UserID: userID, DefaultTargetWordCount: 1500},
	}
	h := &UserHandler{userRepo: repo}

	rr := httptest.NewRecorder()
	h.UpdateSettings(rr, settingsRequest(t, userID, `{"default_target_word_count":0}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if repo.updatedSettings {
		t.Fatalf("settings should not be updated for invalid target")
	}
}

func TestUserHandler_UpdateSettings_StoresAndClearsKey(t *testing.T) {
	userID := uuid.New()
	repo := &stubUserRepoForSettings{
		user:     &models.User{ID: userID},
		settings: &models.UserSettings{UserID: userID, DefaultTargetWordCount: 1500},
	}
	h := &UserHandler{userRepo: repo}

	rr := httptest.NewRecorder()
	h.UpdateSettings(rr, settingsRequest(t, userID, `{"openrouter_api_key":"sk-or-v1-abc"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !repo.keyUpdated || repo.storedKey == nil || *repo.storedKey != "sk-or-v1-abc" {
		t.Fatalf("expected key to be stored, got %v", repo.storedKey)
	}

	var payload models.UserSettings
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !payload.HasOpenRouterKey {
		t.Errorf("expected has_openrouter_key to be true")
	}

	// An empty string clears the key.
	repo.keyUpdated = false
	rr = httptest.NewRecorder()
	h.UpdateSettings(rr, settingsRequest(t, userID, `{"openrouter_api_key":""}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !repo.keyUpdated || repo.storedKey != nil {
		t.Fatalf("expected key to be cleared, got %v", repo.storedKey)
	}
}

func TestUserHandler_UpdateSettings_RepoFailure(t *testing.T) {
	userID := uuid.New()
	repo := &stubUserRepoForSettings{
		user:              &models.User{ID: userID},
		settings:          &models.UserSettings{UserID: userID, DefaultTargetWordCount: 1500},
		updateSettingsErr: errors.New("write failed"),
	}
	h := &UserHandler{userRepo: repo}

	rr := httptest.NewRecorder()
	h.UpdateSettings(rr, settingsRequest(t, userID, `{"language":"German"}`))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if !repo.updatedSettings {
		t.Fatalf("expected settings update to be attempted")
	}
}
