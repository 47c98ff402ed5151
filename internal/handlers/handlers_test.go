package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"scriptforge-backend/internal/models"
	"scriptforge-backend/internal/services"
)

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]string{"message": "Success"})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", ct)
	}

	var result map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["message"] != "Success" {
		t.Errorf("Expected message 'Success', got %q", result["message"])
	}
}

func TestErrorResp_EchoesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("X-Request-ID", "req-123")

	resp := errorResp("NOT_FOUND", "Project not found", req)
	if resp.Error.Code != "NOT_FOUND" || resp.Error.Message != "Project not found" {
		t.Errorf("Unexpected error body: %+v", resp.Error)
	}
	if resp.Error.RequestID != "req-123" {
		t.Errorf("Expected request ID echoed, got %q", resp.Error.RequestID)
	}
}

func TestHandleServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"name": "required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "email taken"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "no such project"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "bad credentials"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "not yours"}, http.StatusForbidden, "FORBIDDEN"},
		{"rate limited", &services.RateLimitError{Message: "slow down"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		// A rejected OpenRouter key is the caller's problem, not an
		// expired session, so it must not come back as 401.
		{"provider auth", &services.AuthError{Message: "key rejected"}, http.StatusBadRequest, "PROVIDER_AUTH"},
		{"transport", &services.TransportError{StatusCode: 503, Message: "upstream down"}, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"malformed reply", &services.MalformedResponseError{Message: "not json"}, http.StatusBadGateway, "MALFORMED_RESPONSE"},
		{"empty reply", &services.EmptyResponseError{Message: "no content"}, http.StatusBadGateway, "EMPTY_RESPONSE"},
		{"contract violation", &services.ContractViolation{Message: "word counts off", Expected: 800, Actual: 600}, http.StatusUnprocessableEntity, "CONTRACT_VIOLATION"},
		// The writer wraps section failures with context; the mapping
		// must see through the chain.
		{"wrapped auth error", fmt.Errorf("writing section 2/3 (Body): %w", &services.AuthError{Message: "key rejected"}), http.StatusBadRequest, "PROVIDER_AUTH"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", nil)

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error.Code != tc.wantCode {
				t.Errorf("Expected code %q, got %q", tc.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestHandleServiceError_ValidationFields(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", nil)

	handleServiceError(rr, req, &services.ValidationError{Fields: map[string]string{"email": "Invalid email"}})

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Error.Fields["email"] != "Invalid email" {
		t.Errorf("Expected field errors carried through, got %+v", resp.Error.Fields)
	}
}

func TestExtractionVirals(t *testing.T) {
	virals := []models.ContentPiece{
		{Title: "Morning routine"},
		{Title: "Budget hacks"},
		{Title: "Meal prep"},
	}
	report := &services.NicheReport{
		Majority:   "Fitness",
		Mismatches: []services.NicheMismatch{{Index: 2, Title: "Budget hacks", Niche: "personal finance"}},
	}

	t.Run("matched only drops the mismatched reference", func(t *testing.T) {
		got := extractionVirals(virals, true, report)
		if len(got) != 2 {
			t.Fatalf("Expected 2 virals, got %d", len(got))
		}
		if got[0].Title != "Morning routine" || got[1].Title != "Meal prep" {
			t.Errorf("Wrong virals kept: %+v", got)
		}
	})

	t.Run("default keeps everything", func(t *testing.T) {
		if got := extractionVirals(virals, false, report); len(got) != 3 {
			t.Errorf("Expected all 3 virals, got %d", len(got))
		}
	})

	t.Run("matched only without a report keeps everything", func(t *testing.T) {
		if got := extractionVirals(virals, true, nil); len(got) != 3 {
			t.Errorf("Expected all 3 virals, got %d", len(got))
		}
	})
}
