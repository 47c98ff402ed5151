package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"scriptforge-backend/internal/models"
)

// ScoringService grades scripts against a rubric.
type ScoringService struct {
	gen TextGenerator
}

func NewScoringService(gen TextGenerator) *ScoringService {
	return &ScoringService{gen: gen}
}

// ResolveRubric picks the rubric for a scoring run. Precedence: the
// selected DNA's implied rubric, then the selected template, then the
// first saved template, then the built-in generic rubric.
func ResolveRubric(dna *models.ScriptDNA, selected *models.ScoringTemplate, saved []models.ScoringTemplate) (models.ScoringTemplate, models.ScoreSourceInfo) {
	if dna != nil {
		return rubricFromDNA(dna), models.ScoreSourceInfo{Kind: "dna", Name: dna.Name}
	}
	if selected != nil && len(selected.Criteria) > 0 {
		return *selected, models.ScoreSourceInfo{Kind: "template", Name: selected.Name}
	}
	if len(saved) > 0 && len(saved[0].Criteria) > 0 {
		return saved[0], models.ScoreSourceInfo{Kind: "template", Name: saved[0].Name}
	}
	generic := models.GenericScoringTemplate()
	return generic, models.ScoreSourceInfo{Kind: "generic", Name: generic.Name}
}

// rubricFromDNA derives grading criteria from the profile the script
// was written against.
func rubricFromDNA(dna *models.ScriptDNA) models.ScoringTemplate {
	return models.ScoringTemplate{
		ID:   "dna:" + dna.ID,
		Name: dna.Name,
		Criteria: []models.ScoringCriterion{
			{ID: "hook", Name: "Hook Strength", Description: "How well the opening matches the DNA's hook angle: " + dna.Analysis.HookAngle.Description},
			{ID: "retention", Name: "Retention", Description: "Use of the DNA's retention tactics: " + strings.Join(dna.Analysis.RetentionTactics, "; ")},
			{ID: "voice", Name: "Voice Match", Description: "Fidelity to the linguistic fingerprint: " + dna.Analysis.LinguisticFingerprint.ToneDescription},
			{ID: "patterns", Name: "Core Patterns", Description: "Application of the proven patterns: " + strings.Join(dna.Analysis.CorePatterns, "; ")},
			{ID: "value", Name: "Audience Value", Description: "Whether every section delivers value the target audience actually wants."},
		},
	}
}

type ScoreRequest struct {
	ScriptText string
	Rubric     models.ScoringTemplate
	Source     models.ScoreSourceInfo
	Language   string
	Model      string
	APIKey     string
}

func (s *ScoringService) Score(ctx context.Context, req ScoreRequest) (*models.ScoringResult, error) {
	if strings.TrimSpace(req.ScriptText) == "" {
		return nil, &ValidationError{Fields: map[string]string{"script": "There is no script text to score"}}
	}

	raw, err := s.gen.GenerateJSON(ctx, GenerateRequest{
		APIKey: req.APIKey,
		Model:  req.Model,
		System: "You are a harsh but fair script critic. Average work scores in the 50s; 90+ is reserved for scripts with no real weakness. You answer with a single JSON object and nothing else.",
		Prompt: s.buildPrompt(req),
	})
	if err != nil {
		return nil, err
	}

	var reply struct {
		TotalScore      int                `json:"total_score"`
		Breakdown       []models.ScoreItem `json:"breakdown"`
		OverallFeedback string             `json:"overall_feedback"`
	}
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, &MalformedResponseError{Message: "scoring reply has an unexpected shape", Preview: preview(raw, 200)}
	}
	if len(reply.Breakdown) == 0 {
		return nil, &EmptyResponseError{Message: "scoring reply has no criterion breakdown"}
	}

	source := req.Source
	return &models.ScoringResult{
		TotalScore:      clampScore(reply.TotalScore),
		Breakdown:       reply.Breakdown,
		OverallFeedback: reply.OverallFeedback,
		Timestamp:       time.Now().UTC(),
		SourceInfo:      &source,
		ContentHash:     HashContent(req.ScriptText),
	}, nil
}

// HashContent fingerprints the exact text a score was computed for, so
// stale scores are detectable after edits.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (s *ScoringService) buildPrompt(req ScoreRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Score the script below against this rubric (%s).\n\nRUBRIC:\n", req.Rubric.Name)
	for _, c := range req.Rubric.Criteria {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
	}

	b.WriteString("\nSCRIPT:\n" + req.ScriptText + "\n\n")
	fmt.Fprintf(&b, `Score each criterion 0-100 with concrete reasoning and one actionable improvement tip, then an overall 0-100 total. Write feedback in %s.

Respond with one JSON object: {"total_score", "breakdown": [{"criteria", "score", "reasoning", "improvement_tip"}], "overall_feedback"}.`, languageName(req.Language))
	return b.String()
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
