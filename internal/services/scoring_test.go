package services

import (
	"context"
	"testing"

	"scriptforge-backend/internal/models"
)

func TestResolveRubric(t *testing.T) {
	dna := simpleDNA()
	selected := &models.ScoringTemplate{
		ID:       "tpl-1",
		Name:     "Selected",
		Criteria: []models.ScoringCriterion{{ID: "a", Name: "A"}},
	}
	saved := []models.ScoringTemplate{{
		ID:       "tpl-2",
		Name:     "Saved",
		Criteria: []models.ScoringCriterion{{ID: "b", Name: "B"}},
	}}

	t.Run("dna wins over everything", func(t *testing.T) {
		rubric, source := ResolveRubric(dna, selected, saved)
		if source.Kind != "dna" || source.Name != dna.Name {
			t.Errorf("unexpected source: %+v", source)
		}
		if rubric.ID != "dna:"+dna.ID {
			t.Errorf("unexpected rubric ID: %q", rubric.ID)
		}
		if len(rubric.Criteria) == 0 {
			t.Error("dna rubric has no criteria")
		}
	})

	t.Run("selected template when no dna", func(t *testing.T) {
		rubric, source := ResolveRubric(nil, selected, saved)
		if source.Kind != "template" || rubric.ID != "tpl-1" {
			t.Errorf("expected the selected template, got %+v / %+v", rubric, source)
		}
	})

	t.Run("first saved template as fallback", func(t *testing.T) {
		rubric, source := ResolveRubric(nil, nil, saved)
		if source.Kind != "template" || rubric.ID != "tpl-2" {
			t.Errorf("expected the saved template, got %+v / %+v", rubric, source)
		}
	})

	t.Run("generic rubric when nothing else exists", func(t *testing.T) {
		rubric, source := ResolveRubric(nil, nil, nil)
		if source.Kind != "generic" {
			t.Errorf("expected generic source, got %+v", source)
		}
		if len(rubric.Criteria) == 0 {
			t.Error("generic rubric has no criteria")
		}
	})

	t.Run("selected template without criteria is skipped", func(t *testing.T) {
		empty := &models.ScoringTemplate{ID: "tpl-3", Name: "Empty"}
		rubric, _ := ResolveRubric(nil, empty, saved)
		if rubric.ID != "tpl-2" {
			t.Errorf("expected fallback to the saved template, got %q", rubric.ID)
		}
	})
}

func TestScoringService_Score(t *testing.T) {
	rubric, source := ResolveRubric(nil, nil, nil)

	t.Run("parses and clamps the reply", func(t *testing.T) {
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			return `{"total_score":130,"breakdown":[{"criteria":"Hook","score":80,"reasoning":"strong open","improvement_tip":"tighten line two"}],"overall_feedback":"solid"}`, nil
		}}

		result, err := NewScoringService(gen).Score(context.Background(), ScoreRequest{
			ScriptText: "A script worth grading.",
			Rubric:     rubric,
			Source:     source,
			Model:      "openai/gpt-4o",
			APIKey:     "sk-or-v1-test",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.TotalScore != 100 {
			t.Errorf("expected score clamped to 100, got %d", result.TotalScore)
		}
		if len(result.Breakdown) != 1 || result.Breakdown[0].Criteria != "Hook" {
			t.Errorf("unexpected breakdown: %+v", result.Breakdown)
		}
		if result.ContentHash != HashContent("A script worth grading.") {
			t.Error("content hash does not match the scored text")
		}
		if result.SourceInfo == nil || result.SourceInfo.Kind != "generic" {
			t.Errorf("unexpected source info: %+v", result.SourceInfo)
		}
	})

	t.Run("empty script is rejected", func(t *testing.T) {
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			t.Fatal("generator should not be reached")
			return "", nil
		}}

		_, err := NewScoringService(gen).Score(context.Background(), ScoreRequest{
			ScriptText: "   ",
			Rubric:     rubric,
			Model:      "openai/gpt-4o",
			APIKey:     "sk-or-v1-test",
		})
		if _, ok := err.(*ValidationError); !ok {
			t.Fatalf("expected ValidationError, got %T (%v)", err, err)
		}
	})

	t.Run("empty breakdown is rejected", func(t *testing.T) {
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			return `{"total_score":70,"breakdown":[],"overall_feedback":"vague"}`, nil
		}}

		_, err := NewScoringService(gen).Score(context.Background(), ScoreRequest{
			ScriptText: "A script.",
			Rubric:     rubric,
			Model:      "openai/gpt-4o",
			APIKey:     "sk-or-v1-test",
		})
		if _, ok := err.(*EmptyResponseError); !ok {
			t.Fatalf("expected EmptyResponseError, got %T (%v)", err, err)
		}
	})
}

func TestHashContent(t *testing.T) {
	a := HashContent("same text")
	b := HashContent("same text")
	c := HashContent("different text")
	if a != b {
		t.Error("hash is not stable for identical text")
	}
	if a == c {
		t.Error("different texts collide")
	}
}
