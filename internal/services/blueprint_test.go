package services

import (
	"context"
	"strconv"
	"testing"

	"scriptforge-backend/internal/models"
)

func simpleDNA() *models.ScriptDNA {
	return &models.ScriptDNA{
		ID:   "dna-1",
		Name: "Test DNA",
		Analysis: models.DNAAnalysis{
			StructureSkeleton: models.StructureSkeleton{Simple: []string{"Hook", "Body", "Payoff"}},
		},
	}
}

func detailedDNA(sectionNames ...string) *models.ScriptDNA {
	details := make([]models.DNASectionDetail, len(sectionNames))
	for i, name := range sectionNames {
		details[i] = models.DNASectionDetail{SectionName: name}
	}
	dna := simpleDNA()
	dna.Analysis.StructureSkeleton = models.StructureSkeleton{Detailed: details}
	return dna
}

func blueprintReply(targets ...int) string {
	out := `{"sections":[`
	for i, wc := range targets {
		if i > 0 {
			out += ","
		}
		out += `{"title":"Section","type":"body","word_count_target":` + strconv.Itoa(wc) + `}`
	}
	return out + `]}`
}

func TestBlueprintService_Generate(t *testing.T) {
	t.Run("valid plan gets section IDs", func(t *testing.T) {
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			return blueprintReply(100, 500, 200), nil
		}}

		bp, violation, err := NewBlueprintService(gen).Generate(context.Background(), BlueprintRequest{
			DNA:             simpleDNA(),
			TargetWordCount: 800,
			Model:           "openai/gpt-4o",
			APIKey:          "sk-or-v1-test",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if violation != nil {
			t.Fatalf("unexpected violation: %v", violation)
		}
		if len(bp.Sections) != 3 {
			t.Fatalf("expected 3 sections, got %d", len(bp.Sections))
		}
		for i, s := range bp.Sections {
			if s.ID == "" {
				t.Errorf("section %d has no ID", i)
			}
		}
	})

	t.Run("word count mismatch keeps the plan and reports the violation", func(t *testing.T) {
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			return blueprintReply(100, 500), nil
		}}

		bp, violation, err := NewBlueprintService(gen).Generate(context.Background(), BlueprintRequest{
			DNA:             simpleDNA(),
			TargetWordCount: 800,
			Model:           "openai/gpt-4o",
			APIKey:          "sk-or-v1-test",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bp == nil || len(bp.Sections) != 2 {
			t.Fatalf("the short plan should still come back: %+v", bp)
		}
		if violation == nil {
			t.Fatal("expected a violation alongside the plan")
		}
		if violation.Expected != 800 || violation.Actual != 600 {
			t.Errorf("wrong totals in violation: expected %d actual %d", violation.Expected, violation.Actual)
		}
	})

	t.Run("detailed skeleton pins the section count", func(t *testing.T) {
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			return blueprintReply(400, 400), nil
		}}

		bp, violation, err := NewBlueprintService(gen).Generate(context.Background(), BlueprintRequest{
			DNA:             detailedDNA("Hook", "Body", "Payoff"),
			TargetWordCount: 800,
			Model:           "openai/gpt-4o",
			APIKey:          "sk-or-v1-test",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bp == nil {
			t.Fatal("the plan should still come back")
		}
		if violation == nil {
			t.Fatal("expected a violation alongside the plan")
		}
		if violation.Expected != 3 || violation.Actual != 2 {
			t.Errorf("wrong counts in violation: expected %d actual %d", violation.Expected, violation.Actual)
		}
	})

	t.Run("detailed skeleton sections are linked back", func(t *testing.T) {
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			return blueprintReply(100, 500, 200), nil
		}}

		bp, _, err := NewBlueprintService(gen).Generate(context.Background(), BlueprintRequest{
			DNA:             detailedDNA("Hook", "Body", "Payoff"),
			TargetWordCount: 800,
			Model:           "openai/gpt-4o",
			APIKey:          "sk-or-v1-test",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, want := range []string{"Hook", "Body", "Payoff"} {
			detail := bp.Sections[i].DNASectionDetail
			if detail == nil || detail.SectionName != want {
				t.Errorf("section %d not linked to skeleton entry %q: %+v", i, want, detail)
			}
		}
	})

	t.Run("missing DNA", func(t *testing.T) {
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			t.Fatal("generator should not be reached")
			return "", nil
		}}

		_, _, err := NewBlueprintService(gen).Generate(context.Background(), BlueprintRequest{
			TargetWordCount: 800,
			Model:           "openai/gpt-4o",
			APIKey:          "sk-or-v1-test",
		})
		if _, ok := err.(*ValidationError); !ok {
			t.Fatalf("expected ValidationError, got %T (%v)", err, err)
		}
	})

	t.Run("empty section list is fatal", func(t *testing.T) {
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			return `{"sections":[]}`, nil
		}}

		bp, _, err := NewBlueprintService(gen).Generate(context.Background(), BlueprintRequest{
			DNA:             simpleDNA(),
			TargetWordCount: 800,
			Model:           "openai/gpt-4o",
			APIKey:          "sk-or-v1-test",
		})
		if bp != nil {
			t.Fatalf("a plan with no sections must not come back: %+v", bp)
		}
		if _, ok := err.(*EmptyResponseError); !ok {
			t.Fatalf("expected EmptyResponseError, got %T (%v)", err, err)
		}
	})
}
