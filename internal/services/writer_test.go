package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"scriptforge-backend/internal/models"
)

func threeSectionBlueprint() *models.ScriptBlueprint {
	return &models.ScriptBlueprint{
		Sections: []models.BlueprintSection{
			{ID: "bp-1", Title: "Hook", Type: "hook", WordCountTarget: 100},
			{ID: "bp-2", Title: "Body", Type: "body", WordCountTarget: 500},
			{ID: "bp-3", Title: "Payoff", Type: "payoff", WordCountTarget: 200},
		},
	}
}

func TestWriterService_WriteScript(t *testing.T) {
	// Distinct tails let the test check that each later prompt carries
	// the previous section's actual output.
	sectionText := func(i int) string {
		return strings.Repeat(fmt.Sprintf("word%d ", i), 60) + fmt.Sprintf("tail-of-section-%d", i)
	}

	var prompts []string
	gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
		prompts = append(prompts, req.Prompt)
		if call <= 3 {
			return sectionText(call), nil
		}
		return `{"title":"The Title","description":"desc","tags":["a","b"],"explanation_of_changes":"expl"}`, nil
	}}

	var progress [][2]int
	result, err := NewWriterService(gen).WriteScript(context.Background(), ScriptWriteRequest{
		Blueprint: threeSectionBlueprint(),
		Model:     "openai/gpt-4o",
		APIKey:    "sk-or-v1-test",
		OnProgress: func(current, total int) {
			progress = append(progress, [2]int{current, total})
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Three section calls plus one metadata call.
	if gen.calls != 4 {
		t.Errorf("expected 4 generator calls, got %d", gen.calls)
	}
	want := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if len(progress) != 3 {
		t.Fatalf("expected 3 progress calls, got %d", len(progress))
	}
	for i, p := range progress {
		if p != want[i] {
			t.Errorf("progress call %d: expected %v, got %v", i, want[i], p)
		}
	}

	// Section order and identity.
	sections := result.Rewritten.ScriptSections
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}
	for i, id := range []string{"bp-1", "bp-2", "bp-3"} {
		if sections[i].ID != id {
			t.Errorf("section %d has ID %q, want %q", i, sections[i].ID, id)
		}
	}

	// Seam handling: the opening prompt opens cold, later prompts carry
	// the previous tail, the final prompt closes the loops.
	if !strings.Contains(prompts[0], "opening section") {
		t.Error("first prompt should mark the cold open")
	}
	if !strings.Contains(prompts[1], "tail-of-section-1") {
		t.Error("second prompt is missing the first section's tail")
	}
	if !strings.Contains(prompts[2], "tail-of-section-2") {
		t.Error("third prompt is missing the second section's tail")
	}
	if !strings.Contains(prompts[2], "final section") {
		t.Error("last section prompt should mark the close")
	}
	if !strings.Contains(prompts[1], `The next section is "Payoff"`) {
		t.Error("middle prompt should name the next section for the handoff")
	}

	if result.Rewritten.Title != "The Title" || len(result.Rewritten.Tags) != 2 {
		t.Errorf("metadata not applied: %+v", result.Rewritten)
	}
	if result.Blueprint == nil {
		t.Error("result should carry the blueprint it was written against")
	}
}

func TestWriterService_WriteScript_SectionFailureAborts(t *testing.T) {
	gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
		if call == 2 {
			return "", &TransportError{StatusCode: 502, Message: "upstream down"}
		}
		return "some narration", nil
	}}

	_, err := NewWriterService(gen).WriteScript(context.Background(), ScriptWriteRequest{
		Blueprint: threeSectionBlueprint(),
		Model:     "openai/gpt-4o",
		APIKey:    "sk-or-v1-test",
	})
	if err == nil {
		t.Fatal("expected the failed section to abort the run")
	}
	if gen.calls != 2 {
		t.Errorf("no sections should be written after a failure, got %d calls", gen.calls)
	}
}

func TestWriterService_WriteSection(t *testing.T) {
	t.Run("strips fences and whitespace", func(t *testing.T) {
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			return "```\n  The narration.  \n```", nil
		}}

		got, err := NewWriterService(gen).WriteSection(context.Background(), SectionWriteRequest{
			Blueprint: threeSectionBlueprint(),
			Model:     "openai/gpt-4o",
			APIKey:    "sk-or-v1-test",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "The narration." {
			t.Errorf("expected cleaned narration, got %q", got)
		}
	})

	t.Run("empty reply", func(t *testing.T) {
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			return "   ", nil
		}}

		_, err := NewWriterService(gen).WriteSection(context.Background(), SectionWriteRequest{
			Blueprint: threeSectionBlueprint(),
			Model:     "openai/gpt-4o",
			APIKey:    "sk-or-v1-test",
		})
		if _, ok := err.(*EmptyResponseError); !ok {
			t.Fatalf("expected EmptyResponseError, got %T (%v)", err, err)
		}
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := NewWriterService(&fakeGenerator{}).WriteSection(context.Background(), SectionWriteRequest{
			Blueprint:    threeSectionBlueprint(),
			SectionIndex: 9,
		})
		if _, ok := err.(*ValidationError); !ok {
			t.Fatalf("expected ValidationError, got %T (%v)", err, err)
		}
	})
}

func TestWriterService_WriteBlueprintSection(t *testing.T) {
	t.Run("seams against neighbouring sections", func(t *testing.T) {
		bp := threeSectionBlueprint()
		prev := strings.Repeat("earlier ", 50) + "tail-of-hook"
		bp.Sections[0].GeneratedContent = &prev

		var prompt string
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			prompt = req.Prompt
			return "the body narration", nil
		}}

		got, err := NewWriterService(gen).WriteBlueprintSection(context.Background(), bp, 1, "English", "openai/gpt-4o", "sk-or-v1-test", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "the body narration" {
			t.Errorf("unexpected narration: %q", got)
		}
		if !strings.Contains(prompt, "tail-of-hook") {
			t.Error("prompt is missing the previous section's generated tail")
		}
		if !strings.Contains(prompt, `The next section is "Payoff"`) {
			t.Error("prompt should name the next section for the handoff")
		}
	})

	t.Run("ungenerated neighbour opens cold", func(t *testing.T) {
		var prompt string
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			prompt = req.Prompt
			return "narration", nil
		}}

		_, err := NewWriterService(gen).WriteBlueprintSection(context.Background(), threeSectionBlueprint(), 1, "English", "openai/gpt-4o", "sk-or-v1-test", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(prompt, "tail-of") {
			t.Error("no tail should be carried when the neighbour was never written")
		}
	})

	t.Run("nil blueprint", func(t *testing.T) {
		_, err := NewWriterService(&fakeGenerator{}).WriteBlueprintSection(context.Background(), nil, 0, "English", "openai/gpt-4o", "sk-or-v1-test", "")
		if _, ok := err.(*ValidationError); !ok {
			t.Fatalf("expected ValidationError, got %T (%v)", err, err)
		}
	})
}

func TestRefineService_RefineSection(t *testing.T) {
	result := &models.OptimizedResult{
		Rewritten: models.RewrittenScript{
			ScriptSections: []models.ScriptSection{
				{ID: "sec-1", Title: "Hook", Content: "opening line ends with a cliffhanger"},
				{ID: "sec-2", Title: "Body", Content: "the body carries the argument forward"},
				{ID: "sec-3", Title: "Payoff", Content: "and the payoff lands it"},
			},
		},
	}

	t.Run("middle section gets both seams", func(t *testing.T) {
		var prompt string
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			prompt = req.Prompt
			return "the rewritten body", nil
		}}

		got, err := NewRefineService(gen).RefineSection(context.Background(), RefineSectionRequest{
			Result:       result,
			SectionIndex: 1,
			Instruction:  "make it punchier",
			Model:        "openai/gpt-4o",
			APIKey:       "sk-or-v1-test",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "the rewritten body" {
			t.Errorf("unexpected rewrite: %q", got)
		}
		if !strings.Contains(prompt, "cliffhanger") {
			t.Error("prompt is missing the previous section's tail")
		}
		if !strings.Contains(prompt, "and the payoff lands it") {
			t.Error("prompt is missing the next section's opening")
		}
		if !strings.Contains(prompt, "make it punchier") {
			t.Error("prompt is missing the instruction")
		}
	})

	t.Run("blank instruction", func(t *testing.T) {
		_, err := NewRefineService(&fakeGenerator{}).RefineSection(context.Background(), RefineSectionRequest{
			Result:       result,
			SectionIndex: 1,
			Instruction:  "  ",
		})
		if _, ok := err.(*ValidationError); !ok {
			t.Fatalf("expected ValidationError, got %T (%v)", err, err)
		}
	})
}

func TestRefineService_RefineScript(t *testing.T) {
	original := &models.OptimizedResult{
		Rewritten: models.RewrittenScript{
			Title: "Kept Title",
			ScriptSections: []models.ScriptSection{
				{ID: "sec-1", Title: "Hook", Content: "old hook"},
				{ID: "sec-2", Title: "Body", Content: "old body"},
			},
		},
		FullScriptScore: &models.ScoringResult{TotalScore: 64},
	}

	var prompts []string
	gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
		prompts = append(prompts, req.Prompt)
		return fmt.Sprintf("rewrite number %d", call), nil
	}}

	refined, err := NewRefineService(gen).RefineScript(context.Background(), RefineScriptRequest{
		Result:   original,
		Feedback: "slow down the pacing",
		Model:    "openai/gpt-4o",
		APIKey:   "sk-or-v1-test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(refined.Rewritten.ScriptSections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(refined.Rewritten.ScriptSections))
	}
	if refined.Rewritten.ScriptSections[0].Content != "rewrite number 1" {
		t.Errorf("section 1 not rewritten: %q", refined.Rewritten.ScriptSections[0].Content)
	}
	if refined.Rewritten.ScriptSections[1].ID != "sec-2" {
		t.Error("section identity must survive the rewrite")
	}
	if refined.FullScriptScore != nil {
		t.Error("the whole-script score is stale after a rewrite")
	}
	if refined.Rewritten.Title != "Kept Title" {
		t.Error("metadata should be kept")
	}

	// The original is untouched; the caller commits the copy.
	if original.Rewritten.ScriptSections[0].Content != "old hook" {
		t.Error("refinement must not mutate the input result")
	}
	if original.FullScriptScore == nil {
		t.Error("refinement must not clear the input's score")
	}

	if !strings.Contains(prompts[0], "slow down the pacing") {
		t.Error("feedback missing from the prompt")
	}
	if !strings.Contains(prompts[1], "rewrite number 1") {
		t.Error("second prompt should carry the rewritten first section's tail")
	}
}
