package services

import (
	"context"
	"strings"
	"testing"

	"scriptforge-backend/internal/models"
)

func urlPtr(u string) *string { return &u }

func viralSet(n int) []models.ContentPiece {
	pieces := make([]models.ContentPiece, n)
	for i := range pieces {
		pieces[i] = models.ContentPiece{
			Title:  "Viral " + string(rune('A'+i)),
			Script: "script text",
			URL:    urlPtr("https://youtube.com/watch?v=vid" + string(rune('A'+i))),
		}
	}
	return pieces
}

func dnaReplyJSON(name, niche string) string {
	return `{"name":"` + name + `","niche":"` + niche + `","analysis":{"pacing":"fast"},"raw_transcript_summary":"summary"}`
}

func TestDNAService_Extract_Batching(t *testing.T) {
	var prompts []string
	var progress [][2]int
	gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
		prompts = append(prompts, req.Prompt)
		return dnaReplyJSON("Profile", "fitness"), nil
	}}

	svc := NewDNAService(gen, 2)
	dna, err := svc.Extract(context.Background(), ExtractOptions{
		Virals: viralSet(5),
		Name:   "My DNA",
		Model:  "openai/gpt-4o",
		APIKey: "sk-or-v1-test",
		OnProgress: func(current, total int) {
			progress = append(progress, [2]int{current, total})
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 5 virals at batch size 2 => 3 sequential batches.
	if gen.calls != 3 {
		t.Errorf("expected 3 generator calls, got %d", gen.calls)
	}
	want := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if len(progress) != len(want) {
		t.Fatalf("expected %d progress calls, got %d", len(want), len(progress))
	}
	for i, p := range progress {
		if p != want[i] {
			t.Errorf("progress call %d: expected %v, got %v", i, want[i], p)
		}
	}

	// The first batch starts fresh; later batches refine the merged profile.
	if strings.Contains(prompts[0], "CURRENT PROFILE") {
		t.Error("first batch should not carry a base profile")
	}
	for i, p := range prompts[1:] {
		if !strings.Contains(p, "CURRENT PROFILE") {
			t.Errorf("batch %d should refine the accumulated profile", i+2)
		}
	}

	if dna.Name != "My DNA" {
		t.Errorf("user-provided name should win: %q", dna.Name)
	}
	if dna.Niche != "fitness" {
		t.Errorf("niche not taken from the final reply: %q", dna.Niche)
	}
	if len(dna.SourceURLs) != 5 {
		t.Errorf("expected 5 source URLs, got %d", len(dna.SourceURLs))
	}
	if dna.ID == "" {
		t.Error("extracted profile has no ID")
	}
}

func TestDNAService_Extract_Evolution(t *testing.T) {
	var firstPrompt string
	gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
		if call == 1 {
			firstPrompt = req.Prompt
		}
		return dnaReplyJSON("Evolved", "fitness"), nil
	}}

	base := simpleDNA()
	base.SourceURLs = []string{"https://youtube.com/watch?v=base1"}

	svc := NewDNAService(gen, 3)
	dna, err := svc.Extract(context.Background(), ExtractOptions{
		Virals:  viralSet(2),
		BaseDNA: base,
		Model:   "openai/gpt-4o",
		APIKey:  "sk-or-v1-test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(firstPrompt, "CURRENT PROFILE") {
		t.Error("evolution must start from the base profile, even on batch one")
	}
	if len(dna.SourceURLs) != 3 || dna.SourceURLs[0] != "https://youtube.com/watch?v=base1" {
		t.Errorf("base source URLs should lead the list: %v", dna.SourceURLs)
	}
	if dna.Name != "Evolved" {
		t.Errorf("model-provided name should be used when none is given: %q", dna.Name)
	}
}

func TestDNAService_Extract_Errors(t *testing.T) {
	t.Run("no virals", func(t *testing.T) {
		svc := NewDNAService(&fakeGenerator{reply: func(int, GenerateRequest) (string, error) {
			t.Fatal("generator should not be reached")
			return "", nil
		}}, 3)

		_, err := svc.Extract(context.Background(), ExtractOptions{Model: "m", APIKey: "k"})
		if _, ok := err.(*ValidationError); !ok {
			t.Fatalf("expected ValidationError, got %T (%v)", err, err)
		}
	})

	t.Run("malformed batch reply", func(t *testing.T) {
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			return `{"name": 42}`, nil
		}}

		_, err := NewDNAService(gen, 3).Extract(context.Background(), ExtractOptions{
			Virals: viralSet(1),
			Model:  "openai/gpt-4o",
			APIKey: "sk-or-v1-test",
		})
		if _, ok := err.(*MalformedResponseError); !ok {
			t.Fatalf("expected MalformedResponseError, got %T (%v)", err, err)
		}
	})
}

func TestDNAService_ManualTemplate(t *testing.T) {
	svc := NewDNAService(&fakeGenerator{}, 3)

	dna := svc.ManualTemplate("")
	if dna.Name != "Manual DNA" {
		t.Errorf("expected default name, got %q", dna.Name)
	}
	if dna.ID == "" {
		t.Error("template has no ID")
	}
	if len(dna.Analysis.StructureSkeleton.SectionNames()) == 0 {
		t.Error("template should start with a basic skeleton")
	}

	named := svc.ManualTemplate("House Style")
	if named.Name != "House Style" {
		t.Errorf("expected given name, got %q", named.Name)
	}
}
