package services

import (
	"context"
	"fmt"
	"testing"

	"scriptforge-backend/internal/models"
)

func TestShouldCheckNiche(t *testing.T) {
	tests := []struct {
		name       string
		viralCount int
		hasBaseDNA bool
		want       bool
	}{
		{"two virals fresh extraction", 2, false, true},
		{"single viral skips the gate", 1, false, false},
		{"evolution trusts the base profile", 3, true, false},
		{"no virals", 0, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldCheckNiche(tc.viralCount, tc.hasBaseDNA); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestBuildNicheReport(t *testing.T) {
	t.Run("majority with one mismatch", func(t *testing.T) {
		titles := []string{"Morning routine", "Budget hacks", "Meal prep"}
		niches := []string{"fitness", "personal finance", "fitness"}

		report := BuildNicheReport(titles, niches)
		if report.Majority != "fitness" {
			t.Errorf("expected majority fitness, got %q", report.Majority)
		}
		if report.Consistent() {
			t.Errorf("expected an inconsistent report")
		}
		if len(report.Mismatches) != 1 {
			t.Fatalf("expected 1 mismatch, got %d", len(report.Mismatches))
		}
		m := report.Mismatches[0]
		if m.Index != 2 || m.Title != "Budget hacks" || m.Niche != "personal finance" {
			t.Errorf("unexpected mismatch: %+v", m)
		}
	})

	t.Run("tie breaks toward first seen", func(t *testing.T) {
		niches := []string{"true crime", "cooking", "cooking", "true crime"}
		report := BuildNicheReport([]string{"a", "b", "c", "d"}, niches)
		if report.Majority != "true crime" {
			t.Errorf("expected true crime to win the tie, got %q", report.Majority)
		}
	})

	t.Run("casing does not split a niche", func(t *testing.T) {
		niches := []string{"Fitness", "fitness", " FITNESS "}
		report := BuildNicheReport([]string{"a", "b", "c"}, niches)
		if !report.Consistent() {
			t.Errorf("expected a consistent report, got mismatches %+v", report.Mismatches)
		}
	})

	t.Run("majority keeps the first-seen spelling", func(t *testing.T) {
		titles := []string{"Leg day", "Budget hacks", "Meal prep"}
		niches := []string{"Fitness", "personal finance", "fitness"}

		report := BuildNicheReport(titles, niches)
		if report.Majority != "Fitness" {
			t.Errorf("expected the model's own label back, got %q", report.Majority)
		}
		if len(report.Mismatches) != 1 || report.Mismatches[0].Index != 2 {
			t.Errorf("unexpected mismatches: %+v", report.Mismatches)
		}
	})
}

func TestFilterMatched(t *testing.T) {
	virals := []models.ContentPiece{
		{Title: "Morning routine"},
		{Title: "Budget hacks"},
		{Title: "Meal prep"},
	}
	report := &NicheReport{
		Majority:   "fitness",
		Mismatches: []NicheMismatch{{Index: 2, Title: "Budget hacks", Niche: "personal finance"}},
	}

	matched := FilterMatched(virals, report)
	if len(matched) != 2 {
		t.Fatalf("expected 2 matched virals, got %d", len(matched))
	}
	if matched[0].Title != "Morning routine" || matched[1].Title != "Meal prep" {
		t.Errorf("wrong virals kept: %+v", matched)
	}

	if got := FilterMatched(virals, nil); len(got) != 3 {
		t.Errorf("nil report should keep everything, got %d", len(got))
	}
}

func TestNicheService_Check(t *testing.T) {
	virals := []models.ContentPiece{
		{Title: "One", Script: "first script"},
		{Title: "Two", Script: "second script"},
	}

	t.Run("builds a report from detected niches", func(t *testing.T) {
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			if call == 1 {
				return `{"niche":"fitness"}`, nil
			}
			return `{"niche":"cooking"}`, nil
		}}

		report := NewNicheService(gen).Check(context.Background(), "sk-or-v1-test", "openai/gpt-4o", virals)
		if report == nil {
			t.Fatal("expected a report")
		}
		if report.Majority != "fitness" {
			t.Errorf("expected majority fitness, got %q", report.Majority)
		}
		if len(report.Mismatches) != 1 || report.Mismatches[0].Index != 2 {
			t.Errorf("unexpected mismatches: %+v", report.Mismatches)
		}
	})

	t.Run("detection failure degrades to nil", func(t *testing.T) {
		gen := &fakeGenerator{reply: func(call int, req GenerateRequest) (string, error) {
			return "", fmt.Errorf("upstream down")
		}}

		report := NewNicheService(gen).Check(context.Background(), "sk-or-v1-test", "openai/gpt-4o", virals)
		if report != nil {
			t.Errorf("expected nil report on failure, got %+v", report)
		}
	})
}
