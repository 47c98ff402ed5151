package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"scriptforge-backend/internal/models"
)

// NicheService pre-scans viral references for topical consistency
// before a fresh extraction mixes unrelated niches into one profile.
type NicheService struct {
	gen TextGenerator
}

func NewNicheService(gen TextGenerator) *NicheService {
	return &NicheService{gen: gen}
}

type NicheMismatch struct {
	Index int    `json:"index"` // 1-based position in the viral list
	Title string `json:"title"`
	Niche string `json:"niche"`
}

type NicheReport struct {
	Majority   string          `json:"majority"`
	Niches     []string        `json:"niches"`
	Mismatches []NicheMismatch `json:"mismatches"`
}

func (r *NicheReport) Consistent() bool { return len(r.Mismatches) == 0 }

// ShouldCheck reports whether the gate applies: only fresh extractions
// with two or more virals are worth scanning. Evolutions trust the base
// profile's niche.
func ShouldCheckNiche(viralCount int, hasBaseDNA bool) bool {
	return viralCount >= 2 && !hasBaseDNA
}

// Check detects each viral's niche and builds a consistency report.
// Any detection failure degrades to a nil report so the caller proceeds
// with extraction; the gate must never block the pipeline.
func (s *NicheService) Check(ctx context.Context, apiKey, model string, virals []models.ContentPiece) *NicheReport {
	niches := make([]string, 0, len(virals))
	titles := make([]string, 0, len(virals))

	for i, v := range virals {
		niche, err := s.detectNiche(ctx, apiKey, model, v)
		if err != nil {
			log.Printf("niche pre-scan failed on viral %d, skipping gate: %v", i+1, err)
			return nil
		}
		niches = append(niches, niche)
		titles = append(titles, v.Title)
	}

	report := BuildNicheReport(titles, niches)
	return &report
}

// BuildNicheReport tallies detected niches under majority rule. Ties
// break toward the niche seen first in the list. Counting is
// case-insensitive, but the majority label keeps the spelling the model
// first used so the report reads back naturally.
func BuildNicheReport(titles, niches []string) NicheReport {
	counts := make(map[string]int)
	labels := make(map[string]string)
	order := make([]string, 0, len(niches))
	for _, n := range niches {
		key := normalizeNiche(n)
		if counts[key] == 0 {
			order = append(order, key)
			labels[key] = strings.TrimSpace(n)
		}
		counts[key]++
	}

	majorityKey := ""
	best := 0
	for _, key := range order {
		if counts[key] > best {
			best = counts[key]
			majorityKey = key
		}
	}

	report := NicheReport{Majority: labels[majorityKey], Niches: niches}
	for i, n := range niches {
		if normalizeNiche(n) != majorityKey {
			title := ""
			if i < len(titles) {
				title = titles[i]
			}
			report.Mismatches = append(report.Mismatches, NicheMismatch{Index: i + 1, Title: title, Niche: n})
		}
	}
	return report
}

// FilterMatched keeps only the virals whose niche agrees with the
// majority. Used when the user picks "continue with matched only".
func FilterMatched(virals []models.ContentPiece, report *NicheReport) []models.ContentPiece {
	if report == nil {
		return virals
	}
	mismatched := make(map[int]bool, len(report.Mismatches))
	for _, m := range report.Mismatches {
		mismatched[m.Index] = true
	}
	matched := make([]models.ContentPiece, 0, len(virals))
	for i, v := range virals {
		if !mismatched[i+1] {
			matched = append(matched, v)
		}
	}
	return matched
}

func (s *NicheService) detectNiche(ctx context.Context, apiKey, model string, piece models.ContentPiece) (string, error) {
	var b strings.Builder
	b.WriteString("Identify the content niche of this script in 2-4 words (for example \"personal finance\" or \"true crime\").\n\n")
	b.WriteString("Title: " + piece.Title + "\n")
	b.WriteString("Script:\n" + truncateWords(piece.Script, 400) + "\n\n")
	b.WriteString(`Respond with one JSON object: {"niche": "..."}`)

	raw, err := s.gen.GenerateJSON(ctx, GenerateRequest{
		APIKey: apiKey,
		Model:  model,
		System: "You classify content into niches. You answer with a single JSON object and nothing else.",
		Prompt: b.String(),
	})
	if err != nil {
		return "", err
	}

	var reply struct {
		Niche string `json:"niche"`
	}
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return "", &MalformedResponseError{Message: "niche detection returned an unexpected shape", Preview: preview(raw, 120)}
	}
	if strings.TrimSpace(reply.Niche) == "" {
		return "", &EmptyResponseError{Message: "niche detection returned an empty label"}
	}
	return reply.Niche, nil
}

func normalizeNiche(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func truncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + " ..."
}
