package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"scriptforge-backend/internal/models"
)

// DNAService extracts reusable style profiles from viral references.
type DNAService struct {
	gen       TextGenerator
	batchSize int
}

func NewDNAService(gen TextGenerator, batchSize int) *DNAService {
	if batchSize < 1 {
		batchSize = 3
	}
	return &DNAService{gen: gen, batchSize: batchSize}
}

type ExtractOptions struct {
	Virals       []models.ContentPiece
	Flops        []models.ContentPiece
	UserNotes    string
	BaseDNA      *models.ScriptDNA
	Platform     string
	TargetLength string
	Name         string
	Model        string
	APIKey       string

	// Called before each sub-batch with (current, total). May be nil.
	OnProgress func(current, total int)
}

// dnaReply is the shape the extraction prompt asks the model for.
type dnaReply struct {
	Name                 string             `json:"name"`
	Niche                string             `json:"niche"`
	Analysis             models.DNAAnalysis `json:"analysis"`
	RawTranscriptSummary string             `json:"raw_transcript_summary"`
}

// Extract analyzes the virals in sequential sub-batches. After each
// batch the accumulated profile becomes the authoritative base for the
// next, so later batches refine instead of restart. With a BaseDNA set
// the whole run is an evolution of that profile.
func (s *DNAService) Extract(ctx context.Context, opts ExtractOptions) (*models.ScriptDNA, error) {
	if len(opts.Virals) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"virals": "At least one viral reference is required"}}
	}

	batches := chunkPieces(opts.Virals, s.batchSize)
	total := len(batches)

	base := opts.BaseDNA
	var current *dnaReply

	for i, batch := range batches {
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, total)
		}

		prompt := s.buildExtractionPrompt(batch, opts, base, i+1, total)
		raw, err := s.gen.GenerateJSON(ctx, GenerateRequest{
			APIKey: opts.APIKey,
			Model:  opts.Model,
			System: dnaAnalystPersona,
			Prompt: prompt,
		})
		if err != nil {
			return nil, fmt.Errorf("dna extraction batch %d/%d: %w", i+1, total, err)
		}

		var reply dnaReply
		if err := json.Unmarshal([]byte(raw), &reply); err != nil {
			return nil, &MalformedResponseError{
				Message: fmt.Sprintf("dna extraction batch %d/%d returned an unexpected shape", i+1, total),
				Preview: preview(raw, 200),
			}
		}

		current = &reply
		// Feed the merged profile forward as the base for the next batch.
		base = &models.ScriptDNA{
			Name:                 reply.Name,
			Niche:                reply.Niche,
			Analysis:             reply.Analysis,
			RawTranscriptSummary: reply.RawTranscriptSummary,
		}
	}

	dna := &models.ScriptDNA{
		ID:                   uuid.NewString(),
		Name:                 opts.Name,
		SourceURLs:           sourceURLs(opts.Virals),
		UserNotes:            opts.UserNotes,
		Niche:                current.Niche,
		Analysis:             current.Analysis,
		RawTranscriptSummary: current.RawTranscriptSummary,
	}
	if dna.Name == "" {
		dna.Name = current.Name
	}
	if dna.Name == "" {
		dna.Name = "Untitled DNA"
	}
	if opts.BaseDNA != nil {
		dna.SourceURLs = append(append([]string{}, opts.BaseDNA.SourceURLs...), dna.SourceURLs...)
	}
	return dna, nil
}

// ManualTemplate returns a blank profile the user fills in by hand.
func (s *DNAService) ManualTemplate(name string) *models.ScriptDNA {
	if name == "" {
		name = "Manual DNA"
	}
	return &models.ScriptDNA{
		ID:         uuid.NewString(),
		Name:       name,
		SourceURLs: []string{},
		Analysis: models.DNAAnalysis{
			StructureSkeleton: models.StructureSkeleton{Simple: []string{"Hook", "Body", "Payoff"}},
			CorePatterns:      []string{},
			ViralXFactors:     []string{},
			RetentionTactics:  []string{},
			ContentGaps:       []string{},
			ViralTriggers:     []string{},
			FlopReasons:       []string{},
			AudienceSentiment: models.AudienceSentiment{
				HighDopamineTriggers: []string{},
				ConfusionPoints:      []string{},
				Objections:           []string{},
			},
			LinguisticFingerprint: models.LinguisticFingerprint{Keywords: []string{}},
		},
	}
}

const dnaAnalystPersona = "You are a viral content strategist who reverse-engineers why scripts succeed. You answer with a single JSON object and nothing else."

func (s *DNAService) buildExtractionPrompt(batch []models.ContentPiece, opts ExtractOptions, base *models.ScriptDNA, batchNum, totalBatches int) string {
	var b strings.Builder

	if base != nil {
		b.WriteString("You are refining an existing Script DNA profile. The current profile below is AUTHORITATIVE: keep its conclusions and only adjust or extend them where the new references give clear evidence.\n\n")
		b.WriteString("CURRENT PROFILE:\n")
		baseJSON, _ := json.Marshal(dnaReply{
			Name:                 base.Name,
			Niche:                base.Niche,
			Analysis:             base.Analysis,
			RawTranscriptSummary: base.RawTranscriptSummary,
		})
		b.Write(baseJSON)
		b.WriteString("\n\n")
	} else {
		b.WriteString("Extract a Script DNA profile from the viral references below.\n\n")
	}

	if totalBatches > 1 {
		fmt.Fprintf(&b, "This is batch %d of %d. Merge this batch's evidence into one coherent profile.\n\n", batchNum, totalBatches)
	}

	b.WriteString("VIRAL REFERENCES:\n")
	writePieces(&b, batch)

	if len(opts.Flops) > 0 {
		b.WriteString("\nFLOP REFERENCES (same creator or niche, failed):\n")
		writePieces(&b, opts.Flops)
		b.WriteString("\nDerive contrastive_insight and flop_reasons from what the virals do that the flops do not.\n")
	}

	if opts.UserNotes != "" {
		b.WriteString("\nUSER NOTES:\n" + opts.UserNotes + "\n")
	}
	if opts.Platform != "" {
		b.WriteString("\nTarget platform: " + opts.Platform + "\n")
	}
	if opts.TargetLength != "" {
		b.WriteString("Target length: " + opts.TargetLength + "\n")
	}

	b.WriteString(`
ANALYSIS RULES:
- core_patterns are techniques shared by most references; viral_x_factors are one-off lightning strikes. Weight roughly 70/30 toward core patterns.
- structure_skeleton must be a detailed section array. Every section needs audience_value (what the viewer gets from it) and pacing. Add timing, word_count_range, micro_hook, open_loop, transition_in and transition_out where the references show them.
- MATH CHECK: the word_count_range values across sections must add up to a range consistent with target_word_count_range. Expand depth through content focus, never by padding the hook.
- Capture the creator's voice in linguistic_fingerprint: persona, tone, signature keywords, sentence rhythm.
- audience_sentiment comes from the comments where provided: dopamine triggers, confusion points, objections.

Respond with one JSON object: {"name", "niche", "analysis", "raw_transcript_summary"} where "analysis" carries the full profile.`)

	return b.String()
}

func writePieces(b *strings.Builder, pieces []models.ContentPiece) {
	for i, p := range pieces {
		fmt.Fprintf(b, "--- Reference %d: %s ---\n", i+1, p.Title)
		if p.Description != "" {
			b.WriteString("Description: " + p.Description + "\n")
		}
		if p.UniquePoints != nil && *p.UniquePoints != "" {
			b.WriteString("Unique points: " + *p.UniquePoints + "\n")
		}
		b.WriteString("Script:\n" + p.Script + "\n")
		if p.Comments != nil && *p.Comments != "" {
			b.WriteString("Top comments:\n" + *p.Comments + "\n")
		}
		b.WriteString("\n")
	}
}

func chunkPieces(pieces []models.ContentPiece, size int) [][]models.ContentPiece {
	var chunks [][]models.ContentPiece
	for start := 0; start < len(pieces); start += size {
		end := start + size
		if end > len(pieces) {
			end = len(pieces)
		}
		chunks = append(chunks, pieces[start:end])
	}
	return chunks
}

func sourceURLs(pieces []models.ContentPiece) []string {
	urls := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p.URL != nil && *p.URL != "" {
			urls = append(urls, *p.URL)
		}
	}
	return urls
}
