package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"scriptforge-backend/internal/models"
)

// WriterService generates the spoken script, one section at a time.
type WriterService struct {
	gen TextGenerator
}

func NewWriterService(gen TextGenerator) *WriterService {
	return &WriterService{gen: gen}
}

const writerPersona = "You are a scriptwriter for spoken video narration. You write only the words the narrator says out loud."

const spokenWordContract = `OUTPUT CONTRACT:
- Spoken words only. No markdown, no headings, no stage directions, no camera notes, no preamble like "Here is the section".
- Do not label or number the section.
- Stay inside the word target range for this section.`

type SectionWriteRequest struct {
	Blueprint    *models.ScriptBlueprint
	SectionIndex int
	PrevTail     string
	NextTitle    string
	Language     string
	Model        string
	APIKey       string
	Instruction  string // extra per-section instruction, may be empty
}

// WriteSection generates one section's narration. The previous
// section's tail is passed in so the seam connects.
func (s *WriterService) WriteSection(ctx context.Context, req SectionWriteRequest) (string, error) {
	if req.Blueprint == nil || req.SectionIndex < 0 || req.SectionIndex >= len(req.Blueprint.Sections) {
		return "", &ValidationError{Fields: map[string]string{"section": "Section index is out of range"}}
	}

	raw, err := s.gen.Generate(ctx, GenerateRequest{
		APIKey: req.APIKey,
		Model:  req.Model,
		System: writerPersona,
		Prompt: s.buildSectionPrompt(req),
	})
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(stripCodeFences(raw))
	if content == "" {
		return "", &EmptyResponseError{Message: "section generation returned no narration"}
	}
	return content, nil
}

// WriteBlueprintSection generates narration for one section of the
// working blueprint, seaming it against the neighbours: the tail of the
// previous section's generated content and the next section's title.
func (s *WriterService) WriteBlueprintSection(ctx context.Context, bp *models.ScriptBlueprint, index int, language, model, apiKey, instruction string) (string, error) {
	if bp == nil || index < 0 || index >= len(bp.Sections) {
		return "", &ValidationError{Fields: map[string]string{"section": "Section index is out of range"}}
	}

	req := SectionWriteRequest{
		Blueprint:    bp,
		SectionIndex: index,
		Language:     language,
		Model:        model,
		APIKey:       apiKey,
		Instruction:  instruction,
	}
	if index > 0 {
		if prev := bp.Sections[index-1].GeneratedContent; prev != nil {
			req.PrevTail = lastWords(*prev, 40)
		}
	}
	if index+1 < len(bp.Sections) {
		req.NextTitle = bp.Sections[index+1].Title
	}
	return s.WriteSection(ctx, req)
}

type ScriptWriteRequest struct {
	Blueprint *models.ScriptBlueprint
	DNA       *models.ScriptDNA
	UserDraft string
	Language  string
	Model     string
	APIKey    string

	// Called before each section with (current, total). May be nil.
	OnProgress func(current, total int)
}

// WriteScript writes every section strictly in order. Sections are
// never generated in parallel: each prompt carries the previous
// section's tail, so section N depends on section N-1's output.
func (s *WriterService) WriteScript(ctx context.Context, req ScriptWriteRequest) (*models.OptimizedResult, error) {
	if req.Blueprint == nil || len(req.Blueprint.Sections) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"blueprint": "A blueprint with sections is required"}}
	}

	total := len(req.Blueprint.Sections)
	sections := make([]models.ScriptSection, 0, total)
	prevTail := ""

	for i, bs := range req.Blueprint.Sections {
		if req.OnProgress != nil {
			req.OnProgress(i+1, total)
		}

		nextTitle := ""
		if i+1 < total {
			nextTitle = req.Blueprint.Sections[i+1].Title
		}

		instruction := ""
		if bs.CustomScriptPrompt != nil {
			instruction = *bs.CustomScriptPrompt
		}

		content, err := s.WriteSection(ctx, SectionWriteRequest{
			Blueprint:    req.Blueprint,
			SectionIndex: i,
			PrevTail:     prevTail,
			NextTitle:    nextTitle,
			Language:     req.Language,
			Model:        req.Model,
			APIKey:       req.APIKey,
			Instruction:  instruction,
		})
		if err != nil {
			return nil, fmt.Errorf("writing section %d/%d (%s): %w", i+1, total, bs.Title, err)
		}

		sections = append(sections, models.ScriptSection{
			ID:      bs.ID,
			Title:   bs.Title,
			Content: content,
			Type:    bs.Type,
		})
		prevTail = lastWords(content, 40)
	}

	meta, err := s.generateMetadata(ctx, req, sections)
	if err != nil {
		return nil, err
	}

	bp := *req.Blueprint
	return &models.OptimizedResult{
		Blueprint: &bp,
		Rewritten: models.RewrittenScript{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			ScriptSections:       sections,
			ExplanationOfChanges: meta.ExplanationOfChanges,
		},
	}, nil
}

type scriptMetadata struct {
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Tags                 []string `json:"tags"`
	ExplanationOfChanges string   `json:"explanation_of_changes"`
}

func (s *WriterService) generateMetadata(ctx context.Context, req ScriptWriteRequest, sections []models.ScriptSection) (*scriptMetadata, error) {
	var b strings.Builder
	b.WriteString("Write publishing metadata for the finished script below.\n\nSCRIPT:\n")
	for _, sec := range sections {
		b.WriteString(sec.Content + "\n\n")
	}
	if req.UserDraft != "" {
		b.WriteString("ORIGINAL DRAFT (explain how the script improves on it):\n" + truncateWords(req.UserDraft, 300) + "\n\n")
	}
	fmt.Fprintf(&b, `Write in %s. Respond with one JSON object: {"title", "description", "tags", "explanation_of_changes"}. Tags is an array of 5-10 short keywords.`, languageName(req.Language))

	raw, err := s.gen.GenerateJSON(ctx, GenerateRequest{
		APIKey: req.APIKey,
		Model:  req.Model,
		System: "You write packaging metadata for video scripts. You answer with a single JSON object and nothing else.",
		Prompt: b.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("generating script metadata: %w", err)
	}

	var meta scriptMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, &MalformedResponseError{Message: "metadata reply has an unexpected shape", Preview: preview(raw, 200)}
	}
	return &meta, nil
}

func (s *WriterService) buildSectionPrompt(req SectionWriteRequest) string {
	bs := req.Blueprint.Sections[req.SectionIndex]
	var b strings.Builder

	fmt.Fprintf(&b, "Write section %d of %d of a spoken script: \"%s\".\n\n", req.SectionIndex+1, len(req.Blueprint.Sections), bs.Title)

	briefJSON, _ := json.Marshal(bs)
	b.WriteString("SECTION BRIEF:\n")
	b.Write(briefJSON)
	b.WriteString("\n\n")

	if req.PrevTail != "" {
		b.WriteString("The previous section ends with:\n\"..." + req.PrevTail + "\"\nStart by continuing naturally from that point. Do not repeat it.\n\n")
	} else {
		b.WriteString("This is the opening section. Open cold with the hook; no greetings or channel intros unless the brief asks for them.\n\n")
	}

	if req.NextTitle != "" {
		fmt.Fprintf(&b, "The next section is \"%s\". End in a way that hands off to it.\n\n", req.NextTitle)
	} else {
		b.WriteString("This is the final section. Close the open loops and land the payoff.\n\n")
	}

	if req.Instruction != "" {
		b.WriteString("EXTRA INSTRUCTION FOR THIS SECTION:\n" + req.Instruction + "\n\n")
	}

	fmt.Fprintf(&b, "Write in %s.\nTarget length: about %d words.\n\n%s", languageName(req.Language), bs.WordCountTarget, spokenWordContract)
	return b.String()
}

func lastWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[len(words)-n:], " ")
}
