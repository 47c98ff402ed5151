package services

import (
	"context"
	"fmt"
	"strings"

	"scriptforge-backend/internal/models"
)

// RefineService rewrites generated narration against feedback while
// keeping the seams between sections intact.
type RefineService struct {
	gen TextGenerator
}

func NewRefineService(gen TextGenerator) *RefineService {
	return &RefineService{gen: gen}
}

type RefineSectionRequest struct {
	Result       *models.OptimizedResult
	SectionIndex int
	Instruction  string
	Language     string
	Model        string
	APIKey       string
}

// RefineSection rewrites one section. The rewrite must still connect
// from the previous section's tail and hand off to the next section's
// opening, so neighbours stay untouched.
func (s *RefineService) RefineSection(ctx context.Context, req RefineSectionRequest) (string, error) {
	if req.Result == nil || req.SectionIndex < 0 || req.SectionIndex >= len(req.Result.Rewritten.ScriptSections) {
		return "", &ValidationError{Fields: map[string]string{"section": "Section index is out of range"}}
	}
	if strings.TrimSpace(req.Instruction) == "" {
		return "", &ValidationError{Fields: map[string]string{"instruction": "A refinement instruction is required"}}
	}

	sections := req.Result.Rewritten.ScriptSections
	current := sections[req.SectionIndex]

	var b strings.Builder
	fmt.Fprintf(&b, "Rewrite this script section according to the instruction.\n\nSECTION \"%s\":\n%s\n\n", current.Title, current.Content)
	b.WriteString("INSTRUCTION:\n" + req.Instruction + "\n\n")

	if req.SectionIndex > 0 {
		prev := sections[req.SectionIndex-1]
		b.WriteString("The previous section ends with:\n\"..." + lastWords(prev.Content, 40) + "\"\nThe rewrite must continue naturally from that point.\n\n")
	}
	if req.SectionIndex+1 < len(sections) {
		next := sections[req.SectionIndex+1]
		b.WriteString("The next section begins with:\n\"" + firstWords(next.Content, 25) + "...\"\nThe rewrite must end in a way that still hands off to it.\n\n")
	}

	fmt.Fprintf(&b, "Keep roughly the same length. Write in %s.\n\n%s", languageName(req.Language), spokenWordContract)

	raw, err := s.gen.Generate(ctx, GenerateRequest{
		APIKey: req.APIKey,
		Model:  req.Model,
		System: writerPersona,
		Prompt: b.String(),
	})
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(stripCodeFences(raw))
	if content == "" {
		return "", &EmptyResponseError{Message: "refinement returned no narration"}
	}
	return content, nil
}

type RefineScriptRequest struct {
	Result   *models.OptimizedResult
	Feedback string
	Language string
	Model    string
	APIKey   string

	// Called before each section with (current, total). May be nil.
	OnProgress func(current, total int)
}

// RefineScript applies whole-script feedback, rewriting every section
// in order so seams regenerate along with the content.
func (s *RefineService) RefineScript(ctx context.Context, req RefineScriptRequest) (*models.OptimizedResult, error) {
	if req.Result == nil || len(req.Result.Rewritten.ScriptSections) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"result": "A generated script is required"}}
	}
	if strings.TrimSpace(req.Feedback) == "" {
		return nil, &ValidationError{Fields: map[string]string{"feedback": "Feedback is required"}}
	}

	old := req.Result.Rewritten.ScriptSections
	total := len(old)
	rewritten := make([]models.ScriptSection, 0, total)
	prevTail := ""

	for i, sec := range old {
		if req.OnProgress != nil {
			req.OnProgress(i+1, total)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Rewrite section %d of %d of a script, applying the feedback below to the whole piece.\n\n", i+1, total)
		b.WriteString("FEEDBACK:\n" + req.Feedback + "\n\n")
		fmt.Fprintf(&b, "CURRENT SECTION \"%s\":\n%s\n\n", sec.Title, sec.Content)

		if prevTail != "" {
			b.WriteString("The rewritten previous section ends with:\n\"..." + prevTail + "\"\nContinue naturally from that point.\n\n")
		}
		if i+1 < total {
			fmt.Fprintf(&b, "The next section is \"%s\". End in a way that hands off to it.\n\n", old[i+1].Title)
		}

		fmt.Fprintf(&b, "Keep roughly the same length. Write in %s.\n\n%s", languageName(req.Language), spokenWordContract)

		raw, err := s.gen.Generate(ctx, GenerateRequest{
			APIKey: req.APIKey,
			Model:  req.Model,
			System: writerPersona,
			Prompt: b.String(),
		})
		if err != nil {
			return nil, fmt.Errorf("refining section %d/%d (%s): %w", i+1, total, sec.Title, err)
		}

		content := strings.TrimSpace(stripCodeFences(raw))
		if content == "" {
			return nil, &EmptyResponseError{Message: fmt.Sprintf("refinement of section %d returned no narration", i+1)}
		}

		rewritten = append(rewritten, models.ScriptSection{
			ID:      sec.ID,
			Title:   sec.Title,
			Content: content,
			Type:    sec.Type,
		})
		prevTail = lastWords(content, 40)
	}

	out := *req.Result
	out.Rewritten.ScriptSections = rewritten
	// The script changed, so any earlier whole-script score is stale.
	out.FullScriptScore = nil
	return &out, nil
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}
