package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"scriptforge-backend/internal/models"
)

// BlueprintService turns a DNA profile plus the user's draft into a
// section-by-section writing plan.
type BlueprintService struct {
	gen TextGenerator
}

func NewBlueprintService(gen TextGenerator) *BlueprintService {
	return &BlueprintService{gen: gen}
}

type BlueprintRequest struct {
	DNA                   *models.ScriptDNA
	Mode                  models.CreationMode
	UserDraft             string
	TargetWordCount       int
	Language              string
	CustomStructurePrompt *string
	CustomBlueprintPrompt *string
	Flops                 []models.ContentPiece
	Model                 string
	APIKey                string
}

// Generate builds a blueprint from the selected DNA. A blueprint that
// breaks the structural contract is still returned; the violation rides
// alongside it so the caller can show the discrepancy without losing
// the plan.
func (s *BlueprintService) Generate(ctx context.Context, req BlueprintRequest) (*models.ScriptBlueprint, *ContractViolation, error) {
	if req.DNA == nil {
		return nil, nil, &ValidationError{Fields: map[string]string{"dna": "A selected DNA is required to build a blueprint"}}
	}
	if req.TargetWordCount <= 0 {
		return nil, nil, &ValidationError{Fields: map[string]string{"targetWordCount": "Target word count must be positive"}}
	}

	raw, err := s.gen.GenerateJSON(ctx, GenerateRequest{
		APIKey: req.APIKey,
		Model:  req.Model,
		System: "You are a script architect who plans viral scripts section by section. You answer with a single JSON object and nothing else.",
		Prompt: s.buildPrompt(req),
	})
	if err != nil {
		return nil, nil, err
	}

	var bp models.ScriptBlueprint
	if err := json.Unmarshal([]byte(raw), &bp); err != nil {
		return nil, nil, &MalformedResponseError{Message: "blueprint reply has an unexpected shape", Preview: preview(raw, 200)}
	}
	if len(bp.Sections) == 0 {
		return nil, nil, &EmptyResponseError{Message: "blueprint reply has no sections"}
	}

	for i := range bp.Sections {
		if bp.Sections[i].ID == "" {
			bp.Sections[i].ID = uuid.NewString()
		}
	}

	violation := validateBlueprint(&bp, req.DNA, req.TargetWordCount)

	attachSkeletonDetails(&bp, req.DNA)
	return &bp, violation, nil
}

// validateBlueprint checks the generation contract. Violations are
// reported, never silently corrected.
func validateBlueprint(bp *models.ScriptBlueprint, dna *models.ScriptDNA, target int) *ContractViolation {
	if dna.Analysis.StructureSkeleton.IsDetailed() {
		want := dna.Analysis.StructureSkeleton.Len()
		if len(bp.Sections) != want {
			return &ContractViolation{
				Message:  "blueprint section count does not match the DNA skeleton",
				Expected: want,
				Actual:   len(bp.Sections),
			}
		}
	}

	sum := bp.TotalWordTarget()
	if sum != target {
		return &ContractViolation{
			Message:  "section word targets do not sum to the requested word count",
			Expected: target,
			Actual:   sum,
		}
	}
	return nil
}

// attachSkeletonDetails links each blueprint section back to the DNA
// skeleton section it was planned from.
func attachSkeletonDetails(bp *models.ScriptBlueprint, dna *models.ScriptDNA) {
	if !dna.Analysis.StructureSkeleton.IsDetailed() {
		return
	}
	details := dna.Analysis.StructureSkeleton.Detailed
	for i := range bp.Sections {
		if i < len(details) {
			d := details[i]
			bp.Sections[i].DNASectionDetail = &d
		}
	}
}

func (s *BlueprintService) buildPrompt(req BlueprintRequest) string {
	var b strings.Builder

	b.WriteString("Build a script blueprint from the DNA profile below.\n\n")

	dnaJSON, _ := json.Marshal(req.DNA)
	b.WriteString("SCRIPT DNA:\n")
	b.Write(dnaJSON)
	b.WriteString("\n\n")

	if req.Mode == models.ModeRewrite && req.UserDraft != "" {
		b.WriteString("USER DRAFT (rework this material, keep its substance):\n" + req.UserDraft + "\n\n")
	} else if req.UserDraft != "" {
		b.WriteString("TOPIC / IDEA:\n" + req.UserDraft + "\n\n")
	}

	if len(req.Flops) > 0 {
		b.WriteString("KNOWN FAILURE PATTERNS (avoid these):\n")
		for _, f := range req.Flops {
			b.WriteString("- " + f.Title + "\n")
		}
		b.WriteString("\n")
	}

	if req.CustomStructurePrompt != nil && *req.CustomStructurePrompt != "" {
		b.WriteString("STRUCTURE OVERRIDE FROM USER:\n" + *req.CustomStructurePrompt + "\n\n")
	}
	if req.CustomBlueprintPrompt != nil && *req.CustomBlueprintPrompt != "" {
		b.WriteString("ADDITIONAL BLUEPRINT INSTRUCTIONS FROM USER:\n" + *req.CustomBlueprintPrompt + "\n\n")
	}

	if req.DNA.Analysis.StructureSkeleton.IsDetailed() {
		fmt.Fprintf(&b, "The DNA skeleton has %d sections. Produce exactly that many blueprint sections, in the same order, with matching titles.\n", req.DNA.Analysis.StructureSkeleton.Len())
	}

	fmt.Fprintf(&b, `
TARGET LENGTH: %d words total.
STRICT MATH: the word_count_target values of all sections must add up to exactly %d. If the natural plan comes up short, deepen the content_plan of body sections; never inflate the hook.

Write the blueprint in %s.

Respond with one JSON object shaped as:
{"analysis": {"core_formula", "narrative_phases", "pacing_map", "hook_hierarchy", "emotional_arc", "linguistic_fingerprint"},
 "pitfalls": [...],
 "sections": [{"title", "type", "purpose", "hook_tactic", "micro_hook", "emotional_goal", "pacing_instruction", "pov_instruction", "tone_instruction", "retention_loop", "content_plan", "word_count_target"}],
 "audience_simulation": {"newbie_perspective", "expert_perspective", "hater_critique", "final_verdict"},
 "critique": "..."}`, req.TargetWordCount, req.TargetWordCount, languageName(req.Language))

	return b.String()
}

func languageName(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return "English"
	}
	return lang
}

// ContractViolation marks generated output that breaks a structural
// promise, like word targets that miss the requested total.
type ContractViolation struct {
	Message  string
	Expected int
	Actual   int
}

func (e *ContractViolation) Error() string {
	if e.Expected != 0 || e.Actual != 0 {
		return fmt.Sprintf("%s (expected %d, got %d)", e.Message, e.Expected, e.Actual)
	}
	return e.Message
}
