package models

// StyleAnalysis summarizes the winning formula the blueprint is built on.
type StyleAnalysis struct {
	CoreFormula           string                `json:"core_formula"`
	NarrativePhases       []string              `json:"narrative_phases"`
	PacingMap             string                `json:"pacing_map"`
	HookHierarchy         []string              `json:"hook_hierarchy"`
	EmotionalArc          string                `json:"emotional_arc"`
	LinguisticFingerprint LinguisticFingerprint `json:"linguistic_fingerprint"`
}

// BlueprintSection is the writing brief for a single script section.
type BlueprintSection struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	Type               string            `json:"type"`
	Purpose            string            `json:"purpose"`
	HookTactic         string            `json:"hook_tactic"`
	MicroHook          *string           `json:"micro_hook,omitempty"`
	EmotionalGoal      string            `json:"emotional_goal"`
	PacingInstruction  string            `json:"pacing_instruction"`
	POVInstruction     string            `json:"pov_instruction"`
	ToneInstruction    string            `json:"tone_instruction"`
	RetentionLoop      string            `json:"retention_loop"`
	ContentPlan        []string          `json:"content_plan"`
	WordCountTarget    int               `json:"word_count_target"`
	GeneratedContent   *string           `json:"generated_content,omitempty"`
	CustomScriptPrompt *string           `json:"custom_script_prompt,omitempty"`
	DNASectionDetail   *DNASectionDetail `json:"dna_section_detail,omitempty"`
}

type AudienceSimulation struct {
	NewbiePerspective string `json:"newbie_perspective"`
	ExpertPerspective string `json:"expert_perspective"`
	HaterCritique     string `json:"hater_critique"`
	FinalVerdict      string `json:"final_verdict"`
}

// ScriptBlueprint is the full section-by-section plan for a script.
type ScriptBlueprint struct {
	Analysis           StyleAnalysis      `json:"analysis"`
	Pitfalls           []string           `json:"pitfalls"`
	Sections           []BlueprintSection `json:"sections"`
	AudienceSimulation AudienceSimulation `json:"audience_simulation"`
	Critique           string             `json:"critique"`
}

// TotalWordTarget sums the per-section word targets.
func (b *ScriptBlueprint) TotalWordTarget() int {
	total := 0
	for _, s := range b.Sections {
		total += s.WordCountTarget
	}
	return total
}
