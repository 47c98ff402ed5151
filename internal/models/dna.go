package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DNASectionDetail is one section of a detailed structure skeleton.
// AudienceValue is the only mandatory field; extraction prompts enforce it.
type DNASectionDetail struct {
	SectionName         string   `json:"section_name"`
	Timing              *string  `json:"timing,omitempty"`
	WordCountRange      *string  `json:"word_count_range,omitempty"`
	Tone                *string  `json:"tone,omitempty"`
	Pacing              *string  `json:"pacing,omitempty"`
	ContentFocus        *string  `json:"content_focus,omitempty"`
	MustInclude         []string `json:"must_include,omitempty"`
	AudienceValue       string   `json:"audience_value"`
	AudienceInteraction *string  `json:"audience_interaction,omitempty"`
	ViralTriggers       []string `json:"viral_triggers,omitempty"`
	MicroHook           *string  `json:"micro_hook,omitempty"`
	OpenLoop            *string  `json:"open_loop,omitempty"`
	CloseLoop           *string  `json:"close_loop,omitempty"`
	TransitionIn        *string  `json:"transition_in,omitempty"`
	TransitionOut       *string  `json:"transition_out,omitempty"`
	AvoidPatterns       []string `json:"avoid_patterns,omitempty"`
	AllowedRepetition   *string  `json:"allowed_repetition,omitempty"`
}

// StructureSkeleton is either a flat list of section names (simple) or a
// list of fully specified sections (detailed). The shape is decided once,
// at decode time; callers branch on IsDetailed instead of re-inspecting
// raw JSON.
type StructureSkeleton struct {
	Simple   []string
	Detailed []DNASectionDetail
}

func (s StructureSkeleton) IsDetailed() bool { return s.Detailed != nil }

func (s StructureSkeleton) Len() int {
	if s.IsDetailed() {
		return len(s.Detailed)
	}
	return len(s.Simple)
}

// SectionNames returns the section titles in order, regardless of shape.
func (s StructureSkeleton) SectionNames() []string {
	if !s.IsDetailed() {
		return s.Simple
	}
	names := make([]string, len(s.Detailed))
	for i, d := range s.Detailed {
		names[i] = d.SectionName
	}
	return names
}

// Upgrade converts a simple skeleton into a detailed one with only the
// section names filled in. Detailed skeletons are returned unchanged;
// there is no downgrade path.
func (s StructureSkeleton) Upgrade() StructureSkeleton {
	if s.IsDetailed() {
		return s
	}
	detailed := make([]DNASectionDetail, len(s.Simple))
	for i, name := range s.Simple {
		detailed[i] = DNASectionDetail{SectionName: name}
	}
	return StructureSkeleton{Detailed: detailed}
}

func (s StructureSkeleton) MarshalJSON() ([]byte, error) {
	if s.IsDetailed() {
		return json.Marshal(s.Detailed)
	}
	if s.Simple == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Simple)
}

func (s *StructureSkeleton) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = StructureSkeleton{}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("structure_skeleton must be an array: %w", err)
	}
	if len(raw) == 0 {
		*s = StructureSkeleton{Simple: []string{}}
		return nil
	}

	// The first element decides the shape for the whole array.
	first := bytes.TrimSpace(raw[0])
	if len(first) > 0 && first[0] == '{' {
		var detailed []DNASectionDetail
		if err := json.Unmarshal(trimmed, &detailed); err != nil {
			return fmt.Errorf("invalid detailed structure_skeleton: %w", err)
		}
		*s = StructureSkeleton{Detailed: detailed}
		return nil
	}

	var simple []string
	if err := json.Unmarshal(trimmed, &simple); err != nil {
		return fmt.Errorf("invalid simple structure_skeleton: %w", err)
	}
	*s = StructureSkeleton{Simple: simple}
	return nil
}

type HookAngle struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type LinguisticFingerprint struct {
	RolePersona       string   `json:"role_persona"`
	ToneDescription   string   `json:"tone_description"`
	Keywords          []string `json:"keywords"`
	SentenceStructure string   `json:"sentence_structure"`
}

type AudienceSentiment struct {
	HighDopamineTriggers []string `json:"high_dopamine_triggers"`
	ConfusionPoints      []string `json:"confusion_points"`
	Objections           []string `json:"objections"`
}

// DNAAnalysis is the analytical core of a Script DNA profile.
type DNAAnalysis struct {
	Pacing                string                `json:"pacing"`
	Tone                  string                `json:"tone"`
	StructureSkeleton     StructureSkeleton     `json:"structure_skeleton"`
	HookAngle             HookAngle             `json:"hook_angle"`
	LinguisticFingerprint LinguisticFingerprint `json:"linguistic_fingerprint"`
	CorePatterns          []string              `json:"core_patterns"`
	ViralXFactors         []string              `json:"viral_x_factors"`
	RetentionTactics      []string              `json:"retention_tactics"`
	AudiencePsychology    string                `json:"audience_psychology"`
	AudienceSentiment     AudienceSentiment     `json:"audience_sentiment"`
	ContrastiveInsight    string                `json:"contrastive_insight"`
	ContentGaps           []string              `json:"content_gaps"`
	ViralTriggers         []string              `json:"viral_triggers"`
	FlopReasons           []string              `json:"flop_reasons"`
	TargetPlatform        *string               `json:"target_platform,omitempty"`
	TargetLength          *string               `json:"target_length,omitempty"`
	TargetWordCountRange  *string               `json:"target_word_count_range,omitempty"`
	OverallVibe           *string               `json:"overall_vibe,omitempty"`
}

// ScriptDNA is a reusable style profile extracted from viral references.
type ScriptDNA struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	SourceURLs           []string    `json:"source_urls"`
	UserNotes            string      `json:"user_notes"`
	Niche                string      `json:"niche"`
	Analysis             DNAAnalysis `json:"analysis"`
	RawTranscriptSummary string      `json:"raw_transcript_summary"`
}
