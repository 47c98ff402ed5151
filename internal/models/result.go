package models

import "time"

// ScriptSection is one generated section of the final script.
type ScriptSection struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	Type          string         `json:"type"`
	ScoringResult *ScoringResult `json:"scoringResult,omitempty"`
}

type RewrittenScript struct {
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Tags                 []string        `json:"tags"`
	ScriptSections       []ScriptSection `json:"script_sections"`
	ExplanationOfChanges string          `json:"explanation_of_changes"`
}

// OptimizedResult is the final deliverable: the blueprint it was written
// against plus the rewritten script and an optional whole-script score.
type OptimizedResult struct {
	Blueprint       *ScriptBlueprint `json:"blueprint,omitempty"`
	Rewritten       RewrittenScript  `json:"rewritten"`
	FullScriptScore *ScoringResult   `json:"fullScriptScore,omitempty"`
}

// FullScriptText joins all section contents in order.
func (r *OptimizedResult) FullScriptText() string {
	out := ""
	for i, s := range r.Rewritten.ScriptSections {
		if i > 0 {
			out += "\n\n"
		}
		out += s.Content
	}
	return out
}

// VersionedItem is a named snapshot of an artifact.
type VersionedItem[T any] struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`
	Data      T         `json:"data"`
}
