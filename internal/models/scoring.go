package models

import "time"

type ScoringCriterion struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ScoringTemplate struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Criteria []ScoringCriterion `json:"criteria"`
}

// GenericScoringTemplate is the last-resort rubric used when neither a
// DNA nor any saved template is available.
func GenericScoringTemplate() ScoringTemplate {
	return ScoringTemplate{
		ID:   "generic",
		Name: "Generic",
		Criteria: []ScoringCriterion{
			{ID: "engagement", Name: "Engagement", Description: "How well the script holds attention from start to finish."},
			{ID: "clarity", Name: "Clarity", Description: "How easy the script is to follow on a single listen."},
		},
	}
}

type ScoreItem struct {
	Criteria       string `json:"criteria"`
	Score          int    `json:"score"`
	Reasoning      string `json:"reasoning"`
	ImprovementTip string `json:"improvement_tip"`
}

type ScoreSourceInfo struct {
	Kind string `json:"kind"` // "dna" | "template" | "generic"
	Name string `json:"name"`
}

type ScoringResult struct {
	TotalScore      int              `json:"total_score"`
	Breakdown       []ScoreItem      `json:"breakdown"`
	OverallFeedback string           `json:"overall_feedback"`
	Timestamp       time.Time        `json:"timestamp"`
	SourceInfo      *ScoreSourceInfo `json:"source_info,omitempty"`
	ContentHash     string           `json:"contentHash,omitempty"`
}
