package models

import (
	"time"

	"github.com/google/uuid"
)

type Step string

const (
	StepInput        Step = "input"
	StepDNASelection Step = "dna_selection"
	StepBlueprint    Step = "blueprint"
	StepResult       Step = "result"
)

type CreationMode string

const (
	ModeRewrite CreationMode = "rewrite" // rework an existing draft
	ModeIdea    CreationMode = "idea"    // write from scratch
)

// StageModels selects which model serves each pipeline stage.
type StageModels struct {
	DNAExtraction    string `json:"dnaExtraction"`
	Blueprint        string `json:"blueprint"`
	ScriptGeneration string `json:"scriptGeneration"`
	Refinement       string `json:"refinement"`
}

// ProjectData is the working state of one script project. It is stored
// as a single JSONB document and mutated only through the transition
// methods in the project service.
type ProjectData struct {
	Mode                      CreationMode                     `json:"mode"`
	Language                  string                           `json:"language"`
	UserDraft                 string                           `json:"userDraft"`
	Virals                    []ContentPiece                   `json:"virals"`
	Flops                     []ContentPiece                   `json:"flops"`
	TargetWordCount           int                              `json:"targetWordCount"`
	CustomStructurePrompt     *string                          `json:"customStructurePrompt,omitempty"`
	CustomBlueprintPrompt     *string                          `json:"customBlueprintPrompt,omitempty"`
	SelectedDNA               *ScriptDNA                       `json:"selectedDNA,omitempty"`
	AvailableDNAs             []ScriptDNA                      `json:"availableDNAs"`
	SelectedModel             *string                          `json:"selectedModel,omitempty"`
	Models                    *StageModels                     `json:"models,omitempty"`
	ScoringTemplates          []ScoringTemplate                `json:"scoringTemplates"`
	SelectedScoringTemplateID *string                          `json:"selectedScoringTemplateId,omitempty"`
	LastScore                 *ScoringResult                   `json:"lastScore,omitempty"`
	Blueprint                 *ScriptBlueprint                 `json:"blueprint,omitempty"`
	BlueprintVersions         []VersionedItem[ScriptBlueprint] `json:"blueprintVersions,omitempty"`
	Result                    *OptimizedResult                 `json:"result,omitempty"`
	ResultVersions            []VersionedItem[OptimizedResult] `json:"resultVersions,omitempty"`
	Step                      Step                             `json:"step"`
}

type Project struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"-"`
	FolderID  *uuid.UUID  `json:"folderId,omitempty"`
	Name      string      `json:"name"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Data      ProjectData `json:"data"`
}

type Folder struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Note struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}
