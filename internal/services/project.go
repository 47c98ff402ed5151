package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"scriptforge-backend/internal/models"
	"scriptforge-backend/internal/repository"
)

// ProjectService owns project lifecycle and the state-machine
// transitions over ProjectData. Every transition is applied in memory
// first; persistence failures come back as warnings, not errors, so
// the user never loses an expensive generation to a flaky write.
type ProjectService struct {
	projects *repository.ProjectRepo
	feed     *ChangeFeed
}

func NewProjectService(projects *repository.ProjectRepo, feed *ChangeFeed) *ProjectService {
	return &ProjectService{projects: projects, feed: feed}
}

func (s *ProjectService) Create(ctx context.Context, userID uuid.UUID, name string, folderID *uuid.UUID, defaults models.UserSettings) (*models.Project, error) {
	if name == "" {
		name = "Untitled Project"
	}
	target := defaults.DefaultTargetWordCount
	if target <= 0 {
		target = 1500
	}
	language := defaults.Language
	if language == "" {
		language = "English"
	}

	project := &models.Project{
		UserID:   userID,
		FolderID: folderID,
		Name:     name,
		Data: models.ProjectData{
			Mode:             models.ModeIdea,
			Language:         language,
			TargetWordCount:  target,
			Virals:           []models.ContentPiece{},
			Flops:            []models.ContentPiece{},
			AvailableDNAs:    []models.ScriptDNA{},
			ScoringTemplates: []models.ScoringTemplate{},
			Step:             models.StepInput,
		},
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	s.feed.Publish(ctx, userID, "projects", "insert", project.ID)
	return project, nil
}

// Save persists an already-mutated project. A storage failure is
// returned as a PersistenceError warning; the in-memory state stands.
func (s *ProjectService) Save(ctx context.Context, project *models.Project) *PersistenceError {
	project.UpdatedAt = time.Now().UTC()
	if err := s.projects.Update(ctx, project); err != nil {
		log.Printf("project save failed for %s: %v", project.ID, err)
		return &PersistenceError{Op: "save project", Err: err}
	}
	s.feed.Publish(ctx, project.UserID, "projects", "update", project.ID)
	return nil
}

func (s *ProjectService) Delete(ctx context.Context, project *models.Project) error {
	if err := s.projects.Delete(ctx, project.ID); err != nil {
		return err
	}
	s.feed.Publish(ctx, project.UserID, "projects", "delete", project.ID)
	return nil
}

// InputPatch carries upstream input edits. Nil fields are untouched.
type InputPatch struct {
	Mode                  *models.CreationMode
	Language              *string
	UserDraft             *string
	Virals                []models.ContentPiece
	Flops                 []models.ContentPiece
	TargetWordCount       *int
	CustomStructurePrompt *string
	SelectedDNA           *models.ScriptDNA
	ClearSelectedDNA      bool
}

// ApplyInputPatch edits upstream inputs. Any change here invalidates
// everything generated downstream: blueprint and result are cleared,
// version history is kept.
func ApplyInputPatch(data *models.ProjectData, patch InputPatch) {
	if patch.Mode != nil {
		data.Mode = *patch.Mode
	}
	if patch.Language != nil {
		data.Language = *patch.Language
	}
	if patch.UserDraft != nil {
		data.UserDraft = *patch.UserDraft
	}
	if patch.Virals != nil {
		data.Virals = patch.Virals
	}
	if patch.Flops != nil {
		data.Flops = patch.Flops
	}
	if patch.TargetWordCount != nil {
		data.TargetWordCount = *patch.TargetWordCount
	}
	if patch.CustomStructurePrompt != nil {
		data.CustomStructurePrompt = patch.CustomStructurePrompt
	}
	if patch.ClearSelectedDNA {
		data.SelectedDNA = nil
	} else if patch.SelectedDNA != nil {
		data.SelectedDNA = patch.SelectedDNA
	}

	data.Blueprint = nil
	data.Result = nil
}

// CommitBlueprint installs a freshly generated blueprint, snapshots it
// as the next draft version and clears any stale result.
func CommitBlueprint(data *models.ProjectData, bp *models.ScriptBlueprint) {
	version := models.VersionedItem[models.ScriptBlueprint]{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Name:      fmt.Sprintf("Draft %d", len(data.BlueprintVersions)+1),
		Data:      *bp,
	}
	data.BlueprintVersions = append(data.BlueprintVersions, version)
	data.Blueprint = bp
	data.Result = nil
	data.Step = models.StepBlueprint
}

// EditBlueprint replaces the working blueprint after a manual edit.
// The result downstream of it is cleared; the draft history stays.
func EditBlueprint(data *models.ProjectData, bp *models.ScriptBlueprint) {
	data.Blueprint = bp
	data.Result = nil
}

// SetCustomBlueprintPrompt changes the blueprint-stage instruction.
// Only the result is stale after this; the blueprint itself survives.
func SetCustomBlueprintPrompt(data *models.ProjectData, prompt *string) {
	data.CustomBlueprintPrompt = prompt
	data.Result = nil
}

// CommitResult installs a freshly written script and snapshots it as
// the next script version.
func CommitResult(data *models.ProjectData, res *models.OptimizedResult) {
	version := models.VersionedItem[models.OptimizedResult]{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Name:      fmt.Sprintf("Script %d", len(data.ResultVersions)+1),
		Data:      *res,
	}
	data.ResultVersions = append(data.ResultVersions, version)
	data.Result = res
	data.Step = models.StepResult
}

// EditResultSection replaces one section's narration. The section's
// score is cleared on every edit, resubmitted identical text included;
// other sections keep theirs.
func EditResultSection(data *models.ProjectData, sectionID, content string) bool {
	if data.Result == nil {
		return false
	}
	for i := range data.Result.Rewritten.ScriptSections {
		sec := &data.Result.Rewritten.ScriptSections[i]
		if sec.ID == sectionID {
			sec.Content = content
			sec.ScoringResult = nil
			return true
		}
	}
	return false
}

// InvalidateFullScore drops the whole-script grade. Used when a
// refinement was triggered from a scoring suggestion, since the text
// that grade measured has changed.
func InvalidateFullScore(data *models.ProjectData) {
	if data.Result != nil {
		data.Result.FullScriptScore = nil
	}
	data.LastScore = nil
}

// ApplyFullScore writes a whole-script score onto the working result
// and patches it into the most recent script version in place, so the
// history entry reflects the grade it earned.
func ApplyFullScore(data *models.ProjectData, score *models.ScoringResult) bool {
	if data.Result == nil {
		return false
	}
	data.Result.FullScriptScore = score
	data.LastScore = score
	if n := len(data.ResultVersions); n > 0 {
		data.ResultVersions[n-1].Data.FullScriptScore = score
	}
	return true
}

// RestoreBlueprint makes an older draft the working blueprint. The
// result was written against a different draft, so it is cleared.
func RestoreBlueprint(data *models.ProjectData, versionID string) bool {
	for _, v := range data.BlueprintVersions {
		if v.ID == versionID {
			bp := v.Data
			data.Blueprint = &bp
			data.Result = nil
			data.Step = models.StepBlueprint
			return true
		}
	}
	return false
}

// RestoreResult replaces the working result wholesale with a saved
// script version.
func RestoreResult(data *models.ProjectData, versionID string) bool {
	for _, v := range data.ResultVersions {
		if v.ID == versionID {
			res := v.Data
			data.Result = &res
			data.Step = models.StepResult
			return true
		}
	}
	return false
}

// CanAccessStep gates navigation on artifact existence: there is
// nothing to show on a step whose artifact was never generated or was
// invalidated.
func CanAccessStep(data *models.ProjectData, step models.Step) bool {
	switch step {
	case models.StepInput, models.StepDNASelection:
		return true
	case models.StepBlueprint:
		return data.Blueprint != nil
	case models.StepResult:
		return data.Result != nil
	default:
		return false
	}
}

// NavigateTo moves the project to a step if its artifact exists.
func NavigateTo(data *models.ProjectData, step models.Step) error {
	if !CanAccessStep(data, step) {
		return &ValidationError{Fields: map[string]string{"step": fmt.Sprintf("Step %q is not reachable yet", step)}}
	}
	data.Step = step
	return nil
}

// PersistenceError marks a storage write that failed after the
// in-memory state already advanced. Callers surface it as a warning.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v (your work is kept in this session)", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
