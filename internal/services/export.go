package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"scriptforge-backend/internal/models"
)

// ExportService renders a finished script for download.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

type ExportFormat string

const (
	ExportMarkdown  ExportFormat = "markdown"
	ExportPlainText ExportFormat = "text"
	ExportJSON      ExportFormat = "json"
)

type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

func (s *ExportService) Render(projectName string, result *models.OptimizedResult, format ExportFormat) (*ExportFile, error) {
	if result == nil {
		return nil, &ValidationError{Fields: map[string]string{"result": "There is no script to export"}}
	}

	base := slugify(projectName)
	switch format {
	case ExportMarkdown:
		return &ExportFile{
			Filename:    base + ".md",
			ContentType: "text/markdown; charset=utf-8",
			Body:        []byte(renderMarkdown(result)),
		}, nil
	case ExportPlainText:
		return &ExportFile{
			Filename:    base + ".txt",
			ContentType: "text/plain; charset=utf-8",
			Body:        []byte(result.FullScriptText()),
		}, nil
	case ExportJSON:
		body, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		return &ExportFile{
			Filename:    base + ".json",
			ContentType: "application/json",
			Body:        body,
		}, nil
	default:
		return nil, &ValidationError{Fields: map[string]string{"format": fmt.Sprintf("Unknown export format %q", format)}}
	}
}

func renderMarkdown(result *models.OptimizedResult) string {
	var b strings.Builder

	title := result.Rewritten.Title
	if title == "" {
		title = "Script"
	}
	b.WriteString("# " + title + "\n\n")

	if result.Rewritten.Description != "" {
		b.WriteString(result.Rewritten.Description + "\n\n")
	}
	if len(result.Rewritten.Tags) > 0 {
		b.WriteString("Tags: " + strings.Join(result.Rewritten.Tags, ", ") + "\n\n")
	}

	for _, sec := range result.Rewritten.ScriptSections {
		b.WriteString("## " + sec.Title + "\n\n")
		b.WriteString(sec.Content + "\n\n")
	}

	if result.FullScriptScore != nil {
		fmt.Fprintf(&b, "---\n\nScore: %d/100\n\n%s\n", result.FullScriptScore.TotalScore, result.FullScriptScore.OverallFeedback)
	}

	return b.String()
}

func slugify(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return "script"
	}
	var b strings.Builder
	lastDash := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "script"
	}
	return out
}
