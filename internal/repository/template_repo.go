package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"scriptforge-backend/internal/models"
)

// TemplateRepo stores the user's saved scoring templates.
type TemplateRepo struct {
	pool *pgxpool.Pool
}

type SavedTemplate struct {
	RowID    uuid.UUID
	UserID   uuid.UUID
	Template models.ScoringTemplate
}

func NewTemplateRepo(pool *pgxpool.Pool) *TemplateRepo {
	return &TemplateRepo{pool: pool}
}

func (r *TemplateRepo) Create(ctx context.Context, userID uuid.UUID, t *models.ScoringTemplate) (uuid.UUID, error) {
	rowID := uuid.New()
	criteria, err := json.Marshal(t.Criteria)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal criteria: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO scoring_templates (id, user_id, name, criteria) VALUES ($1, $2, $3, $4)`,
		rowID, userID, t.Name, criteria,
	)
	if err != nil {
		return uuid.Nil, err
	}
	return rowID, nil
}

func (r *TemplateRepo) GetByID(ctx context.Context, id uuid.UUID) (*SavedTemplate, error) {
	saved := &SavedTemplate{}
	var criteria []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, criteria FROM scoring_templates WHERE id = $1`, id,
	).Scan(&saved.RowID, &saved.UserID, &saved.Template.Name, &criteria)
	if err != nil {
		return nil, err
	}
	saved.Template.ID = saved.RowID.String()
	if err := json.Unmarshal(criteria, &saved.Template.Criteria); err != nil {
		return nil, fmt.Errorf("failed to unmarshal criteria: %w", err)
	}
	return saved, nil
}

func (r *TemplateRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*SavedTemplate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, name, criteria FROM scoring_templates WHERE user_id = $1 ORDER BY created_at ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*SavedTemplate
	for rows.Next() {
		saved := &SavedTemplate{}
		var criteria []byte
		if err := rows.Scan(&saved.RowID, &saved.UserID, &saved.Template.Name, &criteria); err != nil {
			return nil, err
		}
		saved.Template.ID = saved.RowID.String()
		if err := json.Unmarshal(criteria, &saved.Template.Criteria); err != nil {
			return nil, fmt.Errorf("failed to unmarshal criteria: %w", err)
		}
		out = append(out, saved)
	}
	return out, rows.Err()
}

func (r *TemplateRepo) Update(ctx context.Context, id uuid.UUID, t *models.ScoringTemplate) error {
	criteria, err := json.Marshal(t.Criteria)
	if err != nil {
		return fmt.Errorf("failed to marshal criteria: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE scoring_templates SET name = $1, criteria = $2, updated_at = NOW() WHERE id = $3`,
		t.Name, criteria, id,
	)
	return err
}

func (r *TemplateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM scoring_templates WHERE id = $1", id)
	return err
}
