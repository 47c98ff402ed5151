package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"scriptforge-backend/internal/models"
)

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	p.ID = uuid.New()
	dataBytes, err := json.Marshal(p.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal project data: %w", err)
	}

	query := `INSERT INTO projects (id, user_id, folder_id, name, data)
		VALUES ($1, $2, $3, $4, $5) RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		p.ID, p.UserID, p.FolderID, p.Name, dataBytes,
	).Scan(&p.UpdatedAt)
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p := &models.Project{}
	var dataBytes []byte
	query := `SELECT id, user_id, folder_id, name, data, updated_at
		FROM projects WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.UserID, &p.FolderID, &p.Name, &dataBytes, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(dataBytes, &p.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project data: %w", err)
	}
	return p, nil
}

func (r *ProjectRepo) ListByUser(ctx context.Context, userID uuid.UUID, folderID *uuid.UUID, search string, limit, offset int) ([]*models.Project, int, error) {
	var args []interface{}
	argIdx := 1

	where := fmt.Sprintf("WHERE user_id = $%d", argIdx)
	args = append(args, userID)
	argIdx++

	if folderID != nil {
		where += fmt.Sprintf(" AND folder_id = $%d", argIdx)
		args = append(args, *folderID)
		argIdx++
	}

	if search != "" {
		where += fmt.Sprintf(" AND name ILIKE $%d", argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM projects " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT id, user_id, folder_id, name, data, updated_at
		FROM projects %s ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p := &models.Project{}
		var dataBytes []byte
		if err := rows.Scan(&p.ID, &p.UserID, &p.FolderID, &p.Name, &dataBytes, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(dataBytes, &p.Data); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal project data: %w", err)
		}
		projects = append(projects, p)
	}

	return projects, total, rows.Err()
}

func (r *ProjectRepo) Update(ctx context.Context, p *models.Project) error {
	dataBytes, err := json.Marshal(p.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal project data: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		"UPDATE projects SET name = $1, folder_id = $2, data = $3, updated_at = NOW() WHERE id = $4",
		p.Name, p.FolderID, dataBytes, p.ID,
	)
	return err
}

func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM projects WHERE id = $1", id)
	return err
}
