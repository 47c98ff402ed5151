package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"scriptforge-backend/internal/models"
)

type FolderRepo struct {
	pool *pgxpool.Pool
}

func NewFolderRepo(pool *pgxpool.Pool) *FolderRepo {
	return &FolderRepo{pool: pool}
}

func (r *FolderRepo) Create(ctx context.Context, f *models.Folder) error {
	f.ID = uuid.New()
	return r.pool.QueryRow(ctx,
		`INSERT INTO folders (id, user_id, name) VALUES ($1, $2, $3) RETURNING created_at`,
		f.ID, f.UserID, f.Name,
	).Scan(&f.CreatedAt)
}

func (r *FolderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Folder, error) {
	f := &models.Folder{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, created_at FROM folders WHERE id = $1`, id,
	).Scan(&f.ID, &f.UserID, &f.Name, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *FolderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Folder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, name, created_at FROM folders WHERE user_id = $1 ORDER BY name ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []*models.Folder
	for rows.Next() {
		f := &models.Folder{}
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.CreatedAt); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (r *FolderRepo) Rename(ctx context.Context, id uuid.UUID, name string) error {
	_, err := r.pool.Exec(ctx, "UPDATE folders SET name = $1 WHERE id = $2", name, id)
	return err
}

// Delete removes a folder; projects inside it fall back to the root
// via the FK's ON DELETE SET NULL.
func (r *FolderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM folders WHERE id = $1", id)
	return err
}
