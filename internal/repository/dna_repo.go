package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"scriptforge-backend/internal/models"
)

// DNARepo stores the user's library of saved Script DNA profiles. The
// profile body is one JSONB document; the row carries what list views
// need.
type DNARepo struct {
	pool *pgxpool.Pool
}

type SavedDNA struct {
	RowID  uuid.UUID
	UserID uuid.UUID
	DNA    models.ScriptDNA
}

func NewDNARepo(pool *pgxpool.Pool) *DNARepo {
	return &DNARepo{pool: pool}
}

func (r *DNARepo) Create(ctx context.Context, userID uuid.UUID, dna *models.ScriptDNA) (uuid.UUID, error) {
	rowID := uuid.New()
	body, err := json.Marshal(dna)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal dna: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO dnas (id, user_id, name, niche, data) VALUES ($1, $2, $3, $4, $5)`,
		rowID, userID, dna.Name, dna.Niche, body,
	)
	if err != nil {
		return uuid.Nil, err
	}
	return rowID, nil
}

func (r *DNARepo) GetByID(ctx context.Context, id uuid.UUID) (*SavedDNA, error) {
	saved := &SavedDNA{}
	var body []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, data FROM dnas WHERE id = $1`, id,
	).Scan(&saved.RowID, &saved.UserID, &body)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &saved.DNA); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dna: %w", err)
	}
	return saved, nil
}

func (r *DNARepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*SavedDNA, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, data FROM dnas WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*SavedDNA
	for rows.Next() {
		saved := &SavedDNA{}
		var body []byte
		if err := rows.Scan(&saved.RowID, &saved.UserID, &body); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, &saved.DNA); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dna: %w", err)
		}
		out = append(out, saved)
	}
	return out, rows.Err()
}

func (r *DNARepo) Update(ctx context.Context, id uuid.UUID, dna *models.ScriptDNA) error {
	body, err := json.Marshal(dna)
	if err != nil {
		return fmt.Errorf("failed to marshal dna: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE dnas SET name = $1, niche = $2, data = $3, updated_at = NOW() WHERE id = $4`,
		dna.Name, dna.Niche, body, id,
	)
	return err
}

func (r *DNARepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM dnas WHERE id = $1", id)
	return err
}
