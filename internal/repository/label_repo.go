package repository

import (
	"context"
	"errors"

	"task_manager/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LabelRepository struct {
	db *pgxpool.Pool
}

func NewLabelRepository(db *pgxpool.Pool) *LabelRepository {
	return &LabelRepository{db: db}
}

func (r *LabelRepository) Create(ctx context.Context, l *domain.Label) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO labels (name, color)
		 VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		l.Name, l.Color,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// List returns every label. The label set is small and shared by all
// users, there is no pagination.
func (r *LabelRepository) List(ctx context.Context) ([]*domain.Label, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, color, created_at, updated_at FROM labels ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Label
	for rows.Next() {
		var l domain.Label
		if err := rows.Scan(&l.ID, &l.Name, &l.Color, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &l)
	}
	return res, rows.Err()
}

// Update changes only the fields that are non-nil and bumps updated_at.
func (r *LabelRepository) Update(ctx context.Context, id int64, name, color *string) (*domain.Label, error) {
	var l domain.Label
	err := r.db.QueryRow(ctx,
		`UPDATE labels
		 SET name = COALESCE($2, name),
		     color = COALESCE($3, color),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING id, name, color, created_at, updated_at`,
		id, name, color,
	).Scan(&l.ID, &l.Name, &l.Color, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &l, nil
}

// Delete removes a label. Tasks keep any reference to the deleted id;
// resolution drops it silently.
func (r *LabelRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM labels WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
