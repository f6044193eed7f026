package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task_manager/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PageSize is the fixed task listing page size.
const PageSize = 25

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

// TaskFilter narrows a listing to one owner, optionally by status and
// priority. Page is 1-indexed.
type TaskFilter struct {
	UserID   int64
	Status   string
	Priority string
	SortDesc bool
	Page     int
}

// TaskUpdate carries partial updates; nil fields are left unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	LabelIDs    []int64
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	if t.LabelIDs == nil {
		t.LabelIDs = []int64{}
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO tasks (user_id, title, description, status, priority, due_date, label_ids)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		t.UserID, t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.LabelIDs,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// List returns one page of the owner's tasks with labels resolved, plus
// the total number of matching tasks. A page past the end yields an
// empty slice, not an error.
func (r *TaskRepository) List(ctx context.Context, f TaskFilter) ([]*domain.TaskWithLabels, int64, error) {
	where := `WHERE user_id = $1`
	args := []any{f.UserID}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		where += fmt.Sprintf(` AND priority = $%d`, len(args))
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// NULLS LAST in both directions so undated tasks order the same way
	// regardless of sort direction.
	order := ` ORDER BY due_date ASC NULLS LAST, id ASC`
	if f.SortDesc {
		order = ` ORDER BY due_date DESC NULLS LAST, id ASC`
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	args = append(args, PageSize, (page-1)*PageSize)
	q := fmt.Sprintf(
		`SELECT id, user_id, title, description, status, priority, due_date, label_ids, created_at, updated_at
		 FROM tasks %s%s LIMIT $%d OFFSET $%d`,
		where, order, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tasks []*domain.TaskWithLabels
	for rows.Next() {
		var t domain.TaskWithLabels
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority,
			&t.DueDate, &t.LabelIDs, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		t.Labels = []*domain.Label{}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.resolveLabels(ctx, tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// Update applies the non-nil fields of u to the task. The owner id is
// part of the same statement as the task id, so a task owned by someone
// else is indistinguishable from a missing one.
func (r *TaskRepository) Update(ctx context.Context, id, userID int64, u TaskUpdate) (*domain.Task, error) {
	var t domain.Task
	err := r.db.QueryRow(ctx,
		`UPDATE tasks
		 SET title = COALESCE($3, title),
		     description = COALESCE($4, description),
		     status = COALESCE($5, status),
		     priority = COALESCE($6, priority),
		     due_date = COALESCE($7, due_date),
		     label_ids = COALESCE($8, label_ids),
		     updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, title, description, status, priority, due_date, label_ids, created_at, updated_at`,
		id, userID, u.Title, u.Description, u.Status, u.Priority, u.DueDate, u.LabelIDs,
	).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.DueDate, &t.LabelIDs, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Delete removes the task, scoped by owner like Update.
func (r *TaskRepository) Delete(ctx context.Context, id, userID int64) error {
	res, err := r.db.Exec(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// resolveLabels joins label_ids to full label records in one query.
// Ids whose label was deleted are dropped without error.
func (r *TaskRepository) resolveLabels(ctx context.Context, tasks []*domain.TaskWithLabels) error {
	idSet := make(map[int64]struct{})
	for _, t := range tasks {
		for _, id := range t.LabelIDs {
			idSet[id] = struct{}{}
		}
	}
	if len(idSet) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, name, color, created_at, updated_at FROM labels WHERE id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	byID := make(map[int64]*domain.Label, len(ids))
	for rows.Next() {
		var l domain.Label
		if err := rows.Scan(&l.ID, &l.Name, &l.Color, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return err
		}
		byID[l.ID] = &l
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, t := range tasks {
		for _, id := range t.LabelIDs {
			if l, ok := byID[id]; ok {
				t.Labels = append(t.Labels, l)
			}
		}
	}
	return nil
}
