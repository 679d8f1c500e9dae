package statuses

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jazmin7552/p2/internal/platform/db"
	"github.com/jazmin7552/p2/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListStatuses returns all statuses.
func (r *Repository) ListStatuses(ctx context.Context) ([]Status, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM statuses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Status
	for rows.Next() {
		var s Status
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) GetStatus(ctx context.Context, id int64) (Status, error) {
	var s Status
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM statuses WHERE id = $1`, id).Scan(&s.ID, &s.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Status{}, fmt.Errorf("%w: id %d", ErrStatusNotFound, id)
	}
	return s, err
}

func (r *Repository) StatusByName(ctx context.Context, name string) (Status, error) {
	var s Status
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM statuses WHERE LOWER(name) = LOWER($1)`, name).Scan(&s.ID, &s.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Status{}, fmt.Errorf("%w: name %s", ErrStatusNotFound, name)
	}
	return s, err
}

func (r *Repository) CreateStatus(ctx context.Context, name string) (Status, error) {
	s := Status{Name: name}
	err := r.pool.QueryRow(ctx, `INSERT INTO statuses (name) VALUES ($1) RETURNING id`, name).Scan(&s.ID)
	if err != nil {
		return Status{}, db.MapError(err)
	}
	return s, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, s Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE statuses SET name = $2 WHERE id = $1`, s.ID, s.Name)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrStatusNotFound, s.ID)
	}
	return nil
}

func (r *Repository) DeleteStatus(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM statuses WHERE id = $1`, id)
	return db.MapError(err)
}

func (r *Repository) StatusInUse(ctx context.Context, id int64) (bool, error) {
	var inUse bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM orders WHERE status_id = $1)
		    OR EXISTS (SELECT 1 FROM dining_tables WHERE status_id = $1)`, id).Scan(&inUse)
	return inUse, err
}

func isNotFound(err error) bool {
	return errors.Is(err, httpx.ErrNotFound)
}
