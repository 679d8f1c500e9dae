package tables

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jazmin7552/p2/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ListTables(ctx context.Context, filter Filter) ([]Table, error) {
	var (
		where []string
		args  []any
	)
	if filter.StatusID != nil {
		args = append(args, *filter.StatusID)
		where = append(where, fmt.Sprintf("status_id = $%d", len(args)))
	}
	if filter.MinCapacity != nil {
		args = append(args, *filter.MinCapacity)
		where = append(where, fmt.Sprintf("capacity >= $%d", len(args)))
	}
	if filter.Location != "" {
		args = append(args, filter.Location)
		where = append(where, fmt.Sprintf("location = $%d", len(args)))
	}
	query := `SELECT id, capacity, location, status_id FROM dining_tables`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := r.pool.Query(ctx, query+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.Capacity, &t.Location, &t.StatusID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) GetTable(ctx context.Context, id int64) (Table, error) {
	var t Table
	err := r.pool.QueryRow(ctx, `SELECT id, capacity, location, status_id FROM dining_tables WHERE id = $1`, id).
		Scan(&t.ID, &t.Capacity, &t.Location, &t.StatusID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Table{}, fmt.Errorf("%w: id %d", ErrTableNotFound, id)
	}
	return t, err
}

func (r *Repository) CreateTable(ctx context.Context, t Table) (Table, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO dining_tables (capacity, location, status_id) VALUES ($1, $2, $3) RETURNING id`,
		t.Capacity, t.Location, t.StatusID).Scan(&t.ID)
	if err != nil {
		return Table{}, db.MapError(err)
	}
	return t, nil
}

func (r *Repository) UpdateTable(ctx context.Context, t Table) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE dining_tables SET capacity = $2, location = $3, status_id = $4 WHERE id = $1`,
		t.ID, t.Capacity, t.Location, t.StatusID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrTableNotFound, t.ID)
	}
	return nil
}

func (r *Repository) DeleteTable(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM dining_tables WHERE id = $1`, id)
	return db.MapError(err)
}

func (r *Repository) TableHasOrders(ctx context.Context, id int64) (bool, error) {
	var used bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE table_id = $1)`, id).Scan(&used)
	return used, err
}
