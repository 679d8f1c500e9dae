package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jazmin7552/p2/internal/ledger"
	"github.com/jazmin7552/p2/internal/platform/db"
)

const orderSelect = `SELECT id, placed_at, table_id, waiter_id, cook_id, status_id FROM orders`

// Repository persists orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn in a row-locking transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxOptions(ctx, r.pool, db.RowLockTx, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{TxRepository: ledger.NewTxRepository(tx), q: tx})
	})
}

type txRepo struct {
	ledger.TxRepository
	q db.DBTX
}

func (t *txRepo) OrderForUpdate(ctx context.Context, id int64) (Order, error) {
	return scanOrder(t.q.QueryRow(ctx, orderSelect+` WHERE id = $1 FOR UPDATE`, id), id)
}

func (t *txRepo) InsertOrder(ctx context.Context, o Order) (Order, error) {
	err := t.q.QueryRow(ctx, `
		INSERT INTO orders (placed_at, table_id, waiter_id, cook_id, status_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		o.PlacedAt, o.TableID, o.WaiterID, o.CookID, o.StatusID).Scan(&o.ID)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (t *txRepo) UpdateOrder(ctx context.Context, o Order) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE orders SET placed_at = $2, table_id = $3, waiter_id = $4, cook_id = $5, status_id = $6
		WHERE id = $1`,
		o.ID, o.PlacedAt, o.TableID, o.WaiterID, o.CookID, o.StatusID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrOrderNotFound, o.ID)
	}
	return nil
}

func (t *txRepo) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
	}
	return nil
}

// GetOrder returns an order with its lines.
func (r *Repository) GetOrder(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, orderSelect+` WHERE id = $1`, id), id)
	if err != nil {
		return Order{}, err
	}
	o.Lines, err = ledger.QueryLines(ctx, r.pool, `WHERE l.order_id = $1 ORDER BY l.id`, id)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// ListOrders returns orders matching filter, newest first, with their lines.
func (r *Repository) ListOrders(ctx context.Context, filter Filter) ([]Order, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.TableID != nil {
		add("table_id = $%d", *filter.TableID)
	}
	if filter.WaiterID != nil {
		add("waiter_id = $%d", *filter.WaiterID)
	}
	if filter.CookID != nil {
		add("cook_id = $%d", *filter.CookID)
	}
	if filter.StatusID != nil {
		add("status_id = $%d", *filter.StatusID)
	}
	if len(filter.ExcludeStatusIDs) > 0 {
		add("status_id <> ALL($%d)", filter.ExcludeStatusIDs)
	}
	if filter.From != nil {
		add("placed_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("placed_at < $%d", *filter.To)
	}
	query := orderSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := r.pool.Query(ctx, query+" ORDER BY placed_at DESC, id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	index := make(map[int64]int)
	ids := make([]int64, 0)
	for rows.Next() {
		o, err := scanOrder(rows, 0)
		if err != nil {
			return nil, err
		}
		index[o.ID] = len(out)
		ids = append(ids, o.ID)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	lines, err := ledger.QueryLines(ctx, r.pool, `WHERE l.order_id = ANY($1) ORDER BY l.order_id, l.id`, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		i := index[l.OrderID]
		out[i].Lines = append(out[i].Lines, l)
	}
	return out, nil
}

func scanOrder(row pgx.Row, id int64) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.PlacedAt, &o.TableID, &o.WaiterID, &o.CookID, &o.StatusID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
	}
	return o, err
}
