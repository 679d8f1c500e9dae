package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jazmin7552/p2/internal/catalog"
	"github.com/jazmin7552/p2/internal/platform/db"
)

const lineSelect = `
	SELECT l.id, l.order_id, l.product_id, p.name, l.unit_price::text, l.quantity, l.subtotal::text
	FROM order_lines l
	JOIN products p ON p.id = l.product_id`

// Repository persists order lines in PostgreSQL.
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
		return fn(ctx, NewTxRepository(tx))
	})
}

// NewTxRepository binds the line and stock statements to an open transaction.
func NewTxRepository(q db.DBTX) TxRepository {
	return &txRepo{StockTx: catalog.NewStockTx(q), q: q}
}

type txRepo struct {
	catalog.StockTx
	q db.DBTX
}

// LockOrder holds a share lock on the order so it cannot be deleted underneath a line change.
func (t *txRepo) LockOrder(ctx context.Context, orderID int64) error {
	var id int64
	err := t.q.QueryRow(ctx, `SELECT id FROM orders WHERE id = $1 FOR SHARE`, orderID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	return err
}

func (t *txRepo) LineForUpdate(ctx context.Context, id int64) (Line, error) {
	row := t.q.QueryRow(ctx, lineSelect+` WHERE l.id = $1 FOR UPDATE OF l`, id)
	return scanLine(row, id)
}

func (t *txRepo) HasProductLine(ctx context.Context, orderID, productID int64) (bool, error) {
	var exists bool
	err := t.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM order_lines WHERE order_id = $1 AND product_id = $2)`,
		orderID, productID).Scan(&exists)
	return exists, err
}

func (t *txRepo) InsertLine(ctx context.Context, line Line) (Line, error) {
	err := t.q.QueryRow(ctx, `
		INSERT INTO order_lines (order_id, product_id, unit_price, quantity, subtotal)
		VALUES ($1, $2, $3::numeric, $4, $5::numeric)
		RETURNING id`,
		line.OrderID, line.ProductID, line.UnitPrice.String(), line.Quantity, line.Subtotal.String()).Scan(&line.ID)
	if err != nil {
		return Line{}, err
	}
	return line, nil
}

func (t *txRepo) UpdateLine(ctx context.Context, line Line) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE order_lines SET quantity = $2, subtotal = $3::numeric WHERE id = $1`,
		line.ID, line.Quantity, line.Subtotal.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrLineNotFound, line.ID)
	}
	return nil
}

func (t *txRepo) DeleteLine(ctx context.Context, id int64) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM order_lines WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrLineNotFound, id)
	}
	return nil
}

func (t *txRepo) LinesForUpdate(ctx context.Context, orderID int64) ([]Line, error) {
	return queryLines(ctx, t.q, lineSelect+` WHERE l.order_id = $1 ORDER BY l.id FOR UPDATE OF l`, orderID)
}

func (t *txRepo) DeleteLinesForOrder(ctx context.Context, orderID int64) error {
	_, err := t.q.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, orderID)
	return err
}

func (r *Repository) GetLine(ctx context.Context, id int64) (Line, error) {
	return scanLine(r.pool.QueryRow(ctx, lineSelect+` WHERE l.id = $1`, id), id)
}

func (r *Repository) ListLines(ctx context.Context) ([]Line, error) {
	return queryLines(ctx, r.pool, lineSelect+` ORDER BY l.order_id, l.id`)
}

func (r *Repository) ListLinesByOrder(ctx context.Context, orderID int64) ([]Line, error) {
	return queryLines(ctx, r.pool, lineSelect+` WHERE l.order_id = $1 ORDER BY l.id`, orderID)
}

func (r *Repository) ListLinesByProduct(ctx context.Context, productID int64) ([]Line, error) {
	return queryLines(ctx, r.pool, lineSelect+` WHERE l.product_id = $1 ORDER BY l.order_id, l.id`, productID)
}

func (r *Repository) OrderExists(ctx context.Context, orderID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists)
	return exists, err
}

func (r *Repository) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	return exists, err
}

// QueryLines runs a line query built on the shared select list. It is used by
// the order repository to attach lines to orders.
func QueryLines(ctx context.Context, q db.DBTX, where string, args ...any) ([]Line, error) {
	return queryLines(ctx, q, lineSelect+" "+where, args...)
}

func queryLines(ctx context.Context, q db.DBTX, query string, args ...any) ([]Line, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		line, err := scanLine(rows, 0)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanLine(row pgx.Row, id int64) (Line, error) {
	var l Line
	var price, subtotal string
	err := row.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &price, &l.Quantity, &subtotal)
	if errors.Is(err, pgx.ErrNoRows) {
		return Line{}, fmt.Errorf("%w: id %d", ErrLineNotFound, id)
	}
	if err != nil {
		return Line{}, err
	}
	if l.UnitPrice, err = decimal.NewFromString(price); err != nil {
		return Line{}, fmt.Errorf("ledger: parse unit price %q: %w", price, err)
	}
	if l.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return Line{}, fmt.Errorf("ledger: parse subtotal %q: %w", subtotal, err)
	}
	return l, nil
}
