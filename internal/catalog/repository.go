package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jazmin7552/p2/internal/platform/db"
	"github.com/jazmin7552/p2/internal/shared"
)

const productColumns = `id, name, description, price::text, stock, active, category_id, created_at, updated_at`

// Repository persists the catalog in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn in a row-locking transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, ProductTx) error) error {
	return db.WithTxOptions(ctx, r.pool, db.RowLockTx, func(tx pgx.Tx) error {
		return fn(ctx, &stockTx{q: tx})
	})
}

// NewStockTx exposes the stock statements on an open transaction so other
// packages can mutate stock inside their own unit of work.
func NewStockTx(q db.DBTX) StockTx {
	return &stockTx{q: q}
}

type stockTx struct {
	q db.DBTX
}

func (t *stockTx) ProductForUpdate(ctx context.Context, id int64) (Product, error) {
	row := t.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
	return scanProduct(row, id)
}

func (t *stockTx) SetProductStock(ctx context.Context, id int64, stock int) error {
	tag, err := t.q.Exec(ctx, `UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`, id, stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	return nil
}

func (t *stockTx) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	row := t.q.QueryRow(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4::numeric, active = $5, category_id = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Price.String(), p.Active, p.CategoryID)
	updated, err := scanProduct(row, p.ID)
	return updated, db.MapError(err)
}

func (t *stockTx) InsertMovement(ctx context.Context, m Movement) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO stock_movements (product_id, kind, delta, stock_before, stock_after, ref_id, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ProductID, string(m.Kind), m.Delta, m.StockBefore, m.StockAfter, m.RefID, m.Note)
	return err
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row, id)
}

func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, int, error) {
	var conditions []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.CategoryID != nil {
		add("category_id = $%d", *filter.CategoryID)
	}
	if filter.Active != nil {
		add("active = $%d", *filter.Active)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		add("name ILIKE '%%' || $%d || '%%'", s)
	}
	if filter.MinStock != nil {
		add("stock > $%d", *filter.MinStock)
	}
	if filter.MaxStock != nil {
		add("stock <= $%d", *filter.MaxStock)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, shared.Offset(filter.Page, filter.Limit))
	query := fmt.Sprintf("SELECT %s FROM products %s ORDER BY name LIMIT $%d OFFSET $%d",
		productColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows, 0)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *Repository) ProductNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE LOWER(name) = LOWER($1) AND id <> $2)`,
		name, excludeID).Scan(&exists)
	return exists, err
}

func (r *Repository) CreateProduct(ctx context.Context, p Product) (Product, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, description, price, stock, active, category_id)
		VALUES ($1, $2, $3::numeric, $4, $5, $6)
		RETURNING `+productColumns,
		p.Name, p.Description, p.Price.String(), p.Stock, p.Active, p.CategoryID)
	created, err := scanProduct(row, 0)
	return created, db.MapError(err)
}

// UpdateProduct writes every column except stock, which only moves through StockTx.
func (r *Repository) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	return (&stockTx{q: r.pool}).UpdateProduct(ctx, p)
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	return nil
}

func (r *Repository) ProductInUse(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM order_lines WHERE product_id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *Repository) ListMovements(ctx context.Context, productID int64, limit int) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, kind, delta, stock_before, stock_after, COALESCE(ref_id, '00000000-0000-0000-0000-000000000000'::uuid), note, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Movement
	for rows.Next() {
		var m Movement
		var kind string
		if err := rows.Scan(&m.ID, &m.ProductID, &kind, &m.Delta, &m.StockBefore, &m.StockAfter, &m.RefID, &m.Note, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Kind = MovementKind(kind)
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, fmt.Errorf("%w: id %d", ErrCategoryNotFound, id)
	}
	return c, err
}

func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *Repository) CategoryNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE LOWER(name) = LOWER($1) AND id <> $2)`,
		name, excludeID).Scan(&exists)
	return exists, err
}

func (r *Repository) CreateCategory(ctx context.Context, c Category) (Category, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id, name`, c.Name).Scan(&c.ID, &c.Name)
	return c, db.MapError(err)
}

func (r *Repository) UpdateCategory(ctx context.Context, c Category) (Category, error) {
	err := r.pool.QueryRow(ctx, `UPDATE categories SET name = $2 WHERE id = $1 RETURNING id, name`, c.ID, c.Name).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, fmt.Errorf("%w: id %d", ErrCategoryNotFound, c.ID)
	}
	return c, db.MapError(err)
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	return db.MapError(err)
}

func (r *Repository) CategoryInUse(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE category_id = $1)`, id).Scan(&exists)
	return exists, err
}

func scanProduct(row pgx.Row, id int64) (Product, error) {
	var p Product
	var price string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.Active, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	if err != nil {
		return Product{}, err
	}
	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: parse price %q: %w", price, err)
	}
	return p, nil
}
