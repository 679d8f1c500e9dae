package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jazmin7552/p2/internal/catalog"
	"github.com/jazmin7552/p2/internal/ledger"
	"github.com/jazmin7552/p2/internal/orders"
	"github.com/jazmin7552/p2/internal/platform/httpx"
)

// memTx works on a private copy of the dataset. It satisfies catalog.ProductTx,
// ledger.TxRepository and orders.TxRepository.
type memTx struct {
	d   *dataset
	now func() time.Time
}

func (t *memTx) ProductForUpdate(_ context.Context, id int64) (catalog.Product, error) {
	p, ok := t.d.products[id]
	if !ok {
		return catalog.Product{}, fmt.Errorf("%w: id %d", catalog.ErrProductNotFound, id)
	}
	return p, nil
}

func (t *memTx) SetProductStock(_ context.Context, id int64, stock int) error {
	p, ok := t.d.products[id]
	if !ok {
		return fmt.Errorf("%w: id %d", catalog.ErrProductNotFound, id)
	}
	if stock < 0 {
		return fmt.Errorf("products_stock_check: %w", httpx.ErrBadRequest)
	}
	p.Stock = stock
	p.UpdatedAt = t.now().UTC()
	t.d.products[id] = p
	return nil
}

func (t *memTx) UpdateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	return t.d.updateProduct(p, t.now())
}

func (t *memTx) InsertMovement(_ context.Context, m catalog.Movement) error {
	if _, ok := t.d.products[m.ProductID]; !ok {
		return fkViolation("stock_movements_product_id_fkey")
	}
	t.d.seq.movement++
	m.ID = t.d.seq.movement
	m.CreatedAt = t.now().UTC()
	t.d.movements = append(t.d.movements, m)
	return nil
}

func (t *memTx) LockOrder(_ context.Context, orderID int64) error {
	if _, ok := t.d.orders[orderID]; !ok {
		return fmt.Errorf("%w: id %d", ledger.ErrOrderNotFound, orderID)
	}
	return nil
}

func (t *memTx) LineForUpdate(_ context.Context, id int64) (ledger.Line, error) {
	l, ok := t.d.lines[id]
	if !ok {
		return ledger.Line{}, fmt.Errorf("%w: id %d", ledger.ErrLineNotFound, id)
	}
	return t.d.withProductName(l), nil
}

func (t *memTx) HasProductLine(_ context.Context, orderID, productID int64) (bool, error) {
	for _, l := range t.d.lines {
		if l.OrderID == orderID && l.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertLine(ctx context.Context, line ledger.Line) (ledger.Line, error) {
	if _, ok := t.d.orders[line.OrderID]; !ok {
		return ledger.Line{}, fkViolation("order_lines_order_id_fkey")
	}
	if _, ok := t.d.products[line.ProductID]; !ok {
		return ledger.Line{}, fkViolation("order_lines_product_id_fkey")
	}
	if dup, _ := t.HasProductLine(ctx, line.OrderID, line.ProductID); dup {
		return ledger.Line{}, uniqueViolation("order_lines_order_product_key")
	}
	t.d.seq.line++
	line.ID = t.d.seq.line
	t.d.lines[line.ID] = line
	return line, nil
}

func (t *memTx) UpdateLine(_ context.Context, line ledger.Line) error {
	current, ok := t.d.lines[line.ID]
	if !ok {
		return fmt.Errorf("%w: id %d", ledger.ErrLineNotFound, line.ID)
	}
	current.Quantity = line.Quantity
	current.Subtotal = line.Subtotal
	t.d.lines[line.ID] = current
	return nil
}

func (t *memTx) DeleteLine(_ context.Context, id int64) error {
	if _, ok := t.d.lines[id]; !ok {
		return fmt.Errorf("%w: id %d", ledger.ErrLineNotFound, id)
	}
	delete(t.d.lines, id)
	return nil
}

func (t *memTx) LinesForUpdate(_ context.Context, orderID int64) ([]ledger.Line, error) {
	return t.d.linesOf(orderID), nil
}

func (t *memTx) DeleteLinesForOrder(_ context.Context, orderID int64) error {
	for id, l := range t.d.lines {
		if l.OrderID == orderID {
			delete(t.d.lines, id)
		}
	}
	return nil
}

func (t *memTx) OrderForUpdate(_ context.Context, id int64) (orders.Order, error) {
	o, ok := t.d.orders[id]
	if !ok {
		return orders.Order{}, fmt.Errorf("%w: id %d", orders.ErrOrderNotFound, id)
	}
	return o, nil
}

func (t *memTx) InsertOrder(_ context.Context, o orders.Order) (orders.Order, error) {
	if err := t.d.checkOrderRefs(o); err != nil {
		return orders.Order{}, err
	}
	t.d.seq.order++
	o.ID = t.d.seq.order
	o.Lines = nil
	t.d.orders[o.ID] = o
	return o, nil
}

func (t *memTx) UpdateOrder(_ context.Context, o orders.Order) error {
	if _, ok := t.d.orders[o.ID]; !ok {
		return fmt.Errorf("%w: id %d", orders.ErrOrderNotFound, o.ID)
	}
	if err := t.d.checkOrderRefs(o); err != nil {
		return err
	}
	o.Lines = nil
	t.d.orders[o.ID] = o
	return nil
}

// DeleteOrder removes the order and, like ON DELETE CASCADE, its lines.
func (t *memTx) DeleteOrder(ctx context.Context, id int64) error {
	if _, ok := t.d.orders[id]; !ok {
		return fmt.Errorf("%w: id %d", orders.ErrOrderNotFound, id)
	}
	delete(t.d.orders, id)
	return t.DeleteLinesForOrder(ctx, id)
}

func (d *dataset) checkOrderRefs(o orders.Order) error {
	if _, ok := d.tables[o.TableID]; !ok {
		return fkViolation("orders_table_id_fkey")
	}
	if _, ok := d.users[o.WaiterID]; !ok {
		return fkViolation("orders_waiter_id_fkey")
	}
	if o.CookID != nil {
		if _, ok := d.users[*o.CookID]; !ok {
			return fkViolation("orders_cook_id_fkey")
		}
	}
	if _, ok := d.statuses[o.StatusID]; !ok {
		return fkViolation("orders_status_id_fkey")
	}
	return nil
}

func (d *dataset) withProductName(l ledger.Line) ledger.Line {
	if p, ok := d.products[l.ProductID]; ok {
		l.ProductName = p.Name
	}
	return l
}

func (d *dataset) linesOf(orderID int64) []ledger.Line {
	var out []ledger.Line
	for _, l := range d.lines {
		if l.OrderID == orderID {
			out = append(out, d.withProductName(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
