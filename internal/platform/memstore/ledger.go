package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/jazmin7552/p2/internal/ledger"
)

// GetLine returns a line with its product name.
func (s *Store) GetLine(_ context.Context, id int64) (ledger.Line, error) {
	var (
		l  ledger.Line
		ok bool
	)
	s.read(func(d *dataset) {
		l, ok = d.lines[id]
		l = d.withProductName(l)
	})
	if !ok {
		return ledger.Line{}, fmt.Errorf("%w: id %d", ledger.ErrLineNotFound, id)
	}
	return l, nil
}

// ListLines returns every line ordered by order and line id.
func (s *Store) ListLines(_ context.Context) ([]ledger.Line, error) {
	return s.filterLines(func(ledger.Line) bool { return true }), nil
}

// ListLinesByOrder returns the lines of one order.
func (s *Store) ListLinesByOrder(_ context.Context, orderID int64) ([]ledger.Line, error) {
	return s.filterLines(func(l ledger.Line) bool { return l.OrderID == orderID }), nil
}

// ListLinesByProduct returns the lines that reference a product.
func (s *Store) ListLinesByProduct(_ context.Context, productID int64) ([]ledger.Line, error) {
	return s.filterLines(func(l ledger.Line) bool { return l.ProductID == productID }), nil
}

// OrderExists reports whether the order is stored.
func (s *Store) OrderExists(_ context.Context, orderID int64) (bool, error) {
	var ok bool
	s.read(func(d *dataset) { _, ok = d.orders[orderID] })
	return ok, nil
}

// ProductExists reports whether the product is stored.
func (s *Store) ProductExists(_ context.Context, productID int64) (bool, error) {
	var ok bool
	s.read(func(d *dataset) { _, ok = d.products[productID] })
	return ok, nil
}

func (s *Store) filterLines(keep func(ledger.Line) bool) []ledger.Line {
	var out []ledger.Line
	s.read(func(d *dataset) {
		for _, l := range d.lines {
			if keep(l) {
				out = append(out, d.withProductName(l))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderID != out[j].OrderID {
			return out[i].OrderID < out[j].OrderID
		}
		return out[i].ID < out[j].ID
	})
	return out
}
