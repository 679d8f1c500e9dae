package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/jazmin7552/p2/internal/orders"
)

// GetOrder returns an order with its lines.
func (s *Store) GetOrder(_ context.Context, id int64) (orders.Order, error) {
	var (
		o  orders.Order
		ok bool
	)
	s.read(func(d *dataset) {
		if o, ok = d.orders[id]; ok {
			o.Lines = d.linesOf(id)
		}
	})
	if !ok {
		return orders.Order{}, fmt.Errorf("%w: id %d", orders.ErrOrderNotFound, id)
	}
	return o, nil
}

// ListOrders returns orders matching f, newest first.
func (s *Store) ListOrders(_ context.Context, f orders.Filter) ([]orders.Order, error) {
	var out []orders.Order
	s.read(func(d *dataset) {
		for _, o := range d.orders {
			switch {
			case f.TableID != nil && o.TableID != *f.TableID:
			case f.WaiterID != nil && o.WaiterID != *f.WaiterID:
			case f.CookID != nil && (o.CookID == nil || *o.CookID != *f.CookID):
			case f.StatusID != nil && o.StatusID != *f.StatusID:
			case slices.Contains(f.ExcludeStatusIDs, o.StatusID):
			case f.From != nil && o.PlacedAt.Before(*f.From):
			case f.To != nil && !o.PlacedAt.Before(*f.To):
			default:
				o.Lines = d.linesOf(o.ID)
				out = append(out, o)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].PlacedAt.After(out[j].PlacedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
