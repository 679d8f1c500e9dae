package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// StockTx is the transactional surface stock rules run against. Implementations
// must lock the product row in ProductForUpdate until the transaction ends.
type StockTx interface {
	ProductForUpdate(ctx context.Context, id int64) (Product, error)
	SetProductStock(ctx context.Context, id int64, stock int) error
	InsertMovement(ctx context.Context, m Movement) error
}

// ProductTx adds the product row write a catalog update needs, so field
// changes and the stock reconciliation commit together.
type ProductTx interface {
	StockTx
	UpdateProduct(ctx context.Context, p Product) (Product, error)
}

// Ref describes the cause of a stock change.
type Ref struct {
	Kind  MovementKind
	RefID uuid.UUID
	Note  string
}

// Decrement removes qty units from a product locked by the caller in tx.
func Decrement(ctx context.Context, tx StockTx, p Product, qty int, ref Ref) (Product, error) {
	if qty <= 0 {
		return Product{}, ErrInvalidQuantity
	}
	if p.Stock < qty {
		return Product{}, fmt.Errorf("%w: product %d has %d, requested %d", ErrInsufficientStock, p.ID, p.Stock, qty)
	}
	return apply(ctx, tx, p, -qty, ref)
}

// Increment returns qty units to a product locked by the caller in tx.
func Increment(ctx context.Context, tx StockTx, p Product, qty int, ref Ref) (Product, error) {
	if qty <= 0 {
		return Product{}, ErrInvalidQuantity
	}
	return apply(ctx, tx, p, qty, ref)
}

func apply(ctx context.Context, tx StockTx, p Product, delta int, ref Ref) (Product, error) {
	before := p.Stock
	p.Stock += delta
	if err := tx.SetProductStock(ctx, p.ID, p.Stock); err != nil {
		return Product{}, fmt.Errorf("catalog: set stock: %w", err)
	}
	refID := ref.RefID
	if refID == uuid.Nil {
		refID = uuid.New()
	}
	err := tx.InsertMovement(ctx, Movement{
		ProductID:   p.ID,
		Kind:        ref.Kind,
		Delta:       delta,
		StockBefore: before,
		StockAfter:  p.Stock,
		RefID:       refID,
		Note:        ref.Note,
	})
	if err != nil {
		return Product{}, fmt.Errorf("catalog: insert movement: %w", err)
	}
	return p, nil
}
