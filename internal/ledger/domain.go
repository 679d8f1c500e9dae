package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jazmin7552/p2/internal/platform/httpx"
)

// Quantity bounds for a single order line.
const (
	MinQuantity = 1
	MaxQuantity = 100
)

// Line is one product entry of an order.
type Line struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
}

var (
	ErrOrderNotFound     = fmt.Errorf("order %w", httpx.ErrNotFound)
	ErrLineNotFound      = fmt.Errorf("order line %w", httpx.ErrNotFound)
	ErrProductInactive   = fmt.Errorf("product is not active: %w", httpx.ErrBadRequest)
	ErrInvalidQuantity   = fmt.Errorf("quantity must be between %d and %d: %w", MinQuantity, MaxQuantity, httpx.ErrBadRequest)
	ErrDuplicateProduct  = fmt.Errorf("order already has a line for this product: %w", httpx.ErrBadRequest)
	ErrPriceUnavailable  = fmt.Errorf("no positive unit price available: %w", httpx.ErrBadRequest)
	ErrInsufficientStock = fmt.Errorf("ledger: %w", httpx.ErrInsufficientStock)
)

// Subtotal is unit price times quantity rounded half-up to cents.
func Subtotal(unitPrice decimal.Decimal, qty int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

// Total sums line subtotals and rounds half-up to cents. Lines without a
// subtotal contribute zero.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal)
	}
	return total.Round(2)
}

func validQuantity(qty *int) (int, error) {
	if qty == nil || *qty < MinQuantity || *qty > MaxQuantity {
		return 0, ErrInvalidQuantity
	}
	return *qty, nil
}
