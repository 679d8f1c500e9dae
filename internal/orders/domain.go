package orders

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jazmin7552/p2/internal/ledger"
	"github.com/jazmin7552/p2/internal/platform/httpx"
)

// Order is a comanda: what one table asked for, who serves it and where it stands.
type Order struct {
	ID       int64
	PlacedAt time.Time
	TableID  int64
	WaiterID string
	CookID   *string
	StatusID int64
	Lines    []ledger.Line
}

// Total is the rounded sum of the order's line subtotals. It is never stored.
func (o Order) Total() decimal.Decimal {
	return ledger.Total(o.Lines)
}

// Filter narrows an order listing. Zero fields are ignored; From is inclusive
// and To exclusive.
type Filter struct {
	TableID          *int64
	WaiterID         *string
	CookID           *string
	StatusID         *int64
	ExcludeStatusIDs []int64
	From             *time.Time
	To               *time.Time
}

var (
	ErrOrderNotFound     = ledger.ErrOrderNotFound
	ErrInvalidTransition = fmt.Errorf("status transition not allowed: %w", httpx.ErrInvalidState)
	ErrInvalidRange      = fmt.Errorf("from must be before to: %w", httpx.ErrBadRequest)
)
