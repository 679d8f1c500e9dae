package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jazmin7552/p2/internal/platform/httpx"
)

// Field limits.
const (
	MaxProductNameLen  = 50
	MaxDescriptionLen  = 500
	MaxCategoryNameLen = 20
)

// Product is a menu item with its on-hand stock.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Active      bool
	CategoryID  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Category groups products on the menu.
type Category struct {
	ID   int64
	Name string
}

// MovementKind labels why stock changed.
type MovementKind string

const (
	MovementOrderLineAdd    MovementKind = "ORDER_LINE_ADD"
	MovementOrderLineUpdate MovementKind = "ORDER_LINE_UPDATE"
	MovementOrderLineRemove MovementKind = "ORDER_LINE_REMOVE"
	MovementOrderDelete     MovementKind = "ORDER_DELETE"
	MovementManualDecrement MovementKind = "MANUAL_DECREMENT"
	MovementManualIncrement MovementKind = "MANUAL_INCREMENT"
	MovementAdjust          MovementKind = "ADJUST"
)

// Movement is one row of a product's stock card.
type Movement struct {
	ID          int64
	ProductID   int64
	Kind        MovementKind
	Delta       int
	StockBefore int
	StockAfter  int
	RefID       uuid.UUID
	Note        string
	CreatedAt   time.Time
}

// ProductFilter narrows product listings. Zero values mean "any".
type ProductFilter struct {
	CategoryID *int64
	Active     *bool
	Search     string
	MinStock   *int
	MaxStock   *int
	Page       int
	Limit      int
}

var (
	ErrProductNotFound   = fmt.Errorf("product %w", httpx.ErrNotFound)
	ErrCategoryNotFound  = fmt.Errorf("category %w", httpx.ErrNotFound)
	ErrInvalidQuantity   = fmt.Errorf("quantity must be greater than zero: %w", httpx.ErrBadRequest)
	ErrProductInactive   = fmt.Errorf("product is inactive: %w", httpx.ErrInvalidState)
	ErrInsufficientStock = fmt.Errorf("catalog: %w", httpx.ErrInsufficientStock)
	ErrProductInUse      = fmt.Errorf("product is referenced by order lines: %w", httpx.ErrBadRequest)
	ErrCategoryInUse     = fmt.Errorf("category still has products: %w", httpx.ErrBadRequest)
	ErrDuplicateName     = fmt.Errorf("name already exists: %w", httpx.ErrDuplicate)
	ErrInvalidPrice      = fmt.Errorf("price must be greater than zero: %w", httpx.ErrBadRequest)
	ErrInvalidStock      = fmt.Errorf("stock cannot be negative: %w", httpx.ErrBadRequest)
	ErrInvalidName       = fmt.Errorf("invalid name: %w", httpx.ErrBadRequest)
)

