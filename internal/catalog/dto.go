package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductInput is the body of POST /products.
type CreateProductInput struct {
	Name        string          `json:"name" validate:"required,max=50"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price"`
	Stock       *int            `json:"stock" validate:"required,gte=0"`
	Active      *bool           `json:"active"`
	CategoryID  int64           `json:"category_id" validate:"required,gt=0"`
}

// UpdateProductInput is the body of PUT /products/{id}. Nil fields are left unchanged.
type UpdateProductInput struct {
	Name        *string          `json:"name" validate:"omitempty,max=50"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Active      *bool            `json:"active"`
	CategoryID  *int64           `json:"category_id" validate:"omitempty,gt=0"`
}

type stockRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

type activeRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=20"`
}

type productResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Stock       int       `json:"stock"`
	Active      bool      `json:"active"`
	CategoryID  int64     `json:"category_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProductResponse(p Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		Active:      p.Active,
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type movementResponse struct {
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`
	Delta       int       `json:"delta"`
	StockBefore int       `json:"stock_before"`
	StockAfter  int       `json:"stock_after"`
	RefID       string    `json:"ref_id"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
