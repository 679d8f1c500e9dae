package ledger

import "github.com/shopspring/decimal"

type addLineRequest struct {
	OrderID   int64            `json:"order_id" validate:"required,gt=0"`
	ProductID int64            `json:"product_id" validate:"required,gt=0"`
	Quantity  *int             `json:"quantity" validate:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type updateLineRequest struct {
	Quantity *int `json:"quantity"`
}

// LineResponse is the JSON form of a line.
type LineResponse struct {
	ID          int64  `json:"id"`
	OrderID     int64  `json:"order_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
}

// ToResponse renders a line for JSON output.
func ToResponse(l Line) LineResponse {
	return LineResponse{
		ID:          l.ID,
		OrderID:     l.OrderID,
		ProductID:   l.ProductID,
		ProductName: l.ProductName,
		UnitPrice:   l.UnitPrice.StringFixed(2),
		Quantity:    l.Quantity,
		Subtotal:    l.Subtotal.StringFixed(2),
	}
}

// ToResponses renders lines, never returning nil.
func ToResponses(lines []Line) []LineResponse {
	out := make([]LineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, ToResponse(l))
	}
	return out
}
