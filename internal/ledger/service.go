package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jazmin7552/p2/internal/catalog"
	"github.com/jazmin7552/p2/internal/events"
)

// TxRepository exposes the statements a line mutation needs inside one
// transaction. Row locks taken by the *ForUpdate methods last until commit.
type TxRepository interface {
	catalog.StockTx
	LockOrder(ctx context.Context, orderID int64) error
	LineForUpdate(ctx context.Context, id int64) (Line, error)
	HasProductLine(ctx context.Context, orderID, productID int64) (bool, error)
	InsertLine(ctx context.Context, line Line) (Line, error)
	UpdateLine(ctx context.Context, line Line) error
	DeleteLine(ctx context.Context, id int64) error
	LinesForUpdate(ctx context.Context, orderID int64) ([]Line, error)
	DeleteLinesForOrder(ctx context.Context, orderID int64) error
}

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetLine(ctx context.Context, id int64) (Line, error)
	ListLines(ctx context.Context) ([]Line, error)
	ListLinesByOrder(ctx context.Context, orderID int64) ([]Line, error)
	ListLinesByProduct(ctx context.Context, productID int64) ([]Line, error)
	OrderExists(ctx context.Context, orderID int64) (bool, error)
	ProductExists(ctx context.Context, productID int64) (bool, error)
}

// AddLineInput carries the fields of a new order line. A nil or non-positive
// UnitPrice falls back to the product's current price.
type AddLineInput struct {
	OrderID   int64
	ProductID int64
	Quantity  *int
	UnitPrice *decimal.Decimal
}

// UpdateLineInput changes the quantity of an existing line. A nil Quantity is a no-op.
type UpdateLineInput struct {
	Quantity *int
}

// Service keeps order lines and product stock consistent.
type Service struct {
	repo      RepositoryPort
	publisher events.Publisher
	observer  catalog.StockObserver
	logger    *slog.Logger
}

// NewService builds Service. publisher and observer may be nil.
func NewService(repo RepositoryPort, publisher events.Publisher, observer catalog.StockObserver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, publisher: publisher, observer: observer, logger: logger}
}

// AddLine validates and records a new line, taking its quantity out of stock
// in the same transaction.
func (s *Service) AddLine(ctx context.Context, input AddLineInput) (line Line, err error) {
	defer func() { s.observe("line_add", err) }()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockOrder(ctx, input.OrderID); err != nil {
			return err
		}
		product, err := tx.ProductForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if !product.Active {
			return fmt.Errorf("%w: product %d", ErrProductInactive, product.ID)
		}
		qty, err := validQuantity(input.Quantity)
		if err != nil {
			return err
		}
		if product.Stock < qty {
			return fmt.Errorf("%w: product %d has %d, requested %d", ErrInsufficientStock, product.ID, product.Stock, qty)
		}
		dup, err := tx.HasProductLine(ctx, input.OrderID, input.ProductID)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("%w: order %d product %d", ErrDuplicateProduct, input.OrderID, input.ProductID)
		}
		price := product.Price
		if input.UnitPrice != nil {
			// Prices are stored in cents; the subtotal must use the stored value.
			if requested := input.UnitPrice.Round(2); requested.IsPositive() {
				price = requested
			}
		}
		if !price.IsPositive() {
			return ErrPriceUnavailable
		}

		ref := catalog.Ref{Kind: catalog.MovementOrderLineAdd, Note: fmt.Sprintf("order %d", input.OrderID)}
		if _, err := catalog.Decrement(ctx, tx, product, qty, ref); err != nil {
			return err
		}
		line, err = tx.InsertLine(ctx, Line{
			OrderID:     input.OrderID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   price,
			Quantity:    qty,
			Subtotal:    Subtotal(price, qty),
		})
		line.ProductName = product.Name
		return err
	})
	if err != nil {
		return Line{}, err
	}
	s.publish(ctx, events.OrderLineAdded, line)
	return line, nil
}

// UpdateLine changes a line's quantity and moves the difference in or out of stock.
func (s *Service) UpdateLine(ctx context.Context, lineID int64, input UpdateLineInput) (line Line, err error) {
	defer func() { s.observe("line_update", err) }()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.LineForUpdate(ctx, lineID)
		if err != nil {
			return err
		}
		line = current
		if input.Quantity == nil {
			return nil
		}
		qty, err := validQuantity(input.Quantity)
		if err != nil {
			return err
		}
		product, err := tx.ProductForUpdate(ctx, current.ProductID)
		if err != nil {
			return err
		}
		ref := catalog.Ref{Kind: catalog.MovementOrderLineUpdate, Note: fmt.Sprintf("order %d line %d", current.OrderID, current.ID)}
		switch delta := qty - current.Quantity; {
		case delta > 0:
			if product.Stock < delta {
				return fmt.Errorf("%w: product %d has %d, requested %d more", ErrInsufficientStock, product.ID, product.Stock, delta)
			}
			_, err = catalog.Decrement(ctx, tx, product, delta, ref)
		case delta < 0:
			_, err = catalog.Increment(ctx, tx, product, -delta, ref)
		}
		if err != nil {
			return err
		}
		line.Quantity = qty
		line.Subtotal = Subtotal(line.UnitPrice, qty)
		return tx.UpdateLine(ctx, line)
	})
	if err != nil {
		return Line{}, err
	}
	if input.Quantity != nil {
		s.publish(ctx, events.OrderLineUpdated, line)
	}
	return line, nil
}

// RemoveLine deletes a line and returns its quantity to stock.
func (s *Service) RemoveLine(ctx context.Context, lineID int64) (err error) {
	defer func() { s.observe("line_remove", err) }()
	var removed Line
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		line, err := tx.LineForUpdate(ctx, lineID)
		if err != nil {
			return err
		}
		product, err := tx.ProductForUpdate(ctx, line.ProductID)
		if err != nil {
			return err
		}
		ref := catalog.Ref{Kind: catalog.MovementOrderLineRemove, Note: fmt.Sprintf("order %d line %d", line.OrderID, line.ID)}
		if _, err := catalog.Increment(ctx, tx, product, line.Quantity, ref); err != nil {
			return err
		}
		removed = line
		return tx.DeleteLine(ctx, lineID)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.OrderLineRemoved, removed)
	return nil
}

// RemoveAllLinesForOrder restores stock for every line of an order and then
// deletes them. It returns the removed lines.
func (s *Service) RemoveAllLinesForOrder(ctx context.Context, orderID int64) (removed []Line, err error) {
	defer func() { s.observe("lines_remove_all", err) }()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockOrder(ctx, orderID); err != nil {
			return err
		}
		removed, err = RemoveAllLines(ctx, tx, orderID, catalog.MovementOrderLineRemove)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, l := range removed {
		s.publish(ctx, events.OrderLineRemoved, l)
	}
	return removed, nil
}

// RemoveAllLines is the transactional core of RemoveAllLinesForOrder, shared
// with order deletion. Products are locked in ascending id order.
func RemoveAllLines(ctx context.Context, tx TxRepository, orderID int64, kind catalog.MovementKind) ([]Line, error) {
	lines, err := tx.LinesForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}
	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })
	for _, line := range sorted {
		product, err := tx.ProductForUpdate(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		ref := catalog.Ref{Kind: kind, Note: fmt.Sprintf("order %d line %d", orderID, line.ID)}
		if _, err := catalog.Increment(ctx, tx, product, line.Quantity, ref); err != nil {
			return nil, err
		}
	}
	if err := tx.DeleteLinesForOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return lines, nil
}

// TotalForOrder sums the subtotals of an order's lines.
func (s *Service) TotalForOrder(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	lines, err := s.ListByOrder(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	return Total(lines), nil
}

// Get returns a line by id.
func (s *Service) Get(ctx context.Context, id int64) (Line, error) {
	return s.repo.GetLine(ctx, id)
}

// List returns every line.
func (s *Service) List(ctx context.Context) ([]Line, error) {
	return s.repo.ListLines(ctx)
}

// ListByOrder returns the lines of an existing order.
func (s *Service) ListByOrder(ctx context.Context, orderID int64) ([]Line, error) {
	ok, err := s.repo.OrderExists(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	return s.repo.ListLinesByOrder(ctx, orderID)
}

// ListByProduct returns the lines referencing an existing product.
func (s *Service) ListByProduct(ctx context.Context, productID int64) ([]Line, error) {
	ok, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: id %d", catalog.ErrProductNotFound, productID)
	}
	return s.repo.ListLinesByProduct(ctx, productID)
}

func (s *Service) publish(ctx context.Context, kind string, line Line) {
	if s.publisher == nil {
		return
	}
	evt := events.New(kind, line.OrderID)
	evt.LineID = line.ID
	evt.ProductID = line.ProductID
	evt.Quantity = line.Quantity
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("publish line event", slog.String("type", kind), slog.Int64("order_id", line.OrderID), slog.Any("error", err))
	}
}

func (s *Service) observe(op string, err error) {
	if s.observer != nil {
		s.observer.ObserveStock(op, err)
	}
}
