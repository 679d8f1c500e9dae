package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jazmin7552/p2/internal/catalog"
	"github.com/jazmin7552/p2/internal/events"
	"github.com/jazmin7552/p2/internal/ledger"
	"github.com/jazmin7552/p2/internal/statuses"
	"github.com/jazmin7552/p2/internal/tables"
	"github.com/jazmin7552/p2/internal/users"
)

// TxRepository extends the line statements with order row access inside one transaction.
type TxRepository interface {
	ledger.TxRepository
	OrderForUpdate(ctx context.Context, id int64) (Order, error)
	InsertOrder(ctx context.Context, o Order) (Order, error)
	UpdateOrder(ctx context.Context, o Order) error
	DeleteOrder(ctx context.Context, id int64) error
}

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListOrders(ctx context.Context, filter Filter) ([]Order, error)
}

// TableResolver looks dining tables up by id.
type TableResolver interface {
	Get(ctx context.Context, id int64) (tables.Table, error)
}

// UserResolver looks staff accounts up by id.
type UserResolver interface {
	Get(ctx context.Context, id string) (users.User, error)
}

// StatusResolver looks statuses up by id or name.
type StatusResolver interface {
	Get(ctx context.Context, id int64) (statuses.Status, error)
	ByName(ctx context.Context, name string) (statuses.Status, error)
}

// Dependencies wires the collaborators of Service. Publisher and Observer may be nil.
type Dependencies struct {
	Tables    TableResolver
	Users     UserResolver
	Statuses  StatusResolver
	Publisher events.Publisher
	Observer  catalog.StockObserver
	Policy    TransitionPolicy
	Clock     func() time.Time
	Logger    *slog.Logger
}

// CreateOrderInput carries a new order. Nil StatusID means PENDING and nil
// PlacedAt means now.
type CreateOrderInput struct {
	TableID  int64
	WaiterID string
	CookID   *string
	StatusID *int64
	PlacedAt *time.Time
}

// UpdateOrderInput changes an order. Nil fields are left unchanged.
type UpdateOrderInput struct {
	TableID  *int64
	WaiterID *string
	CookID   *string
	StatusID *int64
	PlacedAt *time.Time
}

// Service runs the order lifecycle and keeps stock consistent when orders go away.
type Service struct {
	repo RepositoryPort
	deps Dependencies
}

// NewService builds Service with defaults for the optional dependencies.
func NewService(repo RepositoryPort, deps Dependencies) *Service {
	if deps.Policy == nil {
		deps.Policy = Unrestricted{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{repo: repo, deps: deps}
}

// Create resolves every reference and stores the order.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (Order, error) {
	if _, err := s.deps.Tables.Get(ctx, input.TableID); err != nil {
		return Order{}, err
	}
	if _, err := s.deps.Users.Get(ctx, input.WaiterID); err != nil {
		return Order{}, err
	}
	if input.CookID != nil {
		if _, err := s.deps.Users.Get(ctx, *input.CookID); err != nil {
			return Order{}, err
		}
	}
	var (
		status statuses.Status
		err    error
	)
	if input.StatusID != nil {
		status, err = s.deps.Statuses.Get(ctx, *input.StatusID)
	} else {
		status, err = s.deps.Statuses.ByName(ctx, statuses.Pending)
	}
	if err != nil {
		return Order{}, err
	}
	placedAt := s.deps.Clock()
	if input.PlacedAt != nil {
		placedAt = *input.PlacedAt
	}

	var order Order
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		order, err = tx.InsertOrder(ctx, Order{
			PlacedAt: placedAt,
			TableID:  input.TableID,
			WaiterID: input.WaiterID,
			CookID:   input.CookID,
			StatusID: status.ID,
		})
		return err
	})
	if err != nil {
		return Order{}, err
	}
	s.deps.Logger.Info("order created", slog.Int64("order_id", order.ID), slog.Int64("table_id", order.TableID))
	evt := events.New(events.OrderCreated, order.ID)
	evt.TableID = order.TableID
	evt.StatusID = status.ID
	evt.Status = status.Name
	s.publish(ctx, evt)
	return order, nil
}

// Update applies the non-nil fields of input. A status change goes through the
// transition policy.
func (s *Service) Update(ctx context.Context, id int64, input UpdateOrderInput) (Order, error) {
	if input.TableID != nil {
		if _, err := s.deps.Tables.Get(ctx, *input.TableID); err != nil {
			return Order{}, err
		}
	}
	if input.WaiterID != nil {
		if _, err := s.deps.Users.Get(ctx, *input.WaiterID); err != nil {
			return Order{}, err
		}
	}
	if input.CookID != nil {
		if _, err := s.deps.Users.Get(ctx, *input.CookID); err != nil {
			return Order{}, err
		}
	}
	var target *statuses.Status
	if input.StatusID != nil {
		st, err := s.deps.Statuses.Get(ctx, *input.StatusID)
		if err != nil {
			return Order{}, err
		}
		target = &st
	}

	var order Order
	var changed bool
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.OrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		order = current
		if input.TableID != nil {
			order.TableID = *input.TableID
		}
		if input.WaiterID != nil {
			order.WaiterID = *input.WaiterID
		}
		if input.CookID != nil {
			order.CookID = input.CookID
		}
		if input.PlacedAt != nil {
			order.PlacedAt = *input.PlacedAt
		}
		if target != nil && target.ID != current.StatusID {
			if err := s.allow(ctx, current.StatusID, *target); err != nil {
				return err
			}
			order.StatusID = target.ID
			changed = true
		}
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return Order{}, err
	}
	s.publish(ctx, events.New(events.OrderUpdated, order.ID))
	if changed {
		s.publishStatus(ctx, order.ID, *target)
	}
	return s.repo.GetOrder(ctx, id)
}

// ChangeStatus moves an order to another status.
func (s *Service) ChangeStatus(ctx context.Context, id, statusID int64) (Order, error) {
	target, err := s.deps.Statuses.Get(ctx, statusID)
	if err != nil {
		return Order{}, err
	}
	var changed bool
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.OrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.StatusID == target.ID {
			return nil
		}
		if err := s.allow(ctx, order.StatusID, target); err != nil {
			return err
		}
		order.StatusID = target.ID
		changed = true
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return Order{}, err
	}
	if changed {
		s.deps.Logger.Info("order status changed", slog.Int64("order_id", id), slog.String("status", target.Name))
		s.publishStatus(ctx, id, target)
	}
	return s.repo.GetOrder(ctx, id)
}

// Delete returns every line's quantity to stock and removes the order, all in
// one transaction.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer func() {
		if s.deps.Observer != nil {
			s.deps.Observer.ObserveStock("order_delete", err)
		}
	}()
	var removed []ledger.Line
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.OrderForUpdate(ctx, id); err != nil {
			return err
		}
		var err error
		removed, err = ledger.RemoveAllLines(ctx, tx, id, catalog.MovementOrderDelete)
		if err != nil {
			return err
		}
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		return err
	}
	s.deps.Logger.Info("order deleted", slog.Int64("order_id", id), slog.Int("lines_restored", len(removed)))
	s.publish(ctx, events.New(events.OrderDeleted, id))
	return nil
}

// Get returns an order with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// Total returns the derived total of an order.
func (s *Service) Total(ctx context.Context, id int64) (decimal.Decimal, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return o.Total(), nil
}

// List returns orders matching filter. Referenced statuses must exist.
func (s *Service) List(ctx context.Context, filter Filter) ([]Order, error) {
	if filter.StatusID != nil {
		if _, err := s.deps.Statuses.Get(ctx, *filter.StatusID); err != nil {
			return nil, err
		}
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, ErrInvalidRange
	}
	return s.repo.ListOrders(ctx, filter)
}

// Active returns orders that are neither paid nor cancelled.
func (s *Service) Active(ctx context.Context) ([]Order, error) {
	var exclude []int64
	for _, name := range []string{statuses.Paid, statuses.Cancelled} {
		st, err := s.deps.Statuses.ByName(ctx, name)
		if err != nil {
			return nil, err
		}
		exclude = append(exclude, st.ID)
	}
	return s.repo.ListOrders(ctx, Filter{ExcludeStatusIDs: exclude})
}

// Today returns the orders placed since local midnight.
func (s *Service) Today(ctx context.Context) ([]Order, error) {
	from, to := DayBounds(s.deps.Clock())
	return s.repo.ListOrders(ctx, Filter{From: &from, To: &to})
}

// DayBounds returns midnight of t's day and of the following day in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

func (s *Service) allow(ctx context.Context, fromID int64, to statuses.Status) error {
	if _, ok := s.deps.Policy.(Unrestricted); ok {
		return nil
	}
	from, err := s.deps.Statuses.Get(ctx, fromID)
	if err != nil {
		return err
	}
	return s.deps.Policy.Allow(from, to)
}

func (s *Service) publishStatus(ctx context.Context, orderID int64, st statuses.Status) {
	evt := events.New(events.OrderStatusChanged, orderID)
	evt.StatusID = st.ID
	evt.Status = st.Name
	s.publish(ctx, evt)
}

func (s *Service) publish(ctx context.Context, evt events.Event) {
	if s.deps.Publisher == nil {
		return
	}
	if err := s.deps.Publisher.Publish(ctx, evt); err != nil {
		s.deps.Logger.Warn("publish order event", slog.String("type", evt.Type), slog.Int64("order_id", evt.OrderID), slog.Any("error", err))
	}
}
