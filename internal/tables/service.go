package tables

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jazmin7552/p2/internal/shared"
	"github.com/jazmin7552/p2/internal/statuses"
)

// RepositoryPort defines data access methods for tables.
type RepositoryPort interface {
	ListTables(ctx context.Context, filter Filter) ([]Table, error)
	GetTable(ctx context.Context, id int64) (Table, error)
	CreateTable(ctx context.Context, t Table) (Table, error)
	UpdateTable(ctx context.Context, t Table) error
	DeleteTable(ctx context.Context, id int64) error
	TableHasOrders(ctx context.Context, id int64) (bool, error)
}

// StatusResolver looks statuses up by id or name.
type StatusResolver interface {
	Get(ctx context.Context, id int64) (statuses.Status, error)
	ByName(ctx context.Context, name string) (statuses.Status, error)
}

// CreateInput carries a new table. A nil StatusID defaults to AVAILABLE.
type CreateInput struct {
	Capacity int
	Location string
	StatusID *int64
}

// UpdateInput changes a table. Nil fields are left unchanged.
type UpdateInput struct {
	Capacity *int
	Location *string
	StatusID *int64
}

// Service handles table business logic.
type Service struct {
	repo     RepositoryPort
	statuses StatusResolver
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, statuses StatusResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, statuses: statuses, logger: logger}
}

// List returns tables matching filter. A status filter must name an existing status.
func (s *Service) List(ctx context.Context, filter Filter) ([]Table, error) {
	if filter.StatusID != nil {
		if _, err := s.statuses.Get(ctx, *filter.StatusID); err != nil {
			return nil, err
		}
	}
	if filter.MinCapacity != nil && *filter.MinCapacity < MinCapacity {
		return nil, ErrInvalidCapacity
	}
	filter.Location = shared.NormalizeName(filter.Location)
	return s.repo.ListTables(ctx, filter)
}

// Get returns a table by id.
func (s *Service) Get(ctx context.Context, id int64) (Table, error) {
	return s.repo.GetTable(ctx, id)
}

// ByStatusName lists the tables whose status has the given name.
func (s *Service) ByStatusName(ctx context.Context, name string) ([]Table, error) {
	st, err := s.statuses.ByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTables(ctx, Filter{StatusID: &st.ID})
}

// IsAvailable reports whether a table is in the AVAILABLE status.
func (s *Service) IsAvailable(ctx context.Context, id int64) (bool, error) {
	t, err := s.repo.GetTable(ctx, id)
	if err != nil {
		return false, err
	}
	st, err := s.statuses.Get(ctx, t.StatusID)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(st.Name, statuses.Available), nil
}

// Create validates and stores a table.
func (s *Service) Create(ctx context.Context, input CreateInput) (Table, error) {
	if err := checkCapacity(input.Capacity); err != nil {
		return Table{}, err
	}
	location, err := checkLocation(input.Location)
	if err != nil {
		return Table{}, err
	}
	var st statuses.Status
	if input.StatusID != nil {
		st, err = s.statuses.Get(ctx, *input.StatusID)
	} else {
		st, err = s.statuses.ByName(ctx, statuses.Available)
	}
	if err != nil {
		return Table{}, err
	}
	t, err := s.repo.CreateTable(ctx, Table{Capacity: input.Capacity, Location: location, StatusID: st.ID})
	if err != nil {
		return Table{}, err
	}
	s.logger.Info("table created", slog.Int64("table_id", t.ID), slog.String("location", t.Location))
	return t, nil
}

// Update applies the non-nil fields of input.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Table, error) {
	t, err := s.repo.GetTable(ctx, id)
	if err != nil {
		return Table{}, err
	}
	if input.Capacity != nil {
		if err := checkCapacity(*input.Capacity); err != nil {
			return Table{}, err
		}
		t.Capacity = *input.Capacity
	}
	if input.Location != nil {
		if t.Location, err = checkLocation(*input.Location); err != nil {
			return Table{}, err
		}
	}
	if input.StatusID != nil {
		if _, err := s.statuses.Get(ctx, *input.StatusID); err != nil {
			return Table{}, err
		}
		t.StatusID = *input.StatusID
	}
	if err := s.repo.UpdateTable(ctx, t); err != nil {
		return Table{}, err
	}
	return t, nil
}

// ChangeStatus moves a table to another status.
func (s *Service) ChangeStatus(ctx context.Context, id, statusID int64) (Table, error) {
	return s.Update(ctx, id, UpdateInput{StatusID: &statusID})
}

// Delete removes a table that has never had orders.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetTable(ctx, id); err != nil {
		return err
	}
	used, err := s.repo.TableHasOrders(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("%w: id %d", ErrTableInUse, id)
	}
	return s.repo.DeleteTable(ctx, id)
}

func checkCapacity(c int) error {
	if c < MinCapacity || c > MaxCapacity {
		return ErrInvalidCapacity
	}
	return nil
}

func checkLocation(raw string) (string, error) {
	loc := shared.NormalizeName(raw)
	if loc == "" || utf8.RuneCountInString(loc) > MaxLocationLen {
		return "", ErrInvalidLocation
	}
	return loc, nil
}
