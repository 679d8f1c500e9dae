package statuses

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jazmin7552/p2/internal/shared"
)

// RepositoryPort defines data access methods for statuses.
type RepositoryPort interface {
	ListStatuses(ctx context.Context) ([]Status, error)
	GetStatus(ctx context.Context, id int64) (Status, error)
	StatusByName(ctx context.Context, name string) (Status, error)
	CreateStatus(ctx context.Context, name string) (Status, error)
	UpdateStatus(ctx context.Context, s Status) error
	DeleteStatus(ctx context.Context, id int64) error
	StatusInUse(ctx context.Context, id int64) (bool, error)
}

// Service handles status business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all statuses.
func (s *Service) List(ctx context.Context) ([]Status, error) {
	return s.repo.ListStatuses(ctx)
}

// Get returns a status by id.
func (s *Service) Get(ctx context.Context, id int64) (Status, error) {
	return s.repo.GetStatus(ctx, id)
}

// ByName finds a status by its case-insensitive name.
func (s *Service) ByName(ctx context.Context, name string) (Status, error) {
	return s.repo.StatusByName(ctx, shared.NormalizeName(name))
}

// Create stores a new status.
func (s *Service) Create(ctx context.Context, name string) (Status, error) {
	name, err := s.checkName(ctx, name, 0)
	if err != nil {
		return Status{}, err
	}
	return s.repo.CreateStatus(ctx, name)
}

// Update renames a status.
func (s *Service) Update(ctx context.Context, id int64, name string) (Status, error) {
	if _, err := s.repo.GetStatus(ctx, id); err != nil {
		return Status{}, err
	}
	name, err := s.checkName(ctx, name, id)
	if err != nil {
		return Status{}, err
	}
	st := Status{ID: id, Name: name}
	if err := s.repo.UpdateStatus(ctx, st); err != nil {
		return Status{}, err
	}
	return st, nil
}

// Delete removes a status that nothing references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetStatus(ctx, id); err != nil {
		return err
	}
	inUse, err := s.repo.StatusInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: id %d", ErrStatusInUse, id)
	}
	return s.repo.DeleteStatus(ctx, id)
}

func (s *Service) checkName(ctx context.Context, raw string, excludeID int64) (string, error) {
	name := shared.NormalizeName(raw)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLen {
		return "", ErrInvalidName
	}
	existing, err := s.repo.StatusByName(ctx, name)
	switch {
	case err == nil && existing.ID != excludeID:
		return "", fmt.Errorf("%w: %s", ErrDuplicateName, name)
	case err != nil && !isNotFound(err):
		return "", err
	}
	return name, nil
}
