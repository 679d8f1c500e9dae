package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jazmin7552/p2/internal/platform/httpx"
	"github.com/jazmin7552/p2/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	RoleByName(ctx context.Context, name string) (Role, error)
	CreateRole(ctx context.Context, name, description string) (Role, error)
}

// Service handles role business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// Get returns a role by id.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole stores a role with a unique upper-cased name.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = shared.NormalizeName(name)
	if name == "" || utf8.RuneCountInString(name) > 50 {
		return Role{}, ErrInvalidName
	}
	_, err := s.repo.RoleByName(ctx, name)
	switch {
	case err == nil:
		return Role{}, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	case !errors.Is(err, httpx.ErrNotFound):
		return Role{}, err
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
}
