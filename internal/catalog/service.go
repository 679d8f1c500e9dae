package catalog

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jazmin7552/p2/internal/shared"
)

// RepositoryPort abstracts persistence for the catalog service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, ProductTx) error) error

	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, int, error)
	ProductNameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ProductInUse(ctx context.Context, id int64) (bool, error)
	ListMovements(ctx context.Context, productID int64, limit int) ([]Movement, error)

	GetCategory(ctx context.Context, id int64) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CategoryNameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	CreateCategory(ctx context.Context, c Category) (Category, error)
	UpdateCategory(ctx context.Context, c Category) (Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CategoryInUse(ctx context.Context, id int64) (bool, error)
}

// StockObserver receives the outcome of every stock mutation attempt.
type StockObserver interface {
	ObserveStock(op string, err error)
}

// Service implements product catalog and stock operations.
type Service struct {
	repo     RepositoryPort
	observer StockObserver
}

// NewService builds Service. observer may be nil.
func NewService(repo RepositoryPort, observer StockObserver) *Service {
	return &Service{repo: repo, observer: observer}
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// IsActive reports whether a product can be sold.
func (s *Service) IsActive(ctx context.Context, id int64) (bool, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return false, err
	}
	return p.Active, nil
}

// DecrementStock removes qty units from an active product.
func (s *Service) DecrementStock(ctx context.Context, id int64, qty int) (product Product, err error) {
	defer func() { s.observe("manual_decrement", err) }()
	if qty <= 0 {
		return Product{}, ErrInvalidQuantity
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx ProductTx) error {
		p, err := tx.ProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !p.Active {
			return fmt.Errorf("%w: product %d", ErrProductInactive, id)
		}
		product, err = Decrement(ctx, tx, p, qty, Ref{Kind: MovementManualDecrement, Note: "manual decrement"})
		return err
	})
	return product, err
}

// IncrementStock adds qty units to a product. There is no upper bound.
func (s *Service) IncrementStock(ctx context.Context, id int64, qty int) (product Product, err error) {
	defer func() { s.observe("manual_increment", err) }()
	if qty <= 0 {
		return Product{}, ErrInvalidQuantity
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx ProductTx) error {
		p, err := tx.ProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		product, err = Increment(ctx, tx, p, qty, Ref{Kind: MovementManualIncrement, Note: "manual increment"})
		return err
	})
	return product, err
}

// List returns a page of products.
func (s *Service) List(ctx context.Context, filter ProductFilter) ([]Product, shared.Pagination, error) {
	filter.Page, filter.Limit = shared.NormalizePage(filter.Page, filter.Limit)
	items, total, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.Limit, total), nil
}

// LowStock lists every active product at or below threshold, walking all
// pages of the listing.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]Product, error) {
	active := true
	filter := ProductFilter{Active: &active, MaxStock: &threshold, Limit: shared.MaxPerPage}
	var out []Product
	for filter.Page = 1; ; filter.Page++ {
		items, total, err := s.repo.ListProducts(ctx, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if len(items) == 0 || len(out) >= total {
			return out, nil
		}
	}
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, input CreateProductInput) (Product, error) {
	name, err := s.checkProductName(ctx, input.Name, 0)
	if err != nil {
		return Product{}, err
	}
	if !input.Price.IsPositive() {
		return Product{}, ErrInvalidPrice
	}
	stock := 0
	if input.Stock != nil {
		stock = *input.Stock
	}
	if stock < 0 {
		return Product{}, ErrInvalidStock
	}
	if _, err := s.repo.GetCategory(ctx, input.CategoryID); err != nil {
		return Product{}, err
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}
	return s.repo.CreateProduct(ctx, Product{
		Name:        name,
		Description: input.Description,
		Price:       input.Price.Round(2),
		Stock:       stock,
		Active:      active,
		CategoryID:  input.CategoryID,
	})
}

// Update applies a partial update. Field changes and a requested stock value
// are written in one transaction on the locked row; the stock difference is
// booked as an adjustment movement.
func (s *Service) Update(ctx context.Context, id int64, input UpdateProductInput) (Product, error) {
	var name string
	if input.Name != nil {
		var err error
		if name, err = s.checkProductName(ctx, *input.Name, id); err != nil {
			return Product{}, err
		}
	}
	if input.Price != nil && !input.Price.IsPositive() {
		return Product{}, ErrInvalidPrice
	}
	if input.CategoryID != nil {
		if _, err := s.repo.GetCategory(ctx, *input.CategoryID); err != nil {
			return Product{}, err
		}
	}
	if input.Stock != nil && *input.Stock < 0 {
		return Product{}, ErrInvalidStock
	}

	var updated Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ProductTx) error {
		p, err := tx.ProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			p.Name = name
		}
		if input.Description != nil {
			p.Description = *input.Description
		}
		if input.Price != nil {
			p.Price = input.Price.Round(2)
		}
		if input.Active != nil {
			p.Active = *input.Active
		}
		if input.CategoryID != nil {
			p.CategoryID = *input.CategoryID
		}
		if p, err = tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		if input.Stock != nil {
			ref := Ref{Kind: MovementAdjust, Note: "stock set by product update"}
			switch delta := *input.Stock - p.Stock; {
			case delta > 0:
				p, err = Increment(ctx, tx, p, delta, ref)
			case delta < 0:
				p, err = Decrement(ctx, tx, p, -delta, ref)
			}
			if err != nil {
				return err
			}
		}
		updated = p
		return nil
	})
	if input.Stock != nil {
		s.observe("adjust", err)
	}
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

// SetActive toggles whether a product can be ordered.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (Product, error) {
	return s.Update(ctx, id, UpdateProductInput{Active: &active})
}

// Delete removes a product that no order line references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetProduct(ctx, id); err != nil {
		return err
	}
	inUse, err := s.repo.ProductInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: product %d", ErrProductInUse, id)
	}
	return s.repo.DeleteProduct(ctx, id)
}

// Movements returns the most recent stock movements of a product.
func (s *Service) Movements(ctx context.Context, id int64, limit int) ([]Movement, error) {
	if _, err := s.repo.GetProduct(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.ListMovements(ctx, id, limit)
}

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// GetCategory returns a category by id.
func (s *Service) GetCategory(ctx context.Context, id int64) (Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// CreateCategory stores a category with a unique name.
func (s *Service) CreateCategory(ctx context.Context, name string) (Category, error) {
	normalized, err := s.checkCategoryName(ctx, name, 0)
	if err != nil {
		return Category{}, err
	}
	return s.repo.CreateCategory(ctx, Category{Name: normalized})
}

// UpdateCategory renames a category.
func (s *Service) UpdateCategory(ctx context.Context, id int64, name string) (Category, error) {
	if _, err := s.repo.GetCategory(ctx, id); err != nil {
		return Category{}, err
	}
	normalized, err := s.checkCategoryName(ctx, name, id)
	if err != nil {
		return Category{}, err
	}
	return s.repo.UpdateCategory(ctx, Category{ID: id, Name: normalized})
}

// DeleteCategory removes an empty category.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.repo.GetCategory(ctx, id); err != nil {
		return err
	}
	inUse, err := s.repo.CategoryInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: category %d", ErrCategoryInUse, id)
	}
	return s.repo.DeleteCategory(ctx, id)
}

func (s *Service) checkProductName(ctx context.Context, raw string, excludeID int64) (string, error) {
	name := shared.NormalizeName(raw)
	if name == "" {
		return "", fmt.Errorf("product name is required: %w", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxProductNameLen {
		return "", fmt.Errorf("product name exceeds %d characters: %w", MaxProductNameLen, ErrInvalidName)
	}
	taken, err := s.repo.ProductNameTaken(ctx, name, excludeID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", fmt.Errorf("product %q: %w", name, ErrDuplicateName)
	}
	return name, nil
}

func (s *Service) checkCategoryName(ctx context.Context, raw string, excludeID int64) (string, error) {
	name := shared.NormalizeName(raw)
	if name == "" || utf8.RuneCountInString(name) > MaxCategoryNameLen {
		return "", fmt.Errorf("category name must be 1-%d characters: %w", MaxCategoryNameLen, ErrInvalidName)
	}
	taken, err := s.repo.CategoryNameTaken(ctx, name, excludeID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", fmt.Errorf("category %q: %w", name, ErrDuplicateName)
	}
	return name, nil
}

func (s *Service) observe(op string, err error) {
	if s.observer != nil {
		s.observer.ObserveStock(op, err)
	}
}
