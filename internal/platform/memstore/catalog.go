package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jazmin7552/p2/internal/catalog"
	"github.com/jazmin7552/p2/internal/shared"
)

// GetProduct returns a product or catalog.ErrProductNotFound.
func (s *Store) GetProduct(_ context.Context, id int64) (catalog.Product, error) {
	var (
		p  catalog.Product
		ok bool
	)
	s.read(func(d *dataset) { p, ok = d.products[id] })
	if !ok {
		return catalog.Product{}, fmt.Errorf("%w: id %d", catalog.ErrProductNotFound, id)
	}
	return p, nil
}

// ListProducts filters, sorts by name and pages products; the int is the unpaged match count.
func (s *Store) ListProducts(_ context.Context, filter catalog.ProductFilter) ([]catalog.Product, int, error) {
	var matched []catalog.Product
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	s.read(func(d *dataset) {
		for _, p := range d.products {
			switch {
			case filter.CategoryID != nil && p.CategoryID != *filter.CategoryID:
			case filter.Active != nil && p.Active != *filter.Active:
			case search != "" && !strings.Contains(strings.ToLower(p.Name), search):
			case filter.MinStock != nil && p.Stock <= *filter.MinStock:
			case filter.MaxStock != nil && p.Stock > *filter.MaxStock:
			default:
				matched = append(matched, p)
			}
		}
	})
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})
	total := len(matched)
	_, limit := shared.NormalizePage(filter.Page, filter.Limit)
	start := shared.Offset(filter.Page, filter.Limit)
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// ProductNameTaken reports a case-insensitive name clash with any product other than excludeID.
func (s *Store) ProductNameTaken(_ context.Context, name string, excludeID int64) (bool, error) {
	taken := false
	s.read(func(d *dataset) {
		for _, p := range d.products {
			if p.ID != excludeID && strings.EqualFold(p.Name, name) {
				taken = true
				return
			}
		}
	})
	return taken, nil
}

// CreateProduct assigns an id and stores p.
func (s *Store) CreateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	err := s.write(func(d *dataset) error {
		if _, ok := d.categories[p.CategoryID]; !ok {
			return fkViolation("products_category_id_fkey")
		}
		for _, other := range d.products {
			if strings.EqualFold(other.Name, p.Name) {
				return uniqueViolation("products_name_key")
			}
		}
		d.seq.product++
		p.ID = d.seq.product
		p.CreatedAt = s.now().UTC()
		p.UpdatedAt = p.CreatedAt
		d.products[p.ID] = p
		return nil
	})
	if err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

// UpdateProduct writes every field except stock, which only moves through StockTx.
func (s *Store) UpdateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	var updated catalog.Product
	err := s.write(func(d *dataset) error {
		var err error
		updated, err = d.updateProduct(p, s.now())
		return err
	})
	return updated, err
}

func (d *dataset) updateProduct(p catalog.Product, now time.Time) (catalog.Product, error) {
	current, ok := d.products[p.ID]
	if !ok {
		return catalog.Product{}, fmt.Errorf("%w: id %d", catalog.ErrProductNotFound, p.ID)
	}
	if _, ok := d.categories[p.CategoryID]; !ok {
		return catalog.Product{}, fkViolation("products_category_id_fkey")
	}
	for id, other := range d.products {
		if id != p.ID && strings.EqualFold(other.Name, p.Name) {
			return catalog.Product{}, uniqueViolation("products_name_key")
		}
	}
	p.Stock = current.Stock
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = now.UTC()
	d.products[p.ID] = p
	return p, nil
}

// DeleteProduct removes a product that no line references.
func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	return s.write(func(d *dataset) error {
		if _, ok := d.products[id]; !ok {
			return fmt.Errorf("%w: id %d", catalog.ErrProductNotFound, id)
		}
		for _, l := range d.lines {
			if l.ProductID == id {
				return fkViolation("order_lines_product_id_fkey")
			}
		}
		delete(d.products, id)
		kept := d.movements[:0]
		for _, m := range d.movements {
			if m.ProductID != id {
				kept = append(kept, m)
			}
		}
		d.movements = kept
		return nil
	})
}

// ProductInUse reports whether any order line references the product.
func (s *Store) ProductInUse(_ context.Context, id int64) (bool, error) {
	used := false
	s.read(func(d *dataset) {
		for _, l := range d.lines {
			if l.ProductID == id {
				used = true
				return
			}
		}
	})
	return used, nil
}

// ListMovements returns the newest stock movements of a product first.
func (s *Store) ListMovements(_ context.Context, productID int64, limit int) ([]catalog.Movement, error) {
	var out []catalog.Movement
	s.read(func(d *dataset) {
		for i := len(d.movements) - 1; i >= 0; i-- {
			if d.movements[i].ProductID == productID {
				out = append(out, d.movements[i])
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetCategory returns a category or catalog.ErrCategoryNotFound.
func (s *Store) GetCategory(_ context.Context, id int64) (catalog.Category, error) {
	var (
		c  catalog.Category
		ok bool
	)
	s.read(func(d *dataset) { c, ok = d.categories[id] })
	if !ok {
		return catalog.Category{}, fmt.Errorf("%w: id %d", catalog.ErrCategoryNotFound, id)
	}
	return c, nil
}

// ListCategories returns categories ordered by name.
func (s *Store) ListCategories(_ context.Context) ([]catalog.Category, error) {
	var out []catalog.Category
	s.read(func(d *dataset) {
		for _, c := range d.categories {
			out = append(out, c)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CategoryNameTaken reports a case-insensitive name clash with any category other than excludeID.
func (s *Store) CategoryNameTaken(_ context.Context, name string, excludeID int64) (bool, error) {
	taken := false
	s.read(func(d *dataset) {
		for _, c := range d.categories {
			if c.ID != excludeID && strings.EqualFold(c.Name, name) {
				taken = true
				return
			}
		}
	})
	return taken, nil
}

// CreateCategory assigns an id and stores c.
func (s *Store) CreateCategory(_ context.Context, c catalog.Category) (catalog.Category, error) {
	err := s.write(func(d *dataset) error {
		for _, other := range d.categories {
			if strings.EqualFold(other.Name, c.Name) {
				return uniqueViolation("categories_name_key")
			}
		}
		d.seq.category++
		c.ID = d.seq.category
		d.categories[c.ID] = c
		return nil
	})
	if err != nil {
		return catalog.Category{}, err
	}
	return c, nil
}

// UpdateCategory renames a category.
func (s *Store) UpdateCategory(_ context.Context, c catalog.Category) (catalog.Category, error) {
	err := s.write(func(d *dataset) error {
		if _, ok := d.categories[c.ID]; !ok {
			return fmt.Errorf("%w: id %d", catalog.ErrCategoryNotFound, c.ID)
		}
		d.categories[c.ID] = c
		return nil
	})
	if err != nil {
		return catalog.Category{}, err
	}
	return c, nil
}

// DeleteCategory removes a category that no product references.
func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	return s.write(func(d *dataset) error {
		if _, ok := d.categories[id]; !ok {
			return fmt.Errorf("%w: id %d", catalog.ErrCategoryNotFound, id)
		}
		for _, p := range d.products {
			if p.CategoryID == id {
				return fkViolation("products_category_id_fkey")
			}
		}
		delete(d.categories, id)
		return nil
	})
}

// CategoryInUse reports whether any product belongs to the category.
func (s *Store) CategoryInUse(_ context.Context, id int64) (bool, error) {
	used := false
	s.read(func(d *dataset) {
		for _, p := range d.products {
			if p.CategoryID == id {
				used = true
				return
			}
		}
	})
	return used, nil
}
