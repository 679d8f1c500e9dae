package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jazmin7552/p2/internal/dashboard"
	"github.com/jazmin7552/p2/internal/roles"
	"github.com/jazmin7552/p2/internal/statuses"
	"github.com/jazmin7552/p2/internal/tables"
	"github.com/jazmin7552/p2/internal/users"
)

// ListStatuses returns statuses ordered by id.
func (s *Store) ListStatuses(_ context.Context) ([]statuses.Status, error) {
	var out []statuses.Status
	s.read(func(d *dataset) {
		for _, st := range d.statuses {
			out = append(out, st)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetStatus returns a status or statuses.ErrStatusNotFound.
func (s *Store) GetStatus(_ context.Context, id int64) (statuses.Status, error) {
	var (
		st statuses.Status
		ok bool
	)
	s.read(func(d *dataset) { st, ok = d.statuses[id] })
	if !ok {
		return statuses.Status{}, fmt.Errorf("%w: id %d", statuses.ErrStatusNotFound, id)
	}
	return st, nil
}

// StatusByName looks a status up case-insensitively.
func (s *Store) StatusByName(_ context.Context, name string) (statuses.Status, error) {
	var (
		found statuses.Status
		ok    bool
	)
	s.read(func(d *dataset) {
		for _, st := range d.statuses {
			if strings.EqualFold(st.Name, name) {
				found, ok = st, true
				return
			}
		}
	})
	if !ok {
		return statuses.Status{}, fmt.Errorf("%w: name %s", statuses.ErrStatusNotFound, name)
	}
	return found, nil
}

// CreateStatus stores a new status name.
func (s *Store) CreateStatus(_ context.Context, name string) (statuses.Status, error) {
	var st statuses.Status
	err := s.write(func(d *dataset) error {
		for _, other := range d.statuses {
			if strings.EqualFold(other.Name, name) {
				return uniqueViolation("statuses_name_key")
			}
		}
		d.seq.status++
		st = statuses.Status{ID: d.seq.status, Name: name}
		d.statuses[st.ID] = st
		return nil
	})
	return st, err
}

// UpdateStatus renames a status.
func (s *Store) UpdateStatus(_ context.Context, st statuses.Status) error {
	return s.write(func(d *dataset) error {
		if _, ok := d.statuses[st.ID]; !ok {
			return fmt.Errorf("%w: id %d", statuses.ErrStatusNotFound, st.ID)
		}
		d.statuses[st.ID] = st
		return nil
	})
}

// DeleteStatus removes a status no table or order uses.
func (s *Store) DeleteStatus(_ context.Context, id int64) error {
	return s.write(func(d *dataset) error {
		if d.statusInUse(id) {
			return fkViolation("orders_status_id_fkey")
		}
		delete(d.statuses, id)
		return nil
	})
}

// StatusInUse reports whether a table or order carries the status.
func (s *Store) StatusInUse(_ context.Context, id int64) (bool, error) {
	var used bool
	s.read(func(d *dataset) { used = d.statusInUse(id) })
	return used, nil
}

func (d *dataset) statusInUse(id int64) bool {
	for _, o := range d.orders {
		if o.StatusID == id {
			return true
		}
	}
	for _, t := range d.tables {
		if t.StatusID == id {
			return true
		}
	}
	return false
}

// ListTables returns tables matching f ordered by id.
func (s *Store) ListTables(_ context.Context, f tables.Filter) ([]tables.Table, error) {
	var out []tables.Table
	s.read(func(d *dataset) {
		for _, t := range d.tables {
			switch {
			case f.StatusID != nil && t.StatusID != *f.StatusID:
			case f.MinCapacity != nil && t.Capacity < *f.MinCapacity:
			case f.Location != "" && t.Location != f.Location:
			default:
				out = append(out, t)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetTable returns a table or tables.ErrTableNotFound.
func (s *Store) GetTable(_ context.Context, id int64) (tables.Table, error) {
	var (
		t  tables.Table
		ok bool
	)
	s.read(func(d *dataset) { t, ok = d.tables[id] })
	if !ok {
		return tables.Table{}, fmt.Errorf("%w: id %d", tables.ErrTableNotFound, id)
	}
	return t, nil
}

// CreateTable assigns an id and stores t.
func (s *Store) CreateTable(_ context.Context, t tables.Table) (tables.Table, error) {
	err := s.write(func(d *dataset) error {
		if _, ok := d.statuses[t.StatusID]; !ok {
			return fkViolation("dining_tables_status_id_fkey")
		}
		d.seq.table++
		t.ID = d.seq.table
		d.tables[t.ID] = t
		return nil
	})
	if err != nil {
		return tables.Table{}, err
	}
	return t, nil
}

// UpdateTable overwrites a stored table.
func (s *Store) UpdateTable(_ context.Context, t tables.Table) error {
	return s.write(func(d *dataset) error {
		if _, ok := d.tables[t.ID]; !ok {
			return fmt.Errorf("%w: id %d", tables.ErrTableNotFound, t.ID)
		}
		if _, ok := d.statuses[t.StatusID]; !ok {
			return fkViolation("dining_tables_status_id_fkey")
		}
		d.tables[t.ID] = t
		return nil
	})
}

// DeleteTable removes a table without orders.
func (s *Store) DeleteTable(_ context.Context, id int64) error {
	return s.write(func(d *dataset) error {
		for _, o := range d.orders {
			if o.TableID == id {
				return fkViolation("orders_table_id_fkey")
			}
		}
		delete(d.tables, id)
		return nil
	})
}

// TableHasOrders reports whether any order was placed at the table.
func (s *Store) TableHasOrders(_ context.Context, id int64) (bool, error) {
	var used bool
	s.read(func(d *dataset) {
		for _, o := range d.orders {
			if o.TableID == id {
				used = true
				return
			}
		}
	})
	return used, nil
}

// ListUsers returns users ordered by id.
func (s *Store) ListUsers(_ context.Context) ([]users.User, error) {
	var out []users.User
	s.read(func(d *dataset) {
		for _, u := range d.users {
			out = append(out, u)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetUser returns a user or users.ErrUserNotFound.
func (s *Store) GetUser(_ context.Context, id string) (users.User, error) {
	var (
		u  users.User
		ok bool
	)
	s.read(func(d *dataset) { u, ok = d.users[id] })
	if !ok {
		return users.User{}, fmt.Errorf("%w: %s", users.ErrUserNotFound, id)
	}
	return u, nil
}

// UserByEmail looks a user up by case-insensitive email.
func (s *Store) UserByEmail(_ context.Context, email string) (users.User, error) {
	var (
		found users.User
		ok    bool
	)
	s.read(func(d *dataset) {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, email) {
				found, ok = u, true
				return
			}
		}
	})
	if !ok {
		return users.User{}, fmt.Errorf("%w: %s", users.ErrUserNotFound, email)
	}
	return found, nil
}

// CreateUser stores u under its explicit id.
func (s *Store) CreateUser(_ context.Context, u users.User) (users.User, error) {
	err := s.write(func(d *dataset) error {
		if _, ok := d.users[u.ID]; ok {
			return uniqueViolation("users_pkey")
		}
		for _, other := range d.users {
			if strings.EqualFold(other.Email, u.Email) {
				return uniqueViolation("users_email_key")
			}
		}
		if _, ok := d.roles[u.RoleID]; !ok {
			return fkViolation("users_role_id_fkey")
		}
		u.CreatedAt = s.now().UTC()
		d.users[u.ID] = u
		return nil
	})
	if err != nil {
		return users.User{}, err
	}
	return u, nil
}

// UpdateUser overwrites a stored user.
func (s *Store) UpdateUser(_ context.Context, u users.User) error {
	return s.write(func(d *dataset) error {
		current, ok := d.users[u.ID]
		if !ok {
			return fmt.Errorf("%w: %s", users.ErrUserNotFound, u.ID)
		}
		for _, other := range d.users {
			if other.ID != u.ID && strings.EqualFold(other.Email, u.Email) {
				return uniqueViolation("users_email_key")
			}
		}
		u.CreatedAt = current.CreatedAt
		d.users[u.ID] = u
		return nil
	})
}

// DeleteUser removes a user who served no orders.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	return s.write(func(d *dataset) error {
		if d.userHasOrders(id) {
			return fkViolation("orders_waiter_id_fkey")
		}
		delete(d.users, id)
		return nil
	})
}

// UserHasOrders reports whether the user waited or cooked any order.
func (s *Store) UserHasOrders(_ context.Context, id string) (bool, error) {
	var used bool
	s.read(func(d *dataset) { used = d.userHasOrders(id) })
	return used, nil
}

func (d *dataset) userHasOrders(id string) bool {
	for _, o := range d.orders {
		if o.WaiterID == id || (o.CookID != nil && *o.CookID == id) {
			return true
		}
	}
	return false
}

// ListRoles returns roles ordered by id.
func (s *Store) ListRoles(_ context.Context) ([]roles.Role, error) {
	var out []roles.Role
	s.read(func(d *dataset) {
		for _, r := range d.roles {
			out = append(out, r)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetRole returns a role or roles.ErrRoleNotFound.
func (s *Store) GetRole(_ context.Context, id int64) (roles.Role, error) {
	var (
		r  roles.Role
		ok bool
	)
	s.read(func(d *dataset) { r, ok = d.roles[id] })
	if !ok {
		return roles.Role{}, fmt.Errorf("%w: id %d", roles.ErrRoleNotFound, id)
	}
	return r, nil
}

// RoleByName looks a role up case-insensitively.
func (s *Store) RoleByName(_ context.Context, name string) (roles.Role, error) {
	var (
		found roles.Role
		ok    bool
	)
	s.read(func(d *dataset) {
		for _, r := range d.roles {
			if strings.EqualFold(r.Name, name) {
				found, ok = r, true
				return
			}
		}
	})
	if !ok {
		return roles.Role{}, fmt.Errorf("%w: name %s", roles.ErrRoleNotFound, name)
	}
	return found, nil
}

// CreateRole stores a new role.
func (s *Store) CreateRole(_ context.Context, name, description string) (roles.Role, error) {
	var r roles.Role
	err := s.write(func(d *dataset) error {
		for _, other := range d.roles {
			if strings.EqualFold(other.Name, name) {
				return uniqueViolation("roles_name_key")
			}
		}
		d.seq.role++
		r = roles.Role{ID: d.seq.role, Name: name, Description: description, CreatedAt: s.now().UTC()}
		d.roles[r.ID] = r
		return nil
	})
	return r, err
}

// Counts implements dashboard.RepositoryPort.
func (s *Store) Counts(_ context.Context) (dashboard.Counts, error) {
	var c dashboard.Counts
	s.read(func(d *dataset) {
		c = dashboard.Counts{
			Orders:   int64(len(d.orders)),
			Products: int64(len(d.products)),
			Tables:   int64(len(d.tables)),
			Users:    int64(len(d.users)),
		}
	})
	return c, nil
}
