package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

type userRepo struct{ s *Store }

func (r userRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.s.do(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		u = cloneUser(u)
		out = &u
		return nil
	})
	return out, err
}

func (r userRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var out *domain.User
	err := r.s.do(ctx, func(st *state) error {
		for _, u := range st.users {
			if u.Username == username {
				u = cloneUser(u)
				out = &u
				return nil
			}
		}
		return fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
	})
	return out, err
}

func (r userRepo) List(ctx context.Context, f ports.UserFilter) ([]*domain.User, error) {
	out := []*domain.User{}
	err := r.s.do(ctx, func(st *state) error {
		for _, u := range st.users {
			if f.Role != nil && u.Role != *f.Role {
				continue
			}
			if f.Active != nil && u.IsActive != *f.Active {
				continue
			}
			u = cloneUser(u)
			out = append(out, &u)
		}
		return nil
	})
	sortByCreation(out, func(u *domain.User) (int64, string) { return u.CreatedAt.UnixNano(), u.ID })
	return out, err
}

func (r userRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	u := cloneUser(*user)
	err := r.s.do(ctx, func(st *state) error {
		if u.ID == "" {
			u.ID = r.s.newID()
		}
		if err := userUnique(st, u); err != nil {
			return err
		}
		st.users[u.ID] = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := cloneUser(u)
	return &out, nil
}

func (r userRepo) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	u := cloneUser(*user)
	err := r.s.do(ctx, func(st *state) error {
		if _, ok := st.users[u.ID]; !ok {
			return fmt.Errorf("user %s: %w", u.ID, domain.ErrNotFound)
		}
		if err := userUnique(st, u); err != nil {
			return err
		}
		st.users[u.ID] = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := cloneUser(u)
	return &out, nil
}

// Delete removes the user and clears the references held by clients and events.
func (r userRepo) Delete(ctx context.Context, id string) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		delete(st.users, id)
		for k, c := range st.clients {
			if c.SalesContactID != nil && *c.SalesContactID == id {
				c.SalesContactID = nil
				st.clients[k] = c
			}
		}
		for k, e := range st.events {
			if e.SupportContactID != nil && *e.SupportContactID == id {
				e.SupportContactID = nil
				st.events[k] = e
			}
		}
		return nil
	})
}

func userUnique(st *state, u domain.User) error {
	for _, other := range st.users {
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username {
			return fmt.Errorf("username %q: %w", u.Username, domain.ErrConflict)
		}
		if u.Email != "" && strings.EqualFold(other.Email, u.Email) {
			return fmt.Errorf("email %q: %w", u.Email, domain.ErrConflict)
		}
	}
	return nil
}

type clientRepo struct{ s *Store }

func (r clientRepo) Get(ctx context.Context, id string) (*domain.Client, error) {
	var out *domain.Client
	err := r.s.do(ctx, func(st *state) error {
		c, ok := st.clients[id]
		if !ok {
			return fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
		}
		c = cloneClient(c)
		out = &c
		return nil
	})
	return out, err
}

func (r clientRepo) List(ctx context.Context, f ports.ClientFilter) ([]*domain.Client, error) {
	out := []*domain.Client{}
	err := r.s.do(ctx, func(st *state) error {
		signed := map[string]bool{}
		if f.WithoutSignedContract {
			for _, k := range st.contracts {
				if k.IsSigned() {
					signed[k.ClientID] = true
				}
			}
		}
		for _, c := range st.clients {
			if f.Unassigned && c.SalesContactID != nil {
				continue
			}
			if f.SalesContactID != "" && (c.SalesContactID == nil || *c.SalesContactID != f.SalesContactID) {
				continue
			}
			if f.WithoutSignedContract && signed[c.ID] {
				continue
			}
			c = cloneClient(c)
			out = append(out, &c)
		}
		return nil
	})
	sortByCreation(out, func(c *domain.Client) (int64, string) { return c.CreatedAt.UnixNano(), c.ID })
	return out, err
}

func (r clientRepo) Create(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	c := cloneClient(*client)
	err := r.s.do(ctx, func(st *state) error {
		if c.ID == "" {
			c.ID = r.s.newID()
		}
		if err := clientUnique(st, c); err != nil {
			return err
		}
		st.clients[c.ID] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := cloneClient(c)
	return &out, nil
}

func (r clientRepo) Update(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	c := cloneClient(*client)
	err := r.s.do(ctx, func(st *state) error {
		if _, ok := st.clients[c.ID]; !ok {
			return fmt.Errorf("client %s: %w", c.ID, domain.ErrNotFound)
		}
		if err := clientUnique(st, c); err != nil {
			return err
		}
		st.clients[c.ID] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := cloneClient(c)
	return &out, nil
}

// Delete removes the client with its contracts and events.
func (r clientRepo) Delete(ctx context.Context, id string) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.clients[id]; !ok {
			return fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
		}
		delete(st.clients, id)
		for k, c := range st.contracts {
			if c.ClientID == id {
				delete(st.contracts, k)
			}
		}
		for k, e := range st.events {
			if e.ClientID == id {
				delete(st.events, k)
			}
		}
		return nil
	})
}

func clientUnique(st *state, c domain.Client) error {
	for _, other := range st.clients {
		if other.ID == c.ID {
			continue
		}
		if other.CompanyName == c.CompanyName {
			return fmt.Errorf("company %q: %w", c.CompanyName, domain.ErrConflict)
		}
		if c.Email != "" && strings.EqualFold(other.Email, c.Email) {
			return fmt.Errorf("client email %q: %w", c.Email, domain.ErrConflict)
		}
	}
	return nil
}

type contractRepo struct{ s *Store }

func (r contractRepo) Get(ctx context.Context, id string) (*domain.Contract, error) {
	var out *domain.Contract
	err := r.s.do(ctx, func(st *state) error {
		c, ok := st.contracts[id]
		if !ok {
			return fmt.Errorf("contract %s: %w", id, domain.ErrNotFound)
		}
		c = cloneContract(c)
		out = &c
		return nil
	})
	return out, err
}

func (r contractRepo) List(ctx context.Context, f ports.ContractFilter) ([]*domain.Contract, error) {
	out := []*domain.Contract{}
	err := r.s.do(ctx, func(st *state) error {
		for _, c := range st.contracts {
			if f.ClientID != "" && c.ClientID != f.ClientID {
				continue
			}
			if f.SalesContactID != "" && c.SalesContactID != f.SalesContactID {
				continue
			}
			if f.Status != "" && c.Status != f.Status {
				continue
			}
			c = cloneContract(c)
			out = append(out, &c)
		}
		return nil
	})
	sortByCreation(out, func(c *domain.Contract) (int64, string) { return c.CreatedAt.UnixNano(), c.ID })
	return out, err
}

func (r contractRepo) Create(ctx context.Context, contract *domain.Contract) (*domain.Contract, error) {
	c := cloneContract(*contract)
	err := r.s.do(ctx, func(st *state) error {
		if _, ok := st.clients[c.ClientID]; !ok {
			return fmt.Errorf("client %s: %w", c.ClientID, domain.ErrNotFound)
		}
		if c.ID == "" {
			c.ID = r.s.newID()
		}
		st.contracts[c.ID] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := cloneContract(c)
	return &out, nil
}

func (r contractRepo) Update(ctx context.Context, contract *domain.Contract) (*domain.Contract, error) {
	c := cloneContract(*contract)
	err := r.s.do(ctx, func(st *state) error {
		if _, ok := st.contracts[c.ID]; !ok {
			return fmt.Errorf("contract %s: %w", c.ID, domain.ErrNotFound)
		}
		st.contracts[c.ID] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := cloneContract(c)
	return &out, nil
}

// Delete removes the contract and its event.
func (r contractRepo) Delete(ctx context.Context, id string) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.contracts[id]; !ok {
			return fmt.Errorf("contract %s: %w", id, domain.ErrNotFound)
		}
		delete(st.contracts, id)
		for k, e := range st.events {
			if e.ContractID == id {
				delete(st.events, k)
			}
		}
		return nil
	})
}

func (r contractRepo) ReassignSalesContact(ctx context.Context, clientID, salesContactID string, at time.Time) (int64, error) {
	var n int64
	err := r.s.do(ctx, func(st *state) error {
		for k, c := range st.contracts {
			if c.ClientID != clientID || c.SalesContactID == salesContactID {
				continue
			}
			c.SalesContactID = salesContactID
			c.UpdatedAt = at
			st.contracts[k] = c
			n++
		}
		return nil
	})
	return n, err
}

type eventRepo struct{ s *Store }

func (r eventRepo) Get(ctx context.Context, id string) (*domain.Event, error) {
	var out *domain.Event
	err := r.s.do(ctx, func(st *state) error {
		e, ok := st.events[id]
		if !ok {
			return fmt.Errorf("event %s: %w", id, domain.ErrNotFound)
		}
		e = cloneEvent(e)
		out = &e
		return nil
	})
	return out, err
}

func (r eventRepo) FindByContract(ctx context.Context, contractID string) (*domain.Event, error) {
	var out *domain.Event
	err := r.s.do(ctx, func(st *state) error {
		for _, e := range st.events {
			if e.ContractID == contractID {
				e = cloneEvent(e)
				out = &e
				return nil
			}
		}
		return fmt.Errorf("event for contract %s: %w", contractID, domain.ErrNotFound)
	})
	return out, err
}

func (r eventRepo) List(ctx context.Context, f ports.EventFilter) ([]*domain.Event, error) {
	out := []*domain.Event{}
	err := r.s.do(ctx, func(st *state) error {
		for _, e := range st.events {
			if f.Unassigned && e.SupportContactID != nil {
				continue
			}
			if f.SupportContactID != "" && (e.SupportContactID == nil || *e.SupportContactID != f.SupportContactID) {
				continue
			}
			if f.From != nil && e.EventDate.Before(*f.From) {
				continue
			}
			if f.ClientID != "" && e.ClientID != f.ClientID {
				continue
			}
			if f.ContractID != "" && e.ContractID != f.ContractID {
				continue
			}
			e = cloneEvent(e)
			out = append(out, &e)
		}
		return nil
	})
	sortByCreation(out, func(e *domain.Event) (int64, string) { return e.CreatedAt.UnixNano(), e.ID })
	return out, err
}

func (r eventRepo) Create(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	e := cloneEvent(*event)
	err := r.s.do(ctx, func(st *state) error {
		for _, other := range st.events {
			if other.ContractID == e.ContractID {
				return fmt.Errorf("event for contract %s: %w", e.ContractID, domain.ErrConflict)
			}
		}
		if e.ID == "" {
			e.ID = r.s.newID()
		}
		st.events[e.ID] = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := cloneEvent(e)
	return &out, nil
}

func (r eventRepo) Update(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	e := cloneEvent(*event)
	err := r.s.do(ctx, func(st *state) error {
		if _, ok := st.events[e.ID]; !ok {
			return fmt.Errorf("event %s: %w", e.ID, domain.ErrNotFound)
		}
		st.events[e.ID] = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := cloneEvent(e)
	return &out, nil
}

func (r eventRepo) Delete(ctx context.Context, id string) error {
	return r.s.do(ctx, func(st *state) error {
		if _, ok := st.events[id]; !ok {
			return fmt.Errorf("event %s: %w", id, domain.ErrNotFound)
		}
		delete(st.events, id)
		return nil
	})
}

type auditRepo struct{ s *Store }

func (r auditRepo) Append(ctx context.Context, entry domain.AuditEntry) error {
	return r.s.do(ctx, func(st *state) error {
		if entry.ID == "" {
			entry.ID = r.s.newID()
		}
		st.audit = append(st.audit, entry)
		return nil
	})
}
