// Package memory is a process-local Store. Transactions run against a copy of
// the state that replaces the committed state only when the callback succeeds.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

type state struct {
	users     map[string]domain.User
	clients   map[string]domain.Client
	contracts map[string]domain.Contract
	events    map[string]domain.Event
	audit     []domain.AuditEntry
}

func newState() *state {
	return &state{
		users:     map[string]domain.User{},
		clients:   map[string]domain.Client{},
		contracts: map[string]domain.Contract{},
		events:    map[string]domain.Event{},
	}
}

func (s *state) clone() *state {
	c := &state{
		users:     make(map[string]domain.User, len(s.users)),
		clients:   make(map[string]domain.Client, len(s.clients)),
		contracts: make(map[string]domain.Contract, len(s.contracts)),
		events:    make(map[string]domain.Event, len(s.events)),
		audit:     append([]domain.AuditEntry(nil), s.audit...),
	}
	for k, v := range s.users {
		c.users[k] = cloneUser(v)
	}
	for k, v := range s.clients {
		c.clients[k] = cloneClient(v)
	}
	for k, v := range s.contracts {
		c.contracts[k] = cloneContract(v)
	}
	for k, v := range s.events {
		c.events[k] = cloneEvent(v)
	}
	return c
}

type txKey struct{}

// Store keeps every entity in maps guarded by one mutex. A transaction holds
// the mutex until it commits or rolls back.
type Store struct {
	mu    sync.Mutex
	state *state
	newID func() string
}

var _ ports.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{state: newState(), newID: uuid.NewString}
}

func (s *Store) Users() ports.UserRepository         { return userRepo{s} }
func (s *Store) Clients() ports.ClientRepository     { return clientRepo{s} }
func (s *Store) Contracts() ports.ContractRepository { return contractRepo{s} }
func (s *Store) Events() ports.EventRepository       { return eventRepo{s} }
func (s *Store) Audit() ports.AuditRepository        { return auditRepo{s} }

// WithinTx runs fn against a copy of the state and commits it if fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	s.state = tx
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

// AuditLog returns a copy of the recorded audit entries.
func (s *Store) AuditLog() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEntry(nil), s.state.audit...)
}

// do runs fn on the transaction state carried by ctx, or on the committed
// state under the mutex.
func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if tx, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(tx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// sortByCreation orders entities oldest first, ties broken by id.
func sortByCreation[T any](items []*T, key func(*T) (int64, string)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti != tj {
			return ti < tj
		}
		return idi < idj
	})
}

func cloneRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	v := *ref
	return &v
}

func cloneUser(u domain.User) domain.User {
	if u.JoinDate != nil {
		j := *u.JoinDate
		u.JoinDate = &j
	}
	return u
}

func cloneClient(c domain.Client) domain.Client {
	c.SalesContactID = cloneRef(c.SalesContactID)
	return c
}

func cloneContract(c domain.Contract) domain.Contract {
	if c.PaymentDue != nil {
		d := *c.PaymentDue
		c.PaymentDue = &d
	}
	return c
}

func cloneEvent(e domain.Event) domain.Event {
	e.SupportContactID = cloneRef(e.SupportContactID)
	return e
}
