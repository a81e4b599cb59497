package ports

import (
	"context"
	"time"

	"github.com/epicevents/crm/internal/core/domain"
)

// UserRepository persists staff users.
// Lookups return domain.ErrNotFound when nothing matches.
type UserRepository interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// ClientRepository persists clients. Deleting a client removes its contracts and events.
type ClientRepository interface {
	Get(ctx context.Context, id string) (*domain.Client, error)
	List(ctx context.Context, filter ClientFilter) ([]*domain.Client, error)
	Create(ctx context.Context, client *domain.Client) (*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) (*domain.Client, error)
	Delete(ctx context.Context, id string) error
}

// ContractRepository persists contracts. Deleting a contract removes its event.
type ContractRepository interface {
	Get(ctx context.Context, id string) (*domain.Contract, error)
	List(ctx context.Context, filter ContractFilter) ([]*domain.Contract, error)
	Create(ctx context.Context, contract *domain.Contract) (*domain.Contract, error)
	Update(ctx context.Context, contract *domain.Contract) (*domain.Contract, error)
	Delete(ctx context.Context, id string) error
	// ReassignSalesContact rewrites the sales contact of every contract of the client.
	ReassignSalesContact(ctx context.Context, clientID, salesContactID string, at time.Time) (int64, error)
}

// EventRepository persists events. Create fails with domain.ErrConflict when the
// contract already has an event.
type EventRepository interface {
	Get(ctx context.Context, id string) (*domain.Event, error)
	FindByContract(ctx context.Context, contractID string) (*domain.Event, error)
	List(ctx context.Context, filter EventFilter) ([]*domain.Event, error)
	Create(ctx context.Context, event *domain.Event) (*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) (*domain.Event, error)
	Delete(ctx context.Context, id string) error
}

// AuditRepository appends mutation records.
type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
}

// Store is the Entity Store. Repositories called with the context handed to a
// WithinTx callback take part in that transaction.
type Store interface {
	Users() UserRepository
	Clients() ClientRepository
	Contracts() ContractRepository
	Events() EventRepository
	Audit() AuditRepository

	// WithinTx runs fn atomically. Nested calls join the outer transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// UserFilter narrows user listings. An empty filter lists everyone.
type UserFilter struct {
	Role   *domain.Role
	Active *bool
}

// ClientFilter narrows client listings.
type ClientFilter struct {
	Unassigned            bool   // sales_contact is null
	WithoutSignedContract bool   // no contract with status signed
	SalesContactID        string // optional
}

// ContractFilter narrows contract listings.
type ContractFilter struct {
	ClientID       string
	SalesContactID string
	Status         domain.ContractStatus // empty = any
}

// EventFilter narrows event listings.
type EventFilter struct {
	Unassigned       bool       // support_contact is null
	SupportContactID string     // optional
	From             *time.Time // event_date >= From
	ClientID         string
	ContractID       string
}
