package ports

import (
	"context"

	"github.com/epicevents/crm/internal/core/domain"
)

// AuthService authenticates staff and resolves bearer tokens.
type AuthService interface {
	IdentityProvider
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	Bootstrap(ctx context.Context, username, password, email string) (*domain.User, error)
	// Refresh issues a new token for an already authenticated user.
	Refresh(ctx context.Context, userID string) (string, *domain.User, error)
}

// UserService manages staff accounts.
type UserService interface {
	Create(ctx context.Context, actor domain.Identity, in CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, actor domain.Identity, id string, in UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Identity, id string) error
	Get(ctx context.Context, actor domain.Identity, id string) (*domain.User, error)
	List(ctx context.Context, actor domain.Identity) ([]*domain.User, error)
}

// ClientService runs the client use-cases.
type ClientService interface {
	Create(ctx context.Context, actor domain.Identity, in CreateClientInput) (*domain.Client, error)
	Update(ctx context.Context, actor domain.Identity, id string, in UpdateClientInput) (*domain.Client, error)
	Delete(ctx context.Context, actor domain.Identity, id string) error
	Get(ctx context.Context, actor domain.Identity, id string) (*domain.Client, error)
	List(ctx context.Context, actor domain.Identity, q ClientQuery) ([]*domain.Client, error)
	Contracts(ctx context.Context, actor domain.Identity, id string) ([]*domain.Contract, error)
	SalesContact(ctx context.Context, actor domain.Identity, id string) (*domain.User, error)
}

// ContractService runs the contract use-cases.
type ContractService interface {
	Create(ctx context.Context, actor domain.Identity, in CreateContractInput) (*domain.Contract, error)
	Update(ctx context.Context, actor domain.Identity, id string, in UpdateContractInput) (*domain.Contract, error)
	Delete(ctx context.Context, actor domain.Identity, id string) error
	Get(ctx context.Context, actor domain.Identity, id string) (*domain.Contract, error)
	List(ctx context.Context, actor domain.Identity, q ContractQuery) ([]*domain.Contract, error)
}

// EventService runs the event use-cases.
type EventService interface {
	Create(ctx context.Context, actor domain.Identity, in CreateEventInput) (*domain.Event, error)
	Update(ctx context.Context, actor domain.Identity, id string, in UpdateEventInput) (*domain.Event, error)
	Delete(ctx context.Context, actor domain.Identity, id string) error
	Get(ctx context.Context, actor domain.Identity, id string) (*domain.Event, error)
	List(ctx context.Context, actor domain.Identity, q EventQuery) ([]*domain.Event, error)
}
