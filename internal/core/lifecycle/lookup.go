package lifecycle

import (
	"context"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

// Lookup is the read side the rules need. Every method returns domain.ErrNotFound
// when nothing matches.
type Lookup interface {
	User(ctx context.Context, id string) (*domain.User, error)
	UserByUsername(ctx context.Context, username string) (*domain.User, error)
	Client(ctx context.Context, id string) (*domain.Client, error)
	Contract(ctx context.Context, id string) (*domain.Contract, error)
	EventByContract(ctx context.Context, contractID string) (*domain.Event, error)
}

// StoreLookup adapts a ports.Store. Called with a transactional context, the
// reads take part in that transaction.
type StoreLookup struct {
	Store ports.Store
}

func (l StoreLookup) User(ctx context.Context, id string) (*domain.User, error) {
	return l.Store.Users().Get(ctx, id)
}

func (l StoreLookup) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return l.Store.Users().FindByUsername(ctx, username)
}

func (l StoreLookup) Client(ctx context.Context, id string) (*domain.Client, error) {
	return l.Store.Clients().Get(ctx, id)
}

func (l StoreLookup) Contract(ctx context.Context, id string) (*domain.Contract, error) {
	return l.Store.Contracts().Get(ctx, id)
}

func (l StoreLookup) EventByContract(ctx context.Context, contractID string) (*domain.Event, error) {
	return l.Store.Events().FindByContract(ctx, contractID)
}
