package service

import (
	"context"
	"fmt"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

type clientService struct {
	orchestrator
}

// NewClientService returns a ClientService backed by d.Store.
func NewClientService(d Dependencies) ports.ClientService {
	return &clientService{orchestrator: newOrchestrator(d, "client_service")}
}

func (s *clientService) Create(ctx context.Context, actor domain.Identity, in ports.CreateClientInput) (*domain.Client, error) {
	var created *domain.Client
	err := s.mutate(ctx, actor, mutation{
		kind:   domain.KindClient,
		action: domain.ActionCreate,
		apply: func(ctx context.Context) (string, error) {
			client, err := s.rules.CreateClient(ctx, actor, in)
			if err != nil {
				return "", err
			}
			now := s.now()
			client.CreatedAt, client.UpdatedAt = now, now
			created, err = s.store.Clients().Create(ctx, client)
			if err != nil {
				return "", fmt.Errorf("create client: %w", err)
			}
			return created.ID, nil
		},
	})
	return created, err
}

// Update applies a patch. Assigning a new sales contact moves every contract of
// the client to that contact in the same transaction.
func (s *clientService) Update(ctx context.Context, actor domain.Identity, id string, in ports.UpdateClientInput) (*domain.Client, error) {
	var updated *domain.Client
	err := s.mutate(ctx, actor, mutation{
		kind:   domain.KindClient,
		action: domain.ActionUpdate,
		keys:   staticKeys(clientKey(id)),
		apply: func(ctx context.Context) (string, error) {
			existing, err := s.store.Clients().Get(ctx, id)
			if err != nil {
				return "", fmt.Errorf("get client: %w", err)
			}
			change, err := s.rules.UpdateClient(ctx, actor, existing, in)
			if err != nil {
				return "", err
			}
			now := s.now()
			change.Client.UpdatedAt = now
			updated, err = s.store.Clients().Update(ctx, change.Client)
			if err != nil {
				return "", fmt.Errorf("update client: %w", err)
			}
			if change.Reassigned {
				n, err := s.store.Contracts().ReassignSalesContact(ctx, id, *updated.SalesContactID, now)
				if err != nil {
					return "", fmt.Errorf("reassign contracts: %w", err)
				}
				s.log.Debug().Str("client_id", id).Int64("contracts", n).Msg("contracts follow new sales contact")
			}
			return updated.ID, nil
		},
	})
	return updated, err
}

func (s *clientService) Delete(ctx context.Context, actor domain.Identity, id string) error {
	return s.mutate(ctx, actor, mutation{
		kind:   domain.KindClient,
		action: domain.ActionDelete,
		keys:   staticKeys(clientKey(id)),
		apply: func(ctx context.Context) (string, error) {
			if err := s.store.Clients().Delete(ctx, id); err != nil {
				return "", fmt.Errorf("delete client: %w", err)
			}
			return id, nil
		},
	})
}

func (s *clientService) Get(ctx context.Context, actor domain.Identity, id string) (*domain.Client, error) {
	var client *domain.Client
	err := s.read(ctx, actor, domain.KindClient, domain.ActionRetrieve, func(ctx context.Context) error {
		c, err := s.store.Clients().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get client: %w", err)
		}
		client = c
		return nil
	})
	return client, err
}

func (s *clientService) List(ctx context.Context, actor domain.Identity, q ports.ClientQuery) ([]*domain.Client, error) {
	var clients []*domain.Client
	err := s.read(ctx, actor, domain.KindClient, domain.ActionList, func(ctx context.Context) error {
		list, err := s.store.Clients().List(ctx, ports.ClientFilter{
			Unassigned:            q.Unassigned,
			WithoutSignedContract: q.WithoutSignedContract,
		})
		if err != nil {
			return fmt.Errorf("list clients: %w", err)
		}
		clients = list
		return nil
	})
	return clients, err
}

// Contracts lists the contracts of one client.
func (s *clientService) Contracts(ctx context.Context, actor domain.Identity, id string) ([]*domain.Contract, error) {
	var contracts []*domain.Contract
	err := s.read(ctx, actor, domain.KindContract, domain.ActionList, func(ctx context.Context) error {
		if _, err := s.store.Clients().Get(ctx, id); err != nil {
			return fmt.Errorf("get client: %w", err)
		}
		list, err := s.store.Contracts().List(ctx, ports.ContractFilter{ClientID: id})
		if err != nil {
			return fmt.Errorf("list contracts: %w", err)
		}
		contracts = list
		return nil
	})
	return contracts, err
}

// SalesContact returns the user following the client. An unassigned client
// yields domain.ErrNotFound.
func (s *clientService) SalesContact(ctx context.Context, actor domain.Identity, id string) (*domain.User, error) {
	var user *domain.User
	err := s.read(ctx, actor, domain.KindClient, domain.ActionRetrieve, func(ctx context.Context) error {
		client, err := s.store.Clients().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get client: %w", err)
		}
		if client.SalesContactID == nil {
			return fmt.Errorf("client %s has no sales contact: %w", id, domain.ErrNotFound)
		}
		u, err := s.store.Users().Get(ctx, *client.SalesContactID)
		if err != nil {
			return fmt.Errorf("get sales contact: %w", err)
		}
		user = u
		return nil
	})
	return user, err
}

func staticKeys(keys ...string) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) { return keys, nil }
}
