package service

import (
	"context"
	"fmt"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

type contractService struct {
	orchestrator
}

// NewContractService returns a ContractService backed by d.Store.
func NewContractService(d Dependencies) ports.ContractService {
	return &contractService{orchestrator: newOrchestrator(d, "contract_service")}
}

func (s *contractService) Create(ctx context.Context, actor domain.Identity, in ports.CreateContractInput) (*domain.Contract, error) {
	var created *domain.Contract
	err := s.mutate(ctx, actor, mutation{
		kind:   domain.KindContract,
		action: domain.ActionCreate,
		keys:   staticKeys(clientKey(in.ClientID)),
		apply: func(ctx context.Context) (string, error) {
			contract, err := s.rules.CreateContract(ctx, actor, in)
			if err != nil {
				return "", err
			}
			now := s.now()
			contract.CreatedAt, contract.UpdatedAt = now, now
			created, err = s.store.Contracts().Create(ctx, contract)
			if err != nil {
				return "", fmt.Errorf("create contract: %w", err)
			}
			return created.ID, nil
		},
	})
	return created, err
}

func (s *contractService) Update(ctx context.Context, actor domain.Identity, id string, in ports.UpdateContractInput) (*domain.Contract, error) {
	var updated *domain.Contract
	err := s.mutate(ctx, actor, mutation{
		kind:   domain.KindContract,
		action: domain.ActionUpdate,
		keys:   s.clientKeyOf(id),
		apply: func(ctx context.Context) (string, error) {
			existing, err := s.store.Contracts().Get(ctx, id)
			if err != nil {
				return "", fmt.Errorf("get contract: %w", err)
			}
			next, err := s.rules.UpdateContract(ctx, actor, existing, in)
			if err != nil {
				return "", err
			}
			next.UpdatedAt = s.now()
			updated, err = s.store.Contracts().Update(ctx, next)
			if err != nil {
				return "", fmt.Errorf("update contract: %w", err)
			}
			return updated.ID, nil
		},
	})
	return updated, err
}

func (s *contractService) Delete(ctx context.Context, actor domain.Identity, id string) error {
	return s.mutate(ctx, actor, mutation{
		kind:   domain.KindContract,
		action: domain.ActionDelete,
		keys:   s.clientKeyOf(id),
		apply: func(ctx context.Context) (string, error) {
			if err := s.store.Contracts().Delete(ctx, id); err != nil {
				return "", fmt.Errorf("delete contract: %w", err)
			}
			return id, nil
		},
	})
}

func (s *contractService) Get(ctx context.Context, actor domain.Identity, id string) (*domain.Contract, error) {
	var contract *domain.Contract
	err := s.read(ctx, actor, domain.KindContract, domain.ActionRetrieve, func(ctx context.Context) error {
		c, err := s.store.Contracts().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get contract: %w", err)
		}
		contract = c
		return nil
	})
	return contract, err
}

func (s *contractService) List(ctx context.Context, actor domain.Identity, q ports.ContractQuery) ([]*domain.Contract, error) {
	var contracts []*domain.Contract
	err := s.read(ctx, actor, domain.KindContract, domain.ActionList, func(ctx context.Context) error {
		list, err := s.store.Contracts().List(ctx, ports.ContractFilter{ClientID: q.ClientID, Status: q.Status})
		if err != nil {
			return fmt.Errorf("list contracts: %w", err)
		}
		contracts = list
		return nil
	})
	return contracts, err
}

// clientKeyOf locks on the owning client. The client of a contract never changes,
// so reading it before taking the lock is safe.
func (s *contractService) clientKeyOf(id string) func(context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		contract, err := s.store.Contracts().Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get contract: %w", err)
		}
		return []string{clientKey(contract.ClientID)}, nil
	}
}
