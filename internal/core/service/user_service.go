package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

type userService struct {
	orchestrator
}

// NewUserService returns a UserService backed by d.Store.
func NewUserService(d Dependencies) ports.UserService {
	return &userService{orchestrator: newOrchestrator(d, "user_service")}
}

func (s *userService) Create(ctx context.Context, actor domain.Identity, in ports.CreateUserInput) (*domain.User, error) {
	var created *domain.User
	err := s.mutate(ctx, actor, mutation{
		kind:   domain.KindUser,
		action: domain.ActionCreate,
		apply: func(ctx context.Context) (string, error) {
			if in.IsSuperuser && !actor.IsSuperuser {
				return "", fmt.Errorf("%w: only a superuser may grant superuser status", domain.ErrForbidden)
			}
			user, err := s.rules.CreateUser(ctx, in)
			if err != nil {
				return "", err
			}
			if user.PasswordHash, err = hashPassword(in.Password); err != nil {
				return "", err
			}
			now := s.now()
			user.CreatedAt, user.UpdatedAt = now, now
			created, err = s.store.Users().Create(ctx, user)
			if err != nil {
				return "", fmt.Errorf("create user: %w", err)
			}
			return created.ID, nil
		},
	})
	return created, err
}

func (s *userService) Update(ctx context.Context, actor domain.Identity, id string, in ports.UpdateUserInput) (*domain.User, error) {
	var updated *domain.User
	err := s.mutate(ctx, actor, mutation{
		kind:   domain.KindUser,
		action: domain.ActionUpdate,
		apply: func(ctx context.Context) (string, error) {
			existing, err := s.store.Users().Get(ctx, id)
			if err != nil {
				return "", fmt.Errorf("get user: %w", err)
			}
			if existing.IsSuperuser && !actor.IsSuperuser {
				return "", fmt.Errorf("%w: only a superuser may modify a superuser", domain.ErrForbidden)
			}
			next, err := s.rules.UpdateUser(ctx, existing, in)
			if err != nil {
				return "", err
			}
			if in.Password != nil {
				if next.PasswordHash, err = hashPassword(*in.Password); err != nil {
					return "", err
				}
			}
			next.UpdatedAt = s.now()
			updated, err = s.store.Users().Update(ctx, next)
			if err != nil {
				return "", fmt.Errorf("update user: %w", err)
			}
			return updated.ID, nil
		},
	})
	return updated, err
}

func (s *userService) Delete(ctx context.Context, actor domain.Identity, id string) error {
	return s.mutate(ctx, actor, mutation{
		kind:   domain.KindUser,
		action: domain.ActionDelete,
		apply: func(ctx context.Context) (string, error) {
			existing, err := s.store.Users().Get(ctx, id)
			if err != nil {
				return "", fmt.Errorf("get user: %w", err)
			}
			if existing.IsSuperuser && !actor.IsSuperuser {
				return "", fmt.Errorf("%w: only a superuser may delete a superuser", domain.ErrForbidden)
			}
			if err := s.store.Users().Delete(ctx, id); err != nil {
				return "", fmt.Errorf("delete user: %w", err)
			}
			return id, nil
		},
	})
}

func (s *userService) Get(ctx context.Context, actor domain.Identity, id string) (*domain.User, error) {
	var user *domain.User
	err := s.read(ctx, actor, domain.KindUser, domain.ActionRetrieve, func(ctx context.Context) error {
		u, err := s.store.Users().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		user = u
		return nil
	})
	return user, err
}

func (s *userService) List(ctx context.Context, actor domain.Identity) ([]*domain.User, error) {
	var users []*domain.User
	err := s.read(ctx, actor, domain.KindUser, domain.ActionList, func(ctx context.Context) error {
		list, err := s.store.Users().List(ctx, ports.UserFilter{})
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		users = list
		return nil
	})
	return users, err
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
