package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

type eventService struct {
	orchestrator
}

// NewEventService returns an EventService backed by d.Store.
func NewEventService(d Dependencies) ports.EventService {
	return &eventService{orchestrator: newOrchestrator(d, "event_service")}
}

func (s *eventService) Create(ctx context.Context, actor domain.Identity, in ports.CreateEventInput) (*domain.Event, error) {
	var created *domain.Event
	err := s.mutate(ctx, actor, mutation{
		kind:   domain.KindEvent,
		action: domain.ActionCreate,
		keys:   staticKeys(clientKey(in.ClientID), contractKey(in.ContractID)),
		apply: func(ctx context.Context) (string, error) {
			event, err := s.rules.CreateEvent(ctx, actor, in)
			if err != nil {
				return "", err
			}
			now := s.now()
			event.CreatedAt, event.UpdatedAt = now, now
			created, err = s.store.Events().Create(ctx, event)
			if errors.Is(err, domain.ErrConflict) {
				// Lost a race on the one-event-per-contract index.
				return "", domain.ErrContractAlreadyUsed
			}
			if err != nil {
				return "", fmt.Errorf("create event: %w", err)
			}
			return created.ID, nil
		},
	})
	return created, err
}

func (s *eventService) Update(ctx context.Context, actor domain.Identity, id string, in ports.UpdateEventInput) (*domain.Event, error) {
	var updated *domain.Event
	err := s.mutate(ctx, actor, mutation{
		kind:   domain.KindEvent,
		action: domain.ActionUpdate,
		keys:   s.keysOf(id),
		apply: func(ctx context.Context) (string, error) {
			existing, err := s.store.Events().Get(ctx, id)
			if err != nil {
				return "", fmt.Errorf("get event: %w", err)
			}
			next, err := s.rules.UpdateEvent(ctx, actor, existing, in)
			if err != nil {
				return "", err
			}
			next.UpdatedAt = s.now()
			updated, err = s.store.Events().Update(ctx, next)
			if err != nil {
				return "", fmt.Errorf("update event: %w", err)
			}
			return updated.ID, nil
		},
	})
	return updated, err
}

func (s *eventService) Delete(ctx context.Context, actor domain.Identity, id string) error {
	return s.mutate(ctx, actor, mutation{
		kind:   domain.KindEvent,
		action: domain.ActionDelete,
		keys:   s.keysOf(id),
		apply: func(ctx context.Context) (string, error) {
			if err := s.store.Events().Delete(ctx, id); err != nil {
				return "", fmt.Errorf("delete event: %w", err)
			}
			return id, nil
		},
	})
}

func (s *eventService) Get(ctx context.Context, actor domain.Identity, id string) (*domain.Event, error) {
	var event *domain.Event
	err := s.read(ctx, actor, domain.KindEvent, domain.ActionRetrieve, func(ctx context.Context) error {
		e, err := s.store.Events().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		event = e
		return nil
	})
	return event, err
}

// List serves the derived event listings; Mine selects events supported by the
// actor and Upcoming those dated now or later.
func (s *eventService) List(ctx context.Context, actor domain.Identity, q ports.EventQuery) ([]*domain.Event, error) {
	var events []*domain.Event
	err := s.read(ctx, actor, domain.KindEvent, domain.ActionList, func(ctx context.Context) error {
		filter := ports.EventFilter{Unassigned: q.Unassigned}
		if q.Mine {
			filter.SupportContactID = actor.UserID
		}
		if q.Upcoming {
			now := s.now()
			filter.From = &now
		}
		list, err := s.store.Events().List(ctx, filter)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		events = list
		return nil
	})
	return events, err
}

// keysOf locks on the event's client and contract, both immutable.
func (s *eventService) keysOf(id string) func(context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		event, err := s.store.Events().Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get event: %w", err)
		}
		return []string{clientKey(event.ClientID), contractKey(event.ContractID)}, nil
	}
}
