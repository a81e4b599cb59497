package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/lifecycle"
	"github.com/epicevents/crm/internal/core/policy"
	"github.com/epicevents/crm/internal/core/ports"
)

// Dependencies are shared by every orchestrator. Guard, Audit and Observer are optional.
type Dependencies struct {
	Store    ports.Store
	Guard    ports.MutationGuard
	Audit    ports.AuditRecorder
	Observer ports.MutationObserver
	Logger   zerolog.Logger
	Now      func() time.Time
}

// orchestrator composes the role gate, the lifecycle rules and the store.
type orchestrator struct {
	store    ports.Store
	rules    *lifecycle.Rules
	guard    ports.MutationGuard
	audit    ports.AuditRecorder
	observer ports.MutationObserver
	log      zerolog.Logger
	now      func() time.Time
}

func newOrchestrator(d Dependencies, component string) orchestrator {
	o := orchestrator{
		store:    d.Store,
		rules:    lifecycle.New(lifecycle.StoreLookup{Store: d.Store}),
		guard:    d.Guard,
		audit:    d.Audit,
		observer: d.Observer,
		log:      d.Logger.With().Str("component", component).Logger(),
		now:      d.Now,
	}
	if o.guard == nil {
		o.guard = noGuard{}
	}
	if o.audit == nil {
		o.audit = noAudit{}
	}
	if o.observer == nil {
		o.observer = noObserver{}
	}
	if o.now == nil {
		o.now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// mutation describes one create/update/delete use-case.
type mutation struct {
	kind   domain.EntityKind
	action domain.Action
	// keys returns the guard keys. It runs after the role gate and may read.
	keys func(ctx context.Context) ([]string, error)
	// apply validates and persists inside the store transaction and returns
	// the id of the affected entity.
	apply func(ctx context.Context) (string, error)
}

// mutate runs m in order: role gate, guard, then rules and persistence in one
// transaction. A denied request never reaches the store.
func (o *orchestrator) mutate(ctx context.Context, actor domain.Identity, m mutation) error {
	start := time.Now()
	err := o.runMutation(ctx, actor, m)
	o.finish(actor, m.kind, m.action, start, err)
	return err
}

func (o *orchestrator) runMutation(ctx context.Context, actor domain.Identity, m mutation) error {
	if err := policy.Authorize(actor, m.action, m.kind); err != nil {
		return err
	}

	var keys []string
	if m.keys != nil {
		k, err := m.keys(ctx)
		if err != nil {
			return err
		}
		keys = k
	}
	release, err := o.guard.Lock(ctx, keys...)
	if err != nil {
		return err
	}
	defer release()

	var entityID string
	err = o.store.WithinTx(ctx, func(ctx context.Context) error {
		id, err := m.apply(ctx)
		entityID = id
		return err
	})
	if err != nil {
		return err
	}

	o.audit.Record(domain.AuditEntry{
		Kind:     m.kind,
		EntityID: entityID,
		Action:   m.action,
		ActorID:  actor.UserID,
		At:       o.now(),
	})
	o.log.Info().
		Str("kind", string(m.kind)).
		Str("action", string(m.action)).
		Str("id", entityID).
		Str("actor", actor.UserID).
		Msg("mutation applied")
	return nil
}

// read gates a list or retrieve and records its outcome.
func (o *orchestrator) read(ctx context.Context, actor domain.Identity, kind domain.EntityKind, action domain.Action, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := policy.Authorize(actor, action, kind)
	if err == nil {
		err = fn(ctx)
	}
	o.finish(actor, kind, action, start, err)
	return err
}

func (o *orchestrator) finish(actor domain.Identity, kind domain.EntityKind, action domain.Action, start time.Time, err error) {
	outcome := domain.OutcomeOf(err)
	o.observer.ObserveMutation(kind, action, outcome, time.Since(start))

	switch outcome {
	case domain.OutcomeSuccess:
	case domain.OutcomeInternal, domain.OutcomeUnavailable:
		o.log.Error().Err(err).
			Str("kind", string(kind)).
			Str("action", string(action)).
			Str("actor", actor.UserID).
			Msg("operation failed")
	default:
		o.log.Debug().Err(err).
			Str("kind", string(kind)).
			Str("action", string(action)).
			Str("actor", actor.UserID).
			Str("outcome", string(outcome)).
			Str("reason", domain.RejectionReason(err)).
			Msg("operation refused")
	}
}

func clientKey(id string) string   { return "client:" + id }
func contractKey(id string) string { return "contract:" + id }

func isNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }

type noGuard struct{}

func (noGuard) Lock(context.Context, ...string) (func(), error) { return func() {}, nil }

type noAudit struct{}

func (noAudit) Record(domain.AuditEntry) {}

type noObserver struct{}

func (noObserver) ObserveMutation(domain.EntityKind, domain.Action, domain.Outcome, time.Duration) {}
