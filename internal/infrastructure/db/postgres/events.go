package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

const (
	selectEvent = `SELECT id, client_id, contract_id, support_contact_id, event_date, attendees, notes, created_at, updated_at FROM events`

	insertEvent = `INSERT INTO events (id, client_id, contract_id, support_contact_id, event_date, attendees, notes, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateEvent = `UPDATE events SET support_contact_id = $2, event_date = $3, attendees = $4, notes = $5, updated_at = $6 WHERE id = $1`

	deleteEvent = `DELETE FROM events WHERE id = $1`

	insertAudit = `INSERT INTO audit_log (id, kind, entity_id, action, actor_id, at) VALUES ($1, $2, $3, $4, $5, $6)`
)

// EventRepository implements ports.EventRepository. The unique constraint on
// contract_id enforces one event per contract.
type EventRepository struct {
	db *DB
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.ClientID, &e.ContractID, &e.SupportContactID, &e.EventDate, &e.Attendees, &e.Notes,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EventRepository) Get(ctx context.Context, id string) (*domain.Event, error) {
	e, err := scanEvent(r.db.conn(ctx).QueryRow(ctx, forUpdate(ctx, selectEvent+` WHERE id = $1`), id))
	if err != nil {
		return nil, mapErr("get event", err)
	}
	return e, nil
}

func (r *EventRepository) FindByContract(ctx context.Context, contractID string) (*domain.Event, error) {
	e, err := scanEvent(r.db.conn(ctx).QueryRow(ctx, selectEvent+` WHERE contract_id = $1`, contractID))
	if err != nil {
		return nil, mapErr("find event", err)
	}
	return e, nil
}

func (r *EventRepository) List(ctx context.Context, f ports.EventFilter) ([]*domain.Event, error) {
	query, args := eventQuery(f)
	rows, err := r.db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list events", err)
	}
	events, err := collect(rows, scanEvent)
	return events, mapErr("scan events", err)
}

func eventQuery(f ports.EventFilter) (string, []any) {
	var w where
	if f.Unassigned {
		w.raw("support_contact_id IS NULL")
	}
	if f.SupportContactID != "" {
		w.eq("support_contact_id", f.SupportContactID)
	}
	if f.From != nil {
		w.cmp("event_date", ">=", f.From.UTC())
	}
	if f.ClientID != "" {
		w.eq("client_id", f.ClientID)
	}
	if f.ContractID != "" {
		w.eq("contract_id", f.ContractID)
	}
	return selectEvent + w.String() + ` ORDER BY created_at, id`, w.args
}

func (r *EventRepository) Create(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	e := *event
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.conn(ctx).Exec(ctx, insertEvent,
		e.ID, e.ClientID, e.ContractID, e.SupportContactID, e.EventDate, e.Attendees, e.Notes, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return nil, mapErr("insert event", err)
	}
	return &e, nil
}

func (r *EventRepository) Update(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	tag, err := r.db.conn(ctx).Exec(ctx, updateEvent,
		event.ID, event.SupportContactID, event.EventDate, event.Attendees, event.Notes, event.UpdatedAt)
	if err != nil {
		return nil, mapErr("update event", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, mapErr("update event", pgx.ErrNoRows)
	}
	e := *event
	return &e, nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, deleteEvent, id)
	if err != nil {
		return mapErr("delete event", err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr("delete event", pgx.ErrNoRows)
	}
	return nil
}

// AuditRepository appends to audit_log.
type AuditRepository struct {
	db *DB
}

func (r *AuditRepository) Append(ctx context.Context, e domain.AuditEntry) error {
	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := r.db.Pool.Exec(ctx, insertAudit, id, string(e.Kind), e.EntityID, string(e.Action), e.ActorID, e.At.UTC())
	return mapErr("insert audit entry", err)
}
