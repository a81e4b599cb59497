package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

// EventRepository implements ports.EventRepository using MongoDB. The unique
// index on contract_id enforces one event per contract.
type EventRepository struct {
	db *mongo.Database
}

func (r *EventRepository) col() *mongo.Collection { return r.db.Collection(collectionEvents) }

func (r *EventRepository) Get(ctx context.Context, id string) (*domain.Event, error) {
	oid, err := objectID("event", id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *EventRepository) FindByContract(ctx context.Context, contractID string) (*domain.Event, error) {
	return r.findOne(ctx, bson.M{"contract_id": contractID})
}

func (r *EventRepository) findOne(ctx context.Context, filter bson.M) (*domain.Event, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var doc eventDoc
	if err := r.col().FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapErr("find event", err)
	}
	return doc.toDomain(), nil
}

func (r *EventRepository) List(ctx context.Context, f ports.EventFilter) ([]*domain.Event, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cur, err := r.col().Find(ctx, eventFilter(f), byCreation)
	if err != nil {
		return nil, mapErr("list events", err)
	}
	events, err := decodeAll(ctx, cur, (*eventDoc).toDomain)
	return events, mapErr("decode events", err)
}

func eventFilter(f ports.EventFilter) bson.M {
	filter := withContact(bson.M{}, "support_contact_id", f.Unassigned, f.SupportContactID)
	if f.From != nil {
		filter["event_date"] = bson.M{"$gte": f.From.UTC()}
	}
	if f.ClientID != "" {
		filter["client_id"] = f.ClientID
	}
	if f.ContractID != "" {
		filter["contract_id"] = f.ContractID
	}
	return filter
}

func (r *EventRepository) Create(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	doc := newEventDoc(event)
	res, err := r.col().InsertOne(ctx, doc)
	if err != nil {
		return nil, mapErr("insert event", err)
	}
	doc.ID = insertedID(res)
	return doc.toDomain(), nil
}

func (r *EventRepository) Update(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	oid, err := objectID("event", event.ID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	doc := newEventDoc(event)
	doc.ID = oid
	res, err := r.col().ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return nil, mapErr("update event", err)
	}
	if res.MatchedCount == 0 {
		return nil, mapErr("update event", mongo.ErrNoDocuments)
	}
	return doc.toDomain(), nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID("event", id)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.col().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapErr("delete event", err)
	}
	if res.DeletedCount == 0 {
		return mapErr("delete event", mongo.ErrNoDocuments)
	}
	return nil
}

// AuditRepository appends to the audit_log collection.
type AuditRepository struct {
	col *mongo.Collection
}

func (r *AuditRepository) Append(ctx context.Context, e domain.AuditEntry) error {
	_, err := r.col.InsertOne(ctx, auditDoc{
		Kind:     string(e.Kind),
		EntityID: e.EntityID,
		Action:   string(e.Action),
		ActorID:  e.ActorID,
		At:       e.At.UTC(),
	})
	return mapErr("insert audit entry", err)
}
