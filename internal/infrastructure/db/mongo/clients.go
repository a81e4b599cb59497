package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

// ClientRepository implements ports.ClientRepository using MongoDB.
type ClientRepository struct {
	db *mongo.Database
}

func (r *ClientRepository) col() *mongo.Collection { return r.db.Collection(collectionClients) }

func (r *ClientRepository) Get(ctx context.Context, id string) (*domain.Client, error) {
	oid, err := objectID("client", id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var doc clientDoc
	if err := r.col().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapErr("find client", err)
	}
	return doc.toDomain(), nil
}

func (r *ClientRepository) List(ctx context.Context, f ports.ClientFilter) ([]*domain.Client, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var signed []string
	if f.WithoutSignedContract {
		values, err := r.db.Collection(collectionContracts).Distinct(ctx, "client_id", bson.M{"status": string(domain.ContractSigned)})
		if err != nil {
			return nil, mapErr("signed clients", err)
		}
		for _, v := range values {
			if s, ok := v.(string); ok {
				signed = append(signed, s)
			}
		}
	}

	cur, err := r.col().Find(ctx, clientFilter(f, objectIDs(signed)), byCreation)
	if err != nil {
		return nil, mapErr("list clients", err)
	}
	clients, err := decodeAll(ctx, cur, (*clientDoc).toDomain)
	return clients, mapErr("decode clients", err)
}

// clientFilter builds the query; excluded lists the clients holding a signed contract.
func clientFilter(f ports.ClientFilter, excluded []primitive.ObjectID) bson.M {
	filter := withContact(bson.M{}, "sales_contact_id", f.Unassigned, f.SalesContactID)
	if f.WithoutSignedContract && len(excluded) > 0 {
		filter["_id"] = bson.M{"$nin": excluded}
	}
	return filter
}

// withContact adds the unassigned and assigned-to predicates on field. Both
// together must match nothing, so they are ANDed rather than overwritten.
func withContact(filter bson.M, field string, unassigned bool, contactID string) bson.M {
	switch {
	case unassigned && contactID != "":
		filter["$and"] = bson.A{bson.M{field: nil}, bson.M{field: contactID}}
	case unassigned:
		filter[field] = nil
	case contactID != "":
		filter[field] = contactID
	}
	return filter
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	doc := newClientDoc(client)
	res, err := r.col().InsertOne(ctx, doc)
	if err != nil {
		return nil, mapErr("insert client", err)
	}
	doc.ID = insertedID(res)
	return doc.toDomain(), nil
}

func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	oid, err := objectID("client", client.ID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	doc := newClientDoc(client)
	doc.ID = oid
	res, err := r.col().ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return nil, mapErr("update client", err)
	}
	if res.MatchedCount == 0 {
		return nil, mapErr("update client", mongo.ErrNoDocuments)
	}
	return doc.toDomain(), nil
}

// Delete removes the client with its contracts and events.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID("client", id)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.col().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapErr("delete client", err)
	}
	if res.DeletedCount == 0 {
		return mapErr("delete client", mongo.ErrNoDocuments)
	}
	if _, err := r.db.Collection(collectionEvents).DeleteMany(ctx, bson.M{"client_id": id}); err != nil {
		return mapErr("delete client events", err)
	}
	if _, err := r.db.Collection(collectionContracts).DeleteMany(ctx, bson.M{"client_id": id}); err != nil {
		return mapErr("delete client contracts", err)
	}
	return nil
}

func insertedID(res *mongo.InsertOneResult) primitive.ObjectID {
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return oid
}
