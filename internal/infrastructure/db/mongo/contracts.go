package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

// ContractRepository implements ports.ContractRepository using MongoDB.
type ContractRepository struct {
	db *mongo.Database
}

func (r *ContractRepository) col() *mongo.Collection { return r.db.Collection(collectionContracts) }

func (r *ContractRepository) Get(ctx context.Context, id string) (*domain.Contract, error) {
	oid, err := objectID("contract", id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var doc contractDoc
	if err := r.col().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapErr("find contract", err)
	}
	return doc.toDomain(), nil
}

func (r *ContractRepository) List(ctx context.Context, f ports.ContractFilter) ([]*domain.Contract, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cur, err := r.col().Find(ctx, contractFilter(f), byCreation)
	if err != nil {
		return nil, mapErr("list contracts", err)
	}
	contracts, err := decodeAll(ctx, cur, (*contractDoc).toDomain)
	return contracts, mapErr("decode contracts", err)
}

func contractFilter(f ports.ContractFilter) bson.M {
	filter := bson.M{}
	if f.ClientID != "" {
		filter["client_id"] = f.ClientID
	}
	if f.SalesContactID != "" {
		filter["sales_contact_id"] = f.SalesContactID
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	return filter
}

func (r *ContractRepository) Create(ctx context.Context, contract *domain.Contract) (*domain.Contract, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	doc := newContractDoc(contract)
	res, err := r.col().InsertOne(ctx, doc)
	if err != nil {
		return nil, mapErr("insert contract", err)
	}
	doc.ID = insertedID(res)
	return doc.toDomain(), nil
}

func (r *ContractRepository) Update(ctx context.Context, contract *domain.Contract) (*domain.Contract, error) {
	oid, err := objectID("contract", contract.ID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	doc := newContractDoc(contract)
	doc.ID = oid
	res, err := r.col().ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return nil, mapErr("update contract", err)
	}
	if res.MatchedCount == 0 {
		return nil, mapErr("update contract", mongo.ErrNoDocuments)
	}
	return doc.toDomain(), nil
}

// Delete removes the contract and its event.
func (r *ContractRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID("contract", id)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.col().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapErr("delete contract", err)
	}
	if res.DeletedCount == 0 {
		return mapErr("delete contract", mongo.ErrNoDocuments)
	}
	if _, err := r.db.Collection(collectionEvents).DeleteMany(ctx, bson.M{"contract_id": id}); err != nil {
		return mapErr("delete contract event", err)
	}
	return nil
}

func (r *ContractRepository) ReassignSalesContact(ctx context.Context, clientID, salesContactID string, at time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.col().UpdateMany(ctx,
		bson.M{"client_id": clientID, "sales_contact_id": bson.M{"$ne": salesContactID}},
		bson.M{"$set": bson.M{"sales_contact_id": salesContactID, "updated_at": at.UTC()}},
	)
	if err != nil {
		return 0, mapErr("reassign contracts", err)
	}
	return res.ModifiedCount, nil
}
