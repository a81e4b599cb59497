package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

// UserRepository implements ports.UserRepository using MongoDB.
type UserRepository struct {
	db *mongo.Database
}

func (r *UserRepository) col() *mongo.Collection { return r.db.Collection(collectionUsers) }

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID("user", id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var doc userDoc
	if err := r.col().FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapErr("find user", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context, f ports.UserFilter) ([]*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if f.Role != nil {
		filter["role"] = string(*f.Role)
	}
	if f.Active != nil {
		filter["is_active"] = *f.Active
	}
	cur, err := r.col().Find(ctx, filter, byCreation)
	if err != nil {
		return nil, mapErr("list users", err)
	}
	users, err := decodeAll(ctx, cur, (*userDoc).toDomain)
	return users, mapErr("decode users", err)
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	doc := newUserDoc(user)
	res, err := r.col().InsertOne(ctx, doc)
	if err != nil {
		return nil, mapErr("insert user", err)
	}
	doc.ID = insertedID(res)
	return doc.toDomain(), nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	oid, err := objectID("user", user.ID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	doc := newUserDoc(user)
	doc.ID = oid
	res, err := r.col().ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return nil, mapErr("update user", err)
	}
	if res.MatchedCount == 0 {
		return nil, mapErr("update user", mongo.ErrNoDocuments)
	}
	return doc.toDomain(), nil
}

// Delete removes the user and clears the references held by clients and events.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID("user", id)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.col().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapErr("delete user", err)
	}
	if res.DeletedCount == 0 {
		return mapErr("delete user", mongo.ErrNoDocuments)
	}
	if _, err := r.db.Collection(collectionClients).UpdateMany(ctx,
		bson.M{"sales_contact_id": id},
		bson.M{"$set": bson.M{"sales_contact_id": nil}},
	); err != nil {
		return mapErr("unassign clients", err)
	}
	if _, err := r.db.Collection(collectionEvents).UpdateMany(ctx,
		bson.M{"support_contact_id": id},
		bson.M{"$set": bson.M{"support_contact_id": nil}},
	); err != nil {
		return mapErr("unassign events", err)
	}
	return nil
}
