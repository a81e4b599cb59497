package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

const (
	collectionUsers     = "users"
	collectionClients   = "clients"
	collectionContracts = "contracts"
	collectionEvents    = "events"
	collectionAudit     = "audit_log"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// Store implements ports.Store on MongoDB. Multi-document transactions need a
// replica set and are enabled with transactions=true; without them each write
// is atomic on its own.
type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool

	users     *UserRepository
	clients   *ClientRepository
	contracts *ContractRepository
	events    *EventRepository
	audit     *AuditRepository
}

var _ ports.Store = (*Store)(nil)

func NewStore(client *mongo.Client, db *mongo.Database, transactions bool) *Store {
	return &Store{
		client:       client,
		db:           db,
		transactions: transactions,
		users:        &UserRepository{db: db},
		clients:      &ClientRepository{db: db},
		contracts:    &ContractRepository{db: db},
		events:       &EventRepository{db: db},
		audit:        &AuditRepository{col: db.Collection(collectionAudit)},
	}
}

func (s *Store) Users() ports.UserRepository         { return s.users }
func (s *Store) Clients() ports.ClientRepository     { return s.clients }
func (s *Store) Contracts() ports.ContractRepository { return s.contracts }
func (s *Store) Events() ports.EventRepository       { return s.events }
func (s *Store) Audit() ports.AuditRepository        { return s.audit }

// WithinTx runs fn in a session transaction when enabled. A context that
// already carries a session joins it.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions || mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return mapErr("start session", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return mapErr("ping", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique and lookup indexes of every collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for name, indexes := range indexPlan() {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", name, err)
		}
	}
	return nil
}

var emailCollation = &options.Collation{Locale: "en", Strength: 2}

func indexPlan() map[string][]mongo.IndexModel {
	// Emails are unique regardless of case.
	nonEmptyEmail := options.Index().SetUnique(true).
		SetPartialFilterExpression(bson.M{"email": bson.M{"$gt": ""}}).
		SetCollation(emailCollation)

	return map[string][]mongo.IndexModel{
		collectionUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: nonEmptyEmail},
		},
		collectionClients: {
			{Keys: bson.D{{Key: "company_name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: nonEmptyEmail},
			{Keys: bson.D{{Key: "sales_contact_id", Value: 1}}},
		},
		collectionContracts: {
			{Keys: bson.D{{Key: "client_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		collectionEvents: {
			{Keys: bson.D{{Key: "contract_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "client_id", Value: 1}}},
			{Keys: bson.D{{Key: "support_contact_id", Value: 1}}},
			{Keys: bson.D{{Key: "event_date", Value: 1}}},
		},
		collectionAudit: {
			{Keys: bson.D{{Key: "entity_id", Value: 1}, {Key: "at", Value: 1}}},
		},
	}
}

// mapErr translates driver errors into the domain taxonomy.
func mapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// objectID parses a hex id. Ids that cannot exist are reported as not found.
func objectID(kind, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%s %q: %w", kind, id, domain.ErrNotFound)
	}
	return oid, nil
}

func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultTimeout)
}

func decodeAll[D any, T any](ctx context.Context, cur *mongo.Cursor, conv func(*D) *T) ([]*T, error) {
	defer cur.Close(ctx)
	out := []*T{}
	for cur.Next(ctx) {
		var doc D
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, conv(&doc))
	}
	return out, cur.Err()
}

var byCreation = options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
