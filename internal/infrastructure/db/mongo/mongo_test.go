package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

func TestMapErr(t *testing.T) {
	require.NoError(t, mapErr("op", nil))
	require.ErrorIs(t, mapErr("op", mongo.ErrNoDocuments), domain.ErrNotFound)
	require.ErrorIs(t, mapErr("op", mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}},
	}), domain.ErrConflict)
	require.ErrorIs(t, mapErr("op", context.DeadlineExceeded), domain.ErrStoreUnavailable)

	other := errors.New("boom")
	err := mapErr("op", other)
	require.ErrorIs(t, err, other)
	require.Equal(t, domain.OutcomeInternal, domain.OutcomeOf(err))
}

func TestObjectID_InvalidIsNotFound(t *testing.T) {
	_, err := objectID("client", "not-hex")
	require.ErrorIs(t, err, domain.ErrNotFound)

	oid := primitive.NewObjectID()
	got, err := objectID("client", oid.Hex())
	require.NoError(t, err)
	require.Equal(t, oid, got)

	require.Len(t, objectIDs([]string{oid.Hex(), "junk"}), 1)
}

func TestClientFilter(t *testing.T) {
	excluded := []primitive.ObjectID{primitive.NewObjectID()}

	f := clientFilter(ports.ClientFilter{Unassigned: true, WithoutSignedContract: true}, excluded)
	require.Nil(t, f["sales_contact_id"])
	require.Contains(t, f, "sales_contact_id")
	require.Equal(t, bson.M{"$nin": excluded}, f["_id"])

	f = clientFilter(ports.ClientFilter{WithoutSignedContract: true}, nil)
	require.NotContains(t, f, "_id")

	f = clientFilter(ports.ClientFilter{SalesContactID: "u1"}, nil)
	require.Equal(t, "u1", f["sales_contact_id"])

	f = clientFilter(ports.ClientFilter{Unassigned: true, SalesContactID: "u1"}, nil)
	require.NotContains(t, f, "sales_contact_id")
	require.Equal(t, bson.A{bson.M{"sales_contact_id": nil}, bson.M{"sales_contact_id": "u1"}}, f["$and"])
}

func TestEventAndContractFilters(t *testing.T) {
	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.FixedZone("X", 3600))
	f := eventFilter(ports.EventFilter{SupportContactID: "s1", From: &from, ContractID: "k1"})
	require.Equal(t, "s1", f["support_contact_id"])
	require.Equal(t, bson.M{"$gte": from.UTC()}, f["event_date"])
	require.Equal(t, "k1", f["contract_id"])
	require.NotContains(t, f, "client_id")

	f = eventFilter(ports.EventFilter{Unassigned: true})
	require.Contains(t, f, "support_contact_id")
	require.Nil(t, f["support_contact_id"])

	// Unassigned and mine together match nothing.
	f = eventFilter(ports.EventFilter{Unassigned: true, SupportContactID: "sam"})
	require.NotContains(t, f, "support_contact_id")
	require.Equal(t, bson.A{bson.M{"support_contact_id": nil}, bson.M{"support_contact_id": "sam"}}, f["$and"])

	c := contractFilter(ports.ContractFilter{ClientID: "c1", Status: domain.ContractSigned})
	require.Equal(t, bson.M{"client_id": "c1", "status": "signed"}, c)
}

func TestDocuments_RoundTrip(t *testing.T) {
	contact := "u1"
	now := time.Date(2030, 5, 4, 3, 2, 1, 0, time.UTC)
	client := &domain.Client{CompanyName: "Acme", Email: "a@acme.io", SalesContactID: &contact, CreatedAt: now, UpdatedAt: now}

	doc := newClientDoc(client)
	doc.ID = primitive.NewObjectID()
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var decoded clientDoc
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	got := decoded.toDomain()
	require.Equal(t, doc.ID.Hex(), got.ID)
	require.Equal(t, "Acme", got.CompanyName)
	require.Equal(t, "u1", *got.SalesContactID)
	require.True(t, got.CreatedAt.Equal(now))

	// An unassigned client stores an explicit null so the unassigned filter matches it.
	unassigned, err := bson.Marshal(newClientDoc(&domain.Client{CompanyName: "Bare"}))
	require.NoError(t, err)
	val, err := bson.Raw(unassigned).LookupErr("sales_contact_id")
	require.NoError(t, err)
	require.Equal(t, bson.TypeNull, val.Type)
}

func TestUserDoc_KeepsSecurityFields(t *testing.T) {
	u := newUserDoc(&domain.User{Username: "root", PasswordHash: "h", IsSuperuser: true, IsActive: true, Role: domain.RoleManager})
	got := u.toDomain()
	require.Equal(t, "h", got.PasswordHash)
	require.True(t, got.IsSuperuser)
	require.Equal(t, domain.RoleManager, got.Role)
	require.Equal(t, primitive.NilObjectID.Hex(), got.ID)
}

func TestIndexPlan_EmailUniqueIgnoresCase(t *testing.T) {
	plan := indexPlan()
	for _, name := range []string{collectionUsers, collectionClients} {
		var found bool
		for _, idx := range plan[name] {
			keys, ok := idx.Keys.(bson.D)
			require.True(t, ok)
			if keys[0].Key != "email" {
				continue
			}
			found = true
			require.NotNil(t, idx.Options.Unique)
			require.True(t, *idx.Options.Unique)
			require.NotNil(t, idx.Options.Collation)
			require.Equal(t, 2, idx.Options.Collation.Strength)
		}
		require.True(t, found, "no email index on %s", name)
	}
}
