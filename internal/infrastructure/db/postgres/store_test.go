package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func exact(q string) string { return regexp.QuoteMeta(q) }

var clientCols = []string{"id", "company_name", "first_name", "last_name", "email", "phone", "mobile", "sales_contact_id", "created_at", "updated_at"}

func strPtr(s string) *string { return &s }

func TestUserRepository_Get_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectQuery(exact(selectUser + ` WHERE id = $1`)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.Users().Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByUsername(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	cols := []string{"id", "username", "email", "first_name", "last_name", "password_hash", "role", "is_superuser", "is_active", "join_date", "created_at", "updated_at"}
	mock.ExpectQuery(exact(selectUser + ` WHERE username = $1`)).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("u1", "alice", "alice@example.com", "Alice", "A", "hash", "sales", false, true, &now, now, now))

	u, err := s.Users().FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)
	require.Equal(t, domain.RoleSales, u.Role)
	require.True(t, u.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateUsername(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	now := time.Now().UTC()
	mock.ExpectExec(exact(insertUser)).
		WithArgs(pgxmock.AnyArg(), "alice", "", "", "", "hash", "sales", false, true, pgxmock.AnyArg(), now, now).
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation})

	_, err := s.Users().Create(context.Background(), &domain.User{
		Username: "alice", PasswordHash: "hash", Role: domain.RoleSales, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	})
	require.ErrorIs(t, err, domain.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_AssignsID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	now := time.Now().UTC()
	mock.ExpectExec(exact(insertUser)).
		WithArgs(pgxmock.AnyArg(), "bob", "bob@example.com", "", "", "hash", "support", false, true, pgxmock.AnyArg(), now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	u, err := s.Users().Create(context.Background(), &domain.User{
		Username: "bob", Email: "bob@example.com", PasswordHash: "hash", Role: domain.RoleSupport,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete_Missing(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectExec(exact(deleteUser)).
		WithArgs("ghost").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.Users().Delete(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_List_Filter(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	role := domain.RoleSupport
	active := true
	mock.ExpectQuery(exact(selectUser+` WHERE role = $1 AND is_active = $2 ORDER BY created_at, id`)).
		WithArgs("support", true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "first_name", "last_name", "password_hash", "role", "is_superuser", "is_active", "join_date", "created_at", "updated_at"}))

	users, err := s.Users().List(context.Background(), ports.UserFilter{Role: &role, Active: &active})
	require.NoError(t, err)
	require.Empty(t, users)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClientQuery(t *testing.T) {
	query, args := clientQuery(ports.ClientFilter{Unassigned: true, WithoutSignedContract: true})
	require.Equal(t, selectClient+` WHERE sales_contact_id IS NULL AND `+noSignedContract+` ORDER BY created_at, id`, query)
	require.Empty(t, args)

	query, args = clientQuery(ports.ClientFilter{SalesContactID: "u1"})
	require.Equal(t, selectClient+` WHERE sales_contact_id = $1 ORDER BY created_at, id`, query)
	require.Equal(t, []any{"u1"}, args)
}

func TestEventQuery_Placeholders(t *testing.T) {
	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	query, args := eventQuery(ports.EventFilter{SupportContactID: "s1", From: &from, ContractID: "k1"})
	require.Equal(t, selectEvent+` WHERE support_contact_id = $1 AND event_date >= $2 AND contract_id = $3 ORDER BY created_at, id`, query)
	require.Equal(t, []any{"s1", from, "k1"}, args)
}

func TestContractQuery_Status(t *testing.T) {
	query, args := contractQuery(ports.ContractFilter{ClientID: "c1", Status: domain.ContractSigned})
	require.Equal(t, selectContract+` WHERE client_id = $1 AND status = $2 ORDER BY created_at, id`, query)
	require.Equal(t, []any{"c1", "signed"}, args)
}

func TestClientRepository_List_Scans(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(exact(selectClient + ` WHERE sales_contact_id = $1 ORDER BY created_at, id`)).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(clientCols).
			AddRow("c1", "Acme", "Kevin", "Casey", "kevin@acme.test", "", "", strPtr("u1"), now, now).
			AddRow("c2", "Globex", "", "", "", "", "", strPtr("u1"), now, now))

	clients, err := s.Clients().List(context.Background(), ports.ClientFilter{SalesContactID: "u1"})
	require.NoError(t, err)
	require.Len(t, clients, 2)
	require.Equal(t, "Acme", clients[0].CompanyName)
	require.Equal(t, "u1", *clients[1].SalesContactID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_LocksAndCommits(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(exact(selectClient + ` WHERE id = $1 FOR UPDATE`)).
		WithArgs("c1").
		WillReturnRows(pgxmock.NewRows(clientCols).
			AddRow("c1", "Acme", "", "", "", "", "", strPtr("u1"), now, now))
	mock.ExpectExec(exact(reassignContracts)).
		WithArgs("c1", "u2", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))
	mock.ExpectCommit()

	var moved int64
	err := s.WithinTx(context.Background(), func(ctx context.Context) error {
		if _, err := s.Clients().Get(ctx, "c1"); err != nil {
			return err
		}
		var err error
		moved, err = s.Contracts().ReassignSalesContact(ctx, "c1", "u2", now)
		return err
	})
	require.NoError(t, err)
	require.EqualValues(t, 3, moved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_RollsBackOnError(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.WithinTx(context.Background(), func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTx_NestedJoinsOuter(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(exact(deleteEvent)).
		WithArgs("e1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err := s.WithinTx(context.Background(), func(ctx context.Context) error {
		return s.WithinTx(ctx, func(ctx context.Context) error {
			return s.Events().Delete(ctx, "e1")
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContractRepository_Create_MissingClient(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	now := time.Now().UTC()
	mock.ExpectExec(exact(insertContract)).
		WithArgs("k1", "ghost", "u1", 100.0, "unsigned", pgxmock.AnyArg(), now, now).
		WillReturnError(&pgconn.PgError{Code: codeForeignKeyViolation})

	_, err := s.Contracts().Create(context.Background(), &domain.Contract{
		ID: "k1", ClientID: "ghost", SalesContactID: "u1", Amount: 100, Status: domain.ContractUnsigned,
		CreatedAt: now, UpdatedAt: now,
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventRepository_Create_SecondEventConflicts(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	now := time.Now().UTC()
	mock.ExpectExec(exact(insertEvent)).
		WithArgs("e2", "c1", "k1", pgxmock.AnyArg(), now, 10, "", now, now).
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation})

	_, err := s.Events().Create(context.Background(), &domain.Event{
		ID: "e2", ClientID: "c1", ContractID: "k1", EventDate: now, Attendees: 10,
		CreatedAt: now, UpdatedAt: now,
	})
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestEventRepository_Update_Missing(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	now := time.Now().UTC()
	mock.ExpectExec(exact(updateEvent)).
		WithArgs("e9", pgxmock.AnyArg(), now, 5, "n", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	_, err := s.Events().Update(context.Background(), &domain.Event{ID: "e9", EventDate: now, Attendees: 5, Notes: "n", UpdatedAt: now})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuditRepository_Append(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	at := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(exact(insertAudit)).
		WithArgs(pgxmock.AnyArg(), "client", "c1", "update", "u1", at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Audit().Append(context.Background(), domain.AuditEntry{
		Kind: domain.KindClient, EntityID: "c1", Action: domain.ActionUpdate, ActorID: "u1", At: at,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMapErr(t *testing.T) {
	require.NoError(t, mapErr("op", nil))
	require.ErrorIs(t, mapErr("op", pgx.ErrNoRows), domain.ErrNotFound)
	require.ErrorIs(t, mapErr("op", &pgconn.PgError{Code: codeCheckViolation}), domain.ErrInvalidInput)
	require.ErrorIs(t, mapErr("op", context.DeadlineExceeded), domain.ErrStoreUnavailable)

	other := errors.New("other")
	err := mapErr("op", other)
	require.ErrorIs(t, err, other)
	require.NotErrorIs(t, err, domain.ErrNotFound)
}
