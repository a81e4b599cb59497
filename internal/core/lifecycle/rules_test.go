package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

// stubLookup is an in-memory Lookup keyed by id.
type stubLookup struct {
	users     map[string]*domain.User
	clients   map[string]*domain.Client
	contracts map[string]*domain.Contract
	events    map[string]*domain.Event // keyed by contract id
	err       error
}

func newStubLookup() *stubLookup {
	return &stubLookup{
		users:     map[string]*domain.User{},
		clients:   map[string]*domain.Client{},
		contracts: map[string]*domain.Contract{},
		events:    map[string]*domain.Event{},
	}
}

func (s *stubLookup) User(_ context.Context, id string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubLookup) UserByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubLookup) Client(_ context.Context, id string) (*domain.Client, error) {
	if c, ok := s.clients[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubLookup) Contract(_ context.Context, id string) (*domain.Contract, error) {
	if c, ok := s.contracts[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubLookup) EventByContract(_ context.Context, contractID string) (*domain.Event, error) {
	if e, ok := s.events[contractID]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func ref(s string) *string { return &s }

// fixture: sales A owns client acme; sales B owns nothing; support S; manager mia.
func fixture() (*Rules, *stubLookup) {
	l := newStubLookup()
	for _, u := range []*domain.User{
		{ID: "a", Username: "alice", Role: domain.RoleSales},
		{ID: "b", Username: "bob", Role: domain.RoleSales},
		{ID: "s", Username: "sam", Role: domain.RoleSupport},
		{ID: "m", Username: "mia", Role: domain.RoleManager},
	} {
		l.users[u.ID] = u
	}
	l.clients["acme"] = &domain.Client{ID: "acme", CompanyName: "Acme", SalesContactID: ref("a")}
	l.clients["orphan"] = &domain.Client{ID: "orphan", CompanyName: "Orphan"}
	l.contracts["k1"] = &domain.Contract{ID: "k1", ClientID: "acme", SalesContactID: "a", Status: domain.ContractSigned}
	l.contracts["k2"] = &domain.Contract{ID: "k2", ClientID: "acme", SalesContactID: "a", Status: domain.ContractUnsigned}
	l.contracts["k3"] = &domain.Contract{ID: "k3", ClientID: "orphan", Status: domain.ContractSigned}
	return New(l), l
}

func actorOf(userID string, role domain.Role) domain.Identity {
	return domain.Identity{UserID: userID, Role: role}
}

var (
	alice = actorOf("a", domain.RoleSales)
	bob   = actorOf("b", domain.RoleSales)
	sam   = actorOf("s", domain.RoleSupport)
	mia   = actorOf("m", domain.RoleManager)
)

func TestCreateClient(t *testing.T) {
	rules, _ := fixture()
	ctx := context.Background()

	c, err := rules.CreateClient(ctx, alice, ports.CreateClientInput{CompanyName: " Initech "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.SalesContactID != nil {
		t.Fatalf("expected unassigned client, got %v", *c.SalesContactID)
	}
	if c.CompanyName != "Initech" {
		t.Fatalf("expected trimmed company name, got %q", c.CompanyName)
	}

	if _, err := rules.CreateClient(ctx, alice, ports.CreateClientInput{CompanyName: "X", SalesContactID: ref("s")}); !errors.Is(err, domain.ErrNotSalesRole) {
		t.Fatalf("expected ErrNotSalesRole for support contact, got %v", err)
	}
	if _, err := rules.CreateClient(ctx, alice, ports.CreateClientInput{CompanyName: "X", SalesContactID: ref("ghost")}); !errors.Is(err, domain.ErrNotSalesRole) {
		t.Fatalf("expected ErrNotSalesRole for dangling contact, got %v", err)
	}
	if _, err := rules.CreateClient(ctx, alice, ports.CreateClientInput{CompanyName: "  "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateClient(t *testing.T) {
	rules, l := fixture()
	ctx := context.Background()
	acme := l.clients["acme"]

	if _, err := rules.UpdateClient(ctx, bob, acme, ports.UpdateClientInput{Phone: ref("1")}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign sales user, got %v", err)
	}

	change, err := rules.UpdateClient(ctx, mia, acme, ports.UpdateClientInput{SalesContact: ports.SetRef("b")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !change.Reassigned || *change.Client.SalesContactID != "b" {
		t.Fatalf("expected reassignment to b, got %+v", change)
	}
	if *acme.SalesContactID != "a" {
		t.Fatalf("rules must not mutate the stored client")
	}

	if _, err := rules.UpdateClient(ctx, alice, acme, ports.UpdateClientInput{SalesContact: ports.SetRef("s")}); !errors.Is(err, domain.ErrNotSalesRole) {
		t.Fatalf("expected ErrNotSalesRole on update, got %v", err)
	}

	change, err = rules.UpdateClient(ctx, alice, acme, ports.UpdateClientInput{SalesContact: ports.ClearRef()})
	if err != nil {
		t.Fatalf("current contact should be able to clear: %v", err)
	}
	if change.Client.SalesContactID != nil || change.Reassigned {
		t.Fatalf("expected cleared contact without reassignment, got %+v", change)
	}
}

func TestCreateContract(t *testing.T) {
	rules, _ := fixture()
	ctx := context.Background()

	c, err := rules.CreateContract(ctx, alice, ports.CreateContractInput{ClientID: "acme", SalesContactID: ref("a"), Amount: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.SalesContactID != "a" || c.Status != domain.ContractUnsigned {
		t.Fatalf("unexpected contract %+v", c)
	}

	c, err = rules.CreateContract(ctx, mia, ports.CreateContractInput{ClientID: "acme"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.SalesContactID != "a" {
		t.Fatalf("expected inherited sales contact, got %q", c.SalesContactID)
	}

	cases := []struct {
		name  string
		actor domain.Identity
		in    ports.CreateContractInput
		want  error
	}{
		{"missing client", alice, ports.CreateContractInput{ClientID: "nope"}, domain.ErrNotFound},
		{"declared contact differs", mia, ports.CreateContractInput{ClientID: "acme", SalesContactID: ref("b")}, domain.ErrSalesContactMismatch},
		{"client unassigned", mia, ports.CreateContractInput{ClientID: "orphan"}, domain.ErrSalesContactMismatch},
		{"sales user not the contact", bob, ports.CreateContractInput{ClientID: "acme"}, domain.ErrForbidden},
		{"mismatch reported before actor check", bob, ports.CreateContractInput{ClientID: "acme", SalesContactID: ref("b")}, domain.ErrSalesContactMismatch},
		{"negative amount", alice, ports.CreateContractInput{ClientID: "acme", Amount: -1}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		if _, err := rules.CreateContract(ctx, tc.actor, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestUpdateContract_ReresolvesClient(t *testing.T) {
	rules, l := fixture()
	ctx := context.Background()
	k2 := l.contracts["k2"]

	signed := domain.ContractSigned
	next, err := rules.UpdateContract(ctx, mia, k2, ports.UpdateContractInput{Status: &signed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !next.IsSigned() || k2.IsSigned() {
		t.Fatalf("expected a signed copy and an untouched original")
	}

	// The client moves to bob; the contract still says alice.
	l.clients["acme"] = &domain.Client{ID: "acme", CompanyName: "Acme", SalesContactID: ref("b")}

	if _, err := rules.UpdateContract(ctx, alice, k2, ports.UpdateContractInput{Status: &signed}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for the stale contact, got %v", err)
	}
	if _, err := rules.UpdateContract(ctx, bob, k2, ports.UpdateContractInput{SalesContactID: ref("a")}); !errors.Is(err, domain.ErrSalesContactMismatch) {
		t.Fatalf("expected ErrSalesContactMismatch for the stale value, got %v", err)
	}
	next, err = rules.UpdateContract(ctx, bob, k2, ports.UpdateContractInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.SalesContactID != "b" {
		t.Fatalf("expected contract to follow the client, got %q", next.SalesContactID)
	}
}

func TestCreateEvent(t *testing.T) {
	rules, l := fixture()
	ctx := context.Background()
	when := time.Date(2030, 1, 1, 18, 0, 0, 0, time.UTC)

	e, err := rules.CreateEvent(ctx, alice, ports.CreateEventInput{ClientID: "acme", ContractID: "k1", SupportContactID: ref("s"), EventDate: when, Attendees: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.SupportContactID == nil || *e.SupportContactID != "s" {
		t.Fatalf("expected support contact s, got %+v", e.SupportContactID)
	}

	l.events["k1"] = &domain.Event{ID: "e1", ClientID: "acme", ContractID: "k1"}

	cases := []struct {
		name  string
		actor domain.Identity
		in    ports.CreateEventInput
		want  error
	}{
		{"missing client", alice, ports.CreateEventInput{ClientID: "nope", ContractID: "k2"}, domain.ErrNotFound},
		{"missing contract", alice, ports.CreateEventInput{ClientID: "acme", ContractID: "nope"}, domain.ErrNotFound},
		{"contract already used", alice, ports.CreateEventInput{ClientID: "acme", ContractID: "k1"}, domain.ErrContractAlreadyUsed},
		{"contract of another client", alice, ports.CreateEventInput{ClientID: "acme", ContractID: "k3"}, domain.ErrClientMismatch},
		{"unsigned contract, manager", mia, ports.CreateEventInput{ClientID: "acme", ContractID: "k2"}, domain.ErrContractNotSigned},
		{"support contact in sales", alice, ports.CreateEventInput{ClientID: "orphan", ContractID: "k3", SupportContactID: ref("b")}, domain.ErrNotSupportRole},
	}
	for _, tc := range cases {
		if _, err := rules.CreateEvent(ctx, tc.actor, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestUpdateEvent(t *testing.T) {
	rules, l := fixture()
	ctx := context.Background()
	event := &domain.Event{ID: "e1", ClientID: "acme", ContractID: "k1", SupportContactID: ref("s")}
	l.users["s2"] = &domain.User{ID: "s2", Username: "sue", Role: domain.RoleSupport}
	sue := actorOf("s2", domain.RoleSupport)

	attendees := 80
	if _, err := rules.UpdateEvent(ctx, sam, event, ports.UpdateEventInput{Attendees: &attendees}); err != nil {
		t.Fatalf("assigned support should update: %v", err)
	}
	if _, err := rules.UpdateEvent(ctx, alice, event, ports.UpdateEventInput{Attendees: &attendees}); err != nil {
		t.Fatalf("client's sales contact should update: %v", err)
	}
	if _, err := rules.UpdateEvent(ctx, sue, event, ports.UpdateEventInput{Attendees: &attendees}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other support user, got %v", err)
	}
	if _, err := rules.UpdateEvent(ctx, mia, event, ports.UpdateEventInput{SupportContact: ports.SetRef("a")}); !errors.Is(err, domain.ErrNotSupportRole) {
		t.Fatalf("expected ErrNotSupportRole, got %v", err)
	}

	next, err := rules.UpdateEvent(ctx, mia, event, ports.UpdateEventInput{SupportContact: ports.SetRef("s2")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *next.SupportContactID != "s2" || *event.SupportContactID != "s" {
		t.Fatalf("expected reassigned copy, got %v / original %v", *next.SupportContactID, *event.SupportContactID)
	}

	l.contracts["k1"].Status = domain.ContractUnsigned
	if _, err := rules.UpdateEvent(ctx, mia, event, ports.UpdateEventInput{Attendees: &attendees}); !errors.Is(err, domain.ErrContractNotSigned) {
		t.Fatalf("expected ErrContractNotSigned after unsigning, got %v", err)
	}

	delete(l.contracts, "k1")
	if _, err := rules.UpdateEvent(ctx, mia, event, ports.UpdateEventInput{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for dangling contract, got %v", err)
	}
}

func TestCreateUser_UsernameUnique(t *testing.T) {
	rules, _ := fixture()
	ctx := context.Background()

	if _, err := rules.CreateUser(ctx, ports.CreateUserInput{Username: "alice", Password: "pw"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	u, err := rules.CreateUser(ctx, ports.CreateUserInput{Username: "carol", Password: "pw", Role: domain.RoleSupport})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.IsActive || u.Role != domain.RoleSupport {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestUpdateUser(t *testing.T) {
	rules, l := fixture()
	ctx := context.Background()
	a := l.users["a"]

	if _, err := rules.UpdateUser(ctx, a, ports.UpdateUserInput{Username: ref("bob")}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := rules.UpdateUser(ctx, a, ports.UpdateUserInput{Username: ref("alice")}); err != nil {
		t.Fatalf("keeping the same username must succeed: %v", err)
	}
	role := domain.RoleManager
	next, err := rules.UpdateUser(ctx, a, ports.UpdateUserInput{Role: &role})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Role != domain.RoleManager || a.Role != domain.RoleSales {
		t.Fatalf("expected promoted copy")
	}
}

func TestLookupFailurePropagates(t *testing.T) {
	rules, l := fixture()
	l.err = domain.ErrStoreUnavailable

	_, err := rules.CreateClient(context.Background(), alice, ports.CreateClientInput{CompanyName: "X", SalesContactID: ref("a")})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
