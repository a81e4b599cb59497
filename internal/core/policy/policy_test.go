package policy

import (
	"errors"
	"testing"

	"github.com/epicevents/crm/internal/core/domain"
)

func actor(role domain.Role) domain.Identity {
	return domain.Identity{UserID: "u-" + role.String(), Role: role}
}

func TestDecide_Table(t *testing.T) {
	var (
		manager = actor(domain.RoleManager)
		sales   = actor(domain.RoleSales)
		support = actor(domain.RoleSupport)
		nobody  = actor(domain.RoleNone)
		root    = domain.Identity{UserID: "root", IsSuperuser: true}
	)

	cases := []struct {
		name   string
		actor  domain.Identity
		action domain.Action
		kind   domain.EntityKind
		allow  bool
	}{
		{"manager lists users", manager, domain.ActionList, domain.KindUser, true},
		{"manager deletes users", manager, domain.ActionDelete, domain.KindUser, true},
		{"sales cannot read users", sales, domain.ActionRetrieve, domain.KindUser, false},
		{"superuser creates users", root, domain.ActionCreate, domain.KindUser, true},

		{"support lists clients", support, domain.ActionList, domain.KindClient, true},
		{"role-less user retrieves clients", nobody, domain.ActionRetrieve, domain.KindClient, true},
		{"sales creates clients", sales, domain.ActionCreate, domain.KindClient, true},
		{"manager creates clients", manager, domain.ActionCreate, domain.KindClient, true},
		{"support cannot create clients", support, domain.ActionCreate, domain.KindClient, false},
		{"support cannot update clients", support, domain.ActionUpdate, domain.KindClient, false},
		{"manager cannot delete clients", manager, domain.ActionDelete, domain.KindClient, false},
		{"superuser deletes clients", root, domain.ActionDelete, domain.KindClient, true},

		{"sales creates contracts", sales, domain.ActionCreate, domain.KindContract, true},
		{"support cannot update contracts", support, domain.ActionUpdate, domain.KindContract, false},
		{"sales cannot delete contracts", sales, domain.ActionDelete, domain.KindContract, false},

		{"manager creates events", manager, domain.ActionCreate, domain.KindEvent, true},
		{"support cannot create events", support, domain.ActionCreate, domain.KindEvent, false},
		{"support updates events", support, domain.ActionUpdate, domain.KindEvent, true},
		{"role-less user cannot update events", nobody, domain.ActionUpdate, domain.KindEvent, false},
		{"support cannot delete events", support, domain.ActionDelete, domain.KindEvent, false},
	}

	for _, tc := range cases {
		got := Decide(tc.actor, tc.action, tc.kind)
		if got.Allowed != tc.allow {
			t.Errorf("%s: expected allowed=%v, got %+v", tc.name, tc.allow, got)
		}
		if !got.Allowed && got.Reason == "" {
			t.Errorf("%s: denial must carry a reason", tc.name)
		}
	}
}

func TestAuthorize_Errors(t *testing.T) {
	if err := Authorize(domain.Identity{}, domain.ActionList, domain.KindClient); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for anonymous actor, got %v", err)
	}

	err := Authorize(actor(domain.RoleSupport), domain.ActionCreate, domain.KindContract)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if err := Authorize(actor(domain.RoleSales), domain.ActionCreate, domain.KindContract); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
