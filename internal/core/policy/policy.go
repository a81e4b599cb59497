// Package policy is the coarse role gate evaluated before any entity is loaded.
// Instance-level checks (assigned contacts) live in the lifecycle package.
package policy

import (
	"fmt"

	"github.com/epicevents/crm/internal/core/domain"
)

// Decision is the result of evaluating the rule table.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err converts a denial into an error: ErrUnauthenticated for anonymous
// callers, ErrForbidden otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == reasonAnonymous {
		return domain.ErrUnauthenticated
	}
	return fmt.Errorf("%w: %s", domain.ErrForbidden, d.Reason)
}

const reasonAnonymous = "not authenticated"

type rule struct {
	kind    domain.EntityKind // empty matches every kind
	actions []domain.Action   // nil matches every action
	anyone  bool              // any authenticated identity
	roles   []domain.Role
	reason  string
}

func (r rule) matches(action domain.Action, kind domain.EntityKind) bool {
	if r.kind != "" && r.kind != kind {
		return false
	}
	if r.actions == nil {
		return true
	}
	for _, a := range r.actions {
		if a == action {
			return true
		}
	}
	return false
}

func (r rule) admits(role domain.Role) bool {
	if r.anyone {
		return true
	}
	for _, allowed := range r.roles {
		if allowed == role {
			return true
		}
	}
	return false
}

var (
	reads    = []domain.Action{domain.ActionList, domain.ActionRetrieve}
	creates  = []domain.Action{domain.ActionCreate}
	updates  = []domain.Action{domain.ActionUpdate}
	deletes  = []domain.Action{domain.ActionDelete}
	creators = []domain.Role{domain.RoleSales, domain.RoleManager}
)

// rules is evaluated top to bottom; the first match decides.
var rules = []rule{
	{kind: domain.KindUser, roles: []domain.Role{domain.RoleManager}, reason: "user management requires the manager role"},

	{kind: domain.KindClient, actions: reads, anyone: true},
	{kind: domain.KindClient, actions: creates, roles: creators, reason: "only sales or managers create clients"},
	{kind: domain.KindClient, actions: updates, roles: creators, reason: "only sales or managers update clients"},

	{kind: domain.KindContract, actions: reads, anyone: true},
	{kind: domain.KindContract, actions: creates, roles: creators, reason: "only sales or managers create contracts"},
	{kind: domain.KindContract, actions: updates, roles: creators, reason: "only sales or managers update contracts"},

	{kind: domain.KindEvent, actions: reads, anyone: true},
	{kind: domain.KindEvent, actions: creates, roles: creators, reason: "only sales or managers create events"},
	{kind: domain.KindEvent, actions: updates, roles: []domain.Role{domain.RoleSales, domain.RoleManager, domain.RoleSupport}, reason: "role may not update events"},

	{actions: deletes, reason: "delete requires a superuser"},
}

// Decide evaluates the rule table for the actor. Superusers are always allowed.
func Decide(actor domain.Identity, action domain.Action, kind domain.EntityKind) Decision {
	if !actor.Authenticated() {
		return Decision{Reason: reasonAnonymous}
	}
	if actor.IsSuperuser {
		return Decision{Allowed: true}
	}
	for _, r := range rules {
		if !r.matches(action, kind) {
			continue
		}
		if r.admits(actor.Role) {
			return Decision{Allowed: true}
		}
		return Decision{Reason: r.reason}
	}
	return Decision{Reason: fmt.Sprintf("no rule for %s %s", action, kind)}
}

// Authorize is Decide(...).Err().
func Authorize(actor domain.Identity, action domain.Action, kind domain.EntityKind) error {
	return Decide(actor, action, kind).Err()
}
