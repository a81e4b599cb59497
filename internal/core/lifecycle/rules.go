// Package lifecycle holds the instance-level business rules of the CRM: assigned
// contact checks and the invariants tying clients, contracts and events together.
//
// Rules never write. Each function resolves what it needs through a Lookup and
// returns the entity the caller should persist, or an error from the domain
// taxonomy. Resolution failures are reported before checks that depend on the
// resolved entity.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

// Rules evaluates lifecycle invariants against a Lookup.
type Rules struct {
	lookup Lookup
}

// New returns Rules reading through lookup.
func New(lookup Lookup) *Rules {
	return &Rules{lookup: lookup}
}

// ClientChange is the validated result of a client update.
type ClientChange struct {
	Client *domain.Client
	// Reassigned is true when a new sales contact was assigned and the
	// client's contracts must follow it.
	Reassigned bool
}

// CreateClient validates a new client. An absent sales contact leaves the client unassigned.
func (r *Rules) CreateClient(ctx context.Context, actor domain.Identity, in ports.CreateClientInput) (*domain.Client, error) {
	name := strings.TrimSpace(in.CompanyName)
	if name == "" {
		return nil, fmt.Errorf("%w: company_name is required", domain.ErrInvalidInput)
	}

	client := &domain.Client{
		CompanyName: name,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		Phone:       in.Phone,
		Mobile:      in.Mobile,
	}
	if in.SalesContactID != nil && *in.SalesContactID != "" {
		if err := r.requireRole(ctx, *in.SalesContactID, domain.RoleSales, domain.ErrNotSalesRole); err != nil {
			return nil, err
		}
		client.SalesContactID = cloneRef(in.SalesContactID)
	}
	return client, nil
}

// UpdateClient validates a patch against the stored client.
func (r *Rules) UpdateClient(ctx context.Context, actor domain.Identity, existing *domain.Client, in ports.UpdateClientInput) (*ClientChange, error) {
	if !actor.Privileged() && !actor.Is(existing.SalesContactID) {
		return nil, fmt.Errorf("%w: only the assigned sales contact or a manager may update this client", domain.ErrForbidden)
	}

	next := *existing
	next.SalesContactID = cloneRef(existing.SalesContactID)
	if in.CompanyName != nil {
		name := strings.TrimSpace(*in.CompanyName)
		if name == "" {
			return nil, fmt.Errorf("%w: company_name must not be empty", domain.ErrInvalidInput)
		}
		next.CompanyName = name
	}
	assignString(&next.FirstName, in.FirstName)
	assignString(&next.LastName, in.LastName)
	assignString(&next.Email, in.Email)
	assignString(&next.Phone, in.Phone)
	assignString(&next.Mobile, in.Mobile)

	change := &ClientChange{Client: &next}
	switch {
	case !in.SalesContact.Set:
	case in.SalesContact.Clears():
		next.SalesContactID = nil
	default:
		if err := r.requireRole(ctx, in.SalesContact.ID, domain.RoleSales, domain.ErrNotSalesRole); err != nil {
			return nil, err
		}
		next.SalesContactID = in.SalesContact.Ptr()
		change.Reassigned = true
	}
	return change, nil
}

// CreateContract validates a new contract. The saved sales contact is always the
// client's current one; a differing payload value is rejected, never stored.
func (r *Rules) CreateContract(ctx context.Context, actor domain.Identity, in ports.CreateContractInput) (*domain.Contract, error) {
	if in.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", domain.ErrInvalidInput)
	}
	status := in.Status
	if status == "" {
		status = domain.ContractUnsigned
	}
	if _, err := domain.ParseContractStatus(string(status)); err != nil {
		return nil, err
	}

	client, err := r.lookup.Client(ctx, in.ClientID)
	if err != nil {
		return nil, fmt.Errorf("resolve client: %w", err)
	}
	salesContact, err := r.currentSalesContact(ctx, client, in.SalesContactID)
	if err != nil {
		return nil, err
	}
	if !actor.Privileged() && actor.UserID != salesContact {
		return nil, fmt.Errorf("%w: only the client's sales contact or a manager may create its contracts", domain.ErrForbidden)
	}

	return &domain.Contract{
		ClientID:       client.ID,
		SalesContactID: salesContact,
		Amount:         in.Amount,
		Status:         status,
		PaymentDue:     in.PaymentDue,
	}, nil
}

// UpdateContract re-resolves the client so the check runs against its current
// sales contact rather than the value stored on the contract.
func (r *Rules) UpdateContract(ctx context.Context, actor domain.Identity, existing *domain.Contract, in ports.UpdateContractInput) (*domain.Contract, error) {
	client, err := r.lookup.Client(ctx, existing.ClientID)
	if err != nil {
		return nil, fmt.Errorf("resolve client: %w", err)
	}
	if !actor.Privileged() && !actor.Is(client.SalesContactID) {
		return nil, fmt.Errorf("%w: only the client's sales contact or a manager may update its contracts", domain.ErrForbidden)
	}
	salesContact, err := r.currentSalesContact(ctx, client, in.SalesContactID)
	if err != nil {
		return nil, err
	}

	next := *existing
	next.SalesContactID = salesContact
	if in.Amount != nil {
		if *in.Amount < 0 {
			return nil, fmt.Errorf("%w: amount must not be negative", domain.ErrInvalidInput)
		}
		next.Amount = *in.Amount
	}
	if in.Status != nil {
		status, err := domain.ParseContractStatus(string(*in.Status))
		if err != nil {
			return nil, err
		}
		next.Status = status
	}
	if in.PaymentDue != nil {
		due := *in.PaymentDue
		next.PaymentDue = &due
	}
	return &next, nil
}

// CreateEvent validates a new event against its client and contract.
func (r *Rules) CreateEvent(ctx context.Context, actor domain.Identity, in ports.CreateEventInput) (*domain.Event, error) {
	if in.Attendees < 0 {
		return nil, fmt.Errorf("%w: attendees must not be negative", domain.ErrInvalidInput)
	}
	client, err := r.lookup.Client(ctx, in.ClientID)
	if err != nil {
		return nil, fmt.Errorf("resolve client: %w", err)
	}
	contract, err := r.lookup.Contract(ctx, in.ContractID)
	if err != nil {
		return nil, fmt.Errorf("resolve contract: %w", err)
	}

	switch _, err := r.lookup.EventByContract(ctx, contract.ID); {
	case err == nil:
		return nil, domain.ErrContractAlreadyUsed
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("resolve event by contract: %w", err)
	}

	if err := checkContract(client, contract); err != nil {
		return nil, err
	}

	event := &domain.Event{
		ClientID:   client.ID,
		ContractID: contract.ID,
		EventDate:  in.EventDate,
		Attendees:  in.Attendees,
		Notes:      in.Notes,
	}
	if in.SupportContactID != nil && *in.SupportContactID != "" {
		if err := r.requireRole(ctx, *in.SupportContactID, domain.RoleSupport, domain.ErrNotSupportRole); err != nil {
			return nil, err
		}
		event.SupportContactID = cloneRef(in.SupportContactID)
	}
	return event, nil
}

// UpdateEvent re-resolves client and contract from the stored event and repeats
// the create-time checks against their current state.
func (r *Rules) UpdateEvent(ctx context.Context, actor domain.Identity, existing *domain.Event, in ports.UpdateEventInput) (*domain.Event, error) {
	client, err := r.lookup.Client(ctx, existing.ClientID)
	if err != nil {
		return nil, fmt.Errorf("resolve client: %w", err)
	}
	contract, err := r.lookup.Contract(ctx, existing.ContractID)
	if err != nil {
		return nil, fmt.Errorf("resolve contract: %w", err)
	}

	if !actor.Privileged() && !actor.Is(client.SalesContactID) && !actor.Is(existing.SupportContactID) {
		return nil, fmt.Errorf("%w: only a manager, the client's sales contact or the event's support contact may update this event", domain.ErrForbidden)
	}
	if err := checkContract(client, contract); err != nil {
		return nil, err
	}

	next := *existing
	next.SupportContactID = cloneRef(existing.SupportContactID)
	switch {
	case !in.SupportContact.Set:
	case in.SupportContact.Clears():
		next.SupportContactID = nil
	default:
		if err := r.requireRole(ctx, in.SupportContact.ID, domain.RoleSupport, domain.ErrNotSupportRole); err != nil {
			return nil, err
		}
		next.SupportContactID = in.SupportContact.Ptr()
	}
	if in.EventDate != nil {
		next.EventDate = *in.EventDate
	}
	if in.Attendees != nil {
		if *in.Attendees < 0 {
			return nil, fmt.Errorf("%w: attendees must not be negative", domain.ErrInvalidInput)
		}
		next.Attendees = *in.Attendees
	}
	assignString(&next.Notes, in.Notes)
	return &next, nil
}

// CreateUser validates a new account. The password is hashed by the caller.
func (r *Rules) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, in.Role)
	}
	if err := r.usernameAvailable(ctx, username, ""); err != nil {
		return nil, err
	}
	return &domain.User{
		Username:    username,
		Email:       in.Email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Role:        in.Role,
		IsSuperuser: in.IsSuperuser,
		IsActive:    true,
		JoinDate:    in.JoinDate,
	}, nil
}

// UpdateUser validates a patch. Password changes are applied by the caller.
func (r *Rules) UpdateUser(ctx context.Context, existing *domain.User, in ports.UpdateUserInput) (*domain.User, error) {
	next := *existing
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username must not be empty", domain.ErrInvalidInput)
		}
		if username != existing.Username {
			if err := r.usernameAvailable(ctx, username, existing.ID); err != nil {
				return nil, err
			}
		}
		next.Username = username
	}
	if in.Password != nil && *in.Password == "" {
		return nil, fmt.Errorf("%w: password must not be empty", domain.ErrInvalidInput)
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, *in.Role)
		}
		next.Role = *in.Role
	}
	assignString(&next.Email, in.Email)
	assignString(&next.FirstName, in.FirstName)
	assignString(&next.LastName, in.LastName)
	if in.IsActive != nil {
		next.IsActive = *in.IsActive
	}
	if in.JoinDate != nil {
		join := *in.JoinDate
		next.JoinDate = &join
	}
	return &next, nil
}

// currentSalesContact returns the client's sales contact after checking that it
// still resolves and that the declared value, if any, matches it.
func (r *Rules) currentSalesContact(ctx context.Context, client *domain.Client, declared *string) (string, error) {
	if client.SalesContactID == nil || *client.SalesContactID == "" {
		return "", domain.ErrSalesContactMismatch
	}
	current := *client.SalesContactID
	if _, err := r.lookup.User(ctx, current); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrSalesContactMismatch
		}
		return "", fmt.Errorf("resolve sales contact: %w", err)
	}
	if declared != nil && *declared != current {
		return "", domain.ErrSalesContactMismatch
	}
	return current, nil
}

// requireRole resolves userID and rejects with rejection unless it holds role.
// A missing user fails the role check.
func (r *Rules) requireRole(ctx context.Context, userID string, role domain.Role, rejection error) error {
	user, err := r.lookup.User(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return rejection
	}
	if err != nil {
		return fmt.Errorf("resolve contact: %w", err)
	}
	if user.Role != role {
		return rejection
	}
	return nil
}

func (r *Rules) usernameAvailable(ctx context.Context, username, selfID string) error {
	other, err := r.lookup.UserByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("resolve username: %w", err)
	case other.ID == selfID:
		return nil
	default:
		return fmt.Errorf("%w: username %q is taken", domain.ErrConflict, username)
	}
}

func checkContract(client *domain.Client, contract *domain.Contract) error {
	if contract.ClientID != client.ID {
		return domain.ErrClientMismatch
	}
	if !contract.IsSigned() {
		return domain.ErrContractNotSigned
	}
	return nil
}

func assignString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func cloneRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	v := *ref
	return &v
}
