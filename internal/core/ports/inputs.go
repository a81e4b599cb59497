package ports

import (
	"time"

	"github.com/epicevents/crm/internal/core/domain"
)

// OptionalRef distinguishes "field absent" from "field set to null" in patches.
// Set with an empty ID clears the reference.
type OptionalRef struct {
	Set bool
	ID  string
}

// SetRef returns an OptionalRef assigning id.
func SetRef(id string) OptionalRef { return OptionalRef{Set: true, ID: id} }

// ClearRef returns an OptionalRef clearing the reference.
func ClearRef() OptionalRef { return OptionalRef{Set: true} }

// Clears reports whether the patch removes the reference.
func (o OptionalRef) Clears() bool { return o.Set && o.ID == "" }

// Ptr returns the new reference value, nil when cleared.
func (o OptionalRef) Ptr() *string {
	if o.ID == "" {
		return nil
	}
	id := o.ID
	return &id
}

// CreateUserInput carries a new staff account.
type CreateUserInput struct {
	Username    string
	Password    string
	Email       string
	FirstName   string
	LastName    string
	Role        domain.Role
	IsSuperuser bool
	JoinDate    *time.Time
}

// UpdateUserInput patches a staff account. Nil fields are left unchanged.
type UpdateUserInput struct {
	Username  *string
	Password  *string
	Email     *string
	FirstName *string
	LastName  *string
	Role      *domain.Role
	IsActive  *bool
	JoinDate  *time.Time
}

// CreateClientInput carries a new client. SalesContactID nil leaves the client unassigned.
type CreateClientInput struct {
	CompanyName    string
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Mobile         string
	SalesContactID *string
}

// UpdateClientInput patches a client.
type UpdateClientInput struct {
	CompanyName  *string
	FirstName    *string
	LastName     *string
	Email        *string
	Phone        *string
	Mobile       *string
	SalesContact OptionalRef
}

// CreateContractInput carries a new contract. A nil SalesContactID inherits
// the client's sales contact.
type CreateContractInput struct {
	ClientID       string
	SalesContactID *string
	Amount         float64
	Status         domain.ContractStatus
	PaymentDue     *time.Time
}

// UpdateContractInput patches a contract. The client is immutable.
type UpdateContractInput struct {
	SalesContactID *string
	Amount         *float64
	Status         *domain.ContractStatus
	PaymentDue     *time.Time
}

// CreateEventInput carries a new event.
type CreateEventInput struct {
	ClientID         string
	ContractID       string
	SupportContactID *string
	EventDate        time.Time
	Attendees        int
	Notes            string
}

// UpdateEventInput patches an event. Client and contract are immutable.
type UpdateEventInput struct {
	SupportContact OptionalRef
	EventDate      *time.Time
	Attendees      *int
	Notes          *string
}

// ClientQuery selects the derived client listings.
type ClientQuery struct {
	Unassigned            bool
	WithoutSignedContract bool
}

// ContractQuery selects contract listings.
type ContractQuery struct {
	ClientID string
	Status   domain.ContractStatus
}

// EventQuery selects the derived event listings.
type EventQuery struct {
	Unassigned bool
	Mine       bool // support_contact == actor
	Upcoming   bool // event_date >= now
}
