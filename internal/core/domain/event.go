package domain

import "time"

// Event is the engagement delivered for a signed contract. At most one event
// exists per contract.
type Event struct {
	ID               string    `json:"id"`
	ClientID         string    `json:"client_id"`
	ContractID       string    `json:"contract_id"`
	SupportContactID *string   `json:"support_contact_id"`
	EventDate        time.Time `json:"event_date"`
	Attendees        int       `json:"attendees"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AuditEntry records a successful mutation.
type AuditEntry struct {
	ID       string     `json:"id"`
	Kind     EntityKind `json:"kind"`
	EntityID string     `json:"entity_id"`
	Action   Action     `json:"action"`
	ActorID  string     `json:"actor_id"`
	At       time.Time  `json:"at"`
}
