package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/epicevents/crm/internal/core/domain"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email,omitempty"`
	FirstName    string             `bson:"first_name,omitempty"`
	LastName     string             `bson:"last_name,omitempty"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	IsSuperuser  bool               `bson:"is_superuser"`
	IsActive     bool               `bson:"is_active"`
	JoinDate     *time.Time         `bson:"join_date,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func newUserDoc(u *domain.User) userDoc {
	return userDoc{
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		IsSuperuser:  u.IsSuperuser,
		IsActive:     u.IsActive,
		JoinDate:     u.JoinDate,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		IsSuperuser:  d.IsSuperuser,
		IsActive:     d.IsActive,
		JoinDate:     d.JoinDate,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// clientDoc keeps sales_contact_id as a hex string; null means unassigned.
type clientDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	CompanyName    string             `bson:"company_name"`
	FirstName      string             `bson:"first_name,omitempty"`
	LastName       string             `bson:"last_name,omitempty"`
	Email          string             `bson:"email,omitempty"`
	Phone          string             `bson:"phone,omitempty"`
	Mobile         string             `bson:"mobile,omitempty"`
	SalesContactID *string            `bson:"sales_contact_id"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func newClientDoc(c *domain.Client) clientDoc {
	return clientDoc{
		CompanyName:    c.CompanyName,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Email:          c.Email,
		Phone:          c.Phone,
		Mobile:         c.Mobile,
		SalesContactID: c.SalesContactID,
		CreatedAt:      c.CreatedAt.UTC(),
		UpdatedAt:      c.UpdatedAt.UTC(),
	}
}

func (d *clientDoc) toDomain() *domain.Client {
	return &domain.Client{
		ID:             d.ID.Hex(),
		CompanyName:    d.CompanyName,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Email:          d.Email,
		Phone:          d.Phone,
		Mobile:         d.Mobile,
		SalesContactID: d.SalesContactID,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

type contractDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	ClientID       string             `bson:"client_id"`
	SalesContactID string             `bson:"sales_contact_id"`
	Amount         float64            `bson:"amount"`
	Status         string             `bson:"status"`
	PaymentDue     *time.Time         `bson:"payment_due,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func newContractDoc(c *domain.Contract) contractDoc {
	return contractDoc{
		ClientID:       c.ClientID,
		SalesContactID: c.SalesContactID,
		Amount:         c.Amount,
		Status:         string(c.Status),
		PaymentDue:     c.PaymentDue,
		CreatedAt:      c.CreatedAt.UTC(),
		UpdatedAt:      c.UpdatedAt.UTC(),
	}
}

func (d *contractDoc) toDomain() *domain.Contract {
	return &domain.Contract{
		ID:             d.ID.Hex(),
		ClientID:       d.ClientID,
		SalesContactID: d.SalesContactID,
		Amount:         d.Amount,
		Status:         domain.ContractStatus(d.Status),
		PaymentDue:     d.PaymentDue,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

type eventDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	ClientID         string             `bson:"client_id"`
	ContractID       string             `bson:"contract_id"`
	SupportContactID *string            `bson:"support_contact_id"`
	EventDate        time.Time          `bson:"event_date"`
	Attendees        int                `bson:"attendees"`
	Notes            string             `bson:"notes,omitempty"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func newEventDoc(e *domain.Event) eventDoc {
	return eventDoc{
		ClientID:         e.ClientID,
		ContractID:       e.ContractID,
		SupportContactID: e.SupportContactID,
		EventDate:        e.EventDate.UTC(),
		Attendees:        e.Attendees,
		Notes:            e.Notes,
		CreatedAt:        e.CreatedAt.UTC(),
		UpdatedAt:        e.UpdatedAt.UTC(),
	}
}

func (d *eventDoc) toDomain() *domain.Event {
	return &domain.Event{
		ID:               d.ID.Hex(),
		ClientID:         d.ClientID,
		ContractID:       d.ContractID,
		SupportContactID: d.SupportContactID,
		EventDate:        d.EventDate.UTC(),
		Attendees:        d.Attendees,
		Notes:            d.Notes,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
}

type auditDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Kind     string             `bson:"kind"`
	EntityID string             `bson:"entity_id"`
	Action   string             `bson:"action"`
	ActorID  string             `bson:"actor_id"`
	At       time.Time          `bson:"at"`
}
