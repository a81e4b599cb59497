package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// --- Users ---

type createUserRequest struct {
	Username    string     `json:"username"     validate:"required,max=150"`
	Password    string     `json:"password"     validate:"required,min=8"`
	Email       string     `json:"email"        validate:"omitempty,email"`
	FirstName   string     `json:"first_name"   validate:"max=150"`
	LastName    string     `json:"last_name"    validate:"max=150"`
	Role        string     `json:"role"         validate:"role"`
	IsSuperuser bool       `json:"is_superuser"`
	JoinDate    *time.Time `json:"join_date"`
}

type updateUserRequest struct {
	Username  *string    `json:"username"   validate:"omitempty,min=1,max=150"`
	Password  *string    `json:"password"   validate:"omitempty,min=8"`
	Email     *string    `json:"email"      validate:"omitempty,email"`
	FirstName *string    `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string    `json:"last_name"  validate:"omitempty,max=150"`
	Role      *string    `json:"role"       validate:"omitempty,role"`
	IsActive  *bool      `json:"is_active"`
	JoinDate  *time.Time `json:"join_date"`
}

// --- Clients ---

type createClientRequest struct {
	CompanyName    string  `json:"company_name"     validate:"required,max=250"`
	FirstName      string  `json:"first_name"       validate:"max=150"`
	LastName       string  `json:"last_name"        validate:"max=150"`
	Email          string  `json:"email"            validate:"omitempty,email"`
	Phone          string  `json:"phone"            validate:"max=20"`
	Mobile         string  `json:"mobile"           validate:"max=20"`
	SalesContactID *string `json:"sales_contact_id"`
}

type updateClientRequest struct {
	CompanyName  *string    `json:"company_name"     validate:"omitempty,min=1,max=250"`
	FirstName    *string    `json:"first_name"       validate:"omitempty,max=150"`
	LastName     *string    `json:"last_name"        validate:"omitempty,max=150"`
	Email        *string    `json:"email"            validate:"omitempty,email"`
	Phone        *string    `json:"phone"            validate:"omitempty,max=20"`
	Mobile       *string    `json:"mobile"           validate:"omitempty,max=20"`
	SalesContact optionalID `json:"sales_contact_id" swaggertype:"string"`
}

// --- Contracts ---

type createContractRequest struct {
	ClientID       string     `json:"client_id"        validate:"required"`
	SalesContactID *string    `json:"sales_contact_id"`
	Amount         float64    `json:"amount"           validate:"gte=0"`
	Status         string     `json:"status"           validate:"omitempty,oneof=unsigned signed"`
	PaymentDue     *time.Time `json:"payment_due"`
}

type updateContractRequest struct {
	SalesContactID *string    `json:"sales_contact_id"`
	Amount         *float64   `json:"amount"      validate:"omitempty,gte=0"`
	Status         *string    `json:"status"      validate:"omitempty,oneof=unsigned signed"`
	PaymentDue     *time.Time `json:"payment_due"`
}

// --- Events ---

type createEventRequest struct {
	ClientID         string    `json:"client_id"          validate:"required"`
	ContractID       string    `json:"contract_id"        validate:"required"`
	SupportContactID *string   `json:"support_contact_id"`
	EventDate        time.Time `json:"event_date"         validate:"required"`
	Attendees        int       `json:"attendees"          validate:"gte=0"`
	Notes            string    `json:"notes"`
}

type updateEventRequest struct {
	SupportContact optionalID `json:"support_contact_id" swaggertype:"string"`
	EventDate      *time.Time `json:"event_date"`
	Attendees      *int       `json:"attendees"          validate:"omitempty,gte=0"`
	Notes          *string    `json:"notes"`
}
