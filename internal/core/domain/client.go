package domain

import "time"

// Client is a customer company followed by a sales contact.
type Client struct {
	ID             string    `json:"id"`
	CompanyName    string    `json:"company_name"`
	FirstName      string    `json:"first_name,omitempty"`
	LastName       string    `json:"last_name,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Mobile         string    `json:"mobile,omitempty"`
	SalesContactID *string   `json:"sales_contact_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
