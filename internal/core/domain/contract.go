package domain

import (
	"fmt"
	"time"
)

// ContractStatus is the signature state of a contract.
type ContractStatus string

const (
	ContractUnsigned ContractStatus = "unsigned"
	ContractSigned   ContractStatus = "signed"
)

// ParseContractStatus validates s. The empty string defaults to unsigned.
func ParseContractStatus(s string) (ContractStatus, error) {
	switch ContractStatus(s) {
	case "", ContractUnsigned:
		return ContractUnsigned, nil
	case ContractSigned:
		return ContractSigned, nil
	default:
		return "", fmt.Errorf("%w: unknown contract status %q", ErrInvalidInput, s)
	}
}

// Contract binds a client to an amount. ClientID never changes after creation and
// SalesContactID always mirrors the client's sales contact at write time.
type Contract struct {
	ID             string         `json:"id"`
	ClientID       string         `json:"client_id"`
	SalesContactID string         `json:"sales_contact_id"`
	Amount         float64        `json:"amount"`
	Status         ContractStatus `json:"status"`
	PaymentDue     *time.Time     `json:"payment_due,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsSigned reports whether events may be attached to the contract.
func (c *Contract) IsSigned() bool {
	return c.Status == ContractSigned
}
