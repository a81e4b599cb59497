package domain

import (
	"errors"
)

// Error taxonomy shared by the core, the stores and the transport layer.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrRejected           = errors.New("rejected")
	ErrConflict           = errors.New("conflict")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("too many attempts")
)

// Rejection is a business-rule refusal. Every Rejection matches ErrRejected.
type Rejection struct {
	Reason  string
	message string
}

func (r *Rejection) Error() string { return r.message }

// Is makes errors.Is(err, ErrRejected) hold for every rejection.
func (r *Rejection) Is(target error) bool { return target == ErrRejected }

func newRejection(reason, message string) *Rejection {
	return &Rejection{Reason: reason, message: message}
}

var (
	ErrSalesContactMismatch = newRejection("sales_contact_mismatch", "sales contact does not match the client's sales contact")
	ErrNotSalesRole         = newRejection("not_sales_role", "sales contact must belong to the sales role")
	ErrNotSupportRole       = newRejection("not_support_role", "support contact must belong to the support role")
	ErrContractNotSigned    = newRejection("contract_not_signed", "contract is not signed")
	ErrContractAlreadyUsed  = newRejection("contract_already_used", "contract already has an event")
	ErrClientMismatch       = newRejection("client_mismatch", "contract does not belong to the client")
)

// RejectionReason returns the machine-readable reason carried by err, or "".
func RejectionReason(err error) string {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason
	}
	return ""
}

// Outcome is the tagged result of a core operation as seen by callers.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeUnauthenticated Outcome = "unauthenticated"
	OutcomeForbidden       Outcome = "forbidden"
	OutcomeNotFound        Outcome = "not_found"
	OutcomeRejected        Outcome = "rejected"
	OutcomeConflict        Outcome = "conflict"
	OutcomeInvalid         Outcome = "invalid"
	OutcomeRateLimited     Outcome = "rate_limited"
	OutcomeUnavailable     Outcome = "unavailable"
	OutcomeInternal        Outcome = "internal"
)

// OutcomeOf classifies err. A nil error is a success.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrRejected):
		return OutcomeRejected
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		return OutcomeUnauthenticated
	case errors.Is(err, ErrForbidden):
		return OutcomeForbidden
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrConflict):
		return OutcomeConflict
	case errors.Is(err, ErrInvalidInput):
		return OutcomeInvalid
	case errors.Is(err, ErrRateLimited):
		return OutcomeRateLimited
	case errors.Is(err, ErrStoreUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeInternal
	}
}
