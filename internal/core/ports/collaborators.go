package ports

import (
	"context"
	"time"

	"github.com/epicevents/crm/internal/core/domain"
)

// MutationGuard serialises mutations touching the same aggregates across
// processes. The returned release func must always be called.
type MutationGuard interface {
	Lock(ctx context.Context, keys ...string) (release func(), err error)
}

// AuditRecorder accepts audit entries for asynchronous persistence.
type AuditRecorder interface {
	Record(entry domain.AuditEntry)
}

// LoginLimiter throttles authentication attempts per username.
type LoginLimiter interface {
	Allow(ctx context.Context, username string) (bool, error)
}

// MutationObserver receives the outcome of every core operation.
type MutationObserver interface {
	ObserveMutation(kind domain.EntityKind, action domain.Action, outcome domain.Outcome, elapsed time.Duration)
}

// IdentityProvider turns request credentials into an Identity.
type IdentityProvider interface {
	Identify(ctx context.Context, token string) (domain.Identity, error)
}

// LoginObserver receives the outcome of every login attempt.
type LoginObserver interface {
	ObserveLogin(outcome domain.Outcome)
}
