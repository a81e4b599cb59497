package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/policy"
)

// Gate refuses requests the permission table denies before any payload is
// bound. The services evaluate the same table again; the gate only saves the
// round trip for requests that can never succeed.
func Gate(action domain.Action, kind domain.EntityKind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := policy.Authorize(IdentityFrom(c), action, kind); err != nil {
				return err
			}
			return next(c)
		}
	}
}
