package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/epicevents/crm/internal/api/middleware"
	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
)

// actor returns the identity resolved by the Auth middleware. The services
// refuse an anonymous identity themselves, so no check happens here.
func actor(c echo.Context) domain.Identity {
	return middleware.IdentityFrom(c)
}

// bindAndValidate decodes the request into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}

// optionalID tells an absent reference apart from an explicit null.
//
//	{}                       -> Set=false
//	{"sales_contact_id":null} -> Set=true, ID=""
//	{"sales_contact_id":"u1"} -> Set=true, ID="u1"
type optionalID struct {
	Set bool
	ID  *string
}

func (o *optionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	return json.Unmarshal(b, &o.ID)
}

func (o optionalID) ref() ports.OptionalRef {
	if !o.Set {
		return ports.OptionalRef{}
	}
	if o.ID == nil {
		return ports.ClearRef()
	}
	return ports.SetRef(*o.ID)
}
