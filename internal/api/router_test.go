package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/epicevents/crm/internal/core/service"
	"github.com/epicevents/crm/internal/infrastructure/db/memory"
	"github.com/epicevents/crm/internal/infrastructure/http/handlers"
)

type apiFixture struct {
	t *testing.T
	e *echo.Echo
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.New()
	log := zerolog.Nop()
	deps := service.Dependencies{Store: store, Logger: log}

	auth := service.NewAuthService(store.Users(), "test-secret", time.Hour, log)
	if _, err := auth.Bootstrap(context.Background(), "root", "root-password", "root@example.com"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	e := NewRouter(Services{
		Auth:      auth,
		Users:     service.NewUserService(deps),
		Clients:   service.NewClientService(deps),
		Contracts: service.NewContractService(deps),
		Events:    service.NewEventService(deps),
	}, map[string]handlers.PingFunc{"store": store.Ping}, log)

	return &apiFixture{t: t, e: e}
}

// call performs a request and decodes the JSON response into out when non-nil.
func (f *apiFixture) call(method, path, token, body string, out any) int {
	f.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			f.t.Fatalf("%s %s: invalid json %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func (f *apiFixture) login(username, password string) string {
	f.t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	body := `{"username":"` + username + `","password":"` + password + `"}`
	if code := f.call(http.MethodPost, "/auth/login", "", body, &resp); code != http.StatusOK {
		f.t.Fatalf("login %s: expected 200, got %d", username, code)
	}
	return resp.Token
}

type idOnly struct {
	ID string `json:"id"`
}

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func TestRouter_EndToEnd(t *testing.T) {
	f := newAPIFixture(t)
	root := f.login("root", "root-password")

	var sales, support idOnly
	if code := f.call(http.MethodPost, "/users", root,
		`{"username":"alice","password":"alice-password","role":"sales"}`, &sales); code != http.StatusCreated {
		t.Fatalf("create sales: expected 201, got %d", code)
	}
	if code := f.call(http.MethodPost, "/users", root,
		`{"username":"sam","password":"sam-password","role":"support"}`, &support); code != http.StatusCreated {
		t.Fatalf("create support: expected 201, got %d", code)
	}

	alice := f.login("alice", "alice-password")
	sam := f.login("sam", "sam-password")

	var client idOnly
	if code := f.call(http.MethodPost, "/clients", alice,
		`{"company_name":"Acme","sales_contact_id":"`+sales.ID+`"}`, &client); code != http.StatusCreated {
		t.Fatalf("create client: expected 201, got %d", code)
	}

	// Support staff cannot create clients.
	if code := f.call(http.MethodPost, "/clients", sam, `{"company_name":"Globex"}`, nil); code != http.StatusForbidden {
		t.Fatalf("support create client: expected 403, got %d", code)
	}

	var contract idOnly
	if code := f.call(http.MethodPost, "/contracts", alice,
		`{"client_id":"`+client.ID+`","amount":1000}`, &contract); code != http.StatusCreated {
		t.Fatalf("create contract: expected 201, got %d", code)
	}

	var rejected errorBody
	eventBody := `{"client_id":"` + client.ID + `","contract_id":"` + contract.ID +
		`","support_contact_id":"` + support.ID + `","event_date":"2031-06-04T13:00:00Z","attendees":50}`
	if code := f.call(http.MethodPost, "/events", alice, eventBody, &rejected); code != http.StatusUnprocessableEntity {
		t.Fatalf("event on unsigned contract: expected 422, got %d", code)
	}
	if rejected.Reason != "contract_not_signed" {
		t.Fatalf("expected reason contract_not_signed, got %q", rejected.Reason)
	}

	if code := f.call(http.MethodPut, "/contracts/"+contract.ID, alice, `{"status":"signed"}`, nil); code != http.StatusOK {
		t.Fatalf("sign contract: expected 200, got %d", code)
	}

	var event idOnly
	if code := f.call(http.MethodPost, "/events", alice, eventBody, &event); code != http.StatusCreated {
		t.Fatalf("create event: expected 201, got %d", code)
	}

	var used errorBody
	if code := f.call(http.MethodPost, "/events", alice, eventBody, &used); code != http.StatusUnprocessableEntity || used.Reason != "contract_already_used" {
		t.Fatalf("second event: expected 422 contract_already_used, got %d %q", code, used.Reason)
	}

	if code := f.call(http.MethodPut, "/events/"+event.ID, sam, `{"notes":"stage on the left"}`, nil); code != http.StatusOK {
		t.Fatalf("support update: expected 200, got %d", code)
	}

	var mine []idOnly
	if code := f.call(http.MethodGet, "/events?mine=true", sam, "", &mine); code != http.StatusOK || len(mine) != 1 {
		t.Fatalf("mine: expected one event, got %d %v", code, mine)
	}

	// Deleting business entities is reserved to superusers.
	if code := f.call(http.MethodDelete, "/clients/"+client.ID, alice, "", nil); code != http.StatusForbidden {
		t.Fatalf("sales delete: expected 403, got %d", code)
	}
	if code := f.call(http.MethodDelete, "/clients/"+client.ID, root, "", nil); code != http.StatusNoContent {
		t.Fatalf("root delete: expected 204, got %d", code)
	}
	if code := f.call(http.MethodGet, "/events/"+event.ID, root, "", nil); code != http.StatusNotFound {
		t.Fatalf("event after client delete: expected 404, got %d", code)
	}
}

func TestRouter_RequiresToken(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/clients", "/contracts", "/events", "/users", "/auth/me"} {
		if code := f.call(http.MethodGet, path, "", "", nil); code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, code)
		}
	}
}

func TestRouter_LoginFailure(t *testing.T) {
	f := newAPIFixture(t)

	var body errorBody
	code := f.call(http.MethodPost, "/auth/login", "", `{"username":"root","password":"wrong"}`, &body)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if body.Error != "invalid credentials" {
		t.Fatalf("unexpected message %q", body.Error)
	}
}

func TestRouter_Refresh(t *testing.T) {
	f := newAPIFixture(t)
	root := f.login("root", "root-password")

	if code := f.call(http.MethodPost, "/auth/refresh", "", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("refresh without token: expected 401, got %d", code)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if code := f.call(http.MethodPost, "/auth/refresh", root, "", &resp); code != http.StatusOK || resp.Token == "" {
		t.Fatalf("refresh: expected 200 with a token, got %d", code)
	}
	if code := f.call(http.MethodGet, "/auth/me", resp.Token, "", nil); code != http.StatusOK {
		t.Fatalf("me with refreshed token: expected 200, got %d", code)
	}
}

func TestRouter_Probes(t *testing.T) {
	f := newAPIFixture(t)

	if code := f.call(http.MethodGet, "/health/ready", "", "", nil); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}
