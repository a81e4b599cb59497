package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/epicevents/crm/internal/infrastructure/http/handlers"
)

func TestRegisterOps_Routes(t *testing.T) {
	e := echo.New()
	RegisterOps(e, map[string]handlers.PingFunc{
		"store": func(context.Context) error { return nil },
	})

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestServer_ShutdownStopsStart(t *testing.T) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	srv := NewServer(e, "0", zerolog.New(io.Discard))

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	// Shutdown may run before Serve; poll until Start returns.
	deadline := time.After(5 * time.Second)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = srv.Shutdown(ctx)
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("expected clean stop, got %v", err)
			}
			return
		case <-deadline:
			t.Fatalf("server did not stop")
		case <-time.After(50 * time.Millisecond):
		}
	}
}
