package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/epicevents/crm/internal/api/handler"
	"github.com/epicevents/crm/internal/api/middleware"
	"github.com/epicevents/crm/internal/core/domain"
	"github.com/epicevents/crm/internal/core/ports"
	infrahttp "github.com/epicevents/crm/internal/infrastructure/http"
	"github.com/epicevents/crm/internal/infrastructure/http/handlers"
)

// Services bundles the core use-cases exposed over HTTP.
type Services struct {
	Auth      ports.AuthService
	Users     ports.UserService
	Clients   ports.ClientService
	Contracts ports.ContractService
	Events    ports.EventService
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, probes map[string]handlers.PingFunc, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(middleware.Metrics())

	// --- Probes, metrics and docs (no auth required) ---
	infrahttp.RegisterOps(e, probes)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(svc.Auth)
	authMiddleware := middleware.Auth(svc.Auth)

	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh, authMiddleware)
	e.GET("/auth/me", authHandler.Me, authMiddleware)

	// --- Entity groups ---
	users := handler.NewUserHandler(svc.Users)
	g := e.Group("/users", authMiddleware)
	g.GET("", users.List, middleware.Gate(domain.ActionList, domain.KindUser))
	g.POST("", users.Create, middleware.Gate(domain.ActionCreate, domain.KindUser))
	g.GET("/:id", users.Get, middleware.Gate(domain.ActionRetrieve, domain.KindUser))
	g.PUT("/:id", users.Update, middleware.Gate(domain.ActionUpdate, domain.KindUser))
	g.DELETE("/:id", users.Delete, middleware.Gate(domain.ActionDelete, domain.KindUser))

	clients := handler.NewClientHandler(svc.Clients)
	g = e.Group("/clients", authMiddleware)
	g.GET("", clients.List, middleware.Gate(domain.ActionList, domain.KindClient))
	g.POST("", clients.Create, middleware.Gate(domain.ActionCreate, domain.KindClient))
	g.GET("/:id", clients.Get, middleware.Gate(domain.ActionRetrieve, domain.KindClient))
	g.PUT("/:id", clients.Update, middleware.Gate(domain.ActionUpdate, domain.KindClient))
	g.DELETE("/:id", clients.Delete, middleware.Gate(domain.ActionDelete, domain.KindClient))
	g.GET("/:id/contracts", clients.Contracts, middleware.Gate(domain.ActionList, domain.KindContract))
	g.GET("/:id/sales-contact", clients.SalesContact, middleware.Gate(domain.ActionRetrieve, domain.KindClient))

	contracts := handler.NewContractHandler(svc.Contracts)
	g = e.Group("/contracts", authMiddleware)
	g.GET("", contracts.List, middleware.Gate(domain.ActionList, domain.KindContract))
	g.POST("", contracts.Create, middleware.Gate(domain.ActionCreate, domain.KindContract))
	g.GET("/:id", contracts.Get, middleware.Gate(domain.ActionRetrieve, domain.KindContract))
	g.PUT("/:id", contracts.Update, middleware.Gate(domain.ActionUpdate, domain.KindContract))
	g.DELETE("/:id", contracts.Delete, middleware.Gate(domain.ActionDelete, domain.KindContract))

	events := handler.NewEventHandler(svc.Events)
	g = e.Group("/events", authMiddleware)
	g.GET("", events.List, middleware.Gate(domain.ActionList, domain.KindEvent))
	g.POST("", events.Create, middleware.Gate(domain.ActionCreate, domain.KindEvent))
	g.GET("/:id", events.Get, middleware.Gate(domain.ActionRetrieve, domain.KindEvent))
	g.PUT("/:id", events.Update, middleware.Gate(domain.ActionUpdate, domain.KindEvent))
	g.DELETE("/:id", events.Delete, middleware.Gate(domain.ActionDelete, domain.KindEvent))

	return e
}
