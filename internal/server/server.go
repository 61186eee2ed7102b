// Package server exposes the organization, component and key APIs over
// HTTP. It maps the core error taxonomy onto transport status codes and
// keeps all business rules in the registry, store and keys packages.
package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	internalhttp "github.com/orgkeys/orgkeys/internal/http"
	"github.com/orgkeys/orgkeys/internal/keys"
	"github.com/orgkeys/orgkeys/internal/provider"
	"github.com/orgkeys/orgkeys/internal/registry"
	"github.com/orgkeys/orgkeys/internal/store"
	"github.com/orgkeys/orgkeys/internal/telemetry"
)

// Server wires the HTTP routes to the core services.
type Server struct {
	registry   *registry.Registry
	components store.ComponentStore
	keys       *keys.Manager
	providers  map[string]keys.Provider
	schemas    *provider.Registry
}

// New creates a Server.
func New(reg *registry.Registry, components store.ComponentStore, keyManager *keys.Manager, providers map[string]keys.Provider, schemas *provider.Registry) *Server {
	return &Server{
		registry:   reg,
		components: components,
		keys:       keyManager,
		providers:  providers,
		schemas:    schemas,
	}
}

// Register mounts all routes on the echo instance.
func (s *Server) Register(e *echo.Echo, metrics *telemetry.HTTPMetrics) {
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(internalhttp.RequestID())
	e.Use(internalhttp.RequestLogger())
	if metrics != nil {
		e.Use(metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(telemetry.Handler()))
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	orgs := e.Group("/organizations")
	orgs.POST("", s.createOrganization)
	orgs.GET("", s.listOrganizations)
	orgs.GET("/search", s.searchOrganizations)
	orgs.GET("/all", s.getAllOrganizations)
	orgs.GET("/id-by-name/:organizationName", s.getOrganizationIDByName)
	orgs.GET("/:organizationId", s.getOrganization)
	orgs.PUT("/:organizationId", s.updateOrganization)
	orgs.DELETE("/:organizationId", s.deleteOrganization)

	orgs.GET("/:organizationId/keys", s.getKeyMetadata)

	orgs.GET("/:organizationId/components", s.getComponents)
	orgs.POST("/:organizationId/components", s.createComponent)
	orgs.GET("/:organizationId/components/:componentId", s.getComponent)
	orgs.PUT("/:organizationId/components/:componentId", s.updateComponent)
	orgs.DELETE("/:organizationId/components/:componentId", s.deleteComponent)
}

// httpError maps core errors to transport status codes. Validation
// messages pass through verbatim for operator diagnosis.
func httpError(err error) error {
	var verr *provider.ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Message)
	case errors.Is(err, store.ErrOrganizationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Organization not found")
	case errors.Is(err, store.ErrComponentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Could not find component")
	case errors.Is(err, store.ErrOrganizationAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, "Organization already exists")
	case errors.Is(err, registry.ErrMasterImmutable):
		return echo.NewHTTPError(http.StatusForbidden, registry.ErrMasterImmutable.Error())
	default:
		return err
	}
}
