package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/orgkeys/orgkeys/internal/keys"
	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/store"
)

func (s *Server) getComponents(c echo.Context) error {
	org, err := s.organizationFromPath(c)
	if err != nil {
		return err
	}

	opts := store.ListComponentsOptions{
		ProviderType: c.QueryParam("type"),
	}

	if rawParent := c.QueryParam("parent"); rawParent != "" {
		parentID, err := uuid.Parse(rawParent)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid parent id")
		}
		opts.ParentID = parentID
	} else if opts.ProviderType != "" {
		// A type filter without an explicit parent scopes to top-level
		// components, the ones parented by the organization itself.
		opts.ParentID = org.ID
	}

	components, err := s.components.List(c.Request().Context(), org, opts)
	if err != nil {
		return httpError(err)
	}

	name := c.QueryParam("name")
	reps := make([]ComponentRepresentation, 0, len(components))
	for _, component := range components {
		if name != "" && name != component.Name {
			continue
		}
		reps = append(reps, s.toComponentRep(component))
	}

	return c.JSON(http.StatusOK, reps)
}

func (s *Server) createComponent(c echo.Context) error {
	org, err := s.organizationFromPath(c)
	if err != nil {
		return err
	}

	var rep ComponentRepresentation
	if err := c.Bind(&rep); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	component, err := s.toComponentModel(&rep, org.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid component id")
	}
	if component.ParentID == uuid.Nil {
		component.ParentID = org.ID
	}

	// Key-provider components created with only tuning options get
	// their material generated here, before validation sees the config.
	if err := keys.EnsureMaterial(s.providers, org, component); err != nil {
		return httpError(err)
	}

	component, err = s.components.Create(c.Request().Context(), org, component)
	if err != nil {
		return httpError(err)
	}

	c.Response().Header().Set(echo.HeaderLocation, c.Request().URL.Path+"/"+component.ID.String())
	return c.JSON(http.StatusCreated, s.toComponentRep(component))
}

func (s *Server) getComponent(c echo.Context) error {
	org, err := s.organizationFromPath(c)
	if err != nil {
		return err
	}

	componentID, err := uuid.Parse(c.Param("componentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid component id")
	}

	component, err := s.components.Get(c.Request().Context(), org, componentID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, s.toComponentRep(component))
}

func (s *Server) updateComponent(c echo.Context) error {
	org, err := s.organizationFromPath(c)
	if err != nil {
		return err
	}

	componentID, err := uuid.Parse(c.Param("componentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid component id")
	}

	ctx := c.Request().Context()
	existing, err := s.components.Get(ctx, org, componentID)
	if err != nil {
		return httpError(err)
	}

	var rep ComponentRepresentation
	if err := c.Bind(&rep); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	// Full replace of mutable fields. Provider identity is immutable;
	// redacted secret values fall back to the stored material.
	updated, err := s.toComponentModel(&rep, org.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid component id")
	}

	updated.ID = existing.ID
	updated.ProviderID = existing.ProviderID
	updated.ProviderType = existing.ProviderType
	if updated.Name == "" {
		updated.Name = existing.Name
	}
	if updated.ParentID == uuid.Nil {
		updated.ParentID = existing.ParentID
	}
	restoreSecrets(s, existing, updated)

	if err := s.components.Update(ctx, org, updated); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteComponent(c echo.Context) error {
	org, err := s.organizationFromPath(c)
	if err != nil {
		return err
	}

	componentID, err := uuid.Parse(c.Param("componentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid component id")
	}

	ctx := c.Request().Context()
	if _, err := s.components.Get(ctx, org, componentID); err != nil {
		return httpError(err)
	}

	if err := s.components.Delete(ctx, org, componentID); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// restoreSecrets copies stored secret options into the updated config
// when the caller omitted them or sent the redaction marker back. The
// API never returns secret material, so round-tripped updates arrive
// without it; dropping the stored material on such updates would brick
// the key.
func restoreSecrets(s *Server, existing, updated *models.Component) {
	def := s.schemas.Lookup(existing.ProviderType, existing.ProviderID)
	if def == nil {
		return
	}

	for i := range def.Schema {
		opt := &def.Schema[i]
		if !opt.Secret {
			continue
		}
		if _, present := updated.Config[opt.Name]; present {
			continue
		}
		if values, ok := existing.Config[opt.Name]; ok {
			updated.Config[opt.Name] = append([]string(nil), values...)
		}
	}
}
