package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/orgkeys/orgkeys/internal/models"
)

func (s *Server) createOrganization(c echo.Context) error {
	var rep OrganizationRepresentation
	if err := c.Bind(&rep); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if rep.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	org, err := s.registry.CreateOrganization(c.Request().Context(), rep.Name, rep.Description, models.OrganizationType(rep.Type))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, toOrganizationRep(org))
}

func (s *Server) listOrganizations(c echo.Context) error {
	ctx := c.Request().Context()

	// A direct id lookup returns a singleton or empty list, matching
	// the behavior of the filter queries.
	if rawID := c.QueryParam("organizationId"); rawID != "" {
		orgID, err := uuid.Parse(rawID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid organization id")
		}
		org, err := s.registry.GetOrganization(ctx, orgID)
		if err != nil {
			return c.JSON(http.StatusOK, []OrganizationRepresentation{})
		}
		return c.JSON(http.StatusOK, []OrganizationRepresentation{toOrganizationRep(org)})
	}

	offset := intQueryParam(c, "offset", 0)
	limit := intQueryParam(c, "limit", 10)

	orgs, err := s.registry.ListOrganizations(ctx, c.QueryParam("filterText"), offset, limit)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, toOrganizationReps(orgs))
}

func (s *Server) searchOrganizations(c echo.Context) error {
	page := intQueryParam(c, "page", 0)
	pageSize := intQueryParam(c, "pageSize", 10)

	results, err := s.registry.SearchOrganizations(c.Request().Context(), c.QueryParam("filterText"), page, pageSize)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, models.SearchResults[OrganizationRepresentation]{
		TotalSize: results.TotalSize,
		Models:    toOrganizationReps(results.Models),
	})
}

func (s *Server) getAllOrganizations(c echo.Context) error {
	orgs, err := s.registry.ListOrganizations(c.Request().Context(), "", -1, -1)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, toOrganizationReps(orgs))
}

func (s *Server) getOrganizationIDByName(c echo.Context) error {
	org, err := s.registry.GetOrganizationByName(c.Request().Context(), c.Param("organizationName"))
	if err != nil {
		return httpError(err)
	}

	return c.String(http.StatusOK, org.ID.String())
}

func (s *Server) getOrganization(c echo.Context) error {
	org, err := s.organizationFromPath(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toOrganizationRep(org))
}

func (s *Server) updateOrganization(c echo.Context) error {
	org, err := s.organizationFromPath(c)
	if err != nil {
		return err
	}

	var rep OrganizationRepresentation
	if err := c.Bind(&rep); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if rep.Name != "" {
		org.Name = rep.Name
	}
	org.Description = rep.Description
	if rep.Type != "" {
		org.Type = models.OrganizationType(rep.Type)
	}
	org.UseMasterKeys = rep.UseMasterKeys

	if err := s.registry.UpdateOrganization(c.Request().Context(), org); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, toOrganizationRep(org))
}

func (s *Server) deleteOrganization(c echo.Context) error {
	org, err := s.organizationFromPath(c)
	if err != nil {
		return err
	}

	if err := s.registry.DeleteOrganization(c.Request().Context(), org.ID); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// organizationFromPath resolves the :organizationId path parameter.
func (s *Server) organizationFromPath(c echo.Context) (*models.Organization, error) {
	orgID, err := uuid.Parse(c.Param("organizationId"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid organization id")
	}

	org, err := s.registry.GetOrganization(c.Request().Context(), orgID)
	if err != nil {
		return nil, httpError(err)
	}

	return org, nil
}

func toOrganizationReps(orgs []*models.Organization) []OrganizationRepresentation {
	reps := make([]OrganizationRepresentation, 0, len(orgs))
	for _, org := range orgs {
		reps = append(reps, toOrganizationRep(org))
	}
	return reps
}

func intQueryParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
