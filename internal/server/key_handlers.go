package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/orgkeys/orgkeys/internal/keys"
)

// getKeyMetadata returns every key descriptor of the organization plus
// the active-key index mapping algorithm to kid. DISABLED keys appear
// in the listing for administrative visibility but never in the index.
func (s *Server) getKeyMetadata(c echo.Context) error {
	org, err := s.organizationFromPath(c)
	if err != nil {
		return err
	}

	descriptors, err := s.keys.Keys(c.Request().Context(), org)
	if err != nil {
		return httpError(err)
	}

	metadata := KeysMetadataRepresentation{
		Keys:   make([]KeyMetadataRepresentation, 0, len(descriptors)),
		Active: keys.ActiveIndex(descriptors),
	}

	for _, d := range descriptors {
		metadata.Keys = append(metadata.Keys, KeyMetadataRepresentation{
			ProviderID:       d.ProviderID,
			ProviderPriority: d.ProviderPriority,
			Kid:              d.Kid,
			Status:           string(d.Status),
			Type:             string(d.Type),
			Algorithm:        d.Algorithm,
			PublicKey:        d.PublicKey,
			Certificate:      d.Certificate,
		})
	}

	return c.JSON(http.StatusOK, metadata)
}
