package server

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/orgkeys/orgkeys/internal/models"
)

// redactedValue replaces secret config values in API representations.
const redactedValue = "**********"

// OrganizationRepresentation is the wire form of an organization.
type OrganizationRepresentation struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Type          string `json:"type,omitempty"`
	UseMasterKeys bool   `json:"useMasterKeys"`
}

func toOrganizationRep(org *models.Organization) OrganizationRepresentation {
	return OrganizationRepresentation{
		ID:            org.ID.String(),
		Name:          org.Name,
		Description:   org.Description,
		Type:          string(org.Type),
		UseMasterKeys: org.UseMasterKeys,
	}
}

// ComponentRepresentation is the wire form of a component. Secret
// config options are redacted on the way out and the redaction marker
// is ignored on the way in.
type ComponentRepresentation struct {
	ID           string              `json:"id,omitempty"`
	Name         string              `json:"name"`
	ParentID     string              `json:"parentId,omitempty"`
	ProviderID   string              `json:"providerId"`
	ProviderType string              `json:"providerType"`
	Config       map[string][]string `json:"config,omitempty"`
}

// toComponentRep builds the representation of a component, redacting
// secret options. When the component's provider is unknown (for example
// after a provider was removed from the build) the config cannot be
// classified, so it is omitted entirely rather than failing the
// listing or leaking secrets.
func (s *Server) toComponentRep(component *models.Component) ComponentRepresentation {
	rep := ComponentRepresentation{
		ID:           component.ID.String(),
		Name:         component.Name,
		ParentID:     component.ParentID.String(),
		ProviderID:   component.ProviderID,
		ProviderType: component.ProviderType,
	}

	def := s.schemas.Lookup(component.ProviderType, component.ProviderID)
	if def == nil {
		log.Error().
			Str("component_id", component.ID.String()).
			Str("provider_id", component.ProviderID).
			Msg("Failed to build component config representation, returning component without config")
		return rep
	}

	rep.Config = make(map[string][]string, len(component.Config))
	for name, values := range component.Config {
		if opt := def.Schema.Option(name); opt != nil && opt.Secret {
			rep.Config[name] = []string{redactedValue}
			continue
		}
		rep.Config[name] = append([]string(nil), values...)
	}

	return rep
}

// toComponentModel converts an incoming representation. Secret options
// whose value is the redaction marker are dropped so an update round
// trip does not overwrite stored material with the marker.
func (s *Server) toComponentModel(rep *ComponentRepresentation, orgID uuid.UUID) (*models.Component, error) {
	component := &models.Component{
		OrgID:        orgID,
		Name:         rep.Name,
		ProviderID:   rep.ProviderID,
		ProviderType: rep.ProviderType,
		Config:       models.ComponentConfig{},
	}

	if rep.ID != "" {
		id, err := uuid.Parse(rep.ID)
		if err != nil {
			return nil, err
		}
		component.ID = id
	}

	if rep.ParentID != "" {
		parentID, err := uuid.Parse(rep.ParentID)
		if err != nil {
			return nil, err
		}
		component.ParentID = parentID
	}

	for name, values := range rep.Config {
		if len(values) == 1 && values[0] == redactedValue {
			continue
		}
		component.Config[name] = append([]string(nil), values...)
	}

	return component, nil
}

// KeysMetadataRepresentation is the response of the keys endpoint: the
// full descriptor listing plus the algorithm-to-kid active index.
type KeysMetadataRepresentation struct {
	Keys   []KeyMetadataRepresentation `json:"keys"`
	Active map[string]string           `json:"active"`
}

// KeyMetadataRepresentation is the wire form of a key descriptor.
// Private material is never part of it.
type KeyMetadataRepresentation struct {
	ProviderID       string `json:"providerId"`
	ProviderPriority int64  `json:"providerPriority"`
	Kid              string `json:"kid,omitempty"`
	Status           string `json:"status"`
	Type             string `json:"type,omitempty"`
	Algorithm        string `json:"algorithm,omitempty"`
	PublicKey        string `json:"publicKey,omitempty"`
	Certificate      string `json:"certificate,omitempty"`
}
