package models

import (
	"time"

	"github.com/google/uuid"
)

// MasterID is the fixed id of the master organization. The master row is
// seeded by the initial migration and can never be deleted.
var MasterID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// OrganizationType distinguishes the single master organization from
// ordinary tenants.
type OrganizationType string

const (
	OrganizationTypeCommon OrganizationType = "common"
	OrganizationTypeMaster OrganizationType = "master"
)

// Organization represents a tenant and is the root of its component
// hierarchy. Components are exclusively owned by their organization and
// are cascade-deleted with it.
type Organization struct {
	ID            uuid.UUID // UUIDv7
	Name          string    // unique across organizations, case-sensitive
	Description   string
	Type          OrganizationType
	UseMasterKeys bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsMaster reports whether this is the deletion-protected master organization.
func (o *Organization) IsMaster() bool {
	return o.ID == MasterID
}
