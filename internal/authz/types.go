package authz

import "time"

// Organization is a tenant. All school, role, and permission data is
// partitioned by it.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// School is a facility owned by an organization.
type School struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

// Profile is the application-level user record, distinct from the bare
// authentication identity. An empty OrganizationID marks a cross-tenant
// super-administrator.
type Profile struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	OrganizationID  string    `json:"organization_id,omitempty"`
	DefaultSchoolID string    `json:"default_school_id,omitempty"`
	Role            string    `json:"role,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Role is a named grant bundle. An empty OrganizationID means the role is
// global and available to every tenant. Name is unique per
// (organization_id, guard_name).
type Role struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OrganizationID string    `json:"organization_id,omitempty"`
	GuardName      string    `json:"guard_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// Permission is a named capability, either global (empty OrganizationID) or
// tenant-specific.
type Permission struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OrganizationID string    `json:"organization_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RoleAssignment links a user to a role within an organization context.
type RoleAssignment struct {
	UserID         string    `json:"user_id"`
	RoleID         string    `json:"role_id"`
	OrganizationID string    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// DirectGrant is a per-user permission override, independent of roles. It
// carries its own optional organization scope and a soft-delete marker.
type DirectGrant struct {
	UserID         string     `json:"user_id"`
	PermissionID   string     `json:"permission_id"`
	OrganizationID string     `json:"organization_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}
