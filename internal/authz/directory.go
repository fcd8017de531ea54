package authz

import "context"

// Decision is the three-valued outcome of a single permission probe at the
// directory layer. Undefined means the permission name is not present in the
// directory for the tenant; the resolvers map it to "not granted" by policy.
type Decision int

const (
	DecisionUndefined Decision = iota
	DecisionDenied
	DecisionGranted
)

func (d Decision) String() string {
	switch d {
	case DecisionGranted:
		return "granted"
	case DecisionDenied:
		return "denied"
	default:
		return "undefined"
	}
}

// Directory is the read-only store of schools, roles, permissions, and their
// assignments consulted by the resolvers. Implementations never mutate this
// data. Every method reports connectivity failures as
// ErrDirectoryUnavailable; absence of rows is an empty result, not an error.
type Directory interface {
	// SchoolIDs returns the identifiers of every non-deleted school owned by
	// the organization.
	SchoolIDs(ctx context.Context, organizationID string) ([]string, error)

	// SchoolBelongs reports whether the school is a non-deleted member of the
	// organization.
	SchoolBelongs(ctx context.Context, organizationID, schoolID string) (bool, error)

	// Check probes a single permission for the user within the organization.
	// An empty organizationID is the super-administrator context: the probe
	// then asks only whether a global permission with that name exists.
	Check(ctx context.Context, userID, organizationID, permission string) (Decision, error)

	// AssignedRoleIDs returns the roles assigned to the user within the
	// organization. An empty result is a valid business state.
	AssignedRoleIDs(ctx context.Context, userID, organizationID string) ([]string, error)

	// RoleGrantNames returns permission names reachable via the given roles,
	// where the role-permission link is organization-agnostic or matches the
	// organization, and the permission itself is global or tenant-matching.
	RoleGrantNames(ctx context.Context, roleIDs []string, organizationID string) ([]string, error)

	// DirectGrantNames returns permission names granted straight to the user,
	// excluding soft-deleted grants, under the same organization scoping
	// rules as RoleGrantNames.
	DirectGrantNames(ctx context.Context, userID, organizationID string) ([]string, error)

	// GlobalPermissionNames returns every permission name whose organization
	// binding is null.
	GlobalPermissionNames(ctx context.Context) ([]string, error)
}

// ProfileReader resolves the application profile for an authenticated
// principal. Controllers fetch the profile once per request and hand it to
// the resolvers.
type ProfileReader interface {
	ProfileByUserID(ctx context.Context, userID string) (Profile, error)
}
