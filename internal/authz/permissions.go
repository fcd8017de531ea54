package authz

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// Well-known permission names. The directory may carry any number of others;
// these are the ones the service itself consults or seeds.
const (
	PermissionAccessAllSchools = "schools.access_all"
	PermissionStudentsRead     = "students.read"
	PermissionFinanceRead      = "finance.read"
	PermissionReportsExport    = "reports.export"
)

// PermissionResolver computes effective permission sets and answers single
// permission probes. It is stateless and safe for concurrent use.
type PermissionResolver struct {
	dir Directory
}

// NewPermissionResolver constructs a PermissionResolver over the directory.
func NewPermissionResolver(dir Directory) (*PermissionResolver, error) {
	if dir == nil {
		return nil, errors.New("authz: directory is required")
	}
	return &PermissionResolver{dir: dir}, nil
}

// EffectivePermissions returns the deduplicated, sorted set of permission
// names granted to the user within the organization, merging role-derived
// grants with direct per-user grants (set union; a name reachable both ways
// appears once).
//
// An empty organizationID is the cross-tenant super-administrator context:
// the result is then exactly the global permissions, never any
// tenant-specific one. Empty role sets and unknown users are valid business
// states resolved to an empty set, not errors.
func (r *PermissionResolver) EffectivePermissions(ctx context.Context, userID, organizationID string) ([]string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}

	if organizationID == "" {
		names, err := r.dir.GlobalPermissionNames(ctx)
		if err != nil {
			return nil, err
		}
		return dedupeSorted(names), nil
	}

	set := make(map[string]struct{})

	roleIDs, err := r.dir.AssignedRoleIDs(ctx, userID, organizationID)
	if err != nil {
		return nil, err
	}
	if len(roleIDs) > 0 {
		names, err := r.dir.RoleGrantNames(ctx, roleIDs, organizationID)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			set[name] = struct{}{}
		}
	}

	direct, err := r.dir.DirectGrantNames(ctx, userID, organizationID)
	if err != nil {
		return nil, err
	}
	for _, name := range direct {
		set[name] = struct{}{}
	}

	result := make([]string, 0, len(set))
	for name := range set {
		result = append(result, name)
	}
	sort.Strings(result)
	return result, nil
}

// Has reports whether the user holds the named permission within the
// organization. It is an existence probe, not a materialization of the full
// set. An unknown permission name resolves to false, never to an error; only
// directory connectivity failures propagate.
func (r *PermissionResolver) Has(ctx context.Context, userID, organizationID, permission string) (bool, error) {
	userID = strings.TrimSpace(userID)
	permission = strings.TrimSpace(permission)
	if userID == "" || permission == "" {
		return false, nil
	}
	decision, err := r.dir.Check(ctx, userID, organizationID, permission)
	if err != nil {
		return false, err
	}
	// Undefined maps to Denied by policy: an unprovisioned permission name is
	// a business state, not a fault.
	return decision == DecisionGranted, nil
}

func dedupeSorted(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := set[v]; ok {
			continue
		}
		set[v] = struct{}{}
		result = append(result, v)
	}
	sort.Strings(result)
	return result
}
