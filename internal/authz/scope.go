package authz

import (
	"context"
	"errors"
)

// ScopeRule identifies which precedence tier produced a scope. Callers use it
// to tell "empty because fail-secure" apart from "full because unrestricted";
// collapsing the two would change security posture.
type ScopeRule string

const (
	// ScopeRuleNoOrganization: the profile has no organization binding.
	// Always an empty scope; callers must treat it as "no access".
	ScopeRuleNoOrganization ScopeRule = "no_organization"
	// ScopeRuleAccessAll: the user holds PermissionAccessAllSchools.
	ScopeRuleAccessAll ScopeRule = "access_all"
	// ScopeRuleDefaultSchool: restricted to the profile's default school.
	ScopeRuleDefaultSchool ScopeRule = "default_school"
	// ScopeRuleFailSecure: the configured default school does not belong to
	// the profile's organization. Empty scope, logged as a data-integrity
	// anomaly by the caller.
	ScopeRuleFailSecure ScopeRule = "fail_secure"
	// ScopeRuleFallback: no restriction configured; every school in the
	// organization.
	ScopeRuleFallback ScopeRule = "fallback"
)

// Scope is the set of school identifiers a profile may operate against,
// together with the rule that produced it.
type Scope struct {
	SchoolIDs []string  `json:"school_ids"`
	Rule      ScopeRule `json:"rule"`
}

// Allows reports whether the school is inside the scope.
func (s Scope) Allows(schoolID string) bool {
	for _, id := range s.SchoolIDs {
		if id == schoolID {
			return true
		}
	}
	return false
}

// ScopeResolver computes the school scope for a profile. It is stateless and
// safe for concurrent use.
type ScopeResolver struct {
	dir Directory
}

// NewScopeResolver constructs a ScopeResolver over the given directory.
func NewScopeResolver(dir Directory) (*ScopeResolver, error) {
	if dir == nil {
		return nil, errors.New("authz: directory is required")
	}
	return &ScopeResolver{dir: dir}, nil
}

// AccessibleSchools resolves the schools the profile may access. Rules are
// evaluated top to bottom and the first applicable one wins:
//
//  1. PermissionAccessAllSchools granted: every non-deleted school in the
//     organization. An Undefined probe counts as not granted.
//  2. A configured default school that belongs to the organization: exactly
//     that school. A default school outside the organization resolves to an
//     empty scope (fail-secure), never to rule 3.
//  3. No default school configured: every non-deleted school in the
//     organization.
//
// A profile with no organization resolves to an empty scope before any rule
// runs. Only directory connectivity failures are returned as errors.
func (r *ScopeResolver) AccessibleSchools(ctx context.Context, profile Profile) (Scope, error) {
	if profile.OrganizationID == "" {
		return Scope{Rule: ScopeRuleNoOrganization}, nil
	}

	decision, err := r.dir.Check(ctx, profile.UserID, profile.OrganizationID, PermissionAccessAllSchools)
	if err != nil {
		return Scope{}, err
	}
	if decision == DecisionGranted {
		ids, err := r.dir.SchoolIDs(ctx, profile.OrganizationID)
		if err != nil {
			return Scope{}, err
		}
		return Scope{SchoolIDs: ids, Rule: ScopeRuleAccessAll}, nil
	}

	if profile.DefaultSchoolID != "" {
		ok, err := r.dir.SchoolBelongs(ctx, profile.OrganizationID, profile.DefaultSchoolID)
		if err != nil {
			return Scope{}, err
		}
		if !ok {
			return Scope{Rule: ScopeRuleFailSecure}, nil
		}
		return Scope{SchoolIDs: []string{profile.DefaultSchoolID}, Rule: ScopeRuleDefaultSchool}, nil
	}

	ids, err := r.dir.SchoolIDs(ctx, profile.OrganizationID)
	if err != nil {
		return Scope{}, err
	}
	return Scope{SchoolIDs: ids, Rule: ScopeRuleFallback}, nil
}
