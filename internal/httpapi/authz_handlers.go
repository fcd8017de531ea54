package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"schoolgrid.org/internal/audit"
	"schoolgrid.org/internal/auth"
	"schoolgrid.org/internal/authz"
	"schoolgrid.org/internal/obs"
)

type checkRequest struct {
	Permission string `json:"permission"`
}

type checkResponse struct {
	Granted bool `json:"granted"`
}

type schoolsResponse struct {
	SchoolIDs []string `json:"school_ids"`
}

type permissionsResponse struct {
	Permissions []string `json:"permissions"`
}

// principalProfile loads the profile for the authenticated principal. A
// missing principal or profile resolves to a denial; only store connectivity
// failures become 503.
func (a *API) principalProfile(w http.ResponseWriter, r *http.Request) (authz.Profile, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return authz.Profile{}, false
	}
	profile, err := a.profiles.ProfileByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, authz.ErrNotFound) {
			a.deny(r, "profile_missing", map[string]any{"user_id": userID})
			writeError(w, r, http.StatusForbidden, "unauthorized", "permission denied")
			return authz.Profile{}, false
		}
		a.unavailable(w, r, err)
		return authz.Profile{}, false
	}
	if !profile.IsActive {
		a.deny(r, "profile_inactive", map[string]any{"user_id": userID})
		writeError(w, r, http.StatusForbidden, "unauthorized", "permission denied")
		return authz.Profile{}, false
	}
	return profile, true
}

func (a *API) handleMySchools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	profile, ok := a.principalProfile(w, r)
	if !ok {
		return
	}

	scope, err := a.resolveScope(w, r, profile)
	if err != nil {
		return
	}
	writeJSON(w, http.StatusOK, schoolsResponse{SchoolIDs: emptyAsSlice(scope.SchoolIDs)})
}

func (a *API) handleMyPermissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	profile, ok := a.principalProfile(w, r)
	if !ok {
		return
	}

	perms, err := a.perms.EffectivePermissions(r.Context(), profile.UserID, profile.OrganizationID)
	if err != nil {
		a.unavailable(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, permissionsResponse{Permissions: emptyAsSlice(perms)})
}

func (a *API) handleAuthzCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	profile, ok := a.principalProfile(w, r)
	if !ok {
		return
	}

	var req checkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	req.Permission = strings.TrimSpace(req.Permission)
	if req.Permission == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "permission is required")
		return
	}

	granted, err := a.perms.Has(r.Context(), profile.UserID, profile.OrganizationID, req.Permission)
	if err != nil {
		a.unavailable(w, r, err)
		return
	}
	if granted {
		obs.ObserveDecision("granted")
	} else {
		obs.ObserveDecision("denied")
	}
	writeJSON(w, http.StatusOK, checkResponse{Granted: granted})
}

func (a *API) handleStudents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	profile, ok := a.principalProfile(w, r)
	if !ok {
		return
	}

	if !a.ensurePermission(w, r, profile, authz.PermissionStudentsRead) {
		return
	}

	scope, err := a.resolveScope(w, r, profile)
	if err != nil {
		return
	}

	// A client-supplied school filter outside the resolved scope is rejected
	// outright, never silently narrowed.
	targets := scope.SchoolIDs
	if filter := strings.TrimSpace(r.URL.Query().Get("school_id")); filter != "" {
		if !scope.Allows(filter) {
			a.deny(r, "school_out_of_scope", map[string]any{
				"user_id":   profile.UserID,
				"school_id": filter,
			})
			writeError(w, r, http.StatusForbidden, "unauthorized", "permission denied")
			return
		}
		targets = []string{filter}
	}

	students, err := a.roster.List(r.Context(), targets)
	if err != nil {
		if errors.Is(err, authz.ErrDirectoryUnavailable) {
			a.unavailable(w, r, err)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal", "listing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": students,
		"count": len(students),
	})
}

// resolveScope runs the scope resolver, records the winning rule, and logs
// the fail-secure anomaly. On error it has already written the response.
func (a *API) resolveScope(w http.ResponseWriter, r *http.Request, profile authz.Profile) (authz.Scope, error) {
	scope, err := a.scopes.AccessibleSchools(r.Context(), profile)
	if err != nil {
		a.unavailable(w, r, err)
		return authz.Scope{}, err
	}
	obs.ObserveScopeRule(string(scope.Rule))
	if scope.Rule == authz.ScopeRuleFailSecure {
		// Data-integrity anomaly: a default school pointing outside the
		// profile's organization. Resolved as empty scope; warn, don't fail.
		_ = audit.LogEvent(r.Context(), "authz.default_school_mismatch", map[string]any{
			"user_id":           profile.UserID,
			"organization_id":   profile.OrganizationID,
			"default_school_id": profile.DefaultSchoolID,
		})
	}
	return scope, nil
}

// ensurePermission answers a single-permission probe for the profile and
// writes the uniform 403 on a negative. The distinction between "denied" and
// "undefined" stays in metrics and logs.
func (a *API) ensurePermission(w http.ResponseWriter, r *http.Request, profile authz.Profile, permission string) bool {
	granted, err := a.perms.Has(r.Context(), profile.UserID, profile.OrganizationID, permission)
	if err != nil {
		a.unavailable(w, r, err)
		return false
	}
	if !granted {
		obs.ObserveDecision("denied")
		a.deny(r, "permission_missing", map[string]any{
			"user_id":    profile.UserID,
			"permission": permission,
		})
		writeError(w, r, http.StatusForbidden, "unauthorized", "permission denied")
		return false
	}
	obs.ObserveDecision("granted")
	return true
}

func (a *API) deny(r *http.Request, reason string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["reason"] = reason
	_ = audit.LogEvent(r.Context(), "authz.denied", fields)
}

// unavailable handles the one hard error: the directory could not be
// reached. The action stays blocked, with a status distinct from a denial so
// operators can tell "denied" from "couldn't determine".
func (a *API) unavailable(w http.ResponseWriter, r *http.Request, err error) {
	obs.ObserveDecision("unavailable")
	_ = audit.LogEvent(r.Context(), "authz.directory_unavailable", map[string]any{
		"error": err.Error(),
	})
	writeError(w, r, http.StatusServiceUnavailable, "unavailable", "authorization directory unavailable")
}

func emptyAsSlice(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
