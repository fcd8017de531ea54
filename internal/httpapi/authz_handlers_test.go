package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"schoolgrid.org/internal/authz"
	"schoolgrid.org/internal/roster"
)

func activeProfile(userID, orgID, defaultSchool string) *stubProfiles {
	return &stubProfiles{
		byUserIDFn: func(_ context.Context, got string) (authz.Profile, error) {
			if got != userID {
				return authz.Profile{}, authz.ErrNotFound
			}
			return authz.Profile{
				ID:              "profile-" + userID,
				UserID:          userID,
				OrganizationID:  orgID,
				DefaultSchoolID: defaultSchool,
				IsActive:        true,
			}, nil
		},
	}
}

func TestMySchoolsRequiresAuthentication(t *testing.T) {
	ta := newTestAPI(t, nil, nil, nil)

	resp := ta.get("/v1/me/schools", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMySchoolsDefaultSchoolRestriction(t *testing.T) {
	dir := &stubDirectory{
		checkFn: func(_ context.Context, _, _, _ string) (authz.Decision, error) {
			return authz.DecisionDenied, nil
		},
		schoolBelongsFn: func(_ context.Context, orgID, schoolID string) (bool, error) {
			return orgID == "org-1" && schoolID == "s2", nil
		},
	}
	ta := newTestAPI(t, dir, activeProfile("u1", "org-1", "s2"), nil)
	token := ta.obtainToken("u1")

	resp := ta.get("/v1/me/schools", bearerHeader(token))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload schoolsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.SchoolIDs) != 1 || payload.SchoolIDs[0] != "s2" {
		t.Fatalf("expected [s2], got %v", payload.SchoolIDs)
	}
}

func TestMySchoolsFailSecureReturnsEmptyList(t *testing.T) {
	dir := &stubDirectory{
		checkFn: func(_ context.Context, _, _, _ string) (authz.Decision, error) {
			return authz.DecisionDenied, nil
		},
		schoolBelongsFn: func(_ context.Context, _, _ string) (bool, error) {
			return false, nil
		},
	}
	ta := newTestAPI(t, dir, activeProfile("u1", "org-1", "foreign-school"), nil)
	token := ta.obtainToken("u1")

	resp := ta.get("/v1/me/schools", bearerHeader(token))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload schoolsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.SchoolIDs == nil || len(payload.SchoolIDs) != 0 {
		t.Fatalf("expected empty (non-null) list, got %v", payload.SchoolIDs)
	}
}

func TestMyPermissionsMergesSources(t *testing.T) {
	dir := &stubDirectory{
		assignedRoleIDsFn: func(_ context.Context, _, _ string) ([]string, error) {
			return []string{"role-1"}, nil
		},
		roleGrantNamesFn: func(_ context.Context, _ []string, _ string) ([]string, error) {
			return []string{"students.read"}, nil
		},
		directGrantsFn: func(_ context.Context, _, _ string) ([]string, error) {
			return []string{"finance.read", "students.read"}, nil
		},
	}
	ta := newTestAPI(t, dir, activeProfile("u1", "org-1", ""), nil)
	token := ta.obtainToken("u1")

	resp := ta.get("/v1/me/permissions", bearerHeader(token))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload permissionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"finance.read", "students.read"}
	if len(payload.Permissions) != 2 || payload.Permissions[0] != want[0] || payload.Permissions[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, payload.Permissions)
	}
}

func TestAuthzCheckUnknownPermissionIsFalseNotError(t *testing.T) {
	dir := &stubDirectory{
		checkFn: func(_ context.Context, _, _, permission string) (authz.Decision, error) {
			if permission == "students.read" {
				return authz.DecisionGranted, nil
			}
			return authz.DecisionUndefined, nil
		},
	}
	ta := newTestAPI(t, dir, activeProfile("u1", "org-1", ""), nil)
	token := ta.obtainToken("u1")

	resp := ta.post("/v1/authz/check", map[string]any{"permission": "students.read"}, bearerHeader(token))
	var payload checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !payload.Granted {
		t.Fatalf("expected grant, got status=%d granted=%v", resp.StatusCode, payload.Granted)
	}

	resp = ta.post("/v1/authz/check", map[string]any{"permission": "never.defined"}, bearerHeader(token))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unknown permission must not fail the request: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Granted {
		t.Fatalf("unknown permission must resolve to false")
	}
}

func TestStudentsRequiresPermission(t *testing.T) {
	dir := &stubDirectory{
		checkFn: func(_ context.Context, _, _, _ string) (authz.Decision, error) {
			return authz.DecisionDenied, nil
		},
	}
	ta := newTestAPI(t, dir, activeProfile("u1", "org-1", ""), nil)
	token := ta.obtainToken("u1")

	resp := ta.get("/v1/students", bearerHeader(token))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["code"] != "unauthorized" {
		t.Fatalf("expected stable unauthorized code, got %v", payload["code"])
	}
}

func TestStudentsRejectsOutOfScopeFilter(t *testing.T) {
	dir := &stubDirectory{
		checkFn: func(_ context.Context, _, _, permission string) (authz.Decision, error) {
			if permission == authz.PermissionStudentsRead {
				return authz.DecisionGranted, nil
			}
			return authz.DecisionDenied, nil
		},
		schoolBelongsFn: func(_ context.Context, orgID, schoolID string) (bool, error) {
			return orgID == "org-1" && schoolID == "s2", nil
		},
	}
	ta := newTestAPI(t, dir, activeProfile("u1", "org-1", "s2"), nil)
	token := ta.obtainToken("u1")

	resp := ta.get("/v1/students?school_id=s9", bearerHeader(token))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("out-of-scope filter must be rejected, got %d", resp.StatusCode)
	}
}

func TestStudentsListsWithinScope(t *testing.T) {
	dir := &stubDirectory{
		checkFn: func(_ context.Context, _, _, permission string) (authz.Decision, error) {
			if permission == authz.PermissionStudentsRead {
				return authz.DecisionGranted, nil
			}
			return authz.DecisionDenied, nil
		},
		schoolBelongsFn: func(_ context.Context, orgID, schoolID string) (bool, error) {
			return orgID == "org-1" && schoolID == "s2", nil
		},
	}
	var captured []string
	rosterStub := &stubRoster{
		bySchoolsFn: func(_ context.Context, schoolIDs []string) ([]roster.Student, error) {
			captured = schoolIDs
			return []roster.Student{{ID: "st1", SchoolID: "s2", OrganizationID: "org-1", FullName: "Ada Park"}}, nil
		},
	}
	ta := newTestAPI(t, dir, activeProfile("u1", "org-1", "s2"), rosterStub)
	token := ta.obtainToken("u1")

	resp := ta.get("/v1/students?school_id=s2", bearerHeader(token))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(captured) != 1 || captured[0] != "s2" {
		t.Fatalf("roster queried outside the filter: %v", captured)
	}
	var payload struct {
		Items []roster.Student `json:"items"`
		Count int              `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Count != 1 || payload.Items[0].FullName != "Ada Park" {
		t.Fatalf("unexpected roster payload: %+v", payload)
	}
}

func TestDirectoryOutageIsNotADenial(t *testing.T) {
	dir := &stubDirectory{
		checkFn: func(_ context.Context, _, _, _ string) (authz.Decision, error) {
			return authz.DecisionUndefined, authz.ErrDirectoryUnavailable
		},
	}
	ta := newTestAPI(t, dir, activeProfile("u1", "org-1", ""), nil)
	token := ta.obtainToken("u1")

	resp := ta.get("/v1/students", bearerHeader(token))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["code"] != "unavailable" {
		t.Fatalf("expected unavailable code, got %v", payload["code"])
	}
}

func TestInactiveProfileIsDenied(t *testing.T) {
	profiles := &stubProfiles{
		byUserIDFn: func(_ context.Context, userID string) (authz.Profile, error) {
			return authz.Profile{UserID: userID, OrganizationID: "org-1", IsActive: false}, nil
		},
	}
	ta := newTestAPI(t, nil, profiles, nil)
	token := ta.obtainToken("u1")

	resp := ta.get("/v1/me/schools", bearerHeader(token))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
