package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"schoolgrid.org/internal/authz"
)

// SchoolIDs returns every non-deleted school under the organization.
func (s *Store) SchoolIDs(ctx context.Context, organizationID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id from schools
		where organization_id = $1 and deleted_at is null
		order by id
	`, organizationID)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return ids, nil
}

// SchoolBelongs reports whether the school is a live member of the
// organization.
func (s *Store) SchoolBelongs(ctx context.Context, organizationID, schoolID string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `
		select exists(
			select 1 from schools
			where id = $2 and organization_id = $1 and deleted_at is null
		)
	`, organizationID, schoolID).Scan(&ok)
	if err != nil {
		return false, unavailable(err)
	}
	return ok, nil
}

// Check probes a single permission. The name is first resolved against the
// permission catalog; an unknown name for the tenant is Undefined, never an
// error. An empty organizationID is the super-administrator context, where
// only the global catalog counts.
func (s *Store) Check(ctx context.Context, userID, organizationID, permission string) (authz.Decision, error) {
	if organizationID == "" {
		var ok bool
		err := s.db.QueryRowContext(ctx, `
			select exists(
				select 1 from permissions
				where name = $1 and organization_id is null
			)
		`, permission).Scan(&ok)
		if err != nil {
			return authz.DecisionUndefined, unavailable(err)
		}
		if !ok {
			return authz.DecisionUndefined, nil
		}
		return authz.DecisionGranted, nil
	}

	var defined bool
	err := s.db.QueryRowContext(ctx, `
		select exists(
			select 1 from permissions
			where name = $1 and (organization_id is null or organization_id = $2)
		)
	`, permission, organizationID).Scan(&defined)
	if err != nil {
		return authz.DecisionUndefined, unavailable(err)
	}
	if !defined {
		return authz.DecisionUndefined, nil
	}

	var granted bool
	err = s.db.QueryRowContext(ctx, `
		select exists(
			select 1
			from permissions p
			join role_has_permissions rhp on rhp.permission_id = p.id
				and (rhp.organization_id is null or rhp.organization_id = $2)
			join model_has_roles mhr on mhr.role_id = rhp.role_id
				and mhr.model_id = $1 and mhr.organization_id = $2
			where p.name = $3
				and (p.organization_id is null or p.organization_id = $2)
		) or exists(
			select 1
			from permissions p
			join model_has_permissions mhp on mhp.permission_id = p.id
				and mhp.model_id = $1
				and mhp.deleted_at is null
				and (mhp.organization_id is null or mhp.organization_id = $2)
			where p.name = $3
				and (p.organization_id is null or p.organization_id = $2)
		)
	`, userID, organizationID, permission).Scan(&granted)
	if err != nil {
		return authz.DecisionUndefined, unavailable(err)
	}
	if !granted {
		return authz.DecisionDenied, nil
	}
	return authz.DecisionGranted, nil
}

// AssignedRoleIDs returns the roles the user holds within the organization.
func (s *Store) AssignedRoleIDs(ctx context.Context, userID, organizationID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select role_id from model_has_roles
		where model_id = $1 and organization_id = $2
		order by role_id
	`, userID, organizationID)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return ids, nil
}

// RoleGrantNames returns permission names reachable through the given roles.
// Both the role-permission link and the permission row must be global or
// bound to the organization.
func (s *Store) RoleGrantNames(ctx context.Context, roleIDs []string, organizationID string) ([]string, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(roleIDs))
	args := make([]any, 0, len(roleIDs)+1)
	args = append(args, organizationID)
	for i, id := range roleIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	query := fmt.Sprintf(`
		select distinct p.name
		from permissions p
		join role_has_permissions rhp on rhp.permission_id = p.id
		where rhp.role_id in (%s)
			and (rhp.organization_id is null or rhp.organization_id = $1)
			and (p.organization_id is null or p.organization_id = $1)
		order by p.name
	`, strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	return scanNames(rows)
}

// DirectGrantNames returns permission names granted straight to the user,
// skipping soft-deleted grants.
func (s *Store) DirectGrantNames(ctx context.Context, userID, organizationID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select distinct p.name
		from permissions p
		join model_has_permissions mhp on mhp.permission_id = p.id
		where mhp.model_id = $1
			and mhp.deleted_at is null
			and (mhp.organization_id is null or mhp.organization_id = $2)
			and (p.organization_id is null or p.organization_id = $2)
		order by p.name
	`, userID, organizationID)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	return scanNames(rows)
}

// GlobalPermissionNames lists the tenant-agnostic permission catalog.
func (s *Store) GlobalPermissionNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select name from permissions
		where organization_id is null
		order by name
	`)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	return scanNames(rows)
}

// ProfileByUserID resolves the application profile for an authenticated
// principal.
func (s *Store) ProfileByUserID(ctx context.Context, userID string) (authz.Profile, error) {
	var p authz.Profile
	err := s.db.QueryRowContext(ctx, `
		select id, user_id, coalesce(organization_id, ''), coalesce(default_school_id, ''),
			role, is_active, created_at, updated_at
		from profiles
		where user_id = $1
	`, userID).Scan(
		&p.ID, &p.UserID, &p.OrganizationID, &p.DefaultSchoolID,
		&p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return authz.Profile{}, authz.ErrNotFound
	}
	if err != nil {
		return authz.Profile{}, unavailable(err)
	}
	return p, nil
}

func scanNames(rows *sql.Rows) ([]string, error) {
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, unavailable(err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return names, nil
}
