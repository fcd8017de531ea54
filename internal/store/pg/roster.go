package pg

import (
	"context"
	"fmt"
	"strings"

	"schoolgrid.org/internal/roster"
)

var _ roster.Reader = (*Store)(nil)

// StudentsBySchools lists non-deleted students across the given schools.
func (s *Store) StudentsBySchools(ctx context.Context, schoolIDs []string) ([]roster.Student, error) {
	if len(schoolIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(schoolIDs))
	args := make([]any, 0, len(schoolIDs))
	for i, id := range schoolIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	query := fmt.Sprintf(`
		select id, school_id, organization_id, full_name, created_at
		from students
		where school_id in (%s) and deleted_at is null
		order by full_name, id
	`, strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var students []roster.Student
	for rows.Next() {
		var st roster.Student
		if err := rows.Scan(&st.ID, &st.SchoolID, &st.OrganizationID, &st.FullName, &st.CreatedAt); err != nil {
			return nil, unavailable(err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return students, nil
}
