package pg

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func sampleTime(t *testing.T) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, "2026-02-01T09:00:00Z")
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return ts
}

func TestStudentsBySchools(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "school_id", "organization_id", "full_name", "created_at"}).
		AddRow("st1", "s1", "org-1", "Ada Park", sampleTime(t)).
		AddRow("st2", "s2", "org-1", "Ben Osei", sampleTime(t))

	mock.ExpectQuery(`where school_id in \(\$1, \$2\) and deleted_at is null`).
		WithArgs("s1", "s2").
		WillReturnRows(rows)

	students, err := store.StudentsBySchools(context.Background(), []string{"s1", "s2"})
	if err != nil {
		t.Fatalf("StudentsBySchools: %v", err)
	}
	if len(students) != 2 || students[0].FullName != "Ada Park" {
		t.Fatalf("unexpected roster: %+v", students)
	}
}

func TestStudentsBySchoolsEmptyInput(t *testing.T) {
	store, mock := newMockStore(t)

	students, err := store.StudentsBySchools(context.Background(), nil)
	if err != nil {
		t.Fatalf("StudentsBySchools: %v", err)
	}
	if students != nil {
		t.Fatalf("expected nil roster, got %v", students)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no query expected: %v", err)
	}
}
