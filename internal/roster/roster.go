// Package roster holds the student records the scoped listing endpoints
// read. It is a representative collaborator of the authorization core: the
// HTTP layer intersects its queries with the resolved school scope before any
// row is returned.
package roster

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidInput = errors.New("roster: invalid input")

// Student is a roster entry attached to a single school.
type Student struct {
	ID             string    `json:"id"`
	SchoolID       string    `json:"school_id"`
	OrganizationID string    `json:"organization_id"`
	FullName       string    `json:"full_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// Reader lists non-deleted students for a set of schools.
type Reader interface {
	StudentsBySchools(ctx context.Context, schoolIDs []string) ([]Student, error)
}

// Service validates arguments before hitting the reader.
type Service struct {
	reader Reader
}

func NewService(reader Reader) (*Service, error) {
	if reader == nil {
		return nil, errors.New("roster: reader is required")
	}
	return &Service{reader: reader}, nil
}

// List returns the roster for the given schools. An empty school set is a
// valid request and yields an empty roster without touching the store; the
// caller reaches this state when the resolved scope is empty.
func (s *Service) List(ctx context.Context, schoolIDs []string) ([]Student, error) {
	if len(schoolIDs) == 0 {
		return nil, nil
	}
	for _, id := range schoolIDs {
		if id == "" {
			return nil, ErrInvalidInput
		}
	}
	return s.reader.StudentsBySchools(ctx, schoolIDs)
}
