// Package storage defines the repository contracts that any database
// backend must satisfy to work with this application.
//
// The service layer depends only on these interfaces:
//
//   - Switching databases = implement the interfaces for the new DB and
//     change the driver in the config file. Zero service changes.
//
//   - Writing tests = pass the in-memory implementation from
//     storage/memory. No real database needed for unit tests.
//
// Implementations: storage/sqlite (database/sql), storage/gormstore (GORM on
// PostgreSQL or SQLite), storage/memory.
package storage

import (
	"context"

	"github.com/aanand-mishra/alumnos-api/internal/types"
)

// StudentRepository is the persistence contract for Student rows.
type StudentRepository interface {
	// Find returns every student ordered by id, each expanded with its
	// group and incidents. Returns an empty slice (not nil) if there are none.
	Find(ctx context.Context) ([]types.Student, error)

	// FindByID returns the student with its group and incidents, or
	// (nil, nil) when no row has that id.
	FindByID(ctx context.Context, id int64) (*types.Student, error)

	// Update writes the present fields of patch to the row and returns the
	// number of rows affected. An empty patch is a no-op.
	Update(ctx context.Context, id int64, patch types.StudentPatch) (int64, error)

	// Save inserts the student when its ID is zero (assigning the ID) and
	// otherwise overwrites every column, including the group reference.
	Save(ctx context.Context, s *types.Student) error

	// Delete removes the row and returns the number of rows affected.
	Delete(ctx context.Context, id int64) (int64, error)
}

// GroupRepository is the persistence contract for Group rows.
type GroupRepository interface {
	// Find returns every group ordered by id.
	Find(ctx context.Context) ([]types.Group, error)

	// FindByID returns the group or (nil, nil) when absent.
	FindByID(ctx context.Context, id int64) (*types.Group, error)

	// Save inserts the group when its ID is zero and updates it otherwise.
	Save(ctx context.Context, g *types.Group) error
}

// Store bundles the repositories of one backend so it can be opened and
// closed as a unit.
type Store interface {
	Students() StudentRepository
	Groups() GroupRepository
	Close() error
}
