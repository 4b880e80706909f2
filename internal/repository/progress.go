package repository

import (
	"context"

	"github.com/eslsoft/yorlect/internal/entity"
)

// UpdateFunc mutates a user record in place. Returning entity.ErrNoChange
// skips the write without failing the update.
type UpdateFunc func(record *entity.UserRecord) error

// ProgressStore abstracts persistence of contributor progress so the usecases
// stay storage agnostic.
type ProgressStore interface {
	// Load returns every record in registration order, with missing fields
	// defaulted.
	Load(ctx context.Context) (*entity.ProgressSnapshot, error)
	// Save replaces the whole store with the snapshot.
	Save(ctx context.Context, snapshot *entity.ProgressSnapshot) error
	// Get returns a single record or entity.ErrUserNotFound.
	Get(ctx context.Context, username string) (*entity.UserRecord, error)
	// Update atomically applies fn to the named record, creating it with
	// the next registration number when absent.
	Update(ctx context.Context, username string, fn UpdateFunc) (*entity.UserRecord, error)
	Ping(ctx context.Context) error
}
