package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Patient model related methods.
	CreatePatient(ctx context.Context, create *Patient) (*Patient, error)
	ListPatients(ctx context.Context, find *FindPatient) ([]*Patient, error)
	UpdatePatient(ctx context.Context, update *UpdatePatient) (*Patient, error)
	DeletePatient(ctx context.Context, delete *DeletePatient) error
}
