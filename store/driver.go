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

	// Staff model related methods.
	CreateStaff(ctx context.Context, create *Staff) (*Staff, error)
	ListStaff(ctx context.Context, find *FindStaff) ([]*Staff, error)

	// RequirementTemplate model related methods.
	UpsertRequirementTemplate(ctx context.Context, upsert *RequirementTemplate) (*RequirementTemplate, error)
	ListRequirementTemplates(ctx context.Context, find *FindRequirementTemplate) ([]*RequirementTemplate, error)

	// ScheduleSlot model related methods.
	CreateScheduleSlot(ctx context.Context, create *ScheduleSlot) (*ScheduleSlot, error)
	ListScheduleSlots(ctx context.Context, find *FindScheduleSlot) ([]*ScheduleSlot, error)
	UpdateScheduleSlot(ctx context.Context, update *UpdateScheduleSlot) error
}
