package schedule

import (
	"context"

	"github.com/hrygo/shiftcover/store"
	"github.com/hrygo/shiftcover/store/cache"
)

// Service defines the mutations of the remote schedule store.
// Every mutation invalidates the cached resources it makes stale before returning.
type Service interface {
	// CreateStaff adds a roster record.
	CreateStaff(ctx context.Context, ownerID string, create *CreateStaffRequest) (*store.Staff, error)

	// UpsertRequirementTemplate replaces the requirement template of a month.
	UpsertRequirementTemplate(ctx context.Context, ownerID, period string, upsert *UpsertTemplateRequest) (*store.RequirementTemplate, error)

	// CreateSlot adds a staffing position, optionally already assigned.
	CreateSlot(ctx context.Context, ownerID string, create *CreateSlotRequest) (*store.ScheduleSlot, error)

	// AssignSlot assigns a staff member to a slot, or unassigns it when staffID is nil.
	AssignSlot(ctx context.Context, ownerID, slotID string, staffID *string) (*store.ScheduleSlot, error)
}

// Store is the interface for store operations needed by the schedule service.
type Store interface {
	CreateStaff(ctx context.Context, create *store.Staff) (*store.Staff, error)
	ListStaff(ctx context.Context, find *store.FindStaff) ([]*store.Staff, error)
	UpsertRequirementTemplate(ctx context.Context, upsert *store.RequirementTemplate) (*store.RequirementTemplate, error)
	CreateScheduleSlot(ctx context.Context, create *store.ScheduleSlot) (*store.ScheduleSlot, error)
	GetScheduleSlot(ctx context.Context, find *store.FindScheduleSlot) (*store.ScheduleSlot, error)
	UpdateScheduleSlot(ctx context.Context, update *store.UpdateScheduleSlot) error
}

// Invalidator drops cached resources after a write. *accessor.Accessor implements it.
type Invalidator interface {
	Invalidate(category cache.Category, ownerID string, extraKey ...string)
}

// CreateStaffRequest represents the request to create a staff record.
type CreateStaffRequest struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Active *bool  `json:"active,omitempty"`
}

// UpsertTemplateRequest represents the requirement template of a month.
// Weekday keys are 0 (Sunday) through 6 (Saturday).
type UpsertTemplateRequest struct {
	WeekdayRequirements map[int]store.SlotRequirements    `json:"weekdayRequirements"`
	DateOverrides       map[string]store.SlotRequirements `json:"dateOverrides"`
}

// CreateSlotRequest represents the request to create a schedule slot.
type CreateSlotRequest struct {
	Date            string         `json:"date"`
	TimeSlot        store.TimeSlot `json:"timeSlot"`
	AssignedStaffID *string        `json:"assignedStaffId,omitempty"`
}
