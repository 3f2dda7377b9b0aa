package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the wire format of schedule dates.
const DateLayout = "2006-01-02"

// TimeSlot is a time-of-day segment of a working day.
type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "morning"
	TimeSlotAfternoon TimeSlot = "afternoon"
	TimeSlotEvening   TimeSlot = "evening"
)

// TimeSlots lists the segments in day order.
var TimeSlots = []TimeSlot{TimeSlotMorning, TimeSlotAfternoon, TimeSlotEvening}

// Order returns the position of the segment within a day, or -1 if unknown.
func (t TimeSlot) Order() int {
	for i, slot := range TimeSlots {
		if t == slot {
			return i
		}
	}
	return -1
}

// Valid reports whether t is a known segment.
func (t TimeSlot) Valid() bool {
	return t.Order() >= 0
}

// ScheduleSlot is one staffing position on a date and segment.
// A slot is filled when AssignedStaffID is set and non-empty.
type ScheduleSlot struct {
	ID              string   `json:"id"`
	OwnerID         string   `json:"ownerId"`
	Date            string   `json:"date"`
	TimeSlot        TimeSlot `json:"timeSlot"`
	AssignedStaffID *string  `json:"assignedStaffId,omitempty"`
	CreatedTs       int64    `json:"createdTs"`
}

// IsFilled reports whether a staff member is assigned.
func (s *ScheduleSlot) IsFilled() bool {
	return s.AssignedStaffID != nil && *s.AssignedStaffID != ""
}

// ParseDate parses the slot date in UTC.
func (s *ScheduleSlot) ParseDate() (time.Time, error) {
	d, err := time.Parse(DateLayout, s.Date)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid slot date %q", s.Date)
	}
	return d, nil
}

// FindScheduleSlot is the find condition for schedule slots.
// StartDate and EndDate are inclusive YYYY-MM-DD bounds.
type FindScheduleSlot struct {
	ID        *string
	OwnerID   *string
	StartDate *string
	EndDate   *string
}

// UpdateScheduleSlot is the update request for a schedule slot.
// A nil AssignedStaffID with ClearAssignment unassigns the slot.
type UpdateScheduleSlot struct {
	ID              string
	AssignedStaffID *string
	ClearAssignment bool
}

// DateRange is an inclusive range of whole days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether day falls within the range.
func (r DateRange) Contains(day time.Time) bool {
	return !day.Before(r.Start) && !day.After(r.End)
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// CreateScheduleSlot creates a new schedule slot.
func (s *Store) CreateScheduleSlot(ctx context.Context, create *ScheduleSlot) (*ScheduleSlot, error) {
	return s.driver.CreateScheduleSlot(ctx, create)
}

// ListScheduleSlots lists schedule slots with filter.
func (s *Store) ListScheduleSlots(ctx context.Context, find *FindScheduleSlot) ([]*ScheduleSlot, error) {
	return s.driver.ListScheduleSlots(ctx, find)
}

// GetScheduleSlot gets a single schedule slot, or nil when none matches.
func (s *Store) GetScheduleSlot(ctx context.Context, find *FindScheduleSlot) (*ScheduleSlot, error) {
	list, err := s.driver.ListScheduleSlots(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateScheduleSlot updates a schedule slot.
func (s *Store) UpdateScheduleSlot(ctx context.Context, update *UpdateScheduleSlot) error {
	return s.driver.UpdateScheduleSlot(ctx, update)
}

// FetchScheduleSlots returns every slot of the owner dated within r.
func (s *Store) FetchScheduleSlots(ctx context.Context, ownerID string, r DateRange) ([]*ScheduleSlot, error) {
	start, end := r.Start.Format(DateLayout), r.End.Format(DateLayout)
	return s.driver.ListScheduleSlots(ctx, &FindScheduleSlot{
		OwnerID:   &ownerID,
		StartDate: &start,
		EndDate:   &end,
	})
}
