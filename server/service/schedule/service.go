// Package schedule performs the writes of the scheduling tool and keeps the
// cache-aside layer honest by invalidating what each write makes stale.
package schedule

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	apperrors "github.com/hrygo/shiftcover/server/internal/errors"
	"github.com/hrygo/shiftcover/server/service/coverage"
	"github.com/hrygo/shiftcover/store"
	"github.com/hrygo/shiftcover/store/cache"
)

// MaxRequiredStaff caps a single requirement count.
const MaxRequiredStaff = 1000

type service struct {
	store       Store
	invalidator Invalidator
}

// NewService creates a new schedule service.
func NewService(store Store, invalidator Invalidator) Service {
	return &service{store: store, invalidator: invalidator}
}

func (s *service) CreateStaff(ctx context.Context, ownerID string, create *CreateStaffRequest) (*store.Staff, error) {
	if ownerID == "" {
		return nil, apperrors.InvalidArgument("owner is required")
	}
	name := strings.TrimSpace(create.Name)
	if name == "" {
		return nil, apperrors.InvalidArgument("staff name is required")
	}
	active := true
	if create.Active != nil {
		active = *create.Active
	}

	staff, err := s.store.CreateStaff(ctx, &store.Staff{
		ID:      shortuuid.New(),
		OwnerID: ownerID,
		Name:    name,
		Role:    strings.TrimSpace(create.Role),
		Active:  active,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create staff")
	}

	s.invalidator.Invalidate(cache.CategoryStaffList, ownerID)
	slog.Info("staff created", "owner", ownerID, "staff", staff.ID)
	return staff, nil
}

func (s *service) UpsertRequirementTemplate(ctx context.Context, ownerID, period string, upsert *UpsertTemplateRequest) (*store.RequirementTemplate, error) {
	if ownerID == "" {
		return nil, apperrors.InvalidArgument("owner is required")
	}
	p, err := coverage.ParsePeriod(period)
	if err != nil || p.Label != p.TemplatePeriod() {
		return nil, apperrors.InvalidArgument("template period must be a month (YYYY-MM)")
	}

	weekdays := make(map[time.Weekday]store.SlotRequirements, len(upsert.WeekdayRequirements))
	for day, req := range upsert.WeekdayRequirements {
		if day < int(time.Sunday) || day > int(time.Saturday) {
			return nil, apperrors.InvalidArgument("weekday must be between 0 (Sunday) and 6 (Saturday)")
		}
		if err := validateRequirements(req); err != nil {
			return nil, err
		}
		weekdays[time.Weekday(day)] = req
	}
	for date, req := range upsert.DateOverrides {
		day, err := time.Parse(store.DateLayout, date)
		if err != nil {
			return nil, apperrors.InvalidArgument("invalid override date " + date)
		}
		if !p.DateRange().Contains(day) {
			return nil, apperrors.InvalidArgument("override date " + date + " is outside " + p.Label)
		}
		if err := validateRequirements(req); err != nil {
			return nil, err
		}
	}

	template, err := s.store.UpsertRequirementTemplate(ctx, &store.RequirementTemplate{
		OwnerID:             ownerID,
		Period:              p.Label,
		WeekdayRequirements: weekdays,
		DateOverrides:       upsert.DateOverrides,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert requirement template")
	}

	s.invalidator.Invalidate(cache.CategoryRequirementTemplate, ownerID, p.Label)
	slog.Info("requirement template saved", "owner", ownerID, "period", p.Label)
	return template, nil
}

func validateRequirements(req store.SlotRequirements) error {
	for slot, n := range req {
		if !slot.Valid() {
			return apperrors.InvalidArgument("unknown time slot " + string(slot))
		}
		if n < 0 || n > MaxRequiredStaff {
			return apperrors.InvalidArgument("required staff out of range for " + string(slot))
		}
	}
	return nil
}

func (s *service) CreateSlot(ctx context.Context, ownerID string, create *CreateSlotRequest) (*store.ScheduleSlot, error) {
	if ownerID == "" {
		return nil, apperrors.InvalidArgument("owner is required")
	}
	if _, err := time.Parse(store.DateLayout, create.Date); err != nil {
		return nil, apperrors.InvalidArgument("date must be YYYY-MM-DD")
	}
	if !create.TimeSlot.Valid() {
		return nil, apperrors.InvalidArgument("time slot must be morning, afternoon or evening")
	}
	if create.AssignedStaffID != nil && *create.AssignedStaffID != "" {
		if err := s.checkStaff(ctx, ownerID, *create.AssignedStaffID); err != nil {
			return nil, err
		}
	}

	slot, err := s.store.CreateScheduleSlot(ctx, &store.ScheduleSlot{
		ID:              shortuuid.New(),
		OwnerID:         ownerID,
		Date:            create.Date,
		TimeSlot:        create.TimeSlot,
		AssignedStaffID: create.AssignedStaffID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schedule slot")
	}

	s.invalidator.Invalidate(cache.CategoryScheduleOverview, ownerID)
	return slot, nil
}

func (s *service) AssignSlot(ctx context.Context, ownerID, slotID string, staffID *string) (*store.ScheduleSlot, error) {
	slot, err := s.store.GetScheduleSlot(ctx, &store.FindScheduleSlot{ID: &slotID, OwnerID: &ownerID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get schedule slot")
	}
	if slot == nil {
		return nil, apperrors.NotFound("schedule slot not found").WithContext("slot", slotID)
	}

	update := &store.UpdateScheduleSlot{ID: slotID}
	if staffID != nil && *staffID != "" {
		if err := s.checkStaff(ctx, ownerID, *staffID); err != nil {
			return nil, err
		}
		update.AssignedStaffID = staffID
	} else {
		update.ClearAssignment = true
	}

	if err := s.store.UpdateScheduleSlot(ctx, update); err != nil {
		return nil, errors.Wrap(err, "failed to update schedule slot")
	}
	slot.AssignedStaffID = update.AssignedStaffID

	s.invalidator.Invalidate(cache.CategoryScheduleOverview, ownerID)
	return slot, nil
}

// checkStaff rejects assignments to staff outside the owner's active roster.
func (s *service) checkStaff(ctx context.Context, ownerID, staffID string) error {
	active := true
	list, err := s.store.ListStaff(ctx, &store.FindStaff{ID: &staffID, OwnerID: &ownerID, Active: &active})
	if err != nil {
		return errors.Wrap(err, "failed to look up staff")
	}
	if len(list) == 0 {
		return apperrors.InvalidArgument("staff " + staffID + " is not an active member of the roster")
	}
	return nil
}
