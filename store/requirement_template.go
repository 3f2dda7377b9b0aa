package store

import (
	"context"
	"time"
)

// SlotRequirements maps a segment to its required head count.
type SlotRequirements map[TimeSlot]int

// RequirementTemplate holds the target staffing of an owner for a period.
// DateOverrides are keyed by YYYY-MM-DD and take precedence over WeekdayRequirements.
type RequirementTemplate struct {
	OwnerID             string                            `json:"ownerId"`
	Period              string                            `json:"period"`
	WeekdayRequirements map[time.Weekday]SlotRequirements `json:"weekdayRequirements"`
	DateOverrides       map[string]SlotRequirements       `json:"dateOverrides"`
	UpdatedTs           int64                             `json:"updatedTs"`
}

// Required returns the head count required on day for slot.
// A nil template requires nobody.
func (t *RequirementTemplate) Required(day time.Time, slot TimeSlot) int {
	if t == nil {
		return 0
	}
	if override, ok := t.DateOverrides[day.Format(DateLayout)]; ok {
		if n, ok := override[slot]; ok {
			return n
		}
	}
	return t.WeekdayRequirements[day.Weekday()][slot]
}

// FindRequirementTemplate is the find condition for requirement templates.
type FindRequirementTemplate struct {
	OwnerID *string
	Period  *string
}

// UpsertRequirementTemplate creates or replaces the template of an owner and period.
func (s *Store) UpsertRequirementTemplate(ctx context.Context, upsert *RequirementTemplate) (*RequirementTemplate, error) {
	return s.driver.UpsertRequirementTemplate(ctx, upsert)
}

// ListRequirementTemplates lists requirement templates with filter.
func (s *Store) ListRequirementTemplates(ctx context.Context, find *FindRequirementTemplate) ([]*RequirementTemplate, error) {
	return s.driver.ListRequirementTemplates(ctx, find)
}

// FetchRequirementTemplate returns the template of an owner for period, or nil when absent.
func (s *Store) FetchRequirementTemplate(ctx context.Context, ownerID, period string) (*RequirementTemplate, error) {
	list, err := s.driver.ListRequirementTemplates(ctx, &FindRequirementTemplate{
		OwnerID: &ownerID,
		Period:  &period,
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
