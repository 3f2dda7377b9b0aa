// Package coverage derives staffing coverage from schedule slots and requirement templates.
//
// Everything here is a pure computation: the same slots and template always produce
// the same overview, including the order of problem areas.
package coverage

import (
	"log/slog"
	"sort"
	"time"

	"github.com/hrygo/shiftcover/store"
)

const (
	// UnderstaffedRatio flags a segment whose filled count is below this share of the requirement.
	UnderstaffedRatio = 0.7
	// CriticalRatio raises an understaffed segment to high severity.
	CriticalRatio = 0.5
	// OverstaffedRatio flags a segment whose filled count is above this share of the requirement.
	OverstaffedRatio = 1.3
)

// IssueKind classifies a problem area.
type IssueKind string

const (
	IssueEmpty        IssueKind = "empty"
	IssueUnderstaffed IssueKind = "understaffed"
	IssueOverstaffed  IssueKind = "overstaffed"
)

// Severity ranks a problem area.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// WeeklyBreakdown is the fill rate of one 7-day window of a period.
type WeeklyBreakdown struct {
	WeekNumber  int     `json:"weekNumber"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	TotalSlots  int     `json:"totalSlots"`
	FilledSlots int     `json:"filledSlots"`
	FillRate    float64 `json:"fillRate"`
}

// ProblemArea is a date and segment whose staffing deviates from its requirement.
type ProblemArea struct {
	Date          string         `json:"date"`
	TimeSlot      store.TimeSlot `json:"timeSlot"`
	Issue         IssueKind      `json:"issue"`
	Severity      Severity       `json:"severity"`
	RequiredStaff int            `json:"requiredStaff"`
	CurrentStaff  int            `json:"currentStaff"`
}

// Overview is the coverage of an owner's schedule over a period.
type Overview struct {
	OwnerID         string            `json:"ownerId"`
	Period          string            `json:"period"`
	TotalSlots      int               `json:"totalSlots"`
	FilledSlots     int               `json:"filledSlots"`
	EmptySlots      int               `json:"emptySlots"`
	FillRate        float64           `json:"fillRate"`
	WeeklyBreakdown []WeeklyBreakdown `json:"weeklyBreakdown"`
	ProblemAreas    []ProblemArea     `json:"problemAreas"`
}

type segmentKey struct {
	date time.Time
	slot store.TimeSlot
}

// Templates holds requirement templates keyed by month (YYYY-MM).
type Templates map[string]*store.RequirementTemplate

// For returns the template of the month containing day, nil when there is none.
func (t Templates) For(day time.Time) *store.RequirementTemplate {
	return t[day.Format(monthLayout)]
}

// ComputeOverview computes totals, weekly windows and problem areas for period.
// Each day is measured against the template of its own month.
// Slots dated outside the period, with an unparsable date or an unknown segment are ignored.
// A month without a template requires nobody, so its filled segments are reported as overstaffed.
func ComputeOverview(ownerID string, period Period, slots []*store.ScheduleSlot, templates Templates) *Overview {
	overview := &Overview{
		OwnerID:      ownerID,
		Period:       period.Label,
		ProblemAreas: []ProblemArea{},
	}

	inPeriod := make([]*store.ScheduleSlot, 0, len(slots))
	days := make(map[*store.ScheduleSlot]time.Time, len(slots))
	for _, slot := range slots {
		day, err := slot.ParseDate()
		if err != nil {
			slog.Warn("skipping schedule slot with invalid date", "owner", ownerID, "slot", slot.ID, "error", err)
			continue
		}
		if !slot.TimeSlot.Valid() {
			slog.Warn("skipping schedule slot with unknown segment", "owner", ownerID, "slot", slot.ID, "time_slot", slot.TimeSlot)
			continue
		}
		if !period.DateRange().Contains(day) {
			continue
		}
		inPeriod = append(inPeriod, slot)
		days[slot] = day
	}

	overview.TotalSlots, overview.FilledSlots = countSlots(inPeriod)
	overview.EmptySlots = overview.TotalSlots - overview.FilledSlots
	overview.FillRate = fillRate(overview.FilledSlots, overview.TotalSlots)

	overview.WeeklyBreakdown = weeklyBreakdown(period, inPeriod, days)
	overview.ProblemAreas = problemAreas(inPeriod, days, templates)
	return overview
}

func countSlots(slots []*store.ScheduleSlot) (total, filled int) {
	for _, slot := range slots {
		total++
		if slot.IsFilled() {
			filled++
		}
	}
	return total, filled
}

func fillRate(filled, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(filled) / float64(total) * 100
}

// weeklyBreakdown splits the period into consecutive 7-day windows from its start.
// The last window is clipped to the period end, so windows never overlap or leave gaps.
func weeklyBreakdown(period Period, slots []*store.ScheduleSlot, days map[*store.ScheduleSlot]time.Time) []WeeklyBreakdown {
	weeks := []WeeklyBreakdown{}
	for start, n := period.Start, 1; !start.After(period.End); start, n = start.AddDate(0, 0, daysPerWeek), n+1 {
		end := start.AddDate(0, 0, daysPerWeek-1)
		if end.After(period.End) {
			end = period.End
		}
		window := store.DateRange{Start: start, End: end}

		week := WeeklyBreakdown{
			WeekNumber: n,
			StartDate:  start.Format(store.DateLayout),
			EndDate:    end.Format(store.DateLayout),
		}
		for _, slot := range slots {
			if !window.Contains(days[slot]) {
				continue
			}
			week.TotalSlots++
			if slot.IsFilled() {
				week.FilledSlots++
			}
		}
		week.FillRate = fillRate(week.FilledSlots, week.TotalSlots)
		weeks = append(weeks, week)
	}
	return weeks
}

// problemAreas classifies every distinct date and segment that has slots.
// Areas are enumerated chronologically, then stably sorted by severity.
func problemAreas(slots []*store.ScheduleSlot, days map[*store.ScheduleSlot]time.Time, templates Templates) []ProblemArea {
	filled := make(map[segmentKey]int)
	var segments []segmentKey
	for _, slot := range slots {
		key := segmentKey{date: days[slot], slot: slot.TimeSlot}
		if _, seen := filled[key]; !seen {
			filled[key] = 0
			segments = append(segments, key)
		}
		if slot.IsFilled() {
			filled[key]++
		}
	}

	sort.Slice(segments, func(i, j int) bool {
		if !segments[i].date.Equal(segments[j].date) {
			return segments[i].date.Before(segments[j].date)
		}
		return segments[i].slot.Order() < segments[j].slot.Order()
	})

	areas := []ProblemArea{}
	for _, segment := range segments {
		required := templates.For(segment.date).Required(segment.date, segment.slot)
		current := filled[segment]
		issue, severity, ok := Classify(required, current)
		if !ok {
			continue
		}
		areas = append(areas, ProblemArea{
			Date:          segment.date.Format(store.DateLayout),
			TimeSlot:      segment.slot,
			Issue:         issue,
			Severity:      severity,
			RequiredStaff: required,
			CurrentStaff:  current,
		})
	}

	sort.SliceStable(areas, func(i, j int) bool {
		return areas[i].Severity.rank() > areas[j].Severity.rank()
	})
	return areas
}

// Classify compares the filled head count of a segment against its requirement.
// The first matching rule wins: empty, understaffed, overstaffed. ok is false when
// staffing is within tolerance.
func Classify(required, current int) (issue IssueKind, severity Severity, ok bool) {
	req, cur := float64(required), float64(current)
	switch {
	case current == 0 && required > 0:
		return IssueEmpty, SeverityHigh, true
	case cur < req*UnderstaffedRatio:
		if cur < req*CriticalRatio {
			return IssueUnderstaffed, SeverityHigh, true
		}
		return IssueUnderstaffed, SeverityMedium, true
	case cur > req*OverstaffedRatio:
		return IssueOverstaffed, SeverityLow, true
	default:
		return "", "", false
	}
}
