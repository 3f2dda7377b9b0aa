package coverage

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/shiftcover/store"
)

func newSlot(id, date string, slot store.TimeSlot, staffID string) *store.ScheduleSlot {
	s := &store.ScheduleSlot{ID: id, OwnerID: "clinic-1", Date: date, TimeSlot: slot}
	if staffID != "" {
		s.AssignedStaffID = &staffID
	}
	return s
}

func mustPeriod(t *testing.T, s string) Period {
	t.Helper()
	p, err := ParsePeriod(s)
	require.NoError(t, err)
	return p
}

func everyDay(req store.SlotRequirements) map[time.Weekday]store.SlotRequirements {
	m := make(map[time.Weekday]store.SlotRequirements, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		m[d] = req
	}
	return m
}

func TestComputeOverview_NoSlots(t *testing.T) {
	overview := ComputeOverview("clinic-1", mustPeriod(t, "2026-10"), nil, nil)

	assert.Equal(t, 0, overview.TotalSlots)
	assert.Equal(t, 0, overview.FilledSlots)
	assert.Equal(t, 0, overview.EmptySlots)
	assert.Equal(t, 0.0, overview.FillRate)
	assert.Empty(t, overview.ProblemAreas)

	require.Len(t, overview.WeeklyBreakdown, 5)
	for _, week := range overview.WeeklyBreakdown {
		assert.Equal(t, 0, week.TotalSlots)
		assert.Equal(t, 0.0, week.FillRate)
	}
}

func TestComputeOverview_Totals(t *testing.T) {
	slots := []*store.ScheduleSlot{
		newSlot("1", "2026-10-01", store.TimeSlotMorning, "ann"),
		newSlot("2", "2026-10-01", store.TimeSlotMorning, ""),
		newSlot("3", "2026-10-15", store.TimeSlotEvening, "bo"),
		newSlot("4", "2026-10-31", store.TimeSlotAfternoon, ""),
		newSlot("5", "2026-11-01", store.TimeSlotMorning, "cy"),
		newSlot("6", "not-a-date", store.TimeSlotMorning, "cy"),
		newSlot("7", "2026-10-02", store.TimeSlot("night"), "cy"),
	}
	empty := ""
	slots[3].AssignedStaffID = &empty

	overview := ComputeOverview("clinic-1", mustPeriod(t, "2026-10"), slots, nil)

	assert.Equal(t, "2026-10", overview.Period)
	assert.Equal(t, 4, overview.TotalSlots)
	assert.Equal(t, 2, overview.FilledSlots)
	assert.Equal(t, 2, overview.EmptySlots)
	assert.InDelta(t, 50.0, overview.FillRate, 1e-9)
}

func TestComputeOverview_WeeklyPartition(t *testing.T) {
	periods := []string{"2026-10", "2026-02", "2026-10-01..2026-10-01", "2026-10-05..2026-10-20"}

	for _, label := range periods {
		t.Run(label, func(t *testing.T) {
			period := mustPeriod(t, label)

			var slots []*store.ScheduleSlot
			for day, i := period.Start.AddDate(0, 0, -3), 0; !day.After(period.End.AddDate(0, 0, 3)); day, i = day.AddDate(0, 0, 1), i+1 {
				for j, segment := range store.TimeSlots[:1+i%3] {
					staff := ""
					if (i+j)%2 == 0 {
						staff = "ann"
					}
					slots = append(slots, newSlot(fmt.Sprintf("%d-%d", i, j), day.Format(store.DateLayout), segment, staff))
				}
			}

			overview := ComputeOverview("clinic-1", period, slots, nil)

			sum, filled := 0, 0
			next := period.Start
			for i, week := range overview.WeeklyBreakdown {
				assert.Equal(t, i+1, week.WeekNumber)
				assert.Equal(t, next.Format(store.DateLayout), week.StartDate, "windows leave no gap")
				end, err := time.Parse(store.DateLayout, week.EndDate)
				require.NoError(t, err)
				assert.False(t, end.After(period.End))
				next = end.AddDate(0, 0, 1)

				sum += week.TotalSlots
				filled += week.FilledSlots
			}
			assert.Equal(t, period.End.AddDate(0, 0, 1), next, "windows cover the period")
			assert.Equal(t, overview.TotalSlots, sum)
			assert.Equal(t, overview.FilledSlots, filled)
		})
	}

	t.Run("ClippedLastWindow", func(t *testing.T) {
		overview := ComputeOverview("clinic-1", mustPeriod(t, "2026-10"), nil, nil)
		last := overview.WeeklyBreakdown[len(overview.WeeklyBreakdown)-1]
		assert.Equal(t, "2026-10-29", last.StartDate)
		assert.Equal(t, "2026-10-31", last.EndDate)
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		required int
		current  int
		issue    IssueKind
		severity Severity
		flagged  bool
	}{
		{"Empty", 4, 0, IssueEmpty, SeverityHigh, true},
		{"UnderstaffedHigh", 4, 1, IssueUnderstaffed, SeverityHigh, true},
		{"UnderstaffedMedium", 4, 2, IssueUnderstaffed, SeverityMedium, true},
		{"WithinTolerance", 4, 3, "", "", false},
		{"Exact", 4, 4, "", "", false},
		{"UpperTolerance", 4, 5, "", "", false},
		{"Overstaffed", 4, 6, IssueOverstaffed, SeverityLow, true},
		{"NothingRequired", 0, 0, "", "", false},
		{"NothingRequiredButStaffed", 0, 1, IssueOverstaffed, SeverityLow, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue, severity, ok := Classify(tt.required, tt.current)
			assert.Equal(t, tt.flagged, ok)
			assert.Equal(t, tt.issue, issue)
			assert.Equal(t, tt.severity, severity)
		})
	}
}

func TestComputeOverview_FridayOverride(t *testing.T) {
	template := &store.RequirementTemplate{
		OwnerID: "clinic-1",
		Period:  "2026-10",
		WeekdayRequirements: everyDay(store.SlotRequirements{
			store.TimeSlotMorning:   2,
			store.TimeSlotAfternoon: 3,
			store.TimeSlotEvening:   2,
		}),
		DateOverrides: map[string]store.SlotRequirements{
			"2026-10-02": {store.TimeSlotMorning: 3, store.TimeSlotAfternoon: 4, store.TimeSlotEvening: 3},
		},
	}
	slots := []*store.ScheduleSlot{
		newSlot("1", "2026-10-02", store.TimeSlotMorning, "ann"),
		newSlot("2", "2026-10-02", store.TimeSlotMorning, ""),
		newSlot("3", "2026-10-02", store.TimeSlotMorning, ""),
	}

	overview := ComputeOverview("clinic-1", mustPeriod(t, "2026-10"), slots, Templates{"2026-10": template})

	require.Len(t, overview.ProblemAreas, 1)
	assert.Equal(t, ProblemArea{
		Date:          "2026-10-02",
		TimeSlot:      store.TimeSlotMorning,
		Issue:         IssueUnderstaffed,
		Severity:      SeverityHigh,
		RequiredStaff: 3,
		CurrentStaff:  1,
	}, overview.ProblemAreas[0])
}

func TestComputeOverview_ProblemAreaOrder(t *testing.T) {
	template := &store.RequirementTemplate{
		WeekdayRequirements: everyDay(store.SlotRequirements{
			store.TimeSlotMorning: 4,
			store.TimeSlotEvening: 1,
		}),
	}
	slots := []*store.ScheduleSlot{
		newSlot("a", "2026-10-03", store.TimeSlotMorning, ""),
		newSlot("b", "2026-10-01", store.TimeSlotEvening, "ann"),
		newSlot("c", "2026-10-01", store.TimeSlotEvening, "bo"),
		newSlot("d", "2026-10-02", store.TimeSlotMorning, ""),
		newSlot("e", "2026-10-01", store.TimeSlotMorning, "ann"),
		newSlot("f", "2026-10-01", store.TimeSlotMorning, "bo"),
		newSlot("g", "2026-10-01", store.TimeSlotMorning, ""),
		newSlot("h", "2026-10-01", store.TimeSlotMorning, ""),
	}

	overview := ComputeOverview("clinic-1", mustPeriod(t, "2026-10"), slots, Templates{"2026-10": template})

	type area struct {
		date     string
		slot     store.TimeSlot
		severity Severity
	}
	var got []area
	for _, a := range overview.ProblemAreas {
		got = append(got, area{a.Date, a.TimeSlot, a.Severity})
	}
	assert.Equal(t, []area{
		{"2026-10-02", store.TimeSlotMorning, SeverityHigh},
		{"2026-10-03", store.TimeSlotMorning, SeverityHigh},
		{"2026-10-01", store.TimeSlotMorning, SeverityMedium},
		{"2026-10-01", store.TimeSlotEvening, SeverityLow},
	}, got)

	again := ComputeOverview("clinic-1", mustPeriod(t, "2026-10"), slots, Templates{"2026-10": template})
	assert.Equal(t, overview, again, "overview is reproducible")
}

func TestComputeOverview_TemplatePerMonth(t *testing.T) {
	october := &store.RequirementTemplate{
		Period:              "2026-10",
		WeekdayRequirements: everyDay(store.SlotRequirements{store.TimeSlotMorning: 1}),
	}
	november := &store.RequirementTemplate{
		Period:              "2026-11",
		WeekdayRequirements: everyDay(store.SlotRequirements{store.TimeSlotMorning: 3}),
	}
	slots := []*store.ScheduleSlot{
		newSlot("1", "2026-10-31", store.TimeSlotMorning, "ann"),
		newSlot("2", "2026-11-01", store.TimeSlotMorning, "ann"),
	}

	overview := ComputeOverview("clinic-1", mustPeriod(t, "2026-10-31..2026-11-01"), slots,
		Templates{"2026-10": october, "2026-11": november})

	require.Len(t, overview.ProblemAreas, 1)
	assert.Equal(t, ProblemArea{
		Date:          "2026-11-01",
		TimeSlot:      store.TimeSlotMorning,
		Issue:         IssueUnderstaffed,
		Severity:      SeverityHigh,
		RequiredStaff: 3,
		CurrentStaff:  1,
	}, overview.ProblemAreas[0])
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		input   string
		start   string
		end     string
		wantErr bool
	}{
		{input: "2026-10", start: "2026-10-01", end: "2026-10-31"},
		{input: "2028-02", start: "2028-02-01", end: "2028-02-29"},
		{input: "2026-10-05..2026-10-20", start: "2026-10-05", end: "2026-10-20"},
		{input: "2026-10-20..2026-10-05", wantErr: true},
		{input: "2026-13", wantErr: true},
		{input: "October", wantErr: true},
		{input: "", wantErr: true},
		{input: "2026-01-01..2026-12-31", start: "2026-01-01", end: "2026-12-31"},
		{input: "2028-01-01..2028-12-31", start: "2028-01-01", end: "2028-12-31"},
		{input: "2026-01-01..2027-01-01", wantErr: true},
		{input: "0001-01-01..9999-12-31", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePeriod(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, p.Label)
			assert.Equal(t, tt.start, p.Start.Format(store.DateLayout))
			assert.Equal(t, tt.end, p.End.Format(store.DateLayout))
		})
	}

	assert.Equal(t, 31, mustPeriod(t, "2026-10").Days())
	assert.Equal(t, []string{"2026-10"}, mustPeriod(t, "2026-10").Months())
	assert.Equal(t, []string{"2026-10", "2026-11", "2026-12"}, mustPeriod(t, "2026-10-25..2026-12-01").Months())
	assert.Equal(t, "2026-10", MonthPeriod(time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC)).Label)
}

func TestSummarize(t *testing.T) {
	overview := &Overview{
		OwnerID:     "clinic-1",
		Period:      "2026-10",
		TotalSlots:  10,
		FilledSlots: 7,
		FillRate:    70,
		ProblemAreas: []ProblemArea{
			{Severity: SeverityHigh},
			{Severity: SeverityHigh},
			{Severity: SeverityLow},
		},
	}
	roster := []*store.Staff{{ID: "a", Active: true}, {ID: "b", Active: false}, {ID: "c", Active: true}}
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	summary := Summarize(overview, roster, now)

	assert.Equal(t, 3, summary.StaffCount)
	assert.Equal(t, 2, summary.ActiveStaffCount)
	assert.Equal(t, 3, summary.ProblemCount)
	assert.Equal(t, 2, summary.HighSeverityCount)
	assert.Equal(t, 70.0, summary.FillRate)
	assert.Equal(t, now, summary.GeneratedAt)
}
