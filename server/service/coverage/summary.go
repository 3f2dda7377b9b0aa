package coverage

import (
	"time"

	"github.com/hrygo/shiftcover/store"
)

// DashboardSummary condenses an owner's roster and current-period coverage.
type DashboardSummary struct {
	OwnerID           string    `json:"ownerId"`
	Period            string    `json:"period"`
	StaffCount        int       `json:"staffCount"`
	ActiveStaffCount  int       `json:"activeStaffCount"`
	TotalSlots        int       `json:"totalSlots"`
	FilledSlots       int       `json:"filledSlots"`
	FillRate          float64   `json:"fillRate"`
	ProblemCount      int       `json:"problemCount"`
	HighSeverityCount int       `json:"highSeverityCount"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// Summarize builds the dashboard summary from an overview and the owner's roster.
func Summarize(overview *Overview, roster []*store.Staff, now time.Time) *DashboardSummary {
	summary := &DashboardSummary{
		OwnerID:     overview.OwnerID,
		Period:      overview.Period,
		StaffCount:  len(roster),
		TotalSlots:  overview.TotalSlots,
		FilledSlots: overview.FilledSlots,
		FillRate:    overview.FillRate,
		GeneratedAt: now,
	}
	for _, staff := range roster {
		if staff.Active {
			summary.ActiveStaffCount++
		}
	}
	summary.ProblemCount = len(overview.ProblemAreas)
	for _, area := range overview.ProblemAreas {
		if area.Severity == SeverityHigh {
			summary.HighSeverityCount++
		}
	}
	return summary
}
