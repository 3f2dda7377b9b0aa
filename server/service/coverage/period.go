package coverage

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/shiftcover/store"
)

const (
	monthLayout    = "2006-01"
	rangeSeparator = ".."
	daysPerWeek    = 7

	// MaxPeriodDays bounds explicit ranges.
	MaxPeriodDays = 366
)

// Period is an inclusive range of whole days in UTC, labelled the way it is keyed in the cache.
type Period struct {
	Label string
	Start time.Time
	End   time.Time
}

// ParsePeriod accepts a calendar month ("2026-10") or an explicit range
// ("2026-10-01..2026-10-14").
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Period{}, errors.New("period is empty")
	}

	if start, end, ok := strings.Cut(s, rangeSeparator); ok {
		from, err := time.Parse(store.DateLayout, start)
		if err != nil {
			return Period{}, errors.Wrapf(err, "invalid period start %q", start)
		}
		to, err := time.Parse(store.DateLayout, end)
		if err != nil {
			return Period{}, errors.Wrapf(err, "invalid period end %q", end)
		}
		if to.Before(from) {
			return Period{}, errors.Errorf("period %q ends before it starts", s)
		}
		p := Period{Label: s, Start: from, End: to}
		if p.Days() > MaxPeriodDays {
			return Period{}, errors.Errorf("period %q spans %d days, at most %d allowed", s, p.Days(), MaxPeriodDays)
		}
		return p, nil
	}

	month, err := time.Parse(monthLayout, s)
	if err != nil {
		return Period{}, errors.Wrapf(err, "invalid period %q, want YYYY-MM or YYYY-MM-DD..YYYY-MM-DD", s)
	}
	return MonthPeriod(month), nil
}

// MonthPeriod returns the calendar month containing t.
func MonthPeriod(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return Period{Label: start.Format(monthLayout), Start: start, End: end}
}

// DateRange converts the period for slot fetches.
func (p Period) DateRange() store.DateRange {
	return store.DateRange{Start: p.Start, End: p.End}
}

// TemplatePeriod names the calendar month of the period's first day.
func (p Period) TemplatePeriod() string {
	return p.Start.Format(monthLayout)
}

// Months lists the calendar months the period touches, in order.
// Each month has its own requirement template.
func (p Period) Months() []string {
	var months []string
	for m := time.Date(p.Start.Year(), p.Start.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(p.End); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format(monthLayout))
	}
	return months
}

// Days returns the number of days in the period.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

func (p Period) String() string {
	return p.Label
}
