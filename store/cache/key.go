package cache

import "strings"

// Category is the first path segment of every cache key.
type Category string

const (
	CategoryStaffList           Category = "staff-list"
	CategoryRequirementTemplate Category = "requirement-template"
	CategoryScheduleOverview    Category = "schedule-overview"
	CategoryDashboardSummary    Category = "dashboard-summary"
	CategoryConversation        Category = "conversation"
)

// KeySeparator separates category, owner and period in a key.
const KeySeparator = "/"

// Categories lists every known category, used for bulk clearing.
var Categories = []Category{
	CategoryStaffList,
	CategoryRequirementTemplate,
	CategoryScheduleOverview,
	CategoryDashboardSummary,
	CategoryConversation,
}

// IsKnown reports whether c is one of Categories.
func (c Category) IsKnown() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Prefix returns the key prefix shared by every entry of the category.
func (c Category) Prefix() string {
	return string(c) + KeySeparator
}

// Key builds a resource cache key: category/owner[/extra...].
// Empty extra components are skipped.
func Key(category Category, ownerID string, extra ...string) string {
	parts := make([]string, 0, 2+len(extra))
	parts = append(parts, string(category), ownerID)
	for _, e := range extra {
		if e != "" {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, KeySeparator)
}

// CategoryOf recovers the category segment of a key.
func CategoryOf(key string) string {
	if i := strings.Index(key, KeySeparator); i >= 0 {
		return key[:i]
	}
	return key
}
