package store

import "context"

// Staff is a roster record.
type Staff struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
	CreatedTs int64  `json:"createdTs"`
}

// FindStaff is the find condition for staff.
type FindStaff struct {
	ID      *string
	OwnerID *string
	Active  *bool
}

// CreateStaff creates a new staff record.
func (s *Store) CreateStaff(ctx context.Context, create *Staff) (*Staff, error) {
	return s.driver.CreateStaff(ctx, create)
}

// ListStaff lists staff with filter.
func (s *Store) ListStaff(ctx context.Context, find *FindStaff) ([]*Staff, error) {
	return s.driver.ListStaff(ctx, find)
}

// FetchStaffRoster returns the full roster of an owner.
func (s *Store) FetchStaffRoster(ctx context.Context, ownerID string) ([]*Staff, error) {
	return s.driver.ListStaff(ctx, &FindStaff{OwnerID: &ownerID})
}
