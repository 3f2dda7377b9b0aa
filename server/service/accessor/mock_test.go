package accessor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hrygo/shiftcover/store"
)

// mockFetcher is an in-memory Fetcher with call counters and optional gating.
type mockFetcher struct {
	mu        sync.Mutex
	roster    map[string][]*store.Staff
	templates map[string]*store.RequirementTemplate // owner/period
	slots     map[string][]*store.ScheduleSlot
	err       error

	// gate, when set, blocks every fetch until closed.
	gate chan struct{}

	rosterCalls   atomic.Int32
	templateCalls atomic.Int32
	slotCalls     atomic.Int32
	lastRange     store.DateRange
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		roster:    make(map[string][]*store.Staff),
		templates: make(map[string]*store.RequirementTemplate),
		slots:     make(map[string][]*store.ScheduleSlot),
	}
}

func (m *mockFetcher) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockFetcher) setRoster(ownerID string, staff ...*store.Staff) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roster[ownerID] = staff
}

func (m *mockFetcher) setTemplate(t *store.RequirementTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.OwnerID+"/"+t.Period] = t
}

func (m *mockFetcher) addSlots(ownerID string, slots ...*store.ScheduleSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[ownerID] = append(m.slots[ownerID], slots...)
}

func (m *mockFetcher) wait(ctx context.Context) error {
	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *mockFetcher) FetchStaffRoster(ctx context.Context, ownerID string) ([]*store.Staff, error) {
	m.rosterCalls.Add(1)
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.roster[ownerID], nil
}

func (m *mockFetcher) FetchRequirementTemplate(ctx context.Context, ownerID, period string) (*store.RequirementTemplate, error) {
	m.templateCalls.Add(1)
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.templates[ownerID+"/"+period], nil
}

func (m *mockFetcher) FetchScheduleSlots(ctx context.Context, ownerID string, r store.DateRange) ([]*store.ScheduleSlot, error) {
	m.slotCalls.Add(1)
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.lastRange = r
	var list []*store.ScheduleSlot
	for _, slot := range m.slots[ownerID] {
		day, err := slot.ParseDate()
		if err == nil && r.Contains(day) {
			list = append(list, slot)
		}
	}
	return list, nil
}
