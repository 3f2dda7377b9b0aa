package accessor

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/hrygo/shiftcover/store"
)

// limitedFetcher waits on a token bucket before every remote call.
type limitedFetcher struct {
	Fetcher
	limiter *rate.Limiter
}

func newLimitedFetcher(fetcher Fetcher, rps float64, burst int) Fetcher {
	if rps <= 0 {
		return fetcher
	}
	if burst < 1 {
		burst = 1
	}
	return &limitedFetcher{Fetcher: fetcher, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (f *limitedFetcher) wait(ctx context.Context) error {
	return errors.Wrap(f.limiter.Wait(ctx), "remote rate limit")
}

func (f *limitedFetcher) FetchStaffRoster(ctx context.Context, ownerID string) ([]*store.Staff, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.Fetcher.FetchStaffRoster(ctx, ownerID)
}

func (f *limitedFetcher) FetchRequirementTemplate(ctx context.Context, ownerID, period string) (*store.RequirementTemplate, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.Fetcher.FetchRequirementTemplate(ctx, ownerID, period)
}

func (f *limitedFetcher) FetchScheduleSlots(ctx context.Context, ownerID string, r store.DateRange) ([]*store.ScheduleSlot, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.Fetcher.FetchScheduleSlots(ctx, ownerID, r)
}
