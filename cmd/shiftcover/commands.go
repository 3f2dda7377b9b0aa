package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/shiftcover/internal/profile"
	"github.com/hrygo/shiftcover/server"
	"github.com/hrygo/shiftcover/server/service/accessor"
	"github.com/hrygo/shiftcover/server/timezone"
	"github.com/hrygo/shiftcover/store"
	"github.com/hrygo/shiftcover/store/cache"
)

// session bundles what the one-shot commands need.
type session struct {
	profile  *profile.Profile
	store    *store.Store
	cache    *cache.Store
	accessor *accessor.Accessor
}

func openSession(ctx context.Context) (*session, error) {
	instanceProfile, err := loadProfile()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load profile")
	}
	storeInstance, err := openStore(ctx, instanceProfile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open store")
	}
	c, err := server.NewCacheStore(ctx, instanceProfile)
	if err != nil {
		storeInstance.Close()
		return nil, err
	}
	return &session{
		profile:  instanceProfile,
		store:    storeInstance,
		cache:    c,
		accessor: accessor.New(c, storeInstance, accessor.ConfigFromProfile(instanceProfile)),
	}, nil
}

func (r *session) Close() {
	r.accessor.Close()
	r.cache.Close()
	r.store.Close()
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newOverviewCmd() *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "overview <owner>",
		Short: "Print the coverage overview of an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			if period == "" {
				period = timezone.CurrentMonth(time.Now(), timezone.LocationOrUTC(r.profile.Timezone))
			}
			overview, _, err := r.accessor.GetOptimizedOverview(ctx, args[0], period)
			if err != nil {
				return err
			}
			return printJSON(overview)
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "YYYY-MM or YYYY-MM-DD..YYYY-MM-DD (default: current month)")
	return cmd
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the persistent cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print the live cache entries per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer r.Close()
			return printJSON(r.accessor.CacheStats())
		},
	}, &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer r.Close()
			return printJSON(map[string]int{"cleared": r.accessor.ClearAll()})
		},
	})
	return cmd
}

func newWarmCmd() *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "warm <owner>...",
		Short: "Load the roster, template and overview of owners into the cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			if period == "" {
				period = timezone.CurrentMonth(time.Now(), timezone.LocationOrUTC(r.profile.Timezone))
			}
			if err := r.accessor.Warm(ctx, args, period); err != nil {
				return err
			}
			return printJSON(r.accessor.CacheStats())
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "period to warm (default: current month)")
	return cmd
}
