package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/shiftcover/internal/profile"
	"github.com/hrygo/shiftcover/server"
	"github.com/hrygo/shiftcover/store"
	"github.com/hrygo/shiftcover/store/db"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

var (
	rootCmd = &cobra.Command{
		Use:   "shiftcover",
		Short: `A cached staffing coverage service for shift schedules.`,
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile, err := loadProfile()
			if err != nil {
				slog.Error("failed to load profile", "error", err)
				os.Exit(1)
			}

			ctx, cancel := context.WithCancel(context.Background())
			s, err := buildServer(ctx, instanceProfile, server.NewServer)
			if err != nil {
				cancel()
				slog.Error("failed to create server", "error", err)
				return
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			// The default signal sent by the `kill` command is SIGTERM,
			// which is taken as the graceful shutdown signal for many systems, eg., Kubernetes, Gunicorn.
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)

			if err := s.Start(ctx); err != nil {
				slog.Error("failed to start server", "error", err)
				s.Shutdown(ctx)
				cancel()
				return
			}

			printGreetings(instanceProfile)

			go func() {
				<-c
				s.Shutdown(ctx)
				cancel()
			}()

			// Wait for CTRL-C.
			<-ctx.Done()
		},
	}
)

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)
	viper.SetDefault("cache-driver", "memory")

	rootCmd.PersistentFlags().String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "schedule store driver (sqlite or postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "schedule store source name")
	rootCmd.PersistentFlags().String("cache-driver", "memory", "cache backend (memory or sqlite)")
	rootCmd.PersistentFlags().String("cache-dsn", "", "cache database file for the sqlite backend")
	rootCmd.PersistentFlags().String("timezone", "", "timezone used to resolve the current month")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn", "cache-driver", "cache-dsn", "timezone"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("shiftcover")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(newOverviewCmd(), newCacheCmd(), newWarmCmd())
}

// loadProfile merges flags and SHIFTCOVER_* variables into a validated profile.
func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{}
	instanceProfile.FromEnv()

	instanceProfile.Mode = viper.GetString("mode")
	instanceProfile.Addr = viper.GetString("addr")
	instanceProfile.Port = viper.GetInt("port")
	instanceProfile.Data = viper.GetString("data")
	instanceProfile.Driver = viper.GetString("driver")
	instanceProfile.DSN = viper.GetString("dsn")
	instanceProfile.CacheDriver = viper.GetString("cache-driver")
	instanceProfile.Version = version
	if dsn := viper.GetString("cache-dsn"); dsn != "" {
		instanceProfile.CacheDSN = dsn
	}
	if tz := viper.GetString("timezone"); tz != "" {
		instanceProfile.Timezone = tz
	}

	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

// openStore connects to the schedule store and applies the schema.
func openStore(ctx context.Context, instanceProfile *profile.Profile) (*store.Store, error) {
	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, err
	}

	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		storeInstance.Close()
		return nil, err
	}
	return storeInstance, nil
}

type serverFactory func(ctx context.Context, profile *profile.Profile, store *store.Store) (*server.Server, error)

// buildServer opens the store and hands it to newServer. The store is closed
// when the server cannot be created.
func buildServer(ctx context.Context, instanceProfile *profile.Profile, newServer serverFactory) (*server.Server, error) {
	storeInstance, err := openStore(ctx, instanceProfile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open store")
	}

	s, err := newServer(ctx, instanceProfile, storeInstance)
	if err != nil {
		if closeErr := storeInstance.Close(); closeErr != nil {
			slog.Error("failed to close store", "error", closeErr)
		}
		return nil, err
	}
	return s, nil
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Shiftcover %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if profile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Schedule store: %s\n", profile.DSN)
		}
	}

	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Cache backend: %s\n", profile.CacheDriver)

	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
		fmt.Printf("Access your schedule at: http://localhost:%d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
		fmt.Printf("Access your schedule at: http://%s:%d\n", profile.Addr, profile.Port)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
