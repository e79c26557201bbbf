package main

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"rentfinder/internal/adapters/imageprobe"
	"rentfinder/internal/adapters/observability"
	"rentfinder/internal/app"
	"rentfinder/internal/catalog"
	"rentfinder/internal/shared"
	mysqlrepo "rentfinder/internal/storage/mysql"
)

func rootCmd() *cobra.Command {
	var (
		count   int
		workers int
		probe   bool
		dsn     string
	)

	cmd := &cobra.Command{
		Use:          "seeder",
		Short:        "Write the sample listing set into MySQL",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := shared.Load()
			log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

			if !cmd.Flags().Changed("count") {
				count = cfg.SampleSize
			}
			if !cmd.Flags().Changed("workers") {
				workers = cfg.ProbeWorkers
			}
			if dsn == "" {
				dsn = cfg.MySQLDSN
			}
			if workers <= 0 {
				return fmt.Errorf("--workers must be positive, got %d", workers)
			}
			return run(cmd.Context(), dsn, count, workers, probe, cfg.ProbeRPS)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 8, "number of sample listings to write")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "concurrent writes")
	cmd.Flags().BoolVar(&probe, "probe", false, "check listing images and record misses")
	cmd.Flags().StringVar(&dsn, "dsn", "", "MySQL DSN (default $MYSQL_DSN)")
	return cmd
}

func run(ctx context.Context, dsn string, count, workers int, probe bool, probeRPS int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log.Info().Int("count", count).Int("workers", workers).Bool("probe", probe).Msg("seeder starting")

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	seed := app.NewSeedService(repo)
	listings := catalog.Sample(count)

	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)
	for _, l := range listings {
		l := l

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return fmt.Errorf("semaphore acquire: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if err := seed.SeedListing(ctx, l); err != nil {
				failed.Add(1)
				log.Warn().Int64("id", l.ID).Err(err).Msg("seed failed")
				return
			}
			log.Debug().Int64("id", l.ID).Msg("seed ok")
		}()
	}
	wg.Wait()

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d listings failed to seed", n, len(listings))
	}
	log.Info().Int("count", len(listings)).Msg("seeding completed")

	if probe {
		status := app.NewImageStatus("")
		broken, err := app.ProbeImages(ctx, imageprobe.New(probeRPS, 10*time.Second), listings, workers, status, repo)
		if err != nil {
			return fmt.Errorf("image probe: %w", err)
		}
		log.Info().Int("broken", broken).Msg("image probe completed")
	}
	return nil
}
