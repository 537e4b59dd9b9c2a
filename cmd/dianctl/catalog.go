package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	catalogfile "github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/catalog/file"
	catalogpg "github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/catalog/postgres"
	catalogredis "github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/catalog/redis"
	danehttp "github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/dane/http"
	appcatalog "github.com/Darklegion92/backend-DIAN-sub001/internal/application/catalog"
	corecatalog "github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/config"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/database"
	infrahttp "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/http"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/logger"
	infraredis "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/redis"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Load and verify catalog tables",
	}
	cmd.AddCommand(
		newCatalogLoadCmd("seed", "Upsert catalog entries from a YAML seed file", loadYAML),
		newCatalogLoadCmd("import", "Upsert catalog entries from an Excel workbook, one sheet per catalog", catalogfile.LoadWorkbook),
		newVerifyMunicipalitiesCmd(),
	)
	return cmd
}

type entryLoader func(io.Reader) ([]corecatalog.Entry, []string, error)

func loadYAML(r io.Reader) ([]corecatalog.Entry, []string, error) {
	entries, err := catalogfile.LoadYAML(r)
	return entries, nil, err
}

// newCatalogLoadCmd upserts the entries read by load and invalidates the
// cached codes of every catalog touched.
func newCatalogLoadCmd(use, short string, load entryLoader) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readEntries(file, load)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no catalog entries found")
				return nil
			}

			return withMaintainer(cmd.Context(), func(m *appcatalog.Maintainer) error {
				written, err := m.Import(cmd.Context(), entries)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d catalog entries written\n", written)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "catalog file to load")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newVerifyMunicipalitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-municipalities",
		Short: "Report municipality codes unknown to the DANE registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMaintainer(cmd.Context(), func(m *appcatalog.Maintainer) error {
				report, err := m.VerifyMunicipalities(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%d municipalities checked, %d unknown\n", report.Checked, len(report.Unknown))
				for _, e := range report.Unknown {
					fmt.Fprintf(out, "  %s\t%d\t%s\n", e.Code, e.ID, e.Description)
				}
				if len(report.Unknown) > 0 {
					return fmt.Errorf("%d unknown municipality codes", len(report.Unknown))
				}
				return nil
			})
		},
	}
}

func readEntries(path string, load entryLoader) ([]corecatalog.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, skipped, err := load(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	for _, sheet := range skipped {
		fmt.Fprintf(os.Stderr, "skipped sheet %s\n", sheet)
	}
	return entries, nil
}

// withMaintainer opens the database, and Redis when enabled, for the
// duration of fn.
func withMaintainer(ctx context.Context, fn func(*appcatalog.Maintainer) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.App.Name+"-ctl", cfg.Log.Level, cfg.App.Environment)

	pool, err := database.NewPool(ctx, database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Database,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	store := catalogpg.NewStore(pool)

	var cache appcatalog.Invalidator
	if cfg.Redis.Enabled {
		client, err := infraredis.NewClient(ctx, infraredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: 2,
		})
		if err != nil {
			log.Warn("Redis unavailable, catalog cache will expire on its own", "error", err)
		} else {
			defer client.Close()
			cache = catalogredis.NewCachedStore(client, store, cfg.Catalog.CacheTTL, log)
		}
	}

	registry := danehttp.NewClient(cfg.DANE.BaseURL, infrahttp.NewClient(&infrahttp.ClientConfig{
		Timeout: cfg.DANE.Timeout,
	}), log)

	return fn(appcatalog.NewMaintainer(store, cache, registry, log))
}
