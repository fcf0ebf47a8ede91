package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sqliteadapter "github.com/keynai/keynai/internal/adapter/driven/sqlite"
	"github.com/keynai/keynai/internal/application"
	"github.com/keynai/keynai/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded", "db_path", cfg.DBPath, "format_cache_size", cfg.FormatCacheSize)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// 4. Run migrations and seed the closed vocabularies.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	if err := sqliteadapter.Seed(ctx, db); err != nil {
		return err
	}
	slog.Info("database ready", "path", cfg.DBPath)

	// 5. Wire adapters and services.
	profileStore := sqliteadapter.NewProfileRepo(db)
	formatStore := sqliteadapter.NewFormatRepo(db)
	serviceStore := sqliteadapter.NewServiceRepo(db)
	accountStore := sqliteadapter.NewAccountRepo(db)

	formatSvc, err := application.NewFormatService(formatStore, cfg.FormatCacheSize)
	if err != nil {
		return err
	}
	catalogSvc := application.NewCatalogService(serviceStore, formatStore, accountStore, formatSvc)
	accountSvc := application.NewAccountService(accountStore, profileStore, serviceStore, catalogSvc)
	profileSvc := application.NewProfileService(profileStore)

	// 6. Print the vault report.
	return report(ctx, profileSvc, accountSvc, catalogSvc)
}

// report walks every profile and prints its accounts with the service they
// belong to, the status of the current password, and the history depth.
// Reading the current password refreshes its status, so the report also acts
// as a vault-wide expiry sweep.
func report(ctx context.Context, profiles *application.ProfileService, accounts *application.AccountService, catalog *application.CatalogService) error {
	all, err := profiles.ListProfiles(ctx)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("vault is empty")
		return nil
	}

	for _, profile := range all {
		fmt.Printf("profile %s\n", profile.Name)

		list, err := accounts.ListAccounts(ctx, profile.ID)
		if err != nil {
			return err
		}

		for _, account := range list {
			service, err := catalog.GetService(ctx, account.ServiceID)
			if err != nil {
				return err
			}

			current, err := accounts.Current(ctx, account.ID)
			if err != nil {
				return err
			}

			history, err := accounts.History(ctx, account.ID)
			if err != nil {
				return err
			}

			status := "no password"
			if current != nil {
				status = string(current.Status)
			}
			fmt.Printf("  %-24s %-20s %-12s %d password(s)\n",
				account.UserIdentifier, service.Name, status, len(history))
		}
	}

	return nil
}
