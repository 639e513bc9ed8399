package appbootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"incidents-api/api"
	"incidents-api/config"
	"incidents-api/core/store"
	"incidents-api/core/utils"
)

// Run opens the database, applies migrations and serves HTTP until ctx is done.
func Run(ctx context.Context, cfg *config.AppConfig, logger *utils.Logger) error {
	db, err := openMigrated(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	rc := composeRuntime(cfg, db, logger)
	srv := api.NewServer(cfg, rc.serverDeps, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Migrate applies pending migrations and reports the resulting schema version.
func Migrate(ctx context.Context, cfg *config.AppConfig, logger *utils.Logger) (int64, error) {
	db, err := openMigrated(ctx, cfg, logger)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return store.SchemaVersion(ctx, db)
}

func openMigrated(ctx context.Context, cfg *config.AppConfig, logger *utils.Logger) (*sql.DB, error) {
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := store.ApplyMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
