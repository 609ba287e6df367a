package di

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/crapto/internal/config"
	"github.com/aristath/crapto/internal/database"
	"github.com/aristath/crapto/internal/modules/registry"
	"github.com/aristath/crapto/internal/uploads"
)

// InitializeStores opens the registry store and the image store.
// On failure nothing it opened is left open.
func InitializeStores(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) (err error) {
	defer func() {
		if err != nil && container.RegistryDB != nil {
			if closeErr := container.RegistryDB.Close(); closeErr != nil {
				err = errors.Join(err, fmt.Errorf("failed to close registry database: %w", closeErr))
			}
			container.RegistryDB = nil
			container.RegistryStore = nil
		}
	}()

	switch cfg.Registry.Backend {
	case config.RegistryBackendSQLite:
		// registry.db - append-only create-token records
		db, err := database.New(database.Config{
			Path:    cfg.Registry.Path,
			Profile: database.ProfileLedger,
			Name:    "registry",
		})
		if err != nil {
			return fmt.Errorf("failed to initialize registry database: %w", err)
		}
		store, err := registry.NewSQLiteStore(db)
		if err != nil {
			if closeErr := db.Close(); closeErr != nil {
				err = errors.Join(err, closeErr)
			}
			return fmt.Errorf("failed to initialize registry store: %w", err)
		}
		container.RegistryDB = db
		container.RegistryStore = store

	default:
		store, err := registry.NewJSONFileStore(cfg.Registry.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize registry store: %w", err)
		}
		container.RegistryStore = store
	}

	log.Info().
		Str("backend", cfg.Registry.Backend).
		Str("path", cfg.Registry.Path).
		Msg("Registry store initialized")

	switch cfg.Images.Backend {
	case config.ImageBackendS3:
		s3 := cfg.Images.S3
		store, err := uploads.NewS3Store(ctx, uploads.S3Options{
			Bucket:          s3.Bucket,
			Region:          s3.Region,
			Endpoint:        s3.Endpoint,
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
			UsePathStyle:    s3.UsePathStyle,
			PublicURL:       s3.PublicURL,
			Prefix:          "uploads/",
		})
		if err != nil {
			return fmt.Errorf("failed to initialize s3 image store: %w", err)
		}
		container.ImageStore = store

	default:
		store, err := uploads.NewDiskStore(cfg.Images.UploadsDir)
		if err != nil {
			return fmt.Errorf("failed to initialize uploads directory: %w", err)
		}
		container.ImageStore = store
	}

	log.Info().Str("backend", cfg.Images.Backend).Msg("Image store initialized")
	return nil
}
