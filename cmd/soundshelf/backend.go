package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"soundshelf/internal/app/catalog"
	"soundshelf/internal/app/playlists"
	"soundshelf/internal/app/users"
	"soundshelf/internal/config"
	"soundshelf/internal/store"
	"soundshelf/internal/store/memstore"
	"soundshelf/migrations"
)

// repository is the union of the store contracts used by the services.
type repository interface {
	users.Store
	catalog.Store
	playlists.Store
}

type backend struct {
	repository
	close func() error
}

func (b backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func openBackend(ctx context.Context, cfg *config.Config) (backend, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		return backend{repository: memstore.New()}, nil
	}

	db, err := store.Open(ctx, cfg.Database.URL, cfg.Database.ConnectOptions())
	if err != nil {
		return backend{}, err
	}

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cfg.Database.URL); err != nil {
			_ = db.Close()
			return backend{}, fmt.Errorf("auto migrate: %w", err)
		}
		log.Info().Msg("schema migrations applied")
	}

	return backend{repository: store.New(db), close: db.Close}, nil
}
