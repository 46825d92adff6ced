package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/roomies/config"
	"gitea.kood.tech/petrkubec/roomies/interest"
	"gitea.kood.tech/petrkubec/roomies/matches"
	"gitea.kood.tech/petrkubec/roomies/seed"
	"gitea.kood.tech/petrkubec/roomies/storage/dynamo"
	"gitea.kood.tech/petrkubec/roomies/storage/memory"
	"gitea.kood.tech/petrkubec/roomies/storage/postgres"
)

type profileStore interface {
	matches.ProfileRepository
	seed.ProfileSaver
}

type backends struct {
	db        *sql.DB
	profiles  profileStore
	interests interest.Repository
}

func (b *backends) Close() {
	if b.db != nil {
		_ = b.db.Close()
	}
}

// openBackends connects the profile and interest storage selected by cfg.
func openBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backends, error) {
	if cfg.Interests.Backend == config.BackendMemory {
		mem := memory.New()
		log.Warn("using the in-memory backend, data is lost on exit")
		return &backends{profiles: mem, interests: mem}, nil
	}

	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	b := &backends{db: db, profiles: postgres.NewProfileRepository(db)}

	switch cfg.Interests.Backend {
	case config.BackendPostgres:
		b.interests = postgres.NewInterestRepository(db)
	case config.BackendDynamo:
		dc := cfg.Interests.Dynamo
		client, err := dynamo.NewClient(ctx, dc.Region, dc.Endpoint)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.interests = dynamo.NewInterestRepository(client, dc.Table, log.Named("dynamo"))
		log.Info("interest actions stored in dynamodb",
			zap.String("table", dc.Table),
			zap.String("region", dc.Region),
		)
	default:
		b.Close()
		return nil, fmt.Errorf("unknown interests backend %q", cfg.Interests.Backend)
	}
	return b, nil
}

func openDB(ctx context.Context, cfg *config.Config, log *zap.Logger) (*sql.DB, error) {
	return postgres.Open(ctx, cfg.Database.URL, postgres.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, log)
}
