package main

import (
	"context"
	"fmt"

	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/engine"
	"github.com/rushteam/hybridrec/feast"
	"github.com/rushteam/hybridrec/logging"
	"github.com/rushteam/hybridrec/model"
	"github.com/rushteam/hybridrec/store"
)

// app 持有由配置构建的组件。
type app struct {
	cfg         *config.Config
	store       core.Store
	feast       *feast.GrpcClient
	recommender *engine.Recommender
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})

	s, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, store: s}

	if cfg.Store.Catalog != "" {
		catalog, err := store.LoadCatalog(cfg.Store.Catalog)
		if err != nil {
			a.close()
			return nil, err
		}
		seeded, err := catalog.Seed(ctx, s)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		if seeded {
			logging.Info().Str("catalog", cfg.Store.Catalog).
				Int("products", len(catalog.Products)).
				Int("interactions", len(catalog.Interactions)).
				Msg("catalog seeded")
		} else {
			logging.Info().Str("catalog", cfg.Store.Catalog).Msg("store already has products, catalog not seeded")
		}
	}

	var counter core.InteractionCounter = s
	if cfg.Feast.Enabled {
		client, err := feast.NewGrpcClient(cfg.Feast.Endpoint, cfg.Feast.Project,
			feast.WithTimeout(cfg.Feast.Timeout),
			feast.WithToken(cfg.Feast.Token),
		)
		if err != nil {
			a.close()
			return nil, err
		}
		a.feast = client
		pc := feast.NewPopularityCounter(client, s)
		if cfg.Feast.Feature != "" {
			pc.Feature = cfg.Feast.Feature
		}
		counter = pc
	}

	prefilter, err := config.LoadPrefilter(cfg.Recommend.Prefilter)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("load prefilter: %w", err)
	}

	rc := cfg.Recommend
	a.recommender = engine.New(s, engine.WithOptions(engine.Options{
		ColdStartThreshold: rc.ColdStartThreshold,
		SimilarUsers:       rc.SimilarUsers,
		PoolFactor:         rc.PoolFactor,
		DiversityScale:     rc.DiversityScale,
		NeutralScore:       rc.NeutralScore,
		MaxFeatures:        cfg.Content.MaxFeatures,
		StopWords:          cfg.Content.StopWords,
		SVD: model.SVDConfig{
			MaxComponents: cfg.SVD.MaxComponents,
			Iterations:    cfg.SVD.Iterations,
			Oversamples:   cfg.SVD.Oversamples,
			Seed:          cfg.SVD.Seed,
		},
		Counter:   counter,
		Prefilter: prefilter,
		Seed:      rc.Seed,
	}))
	return a, nil
}

func openStore(cfg config.StoreConfig) (core.Store, error) {
	switch cfg.Backend {
	case "redis":
		return store.NewRedisStore(cfg.RedisAddr, cfg.RedisDB, cfg.RedisPrefix)
	default:
		return store.NewMemoryStore(), nil
	}
}

func (a *app) close() {
	if a.feast != nil {
		_ = a.feast.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.Warn().Err(err).Msg("close store")
		}
	}
}
