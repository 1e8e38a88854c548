package factory

import (
	"context"
	"fmt"
	"io"

	"github.com/mikey/url-guard/internal/blocklist"
	"github.com/mikey/url-guard/internal/config"
	"github.com/mikey/url-guard/internal/core"
	"github.com/mikey/url-guard/internal/preprocess"
	"github.com/mikey/url-guard/internal/whitelist"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EngineFactory loads the artifacts and assembles the verdict engine
type EngineFactory struct {
	cfg       *config.Config
	logger    *zap.Logger
	oracles   *OracleFactory
	cacheRepo core.CacheRepository
}

// NewEngineFactory creates a new engine factory. cacheRepo may be nil.
func NewEngineFactory(cfg *config.Config, logger *zap.Logger, oracles *OracleFactory, cacheRepo core.CacheRepository) *EngineFactory {
	return &EngineFactory{
		cfg:       cfg,
		logger:    logger,
		oracles:   oracles,
		cacheRepo: cacheRepo,
	}
}

// CreateEngine loads every artifact concurrently; the first failure aborts
// start-up and no engine is returned
func (f *EngineFactory) CreateEngine(ctx context.Context) (*core.Engine, error) {
	return f.createEngine(ctx, f.oracles.CreateOracle)
}

func (f *EngineFactory) createEngine(ctx context.Context, newOracle func() (core.Oracle, error)) (*core.Engine, error) {
	artifacts := f.cfg.GetArtifacts()
	bloomCfg := f.cfg.GetBloom()

	var (
		allowList *whitelist.Checker
		prefilter *blocklist.Prefilter
		scaler    *preprocess.Scaler
		threshold float64
		oracle    core.Oracle
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var g errgroup.Group

	g.Go(func() error {
		var err error
		allowList, err = whitelist.LoadChecker(artifacts.AllowList, f.logger)
		if err != nil {
			return fmt.Errorf("allow-list: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		prefilter, err = blocklist.LoadPrefilter(artifacts.BadFeed, bloomCfg.ExpectedItems, bloomCfg.FalsePositiveRate, f.logger)
		if err != nil {
			return fmt.Errorf("known-bad feed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		scaler, err = preprocess.LoadScaler(artifacts.Scaler)
		if err != nil {
			return fmt.Errorf("scaler: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		threshold, err = core.LoadThreshold(artifacts.Threshold)
		if err != nil {
			return fmt.Errorf("threshold: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		oracle, err = newOracle()
		if err != nil {
			return fmt.Errorf("oracle: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		closeOracle(oracle, f.logger)
		return nil, fmt.Errorf("failed to load artifacts: %w", err)
	}

	cacheCfg, err := f.cfg.GetCache()
	if err != nil {
		closeOracle(oracle, f.logger)
		return nil, fmt.Errorf("invalid cache configuration: %w", err)
	}

	deps := core.EngineDeps{
		AllowList: allowList,
		Prefilter: prefilter,
		Scaler:    scaler,
		Threshold: threshold,
		Oracle:    oracle,
	}
	if f.cacheRepo != nil && cacheCfg.Enabled {
		deps.Cache = f.cacheRepo
		deps.CacheTTL = cacheCfg.TTL
	}

	engine, err := core.NewEngine(deps, f.logger)
	if err != nil {
		closeOracle(oracle, f.logger)
		return nil, err
	}

	f.logger.Info("Verdict engine ready",
		zap.Int("allow_listed_domains", allowList.Len()),
		zap.Float64("threshold", engine.Threshold()),
		zap.Bool("cache_enabled", deps.Cache != nil))

	return engine, nil
}

func closeOracle(oracle core.Oracle, logger *zap.Logger) {
	closer, ok := oracle.(io.Closer)
	if !ok || closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("Failed to close oracle", zap.Error(err))
	}
}
