package di

import (
	"context"

	"go.uber.org/dig"

	"github.com/mikey/url-guard/internal/config"
	"github.com/mikey/url-guard/internal/core"
	"github.com/mikey/url-guard/internal/factory"
	"github.com/mikey/url-guard/internal/logging"
	"github.com/mikey/url-guard/internal/ports"
	"github.com/mikey/url-guard/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideEngine(container); err != nil {
		return nil, err
	}

	// Register filter factory and filter
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FilterFactory) (ports.URLFilter, error) {
		return f.CreateURLFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideEngine registers everything between the configuration and the
// classifier: factories, cache, engine and text processor
func provideEngine(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewOracleFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewEngineFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return err
	}

	// Register the verdict engine
	if err := container.Provide(func(f *factory.EngineFactory) (*core.Engine, error) {
		return f.CreateEngine(context.Background())
	}); err != nil {
		return err
	}
	if err := container.Provide(func(e *core.Engine) ports.Classifier {
		return e
	}); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	return nil
}
