package factory

import (
	"fmt"
	"os"

	"github.com/mikey/url-guard/internal/adapters/filter"
	"github.com/mikey/url-guard/internal/config"
	"github.com/mikey/url-guard/internal/ports"
	"github.com/mikey/url-guard/internal/utils"
	"go.uber.org/zap"
)

// FilterFactory creates front-end filters based on configuration
type FilterFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	service       ports.Classifier
	textProcessor *utils.TextProcessor
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service ports.Classifier, textProcessor *utils.TextProcessor) *FilterFactory {
	return &FilterFactory{
		cfg:           cfg,
		logger:        logger,
		service:       service,
		textProcessor: textProcessor,
	}
}

// CreateURLFilter creates a filter based on server.filter_type
func (f *FilterFactory) CreateURLFilter() (ports.URLFilter, error) {
	serverCfg, err := f.cfg.GetServer()
	if err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	switch serverCfg.FilterType {
	case "http":
		return filter.NewHTTPFilter(
			f.service,
			f.logger,
			f.textProcessor,
			serverCfg.ListenAddress,
			serverCfg.MaxURLs,
			serverCfg.ReadTimeout,
		), nil
	case "postfix":
		return filter.NewPostfixFilter(
			f.service,
			f.logger,
			f.textProcessor,
			serverCfg,
		), nil
	case "cli":
		return filter.NewCliFilter(
			f.service,
			f.logger,
			os.Stdout,
			f.cfg.GetBool("cli.verbose"),
			f.cfg.GetBool("cli.json"),
		)
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", serverCfg.FilterType)
	}
}
