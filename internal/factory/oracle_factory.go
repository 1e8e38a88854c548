package factory

import (
	"fmt"

	"github.com/mikey/url-guard/internal/adapters/onnx"
	"github.com/mikey/url-guard/internal/config"
	"github.com/mikey/url-guard/internal/core"
	"go.uber.org/zap"
)

// OracleFactory creates scoring oracles
type OracleFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewOracleFactory creates a new oracle factory
func NewOracleFactory(cfg *config.Config, logger *zap.Logger) *OracleFactory {
	return &OracleFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateOracle creates the oracle selected by oracle.provider
func (f *OracleFactory) CreateOracle() (core.Oracle, error) {
	oracleCfg := f.cfg.GetOracle()

	switch oracleCfg.Provider {
	case "onnx":
		oracle, err := onnx.NewFactory(f.cfg, f.logger).CreateOracle()
		if err != nil {
			return nil, err
		}
		return oracle, nil
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", oracleCfg.Provider)
	}
}
