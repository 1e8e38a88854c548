package onnx

import (
	"github.com/mikey/url-guard/internal/config"
	"go.uber.org/zap"
)

// Factory creates ONNX oracles
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new ONNX factory
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateOracle loads the configured model
func (f *Factory) CreateOracle() (*Oracle, error) {
	onnxCfg := f.cfg.GetONNX()

	return NewOracle(f.cfg.GetArtifacts().Model, Options{
		SharedLibraryPath: onnxCfg.SharedLibraryPath,
		IntraOpThreads:    onnxCfg.IntraOpThreads,
	}, f.logger)
}
