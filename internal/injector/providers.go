package injector

import (
	"fmt"

	"github.com/google/wire"

	"github.com/zeusync/dataobjects/internal/config"
	"github.com/zeusync/dataobjects/internal/core/dataset"
	"github.com/zeusync/dataobjects/internal/core/models"
	"github.com/zeusync/dataobjects/internal/core/observability/log"
	"github.com/zeusync/dataobjects/internal/core/stream"
)

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	NewRuntime,
)

// Runtime bundles what a process needs to host data objects.
type Runtime struct {
	Config   *config.Config
	Log      log.Log
	Registry *models.Registry
}

func NewRuntime(cfg *config.Config, logger log.Log, registry *models.Registry) *Runtime {
	return &Runtime{Config: cfg, Log: logger, Registry: registry}
}

func ProvideLogger(cfg *config.Config) log.Log {
	return log.NewWithOptions(cfg.LogLevel(), log.WithEncoding(cfg.Logging.Encoding))
}

// ProvideRegistry builds a registry offering buffers sized by the config and virtual generators.
func ProvideRegistry(logger log.Log, cfg *config.Config) (*models.Registry, error) {
	r := models.NewRegistry(logger)
	factories := []models.Factory{
		dataset.Factory{
			DefaultElements: cfg.Buffers.DefaultElements,
			MaxBytes:        cfg.Buffers.MaxBytes,
		},
		stream.GeneratorFactory{},
	}
	for _, f := range factories {
		if err := r.RegisterFactory(f); err != nil {
			return nil, fmt.Errorf("register factory: %w", err)
		}
	}
	return r, nil
}

// Close deletes every entity and flushes the logger.
func (r *Runtime) Close() {
	r.Registry.DeleteAll()
	if l, ok := r.Log.(*log.Logger); ok {
		_ = l.Sync()
	}
}
