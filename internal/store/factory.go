package store

import (
	"encoding/json"
	"fmt"

	"github.com/tradesparky/pricewatch/internal/store/postgres"
	"github.com/tradesparky/pricewatch/internal/store/shared"
	"github.com/tradesparky/pricewatch/internal/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// StoreFactory defines the interface for creating store providers
type StoreFactory interface {
	CreateStore(configJSON string) (Store, error)
}

// Factory implements StoreFactory for creating store providers
type Factory struct {
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
}

func NewFactory(logger *zap.Logger, tel *telemetry.Telemetry) *Factory {
	return &Factory{
		logger:    logger.Named("factory"),
		telemetry: tel,
	}
}

func (f *Factory) CreateStore(configJSON string) (Store, error) {
	var config shared.ProviderConfig
	if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
		return nil, fmt.Errorf("failed to parse store configuration JSON: %w", err)
	}

	f.logger.Info("creating store provider",
		zap.String("provider", config.Provider.String()))

	if !config.Provider.IsValid() {
		return nil, fmt.Errorf("unsupported store provider: %s", config.Provider)
	}

	var meter metric.Meter
	if f.telemetry != nil {
		meter = f.telemetry.Meter
	}

	switch config.Provider {
	case shared.ProviderPostgres:
		return postgres.NewStore(config, f.logger, meter)
	case shared.ProviderMemory:
		f.logger.Info("using in-memory store")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store provider: %s", config.Provider)
	}
}
