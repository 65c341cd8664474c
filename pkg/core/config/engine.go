package config

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"evalup/pkg/core/benchmark"
	"evalup/pkg/core/evaluation"
	"evalup/pkg/core/ingest"
)

// NewEngine builds the evaluation engine, applying the reference overrides
// file when one is configured.
func (c *Config) NewEngine(logger *zap.Logger) (*evaluation.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tables := benchmark.Default()
	if c.Reference.OverridesPath != "" {
		var err error
		tables, err = benchmark.LoadOverrides(tables, c.Reference.OverridesPath)
		if err != nil {
			return nil, eris.Wrap(err, "config: reference overrides")
		}
		logger.Info("reference overrides loaded",
			zap.String("path", c.Reference.OverridesPath),
			zap.String("version", tables.Version()))
	}
	return evaluation.NewEngine(
		evaluation.WithTables(tables),
		evaluation.WithValuationOptions(c.Valuation.Options()),
		evaluation.WithDiagnosticOptions(c.Diagnostic.Options()),
		evaluation.WithLogger(logger),
	), nil
}

// NewPappersClient builds the registry client from the Pappers settings.
func (c *Config) NewPappersClient() *ingest.PappersClient {
	opts := []ingest.PappersOption{}
	if c.Pappers.BaseURL != "" {
		opts = append(opts, ingest.WithPappersBaseURL(c.Pappers.BaseURL))
	}
	if c.Pappers.TimeoutSecs > 0 {
		opts = append(opts, ingest.WithPappersTimeout(time.Duration(c.Pappers.TimeoutSecs)*time.Second))
	}
	return ingest.NewPappersClient(c.Pappers.APIKey, opts...)
}

// CacheTTL returns the registry cache lifetime.
func (s StoreConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLHrs) * time.Hour
}
