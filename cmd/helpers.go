package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/davestroud/publix/internal/analytics"
	"github.com/davestroud/publix/internal/narrative"
	"github.com/davestroud/publix/internal/store"
	"github.com/davestroud/publix/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "publix.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore initializes the store and runs migrations. Callers own Close.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// initSynthesizer returns nil when no Anthropic key is configured; callers
// treat a nil synthesizer as "skip narrative generation".
func initSynthesizer() *narrative.Synthesizer {
	if cfg.Anthropic.Key == "" {
		return nil
	}
	ai := anthropic.NewClient(cfg.Anthropic.Key)
	return narrative.NewSynthesizer(ai, cfg.Anthropic.Model, int64(cfg.Anthropic.MaxTokens))
}

func densityConfig() analytics.DensityConfig {
	return analytics.DensityConfig{
		BaselineStoresPer100k:   cfg.Analytics.BaselineStoresPer100k,
		AssumedDensityPerSqMile: cfg.Analytics.AssumedDensityPerSqMile,
	}
}

func roiConfig() analytics.ROIConfig {
	return analytics.ROIConfig{
		BaseRevenue:  cfg.ROI.BaseRevenue,
		ProfitMargin: cfg.ROI.ProfitMargin,
		AcresNeeded:  cfg.ROI.AcresNeeded,
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
