package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Chain     ChainConfig     `yaml:"chain" mapstructure:"chain"`
	Analytics AnalyticsConfig `yaml:"analytics" mapstructure:"analytics"`
	ROI       ROIConfig       `yaml:"roi" mapstructure:"roi"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Places    PlacesConfig    `yaml:"places" mapstructure:"places"`
	Census    CensusConfig    `yaml:"census" mapstructure:"census"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "postgres" or "sqlite"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ChainConfig identifies the target chain and the competitor brands tracked
// by the analysis.
type ChainConfig struct {
	Name        string   `yaml:"name" mapstructure:"name"`
	Competitors []string `yaml:"competitors" mapstructure:"competitors"`
}

// AnalyticsConfig holds the tunable parameters of the scoring formulas.
//
// BaselineStoresPer100k is the store density of a "mature" market; a city at
// or above the baseline scores a saturation of 1.0. Whether the baseline
// should vary by region is unresolved; it is a config knob, not a constant.
type AnalyticsConfig struct {
	BaselineStoresPer100k   float64  `yaml:"baseline_stores_per_100k" mapstructure:"baseline_stores_per_100k"`
	AssumedDensityPerSqMile float64  `yaml:"assumed_density_per_sq_mile" mapstructure:"assumed_density_per_sq_mile"`
	MinPopulation           int      `yaml:"min_population" mapstructure:"min_population"`
	NearbyRadiusMiles       float64  `yaml:"nearby_radius_miles" mapstructure:"nearby_radius_miles"`
	HighValueAnchorBrands   []string `yaml:"high_value_anchor_brands" mapstructure:"high_value_anchor_brands"`
}

// ROIConfig holds the cost and revenue assumptions of the ROI model.
type ROIConfig struct {
	BaseRevenue          float64 `yaml:"base_revenue" mapstructure:"base_revenue"`
	ProfitMargin         float64 `yaml:"profit_margin" mapstructure:"profit_margin"`
	AcresNeeded          float64 `yaml:"acres_needed" mapstructure:"acres_needed"`
	StoreSizeSqFt        int     `yaml:"store_size_sqft" mapstructure:"store_size_sqft"`
	LandCostPerAcre      float64 `yaml:"land_cost_per_acre" mapstructure:"land_cost_per_acre"`
	ConstructionPerSqFt  float64 `yaml:"construction_cost_per_sqft" mapstructure:"construction_cost_per_sqft"`
}

// IngestConfig configures data source behavior and the response cache.
type IngestConfig struct {
	CacheMaxEntries int `yaml:"cache_max_entries" mapstructure:"cache_max_entries"`
	CacheTTLMinutes int `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
}

// AnthropicConfig holds Anthropic API settings for narrative synthesis.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PlacesConfig holds Places API settings for anchor-tenant lookups.
type PlacesConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RadiusMeters int     `yaml:"radius_meters" mapstructure:"radius_meters"`
}

// CensusConfig holds Census API settings for demographic lookups.
type CensusConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PUBLIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "publix.db")
	v.SetDefault("chain.name", "Publix")
	v.SetDefault("chain.competitors", []string{"Walmart", "Kroger", "Aldi", "Whole Foods"})
	v.SetDefault("analytics.baseline_stores_per_100k", 2.0)
	v.SetDefault("analytics.assumed_density_per_sq_mile", 3000.0)
	v.SetDefault("analytics.min_population", 50000)
	v.SetDefault("analytics.nearby_radius_miles", 10.0)
	v.SetDefault("analytics.high_value_anchor_brands", []string{"Target", "Walmart", "Costco"})
	v.SetDefault("roi.base_revenue", 35_000_000.0)
	v.SetDefault("roi.profit_margin", 0.10)
	v.SetDefault("roi.acres_needed", 20.0)
	v.SetDefault("roi.store_size_sqft", 45000)
	v.SetDefault("roi.land_cost_per_acre", 500_000.0)
	v.SetDefault("roi.construction_cost_per_sqft", 200.0)
	v.SetDefault("ingest.cache_max_entries", 1024)
	v.SetDefault("ingest.cache_ttl_minutes", 60)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("places.rate_per_sec", 5.0)
	v.SetDefault("places.radius_meters", 2000)
	v.SetDefault("census.base_url", "https://api.census.gov/data")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
