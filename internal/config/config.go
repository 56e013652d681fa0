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
	Places    PlacesConfig    `yaml:"places" mapstructure:"places"`
	Enigma    EnigmaConfig    `yaml:"enigma" mapstructure:"enigma"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Benchmark BenchmarkConfig `yaml:"benchmark" mapstructure:"benchmark"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// PlacesConfig holds Google Places API settings.
type PlacesConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	MaxResults int    `yaml:"max_results" mapstructure:"max_results"`
}

// EnigmaConfig holds Enigma GraphQL API settings.
type EnigmaConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings for tier classification.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// NotionConfig holds Notion API credentials and target database IDs.
type NotionConfig struct {
	Token       string `yaml:"token" mapstructure:"token"`
	BenchmarkDB string `yaml:"benchmark_db" mapstructure:"benchmark_db"`
}

// DiscoveryConfig configures the mapping-API discovery phase.
type DiscoveryConfig struct {
	GridStepKM  float64 `yaml:"grid_step_km" mapstructure:"grid_step_km"`
	RadiusKM    float64 `yaml:"radius_km" mapstructure:"radius_km"`
	MaxPages    int     `yaml:"max_pages" mapstructure:"max_pages"`
	ProfileDir  string  `yaml:"profile_dir" mapstructure:"profile_dir"`
}

// EnrichConfig configures the financial-data enrichment phase.
type EnrichConfig struct {
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	Concurrency   int     `yaml:"concurrency" mapstructure:"concurrency"`
	ForceRepull   bool    `yaml:"force_repull" mapstructure:"force_repull"`
}

// BenchmarkConfig configures the benchmark aggregation phase.
type BenchmarkConfig struct {
	MinRevenue         float64 `yaml:"min_revenue" mapstructure:"min_revenue"`
	MaxAbsYoY          float64 `yaml:"max_abs_yoy" mapstructure:"max_abs_yoy"`
	TicketLowRatio     float64 `yaml:"ticket_low_ratio" mapstructure:"ticket_low_ratio"`
	TicketHighRatio    float64 `yaml:"ticket_high_ratio" mapstructure:"ticket_high_ratio"`
	RequireCoordinates bool    `yaml:"require_coordinates" mapstructure:"require_coordinates"`
}

// ReportConfig configures report rendering output.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	MapZoom   int    `yaml:"map_zoom" mapstructure:"map_zoom"`
}

// ServerConfig configures the read-only HTTP API.
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
	v.SetEnvPrefix("PEERVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "peerview.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("places.max_results", 60)
	v.SetDefault("enigma.base_url", "https://api.enigma.com/graphql")
	v.SetDefault("enigma.requests_per_sec", 2.0)
	v.SetDefault("enigma.timeout_secs", 30)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.batch_size", 25)
	v.SetDefault("discovery.grid_step_km", 5.0)
	v.SetDefault("discovery.radius_km", 25.0)
	v.SetDefault("discovery.max_pages", 3)
	v.SetDefault("discovery.profile_dir", "profiles")
	v.SetDefault("enrich.min_confidence", 0.90)
	v.SetDefault("enrich.concurrency", 1)
	v.SetDefault("benchmark.min_revenue", 50000)
	v.SetDefault("benchmark.max_abs_yoy", 1.0)
	v.SetDefault("benchmark.ticket_low_ratio", 0.3)
	v.SetDefault("benchmark.ticket_high_ratio", 3.0)
	v.SetDefault("benchmark.require_coordinates", true)
	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.map_zoom", 11)
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

// Validate checks the fields a command mode needs before it runs, collecting
// every problem instead of stopping at the first.
func (c *Config) Validate(mode string) error {
	var problems []string

	requireStore := func() {
		switch c.Store.Driver {
		case "postgres":
			if c.Store.DatabaseURL == "" {
				problems = append(problems, "store.database_url is required for the postgres driver")
			}
		case "sqlite":
			if c.Store.SQLitePath == "" {
				problems = append(problems, "store.sqlite_path is required for the sqlite driver")
			}
		default:
			problems = append(problems, "store.driver must be postgres or sqlite")
		}
	}

	switch mode {
	case "discover":
		requireStore()
		if c.Places.Key == "" {
			problems = append(problems, "places.key is required")
		}
	case "classify":
		requireStore()
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	case "enrich":
		requireStore()
		if c.Enigma.Key == "" {
			problems = append(problems, "enigma.key is required")
		}
		if c.Enrich.MinConfidence < 0 || c.Enrich.MinConfidence > 1 {
			problems = append(problems, "enrich.min_confidence must be between 0 and 1")
		}
		if c.Enrich.Concurrency < 1 || c.Enrich.Concurrency > 16 {
			problems = append(problems, "enrich.concurrency must be between 1 and 16")
		}
	case "notion":
		requireStore()
		if c.Notion.Token == "" {
			problems = append(problems, "notion.token is required")
		}
		if c.Notion.BenchmarkDB == "" {
			problems = append(problems, "notion.benchmark_db is required")
		}
	case "serve":
		requireStore()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "store":
		requireStore()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
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
