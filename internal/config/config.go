package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/listing-atlas/internal/tier"
)

// Config holds the full application configuration.
type Config struct {
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Tiers  TiersConfig  `yaml:"tiers" mapstructure:"tiers"`
	Top    TopConfig    `yaml:"top" mapstructure:"top"`
	Maps   MapsConfig   `yaml:"maps" mapstructure:"maps"`
	Export ExportConfig `yaml:"export" mapstructure:"export"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the input files.
type DataConfig struct {
	ListingsCSV  string `yaml:"listings_csv" mapstructure:"listings_csv"`
	BaseMap      string `yaml:"base_map" mapstructure:"base_map"`
	Boroughs     string `yaml:"boroughs" mapstructure:"boroughs"`
	BoroughField string `yaml:"borough_field" mapstructure:"borough_field"`
}

// OutputConfig controls where and how large artifacts are written.
type OutputConfig struct {
	Dir         string  `yaml:"dir" mapstructure:"dir"`
	MapInches   float64 `yaml:"map_inches" mapstructure:"map_inches"`
	BarWidthIn  float64 `yaml:"bar_width_in" mapstructure:"bar_width_in"`
	BarHeightIn float64 `yaml:"bar_height_in" mapstructure:"bar_height_in"`
}

// TiersConfig is the boundary table for price markers.
type TiersConfig struct {
	Bounds []tier.Bound `yaml:"bounds" mapstructure:"bounds"`
	Top    tier.Tier    `yaml:"top" mapstructure:"top"`
}

// TopConfig configures the top-N by borough map.
type TopConfig struct {
	PerBorough int `yaml:"per_borough" mapstructure:"per_borough"`
}

// MapsConfig configures the interactive web maps.
type MapsConfig struct {
	CenterLat       float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLon       float64 `yaml:"center_lon" mapstructure:"center_lon"`
	Zoom            int     `yaml:"zoom" mapstructure:"zoom"`
	HeatRadius      int     `yaml:"heat_radius" mapstructure:"heat_radius"`
	HeatTiles       string  `yaml:"heat_tiles" mapstructure:"heat_tiles"`
	ClusterTiles    string  `yaml:"cluster_tiles" mapstructure:"cluster_tiles"`
	ChoroplethTiles string  `yaml:"choropleth_tiles" mapstructure:"choropleth_tiles"`
	RampLow         string  `yaml:"ramp_low" mapstructure:"ramp_low"`
	RampHigh        string  `yaml:"ramp_high" mapstructure:"ramp_high"`
}

// ExportConfig configures the export targets.
type ExportConfig struct {
	Target      string `yaml:"target" mapstructure:"target"` // sqlite or postgres
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	PostgresURL string `yaml:"postgres_url" mapstructure:"postgres_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// FetchConfig locates the remote copies of the inputs. Empty URLs are
// skipped.
type FetchConfig struct {
	ListingsURL string        `yaml:"listings_url" mapstructure:"listings_url"`
	BaseMapURL  string        `yaml:"base_map_url" mapstructure:"base_map_url"`
	BoroughsURL string        `yaml:"boroughs_url" mapstructure:"boroughs_url"`
	UserAgent   string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	RatePerSec  float64       `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// ServerConfig configures the preview server.
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
	v.SetEnvPrefix("ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.listings_csv", "Data/AB_NYC_2019.csv")
	v.SetDefault("data.base_map", "Data/shape files/nyad.shp")
	v.SetDefault("data.boroughs", "Data/shape files/boroughs.shp")
	v.SetDefault("data.borough_field", "boro_name")
	v.SetDefault("output.dir", "Results")
	v.SetDefault("output.map_inches", 14.0)
	v.SetDefault("output.bar_width_in", 9.0)
	v.SetDefault("output.bar_height_in", 7.0)
	v.SetDefault("tiers.bounds", []map[string]any{
		{"max": 700.0, "tier": map[string]any{"label": tier.LabelSmall, "size": 40.0}},
		{"max": 3000.0, "tier": map[string]any{"label": tier.LabelMedium, "size": 400.0}},
	})
	v.SetDefault("tiers.top.label", tier.LabelLarge)
	v.SetDefault("tiers.top.size", 1400.0)
	v.SetDefault("top.per_borough", 100)
	v.SetDefault("maps.center_lat", 40.71427)
	v.SetDefault("maps.center_lon", -74.00597)
	v.SetDefault("maps.zoom", 10)
	v.SetDefault("maps.heat_radius", 12)
	v.SetDefault("maps.heat_tiles", "openstreetmap")
	v.SetDefault("maps.cluster_tiles", "cartodbpositron")
	v.SetDefault("maps.choropleth_tiles", "cartodbpositron")
	v.SetDefault("maps.ramp_low", "#edf8fb")
	v.SetDefault("maps.ramp_high", "#6e016b")
	v.SetDefault("export.target", "sqlite")
	v.SetDefault("export.sqlite_path", "Results/listings.db")
	v.SetDefault("export.max_conns", 4)
	v.SetDefault("fetch.user_agent", "listing-atlas/1.0")
	v.SetDefault("fetch.timeout", "5m")
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.rate_per_sec", 2.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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

// TierTable builds the validated boundary table from configuration.
func (c *Config) TierTable() (*tier.Table, error) {
	t, err := tier.NewTable(c.Tiers.Bounds, c.Tiers.Top)
	if err != nil {
		return nil, eris.Wrap(err, "config: tiers")
	}
	return t, nil
}

// Validate checks the values every command depends on.
func (c *Config) Validate() error {
	if _, err := c.TierTable(); err != nil {
		return err
	}
	if c.Top.PerBorough <= 0 {
		return eris.Errorf("config: top.per_borough must be positive, got %d", c.Top.PerBorough)
	}
	if c.Output.Dir == "" {
		return eris.New("config: output.dir is required")
	}
	switch c.Export.Target {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: export.target must be sqlite or postgres, got %q", c.Export.Target)
	}
	if c.Maps.Zoom < 0 || c.Maps.Zoom > 22 {
		return eris.Errorf("config: maps.zoom out of range: %d", c.Maps.Zoom)
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
