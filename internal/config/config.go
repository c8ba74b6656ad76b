// Package config loads application configuration from file and environment
// and initializes the global logger. No other package reads environment
// state directly; the loaded Config is passed into every constructor.
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
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// InputConfig configures the batch-mode input file.
type InputConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
	// SheetName selects a spreadsheet sheet by name; empty means the first sheet.
	SheetName string `yaml:"sheet_name" mapstructure:"sheet_name"`
	// HeaderRow is the 1-based physical row holding the column headers.
	// Division templates put two banner rows above the header, hence 3.
	HeaderRow int `yaml:"header_row" mapstructure:"header_row"`
}

// OutputConfig configures where batch-mode exports are written.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// StoreConfig configures the Postgres backend used by worker mode.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// StorageConfig configures the object-storage API import files are fetched from.
type StorageConfig struct {
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	ServiceKey string `yaml:"service_key" mapstructure:"service_key"`
	Bucket     string `yaml:"bucket" mapstructure:"bucket"`
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
	v.SetEnvPrefix("INFOMEDIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.header_row", 3)
	v.SetDefault("output.dir", "output")
	v.SetDefault("storage.bucket", "imports")
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
