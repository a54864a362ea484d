package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Config is the service configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Data       DataConfig       `mapstructure:"data"`
	Generation GenerationConfig `mapstructure:"generation"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DataConfig struct {
	Dir    string `mapstructure:"dir"`
	Driver string `mapstructure:"driver"` // "file" or "sqlite"
}

type GenerationConfig struct {
	Provider          string `mapstructure:"provider"` // "openai" or "gemini"
	BaseURL           string `mapstructure:"base_url"`
	APIKey            string `mapstructure:"api_key"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// SetDefaults configures default values. The shed.* settings deliberately
// have none here: the engine applies its own defaults to unset keys.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")

	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.driver", "file")

	v.SetDefault("generation.provider", "openai")
	v.SetDefault("generation.base_url", "https://api.openai.com/v1")
	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.timeout_seconds", 120)
	v.SetDefault("generation.requests_per_minute", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// New returns a viper instance bound to SHED_* environment variables with
// defaults set. If path is not empty the TOML file there is read; otherwise
// shed.toml is looked up in the working directory and ignored when missing.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("SHED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
		return v, nil
	}

	v.SetConfigName("shed")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read shed.toml")
		}
	}
	return v, nil
}

// Load unmarshals the service configuration from v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}

// SettingsView reads one sub-tree of a viper instance by full key, so
// SHED_-prefixed environment variables reach it as well as the file.
type SettingsView struct {
	v      *viper.Viper
	prefix string
}

func (s SettingsView) IsSet(key string) bool         { return s.v.IsSet(s.prefix + key) }
func (s SettingsView) GetString(key string) string   { return s.v.GetString(s.prefix + key) }
func (s SettingsView) GetFloat64(key string) float64 { return s.v.GetFloat64(s.prefix + key) }
func (s SettingsView) GetInt(key string) int         { return s.v.GetInt(s.prefix + key) }

// Settings returns the shed.* settings namespace read by the engine.
// shed.temperature can come from the [shed] table or SHED_SHED_TEMPERATURE.
func Settings(v *viper.Viper) SettingsView {
	return SettingsView{v: v, prefix: "shed."}
}
