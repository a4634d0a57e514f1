// Package config loads reflector settings from an optional YAML file and
// the environment, and builds caches and accessors from them.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/reflector/accessor"
	"github.com/Konsultn-Engineering/reflector/schema"
)

// EnvCacheEnabled overrides cache.enabled when set.
const EnvCacheEnabled = "REFLECTOR_CACHE_ENABLED"

// Config represents the reflector configuration
type Config struct {
	Cache    CacheConfig    `mapstructure:"cache"`
	Schema   SchemaConfig   `mapstructure:"schema"`
	Accessor AccessorConfig `mapstructure:"accessor"`
}

// CacheConfig represents metadata cache configuration
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Size    int  `mapstructure:"size"`
}

// SchemaConfig represents property discovery configuration
type SchemaConfig struct {
	TagName string `mapstructure:"tag_name"`
	Naming  string `mapstructure:"naming"`
}

// AccessorConfig represents accessor facade configuration
type AccessorConfig struct {
	Strict        bool `mapstructure:"strict"`
	CaseSensitive bool `mapstructure:"case_sensitive"`
}

// Load reads the configuration at path, or reflector.yaml from the working
// directory when path is empty. A missing reflector.yaml means defaults; a
// missing explicit path is an error.
func Load(path string) (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("reflector")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode(v)
}

// Default returns the configuration used when no file is present, with the
// environment applied.
func Default() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func newViper() (*viper.Viper, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", 0)
	v.SetDefault("schema.tag_name", schema.DefaultTagName)
	v.SetDefault("schema.naming", "camel")
	v.SetDefault("accessor.strict", false)
	v.SetDefault("accessor.case_sensitive", true)

	// The caching switch is the only setting read from the environment
	if err := v.BindEnv("cache.enabled", EnvCacheEnabled); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", EnvCacheEnabled, err)
	}

	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative, got: %d", cfg.Cache.Size)
	}
	if cfg.Schema.TagName == "" {
		return fmt.Errorf("schema.tag_name must not be empty")
	}
	if _, ok := schema.ParseNamingType(cfg.Schema.Naming); !ok {
		return fmt.Errorf("schema.naming must be one of camel, snake, pascal, go; got: %s", cfg.Schema.Naming)
	}
	return nil
}

// NewCache builds a metadata cache from the configuration. options are
// applied last and override configured values.
func (c *Config) NewCache(options ...schema.Option) *schema.Cache {
	naming, _ := schema.ParseNamingType(c.Schema.Naming)

	opts := []schema.Option{
		schema.WithCaching(c.Cache.Enabled),
		schema.WithCacheSize(c.Cache.Size),
		schema.WithTagName(c.Schema.TagName),
		schema.WithNamingStrategy(schema.NewNamingStrategy(naming)),
	}
	return schema.NewCache(append(opts, options...)...)
}

// NewAccessor builds an accessor over cache from the configuration.
// options are applied last and override configured values.
func (c *Config) NewAccessor(cache *schema.Cache, options ...accessor.Option) *accessor.Accessor {
	opts := []accessor.Option{
		accessor.WithStrict(c.Accessor.Strict),
		accessor.WithCaseSensitive(c.Accessor.CaseSensitive),
	}
	return accessor.New(cache, append(opts, options...)...)
}

// Fields returns the configuration as zap fields, for startup logging.
func (c *Config) Fields() []zap.Field {
	return []zap.Field{
		zap.Bool("cache.enabled", c.Cache.Enabled),
		zap.Int("cache.size", c.Cache.Size),
		zap.String("schema.tag_name", c.Schema.TagName),
		zap.String("schema.naming", c.Schema.Naming),
		zap.Bool("accessor.strict", c.Accessor.Strict),
		zap.Bool("accessor.case_sensitive", c.Accessor.CaseSensitive),
	}
}
