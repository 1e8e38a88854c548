package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance from the default search paths
func New() (*Config, error) {
	return Load("")
}

// Load creates a configuration instance, reading path when it is set
// instead of searching the default locations
func Load(path string) (*Config, error) {
	// A local .env file only seeds the environment; real variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/url-guard/")
		v.AddConfigPath("$HOME/.url-guard")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("URL_GUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Artifact defaults
	v.SetDefault("artifacts.bad_feed", "./artifacts/bad_domains.txt")
	v.SetDefault("artifacts.allow_list", "./artifacts/allow_list.txt")
	v.SetDefault("artifacts.scaler", "./artifacts/scaler.json")
	v.SetDefault("artifacts.threshold", "./artifacts/threshold.json")
	v.SetDefault("artifacts.model", "./artifacts/model.onnx")

	// Bloom defaults
	v.SetDefault("bloom.expected_items", 200000)
	v.SetDefault("bloom.false_positive_rate", 0.01)

	// Oracle defaults
	v.SetDefault("oracle.provider", "onnx")
	v.SetDefault("onnx.shared_library_path", "")
	v.SetDefault("onnx.intra_op_threads", 1)

	// Server defaults
	v.SetDefault("server.filter_type", "http")
	v.SetDefault("server.listen_address", "127.0.0.1:8081")
	v.SetDefault("server.block_malicious", true)
	v.SetDefault("server.headers.status", "X-URL-Guard-Status")
	v.SetDefault("server.headers.score", "X-URL-Guard-Score")
	v.SetDefault("server.headers.reason", "X-URL-Guard-Reason")
	v.SetDefault("server.postfix.enabled", false)
	v.SetDefault("server.postfix.address", "localhost")
	v.SetDefault("server.postfix.port", 10026)
	v.SetDefault("server.max_urls", 50)
	v.SetDefault("server.read_timeout", "10s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_frequency", "10m")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetUint gets an unsigned integer value from the configuration
func (c *Config) GetUint(key string) uint {
	return c.v.GetUint(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// Set overrides a configuration value
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
