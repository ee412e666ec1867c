// Package config loads the immutable service configuration. Values come
// from an optional TOML or YAML file overlaid by environment variables;
// the result is constructed once at startup and passed in, never re-read.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the server.
type Config struct {
	Server      ServerConfig      `toml:"server" yaml:"server"`
	Explorer    ExplorerConfig    `toml:"explorer" yaml:"explorer"`
	RPC         RPCConfig         `toml:"rpc" yaml:"rpc"`
	SignatureDB SignatureDBConfig `toml:"signature_db" yaml:"signature_db"`
	Logging     LoggingConfig     `toml:"logging" yaml:"logging"`
	RateLimit   RateLimitConfig   `toml:"rate_limit" yaml:"rate_limit"`
	Security    SecurityConfig    `toml:"security" yaml:"security"`
	Proxy       ProxyConfig       `toml:"proxy" yaml:"proxy"`
	Metrics     MetricsConfig     `toml:"metrics" yaml:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int    `toml:"port" yaml:"port"`
	Host         string `toml:"host" yaml:"host"`
	ReadTimeout  int    `toml:"read_timeout" yaml:"read_timeout"`   // seconds
	WriteTimeout int    `toml:"write_timeout" yaml:"write_timeout"` // seconds
	IdleTimeout  int    `toml:"idle_timeout" yaml:"idle_timeout"`   // seconds
}

// ExplorerConfig holds block-explorer API settings.
type ExplorerConfig struct {
	// BaseURL is the explorer API endpoint (chain selected via chainid param).
	BaseURL string `toml:"base_url" yaml:"base_url"`
	// APIKey is optional; when empty, requests are sent unauthenticated.
	APIKey  string `toml:"api_key" yaml:"api_key"`
	Timeout int    `toml:"timeout" yaml:"timeout"` // seconds
}

// RPCConfig holds per-network JSON-RPC endpoints. Empty endpoints fall
// back to the canonical default for the network.
type RPCConfig struct {
	MainnetEndpoint string `toml:"mainnet_endpoint" yaml:"mainnet_endpoint"`
	TestnetEndpoint string `toml:"testnet_endpoint" yaml:"testnet_endpoint"`
	Timeout         int    `toml:"timeout" yaml:"timeout"` // seconds
}

// SignatureDBConfig holds function-signature registry settings.
type SignatureDBConfig struct {
	BaseURL string `toml:"base_url" yaml:"base_url"`
	Timeout int    `toml:"timeout" yaml:"timeout"` // seconds
	// MaxPages bounds how many registry result pages are scanned when
	// picking the lowest-ID candidate for a selector.
	MaxPages int `toml:"max_pages" yaml:"max_pages"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "text" or "json"
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Enabled        bool `toml:"enabled" yaml:"enabled"`
	RequestsPerMin int  `toml:"requests_per_min" yaml:"requests_per_min"`
	BurstSize      int  `toml:"burst_size" yaml:"burst_size"`
	CleanupMinutes int  `toml:"cleanup_minutes" yaml:"cleanup_minutes"`
}

// SecurityConfig holds settings for the request filter that blocks
// scanner and traversal probes.
type SecurityConfig struct {
	FilterEnabled bool `toml:"filter_enabled" yaml:"filter_enabled"`
}

// ProxyConfig holds trusted proxy settings for X-Forwarded-For handling.
type ProxyConfig struct {
	TrustProxy     bool     `toml:"trust_proxy" yaml:"trust_proxy"`
	TrustedProxies []string `toml:"trusted_proxies" yaml:"trusted_proxies"` // CIDR notation
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

// Load builds the configuration: defaults, then the optional config file
// at path (TOML or YAML by extension), then environment variables. Env
// always wins over the file.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("ABISCOUT_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 60,
			IdleTimeout:  120,
		},
		Explorer: ExplorerConfig{
			BaseURL: "https://api.etherscan.io/v2/api",
			Timeout: 10,
		},
		RPC: RPCConfig{
			Timeout: 10,
		},
		SignatureDB: SignatureDBConfig{
			BaseURL:  "https://www.4byte.directory",
			Timeout:  10,
			MaxPages: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 300,
			BurstSize:      50,
			CleanupMinutes: 10,
		},
		Security: SecurityConfig{
			FilterEnabled: true,
		},
		Proxy: ProxyConfig{
			TrustProxy:     false,
			TrustedProxies: []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	switch ext := filepath.Ext(path); ext {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q (want .toml, .yaml, or .yml)", ext)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvInt("PORT", c.Server.Port)
	c.Server.Host = getEnv("HOST", c.Server.Host)
	c.Server.ReadTimeout = getEnvInt("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvInt("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvInt("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)

	c.Explorer.BaseURL = getEnv("EXPLORER_API_URL", c.Explorer.BaseURL)
	c.Explorer.APIKey = getEnv("EXPLORER_API_KEY", c.Explorer.APIKey)
	c.Explorer.Timeout = getEnvInt("EXPLORER_TIMEOUT", c.Explorer.Timeout)

	c.RPC.MainnetEndpoint = getEnv("RPC_MAINNET_ENDPOINT", c.RPC.MainnetEndpoint)
	c.RPC.TestnetEndpoint = getEnv("RPC_TESTNET_ENDPOINT", c.RPC.TestnetEndpoint)
	c.RPC.Timeout = getEnvInt("RPC_TIMEOUT", c.RPC.Timeout)

	c.SignatureDB.BaseURL = getEnv("SIGNATURE_DB_URL", c.SignatureDB.BaseURL)
	c.SignatureDB.Timeout = getEnvInt("SIGNATURE_DB_TIMEOUT", c.SignatureDB.Timeout)
	c.SignatureDB.MaxPages = getEnvInt("SIGNATURE_DB_MAX_PAGES", c.SignatureDB.MaxPages)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)

	c.RateLimit.Enabled = getEnvBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerMin = getEnvInt("RATE_LIMIT_RPM", c.RateLimit.RequestsPerMin)
	c.RateLimit.BurstSize = getEnvInt("RATE_LIMIT_BURST", c.RateLimit.BurstSize)
	c.RateLimit.CleanupMinutes = getEnvInt("RATE_LIMIT_CLEANUP_MINUTES", c.RateLimit.CleanupMinutes)

	c.Security.FilterEnabled = getEnvBool("SECURITY_FILTER_ENABLED", c.Security.FilterEnabled)

	c.Proxy.TrustProxy = getEnvBool("TRUST_PROXY", c.Proxy.TrustProxy)
	c.Proxy.TrustedProxies = getEnvStringSlice("TRUSTED_PROXIES", c.Proxy.TrustedProxies)

	c.Metrics.Enabled = getEnvBool("METRICS_ENABLED", c.Metrics.Enabled)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
