package infra

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds every application setting. Values come from the yaml file,
// then a .env file (if present), then process environment overrides.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		Adurite struct {
			URL string `yaml:"url"`
		} `yaml:"adurite"`
		Rolimons struct {
			URL string `yaml:"url"`
		} `yaml:"rolimons"`
		Thumbnails struct {
			URL    string `yaml:"url"`
			Size   string `yaml:"size"`
			Format string `yaml:"format"`
		} `yaml:"thumbnails"`
		FX struct {
			URL    string `yaml:"url"`
			Base   string `yaml:"base"`
			Target string `yaml:"target"`
		} `yaml:"fx"`
	} `yaml:"api"`

	Pipeline struct {
		RefreshIntervalSec int             `yaml:"refresh_interval_sec"`
		CacheTTLSec        int             `yaml:"cache_ttl_sec"`
		LowMult            decimal.Decimal `yaml:"low_mult"`
		PrimaryMult        decimal.Decimal `yaml:"primary_mult"`
		HighMult           decimal.Decimal `yaml:"high_mult"`
	} `yaml:"pipeline"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file
func LoadConfig(path string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	for field, url := range map[string]string{
		"adurite":    c.API.Adurite.URL,
		"rolimons":   c.API.Rolimons.URL,
		"thumbnails": c.API.Thumbnails.URL,
		"fx":         c.API.FX.URL,
	} {
		if !hasPrefix(url, "http://") && !hasPrefix(url, "https://") {
			return fmt.Errorf("invalid %s URL: %s", field, url)
		}
	}

	if c.API.FX.Base == "" || c.API.FX.Target == "" {
		return fmt.Errorf("fx base and target currencies are required")
	}

	if c.Pipeline.RefreshIntervalSec <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}
	if c.Pipeline.CacheTTLSec < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv applies environment variable overrides when present.
// The relay deployment uses these to point the providers at itself.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("MARKET_ADURITE_URL"); v != "" {
		cfg.API.Adurite.URL = v
	}
	if v := os.Getenv("MARKET_ROLIMONS_URL"); v != "" {
		cfg.API.Rolimons.URL = v
	}
	if v := os.Getenv("MARKET_THUMBNAILS_URL"); v != "" {
		cfg.API.Thumbnails.URL = v
	}
	if v := os.Getenv("MARKET_FX_URL"); v != "" {
		cfg.API.FX.URL = v
	}
	if v := os.Getenv("MARKET_PORT"); v != "" {
		cfg.Server.Port = v
	}
}
