package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

// DefaultFile is the config file name looked up in the working
// directory when no -config flag is given.
const DefaultFile = "gqlmap.toml"

type Config struct {
	Version       int           `toml:"version"`
	Roots         []string      `toml:"roots"`
	Exclude       Exclude       `toml:"exclude"`
	Scan          Scan          `toml:"scan"`
	Watch         Watch         `toml:"watch"`
	History       History       `toml:"history"`
	Output        Output        `toml:"output"`
	Alerts        Alerts        `toml:"alerts"`
	Observability Observability `toml:"observability"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Scan struct {
	BatchSize     int      `toml:"batch_size"`
	Parallelism   int      `toml:"parallelism"`
	AliasRegexCap int      `toml:"alias_regex_cap"`
	Indicators    []string `toml:"indicators"`
	ExtraHooks    []string `toml:"extra_hooks"`
	SkipTests     bool     `toml:"skip_tests"`
}

type Watch struct {
	Debounce         time.Duration `toml:"debounce"`
	RescansPerSecond float64       `toml:"rescans_per_second"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Output struct {
	JSON string `toml:"json"`
}

type Alerts struct {
	Beep     bool `toml:"beep"`
	Terminal bool `toml:"terminal"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateScan(&cfg); err != nil {
		return nil, err
	}
	if err := validatePatterns(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if len(cfg.Roots) == 0 {
		cfg.Roots = []string{"."}
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{
			"node_modules",
			".git",
			".next",
			"dist",
			"build",
			"coverage",
		}
	}

	if cfg.Scan.BatchSize == 0 {
		cfg.Scan.BatchSize = 50
	}
	if cfg.Scan.Parallelism == 0 {
		cfg.Scan.Parallelism = 8
	}
	if cfg.Scan.AliasRegexCap == 0 {
		cfg.Scan.AliasRegexCap = 2000
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.RescansPerSecond == 0 {
		cfg.Watch.RescansPerSecond = 0.5
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "gqlmap-history.db"
	}
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateScan(cfg *Config) error {
	if cfg.Scan.BatchSize < 1 {
		return fmt.Errorf("scan.batch_size must be >= 1, got %d", cfg.Scan.BatchSize)
	}
	if cfg.Scan.Parallelism < 1 {
		return fmt.Errorf("scan.parallelism must be >= 1, got %d", cfg.Scan.Parallelism)
	}
	if cfg.Scan.AliasRegexCap < 1 {
		return fmt.Errorf("scan.alias_regex_cap must be >= 1, got %d", cfg.Scan.AliasRegexCap)
	}
	return nil
}

func validatePatterns(cfg *Config) error {
	for _, pattern := range append(append([]string(nil), cfg.Exclude.Dirs...), cfg.Exclude.Files...) {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}
	for _, pattern := range cfg.Scan.ExtraHooks {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid scan.extra_hooks pattern %q: %w", pattern, err)
		}
	}
	return nil
}
