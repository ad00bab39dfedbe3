// Package config loads nnviz settings with koanf.
//
// Sources are layered, later ones winning:
//
//  1. built-in defaults
//  2. the user file ($XDG_CONFIG_HOME/nnviz/config.yml)
//  3. an explicit --config file
//  4. NNVIZ_* environment variables, "__" separating nested keys
//     (NNVIZ_CANVAS__WIDTH=1600, NNVIZ_CACHE__BACKEND=redis)
//  5. command-line flags, passed in as overrides
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/matzehuels/nnviz/pkg/animate"
	"github.com/matzehuels/nnviz/pkg/cache"
	"github.com/matzehuels/nnviz/pkg/layout"
	"github.com/matzehuels/nnviz/pkg/render/diagram"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "NNVIZ_"

// Config is the effective configuration.
type Config struct {
	Canvas  layout.Frame       `koanf:"canvas"`
	Node    diagram.Style      `koanf:"node"`
	Pulse   animate.Timing     `koanf:"pulse"`
	Preset  string             `koanf:"preset"`
	Cache   CacheConfig        `koanf:"cache"`
	Redis   cache.RedisOptions `koanf:"redis"`
	Mongo   cache.MongoOptions `koanf:"mongo"`
	Server  ServerConfig       `koanf:"server"`
	Session SessionConfig      `koanf:"session"`

	k *koanf.Koanf
}

// CacheConfig selects the artifact cache.
type CacheConfig struct {
	Backend string        `koanf:"backend"` // file | none | redis | mongo
	Dir     string        `koanf:"dir"`     // file backend root; empty means the XDG cache dir
	TTL     time.Duration `koanf:"ttl"`     // zero keeps the per-kind defaults
	Prefix  string        `koanf:"prefix"`  // key prefix for shared backends
}

// ServerConfig configures nnviz serve.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	SessionTTL      time.Duration `koanf:"session_ttl"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SessionConfig selects the session store of nnviz serve.
type SessionConfig struct {
	Backend string `koanf:"backend"` // memory | file | redis
	Dir     string `koanf:"dir"`     // file backend root
}

// LoadOptions controls [Load].
type LoadOptions struct {
	// Path is an explicit config file; it must exist when set.
	Path string

	// UserPath replaces the XDG user file location. Tests use it to stay
	// away from the real home directory.
	UserPath string

	// SkipUser disables the user file.
	SkipUser bool

	// SkipEnv disables NNVIZ_* environment variables.
	SkipEnv bool

	// Overrides are applied last, keyed by dotted path ("canvas.width").
	Overrides map[string]any
}

// Load builds the effective configuration and validates it.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	for key, value := range Defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if !opts.SkipUser {
		userPath := opts.UserPath
		if userPath == "" {
			userPath, _ = UserConfigPath()
		}
		if fileExists(userPath) {
			if err := loadYAML(k, userPath); err != nil {
				return nil, err
			}
		}
	}

	if opts.Path != "" {
		if !fileExists(opts.Path) {
			return nil, fmt.Errorf("config file %s: %w", opts.Path, os.ErrNotExist)
		}
		if err := loadYAML(k, opts.Path); err != nil {
			return nil, err
		}
	}

	if !opts.SkipEnv {
		if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
			return nil, fmt.Errorf("load environment config: %w", err)
		}
	}

	for key, value := range opts.Overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set %s: %w", key, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.k = k

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	cfg, err := Load(LoadOptions{SkipUser: true, SkipEnv: true})
	if err != nil {
		panic(err)
	}
	return cfg
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	if c.k == nil {
		return nil, fmt.Errorf("config was not loaded")
	}
	return c.k.Marshal(yaml.Parser())
}

// CacheDir returns the file cache root.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return expandHome(c.Cache.Dir), nil
	}
	return DefaultCacheDir()
}

func loadYAML(k *koanf.Koanf, path string) error {
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	return nil
}

// envKey maps NNVIZ_CANVAS__PAD_X to canvas.pad_x.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
