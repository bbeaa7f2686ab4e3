// Package config loads the service configuration from an optional TOML
// file with SKYCALC_* environment variable overrides. Defaults are safe
// for a local development run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full service configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Auth   AuthConfig   `toml:"auth"`
	Log    LogConfig    `toml:"log"`
	Engine EngineConfig `toml:"engine"`
	Cache  CacheConfig  `toml:"cache"`
	Stream StreamConfig `toml:"stream"`
	DB     DBConfig     `toml:"db"`
}

type ServerConfig struct {
	Addr       string `toml:"addr"`
	TrustProxy bool   `toml:"trust_proxy"`
}

type AuthConfig struct {
	Enabled bool   `toml:"enabled"`
	Token   string `toml:"token"`
}

type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json, text
}

type EngineConfig struct {
	EphePath string `toml:"ephe_path"` // ephemeris data search path
	JPLFile  string `toml:"jpl_file"`
	Workers  int    `toml:"workers"` // calculation pool size, 0 = NumCPU
}

type CacheConfig struct {
	Enabled        bool `toml:"enabled"`
	StepSeconds    int  `toml:"step_seconds"`
	HorizonSeconds int  `toml:"horizon_seconds"`
	GraceSeconds   int  `toml:"grace_seconds"`
	BufferSeconds  int  `toml:"buffer_seconds"`
}

type StreamConfig struct {
	MaxConcurrentPerIP int `toml:"max_concurrent_per_ip"`
	MaxConcurrent      int `toml:"max_concurrent"`
	KeepaliveSeconds   int `toml:"keepalive_seconds"`
}

type DBConfig struct {
	Path string `toml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Format: "json"},
		Cache: CacheConfig{
			Enabled:        true,
			StepSeconds:    5,
			HorizonSeconds: 600,
			GraceSeconds:   30,
			BufferSeconds:  60,
		},
		Stream: StreamConfig{
			MaxConcurrentPerIP: 10,
			MaxConcurrent:      1000,
			KeepaliveSeconds:   30,
		},
		DB: DBConfig{Path: "skycalc.db"},
	}
}

// Load builds the configuration: defaults, then the TOML file at path
// (skipped when path is empty or the file does not exist), then
// environment overrides, then validation.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return cfg, fmt.Errorf("config file %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envStr("SKYCALC_ADDR", &cfg.Server.Addr)
	envBool("SKYCALC_TRUST_PROXY", &cfg.Server.TrustProxy)
	envBool("SKYCALC_AUTH_ENABLED", &cfg.Auth.Enabled)
	envStr("SKYCALC_AUTH_TOKEN", &cfg.Auth.Token)
	envStr("SKYCALC_LOG_LEVEL", &cfg.Log.Level)
	envStr("SKYCALC_LOG_FORMAT", &cfg.Log.Format)
	envStr("SKYCALC_EPHE_PATH", &cfg.Engine.EphePath)
	envStr("SKYCALC_JPL_FILE", &cfg.Engine.JPLFile)
	envInt("SKYCALC_WORKERS", &cfg.Engine.Workers)
	envBool("SKYCALC_CACHE_ENABLED", &cfg.Cache.Enabled)
	envInt("SKYCALC_CACHE_STEP_SECONDS", &cfg.Cache.StepSeconds)
	envInt("SKYCALC_CACHE_HORIZON_SECONDS", &cfg.Cache.HorizonSeconds)
	envInt("SKYCALC_CACHE_GRACE_SECONDS", &cfg.Cache.GraceSeconds)
	envInt("SKYCALC_CACHE_BUFFER_SECONDS", &cfg.Cache.BufferSeconds)
	envInt("SKYCALC_STREAM_MAX_PER_IP", &cfg.Stream.MaxConcurrentPerIP)
	envInt("SKYCALC_STREAM_MAX_TOTAL", &cfg.Stream.MaxConcurrent)
	envInt("SKYCALC_STREAM_KEEPALIVE_SECONDS", &cfg.Stream.KeepaliveSeconds)
	envStr("SKYCALC_DB_PATH", &cfg.DB.Path)
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("config: server.addr must not be empty")
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		return errors.New("config: auth.token required when auth.enabled")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	if c.Cache.Enabled {
		if c.Cache.StepSeconds < 1 || c.Cache.StepSeconds > 60 {
			return errors.New("config: cache.step_seconds must be 1-60")
		}
		if c.Cache.HorizonSeconds < c.Cache.StepSeconds {
			return errors.New("config: cache.horizon_seconds must cover at least one step")
		}
	}
	if c.Stream.MaxConcurrentPerIP < 1 {
		return errors.New("config: stream.max_concurrent_per_ip must be positive")
	}
	return nil
}

// CacheStep returns the cache step as a Duration.
func (c CacheConfig) Step() time.Duration { return time.Duration(c.StepSeconds) * time.Second }

// Horizon returns the cache horizon as a Duration.
func (c CacheConfig) Horizon() time.Duration { return time.Duration(c.HorizonSeconds) * time.Second }

// Grace returns the cutover grace period as a Duration.
func (c CacheConfig) Grace() time.Duration { return time.Duration(c.GraceSeconds) * time.Second }

// Buffer returns the eviction buffer as a Duration.
func (c CacheConfig) Buffer() time.Duration { return time.Duration(c.BufferSeconds) * time.Second }

// Keepalive returns the stream keep-alive interval as a Duration.
func (c StreamConfig) Keepalive() time.Duration {
	return time.Duration(c.KeepaliveSeconds) * time.Second
}
