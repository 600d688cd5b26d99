package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SIMSTORE_CLOCK_TICKS_PER_SECOND.
const EnvPrefix = "SIMSTORE_"

// SaveIntervalSeconds is the default wall time between snapshots.
const SaveIntervalSeconds = 120

const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

type Config struct {
	Clock   ClockConfig   `yaml:"clock" envPrefix:"CLOCK_"`
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	World   WorldConfig   `yaml:"world" envPrefix:"WORLD_"`
}

type ClockConfig struct {
	TicksPerSecond int    `yaml:"ticks_per_second" env:"TICKS_PER_SECOND"`
	StartPaused    bool   `yaml:"start_paused" env:"START_PAUSED"`
	StartTick      uint64 `yaml:"start_tick" env:"START_TICK"`
	// AutoResume unpauses the clock once the world is loaded.
	AutoResume bool `yaml:"auto_resume" env:"AUTO_RESUME"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"` // "sqlite", "pgx" or "none"
	DSN    string `yaml:"dsn" env:"DSN"`
	// SaveEveryTicks of zero means SaveIntervalSeconds worth of ticks.
	SaveEveryTicks uint64        `yaml:"save_every_ticks" env:"SAVE_EVERY_TICKS"`
	SaveTimeout    time.Duration `yaml:"save_timeout" env:"SAVE_TIMEOUT"`
	MaxOpenConns   int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
}

type ServerConfig struct {
	Enabled        bool          `yaml:"enabled" env:"ENABLED"`
	ListenAddr     string        `yaml:"listen_addr" env:"LISTEN_ADDR"`
	StreamInterval time.Duration `yaml:"stream_interval" env:"STREAM_INTERVAL"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
}

type WorldConfig struct {
	Bounds BoundsConfig `yaml:"bounds" envPrefix:"BOUNDS_"`
	Seed   []SeedEntity `yaml:"seed"`
}

type BoundsConfig struct {
	MinX float32 `yaml:"min_x" env:"MIN_X"`
	MinY float32 `yaml:"min_y" env:"MIN_Y"`
	MaxX float32 `yaml:"max_x" env:"MAX_X"`
	MaxY float32 `yaml:"max_y" env:"MAX_Y"`
}

// SeedEntity is created when no snapshot exists.
type SeedEntity struct {
	Kind     string  `yaml:"kind"`
	Category string  `yaml:"category"`
	X        float32 `yaml:"x"`
	Y        float32 `yaml:"y"`
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Clock: ClockConfig{
			TicksPerSecond: 30,
			StartPaused:    true,
			AutoResume:     true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			Driver:       DriverSQLite,
			DSN:          "file:simstore.db?_pragma=busy_timeout(5000)",
			SaveTimeout:  10 * time.Second,
			MaxOpenConns: 4,
		},
		Server: ServerConfig{
			Enabled:        true,
			ListenAddr:     "127.0.0.1:7070",
			StreamInterval: time.Second,
			WriteTimeout:   5 * time.Second,
		},
		World: WorldConfig{
			Bounds: BoundsConfig{MinX: -1000, MinY: -1000, MaxX: 1000, MaxY: 1000},
			Seed: []SeedEntity{
				{Kind: "box", Category: "dynamic_object"},
			},
		},
	}
}

func (c *Config) applyDerived() {
	if c.Storage.SaveEveryTicks == 0 && c.Clock.TicksPerSecond > 0 {
		c.Storage.SaveEveryTicks = uint64(SaveIntervalSeconds * c.Clock.TicksPerSecond)
	}
}

var (
	ErrInvalidRate   = errors.New("ticks_per_second must be positive")
	ErrUnknownDriver = errors.New("unknown storage driver")
	ErrMissingDSN    = errors.New("storage dsn is required")
	ErrBadBounds     = errors.New("world bounds min must be below max")
	ErrBadSeed       = errors.New("invalid seed entity")
	ErrBadServer     = errors.New("invalid server settings")
)

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if c.Clock.TicksPerSecond <= 0 || c.Clock.TicksPerSecond > 1000 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidRate, c.Clock.TicksPerSecond))
	}

	switch c.Storage.Driver {
	case DriverNone, "":
	case DriverSQLite, DriverPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, ErrMissingDSN)
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownDriver, c.Storage.Driver))
	}

	if c.Server.Enabled && (c.Server.ListenAddr == "" || c.Server.StreamInterval <= 0) {
		errs = append(errs, fmt.Errorf("%w: listen_addr %q, stream_interval %s",
			ErrBadServer, c.Server.ListenAddr, c.Server.StreamInterval))
	}

	b := c.World.Bounds
	if b.MinX >= b.MaxX || b.MinY >= b.MaxY {
		errs = append(errs, fmt.Errorf("%w: (%g,%g)-(%g,%g)", ErrBadBounds, b.MinX, b.MinY, b.MaxX, b.MaxY))
	}

	for i, s := range c.World.Seed {
		if err := s.validate(); err != nil {
			errs = append(errs, fmt.Errorf("seed[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// PersistenceEnabled reports whether a snapshot store should be opened.
func (c *Config) PersistenceEnabled() bool {
	return c.Storage.Driver != "" && c.Storage.Driver != DriverNone
}
