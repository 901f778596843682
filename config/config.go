// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/genecars/evolution"
	"github.com/pthm-cable/genecars/genome"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Evolution EvolutionConfig `yaml:"evolution"`
	Genome    genome.Bounds   `yaml:"genome"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Host      HostConfig      `yaml:"host"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// EvolutionConfig holds genetic algorithm parameters.
type EvolutionConfig struct {
	GenerationSize  int     `yaml:"generation_size"`
	MutationRate    float64 `yaml:"mutation_rate"`
	IdleTimeoutMS   int     `yaml:"idle_timeout_ms"`
	ProgressEpsilon float64 `yaml:"progress_epsilon"` // Minimum forward gain that resets the idle timer
	Seed            int64   `yaml:"seed"`             // 0 = time-based
}

// TerrainConfig holds ground generation parameters.
type TerrainConfig struct {
	Pieces      int     `yaml:"pieces"`
	PieceWidth  float64 `yaml:"piece_width"`
	PieceHeight float64 `yaml:"piece_height"`
	StartX      float64 `yaml:"start_x"`
	StartY      float64 `yaml:"start_y"`
	Roughness   float64 `yaml:"roughness"`   // Max tilt (radians) reached by the last piece
	NoiseScale  float64 `yaml:"noise_scale"` // Simplex frequency per piece
	Friction    float64 `yaml:"friction"`
}

// HostConfig holds headless host parameters.
type HostConfig struct {
	DT             float64 `yaml:"dt"`              // Seconds per physics step
	Gravity        float64 `yaml:"gravity"`
	MotorTorque    float64 `yaml:"motor_torque"`    // Drive torque per wheel
	ChassisDensity float64 `yaml:"chassis_density"`
	MaxGenerations int     `yaml:"max_generations"` // 0 = unlimited
	MaxTicks       int     `yaml:"max_ticks"`       // Per generation safety cap, 0 = unlimited
}

// TelemetryConfig holds reporting parameters.
type TelemetryConfig struct {
	HallOfFameSize int  `yaml:"hall_of_fame_size"`
	LogGenerations bool `yaml:"log_generations"`
}

// DerivedConfig holds values computed from other config values.
type DerivedConfig struct {
	IdleTimeout time.Duration
	StepDur     time.Duration
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	if c.Evolution.GenerationSize < 2 {
		return fmt.Errorf("config: evolution.generation_size must be at least 2, got %d", c.Evolution.GenerationSize)
	}
	if c.Evolution.IdleTimeoutMS <= 0 {
		return fmt.Errorf("config: evolution.idle_timeout_ms must be positive, got %d", c.Evolution.IdleTimeoutMS)
	}
	if c.Terrain.Pieces < 1 || c.Terrain.PieceWidth <= 0 {
		return fmt.Errorf("config: terrain needs at least one piece of positive width")
	}
	if c.Host.DT <= 0 {
		return fmt.Errorf("config: host.dt must be positive, got %v", c.Host.DT)
	}
	if err := c.EvolutionParams().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.IdleTimeout = time.Duration(c.Evolution.IdleTimeoutMS) * time.Millisecond
	c.Derived.StepDur = time.Duration(c.Host.DT * float64(time.Second))
}

// EvolutionParams converts the evolution and genome sections into
// controller parameters.
func (c *Config) EvolutionParams() evolution.Params {
	return evolution.Params{
		Bounds:          c.Genome,
		MutationRate:    c.Evolution.MutationRate,
		IdleTimeout:     time.Duration(c.Evolution.IdleTimeoutMS) * time.Millisecond,
		ProgressEpsilon: c.Evolution.ProgressEpsilon,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
