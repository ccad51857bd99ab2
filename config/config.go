// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Spawn modes for periodic agent injection.
const (
	SpawnRandom  = "random"
	SpawnElitist = "elitist"
)

// Steering strategies for choosing a heading toward a sensed target.
const (
	SteerBrain  = "brain"
	SteerDirect = "direct"
)

const defaultCellSz = 64.0

// Config holds all simulation configuration parameters.
type Config struct {
	Screen       ScreenConfig       `yaml:"screen"`
	World        WorldConfig        `yaml:"world"`
	Physics      PhysicsConfig      `yaml:"physics"`
	Body         BodyConfig         `yaml:"body"`
	Metabolism   MetabolismConfig   `yaml:"metabolism"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Brain        BrainConfig        `yaml:"brain"`
	Food         FoodConfig         `yaml:"food"`
	Spawn        SpawnConfig        `yaml:"spawn"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Bookmarks    BookmarksConfig    `yaml:"bookmarks"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds arena dimensions and population limits.
type WorldConfig struct {
	Width         int `yaml:"width"`          // Arena width in pixels (0 = use screen width)
	Height        int `yaml:"height"`         // Arena height in pixels (0 = use screen height)
	Cap           int `yaml:"cap"`            // Hard population cap
	InitialAgents int `yaml:"initial_agents"` // Random agents created at startup
	InitialFood   int `yaml:"initial_food"`   // Food items scattered at startup
}

// PhysicsConfig holds integration parameters.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt"`             // Milliseconds per headless tick
	SpeedScale   float64 `yaml:"speed_scale"`    // Pixels per ms per unit of speed
	GridCellSize float64 `yaml:"grid_cell_size"` // Spatial grid cell size in pixels
}

// BodyConfig holds the trait ranges used by the phenotype mapper.
type BodyConfig struct {
	SpeedMin      float64 `yaml:"speed_min"`
	SpeedMax      float64 `yaml:"speed_max"`
	SizeMin       float64 `yaml:"size_min"`
	SizeMax       float64 `yaml:"size_max"`
	VisionMax     float64 `yaml:"vision_max"`     // Upper vision bound; lower bound is the body size
	AsexualMin    float64 `yaml:"asexual_min"`    // Asexual reproduction probability per second
	AsexualMax    float64 `yaml:"asexual_max"`
	SexualMin     float64 `yaml:"sexual_min"`     // Mating probability per encounter per tick
	SexualMax     float64 `yaml:"sexual_max"`
	InitialHealth float64 `yaml:"initial_health"` // Health of randomly spawned agents
	TurnCooldown  float64 `yaml:"turn_cooldown"`  // Milliseconds between heading changes
}

// MetabolismConfig holds the metabolic cost model.
// cost = (eff^3 * speed^2 + vision) * dt * cost_scale, eff = max(size - size_offset, min_effective_size)
type MetabolismConfig struct {
	CostScale        float64 `yaml:"cost_scale"`
	SizeOffset       float64 `yaml:"size_offset"`
	MinEffectiveSize float64 `yaml:"min_effective_size"`
}

// ReproductionConfig holds reproduction parameters.
type ReproductionConfig struct {
	MinHealth       float64 `yaml:"min_health"`       // Health must exceed this to reproduce
	Cooldown        float64 `yaml:"cooldown"`         // Milliseconds between reproductions
	AsexualShare    float64 `yaml:"asexual_share"`    // Fraction of health donated to an asexual child
	SexualShare     float64 `yaml:"sexual_share"`     // Fraction of health each parent donates
	MinDonation     float64 `yaml:"min_donation"`     // Flat donation floor
	RefundDiscarded bool    `yaml:"refund_discarded"` // Return donations when the child is dropped at the cap
}

// MutationConfig holds mutation parameters shared by body and brain genomes.
type MutationConfig struct {
	Rate         float64 `yaml:"rate"`
	Sigma        float64 `yaml:"sigma"`
	ResampleRate float64 `yaml:"resample_rate"`
}

// BrainConfig holds decision function parameters.
type BrainConfig struct {
	Steering    string  `yaml:"steering"`     // "brain" or "direct"
	WeightScale float64 `yaml:"weight_scale"` // Gene 0..1 maps to weight -scale..+scale
}

// FoodConfig holds food spawning parameters.
type FoodConfig struct {
	Value         float64 `yaml:"value"`
	Size          float64 `yaml:"size"`
	SpawnInterval float64 `yaml:"spawn_interval"` // Milliseconds between spawns (<= 0 disables)
	Max           int     `yaml:"max"`            // Timer spawns stop at this many items (0 = unlimited)
	CorpseFactor  float64 `yaml:"corpse_factor"`  // Corpse value = size * factor (0 disables)
	Patchiness    float64 `yaml:"patchiness"`     // 0 = uniform, 1 = fully noise-driven placement
	NoiseScale    float64 `yaml:"noise_scale"`    // Noise frequency for patchy placement
}

// SpawnConfig holds periodic agent injection parameters.
type SpawnConfig struct {
	Mode       string  `yaml:"mode"`        // "random" or "elitist"
	Interval   float64 `yaml:"interval"`    // Milliseconds between spawns (<= 0 disables)
	EliteCount int     `yaml:"elite_count"` // Agents reproduced per elitist spawn
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Seconds of simulated time per window
	BookmarkHistorySize int     `yaml:"bookmark_history_size"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	BabyBoom        BabyBoomConfig        `yaml:"baby_boom"`
	PopulationCrash PopulationCrashConfig `yaml:"population_crash"`
}

// BabyBoomConfig triggers when births exceed a multiple of the rolling average.
type BabyBoomConfig struct {
	Multiplier float64 `yaml:"multiplier"`
	MinBirths  int     `yaml:"min_births"`
}

// PopulationCrashConfig triggers when the population drops from its recent peak.
type PopulationCrashConfig struct {
	DropPercent float64 `yaml:"drop_percent"`
	MinDrop     int     `yaml:"min_drop"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldW float64 // Effective arena width
	WorldH float64 // Effective arena height
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

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
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
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// Validate reports configuration values the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		errs = append(errs, fmt.Errorf("screen size %dx%d must be positive", c.Screen.Width, c.Screen.Height))
	}
	if c.World.Width < 0 || c.World.Height < 0 {
		errs = append(errs, fmt.Errorf("world size %dx%d must be >= 0 (0 = screen size)", c.World.Width, c.World.Height))
	}
	if w, h := c.arenaSize(); w <= 0 || h <= 0 {
		errs = append(errs, fmt.Errorf("arena size %dx%d must be positive", w, h))
	}
	if g := c.Physics.GridCellSize; math.IsNaN(g) || math.IsInf(g, 0) {
		errs = append(errs, fmt.Errorf("physics.grid_cell_size must be finite, got %v", g))
	}
	if c.World.Cap < 0 {
		errs = append(errs, fmt.Errorf("world.cap must be >= 0, got %d", c.World.Cap))
	}
	if c.Body.SpeedMin > c.Body.SpeedMax {
		errs = append(errs, fmt.Errorf("body.speed_min %.3f exceeds speed_max %.3f", c.Body.SpeedMin, c.Body.SpeedMax))
	}
	if c.Body.SizeMin <= 0 || c.Body.SizeMin > c.Body.SizeMax {
		errs = append(errs, fmt.Errorf("body size range [%.3f, %.3f] is invalid", c.Body.SizeMin, c.Body.SizeMax))
	}
	if c.Body.AsexualMin > c.Body.AsexualMax {
		errs = append(errs, errors.New("body.asexual_min exceeds asexual_max"))
	}
	if c.Body.SexualMin > c.Body.SexualMax {
		errs = append(errs, errors.New("body.sexual_min exceeds sexual_max"))
	}
	if c.Reproduction.MinHealth < 0 {
		errs = append(errs, fmt.Errorf("reproduction.min_health must be >= 0, got %.3f", c.Reproduction.MinHealth))
	}
	if c.Reproduction.AsexualShare < 0 || c.Reproduction.AsexualShare > 1 || c.Reproduction.SexualShare < 0 || c.Reproduction.SexualShare > 1 {
		errs = append(errs, errors.New("reproduction shares must be within [0, 1]"))
	}
	if c.Physics.DT <= 0 {
		errs = append(errs, fmt.Errorf("physics.dt must be positive, got %.3f", c.Physics.DT))
	}
	if c.Food.Max < 0 {
		errs = append(errs, fmt.Errorf("food.max must be >= 0, got %d", c.Food.Max))
	}
	if c.Spawn.Mode != SpawnRandom && c.Spawn.Mode != SpawnElitist {
		errs = append(errs, fmt.Errorf("spawn.mode must be %q or %q, got %q", SpawnRandom, SpawnElitist, c.Spawn.Mode))
	}
	if c.Spawn.Mode == SpawnElitist && c.Spawn.EliteCount < 1 {
		errs = append(errs, fmt.Errorf("spawn.elite_count must be >= 1 in elitist mode, got %d", c.Spawn.EliteCount))
	}
	if c.Brain.Steering != SteerBrain && c.Brain.Steering != SteerDirect {
		errs = append(errs, fmt.Errorf("brain.steering must be %q or %q, got %q", SteerBrain, SteerDirect, c.Brain.Steering))
	}
	if c.Mutation.Rate < 0 || c.Mutation.Rate > 1 || c.Mutation.ResampleRate < 0 || c.Mutation.ResampleRate > 1 {
		errs = append(errs, errors.New("mutation rates must be within [0, 1]"))
	}
	if c.Food.Patchiness < 0 || c.Food.Patchiness > 1 {
		errs = append(errs, fmt.Errorf("food.patchiness must be within [0, 1], got %.3f", c.Food.Patchiness))
	}
	return errors.Join(errs...)
}

// ComputeDerived calculates values derived from loaded config.
// Call it again after mutating a loaded config in place.
func (c *Config) ComputeDerived() {
	w, h := c.arenaSize()
	c.Derived.WorldW = float64(w)
	c.Derived.WorldH = float64(h)

	if c.Physics.GridCellSize <= 0 {
		c.Physics.GridCellSize = defaultCellSz
	}
}

// arenaSize is the world size with zero dimensions falling back to the screen.
func (c *Config) arenaSize() (w, h int) {
	w, h = c.World.Width, c.World.Height
	if w == 0 {
		w = c.Screen.Width
	}
	if h == 0 {
		h = c.Screen.Height
	}
	return w, h
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
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
