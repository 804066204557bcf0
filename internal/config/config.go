package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath names the environment variable that overrides DefaultPath.
const (
	EnvPath     = "RADARSIM_CONFIG"
	DefaultPath = "config/radarsim.toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Network  NetworkConfig  `toml:"network"`
	Radar    RadarConfig    `toml:"radar"`
	Spawn    SpawnConfig    `toml:"spawn"`
	Threat   ThreatConfig   `toml:"threat"`
	Weapon   WeaponConfig   `toml:"weapon"`
	Data     DataConfig     `toml:"data"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Name          string        `toml:"name"`
	Seed          int64         `toml:"seed"` // 0 = seed from the clock
	TickRate      time.Duration `toml:"tick_rate"`
	StatsInterval time.Duration `toml:"stats_interval"`
	StartTime     int64         // set at boot, not from config
}

// DatabaseConfig configures the engagement journal. An empty DSN disables it.
type DatabaseConfig struct {
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `toml:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `toml:"connect_timeout"` // also bounds the startup ping
	ApplicationName string        `toml:"application_name"`
	FlushInterval   time.Duration `toml:"flush_interval"`
}

type NetworkConfig struct {
	ScanBind          string   `toml:"scan_bind"`    // detection frames go out from here
	ControlBind       string   `toml:"control_bind"` // JSON control requests
	Receivers         []string `toml:"receivers"`    // registered at startup
	InQueueSize       int      `toml:"in_queue_size"`
	MaxPacketsPerTick int      `toml:"max_packets_per_tick"`
}

type RadarConfig struct {
	ScanInterval time.Duration `toml:"scan_interval"`
	Radius       float64       `toml:"radius"`
	CenterX      float64       `toml:"center_x"`
	CenterY      float64       `toml:"center_y"`
}

type SpawnConfig struct {
	Interval      time.Duration `toml:"interval"`
	AutoStart     bool          `toml:"auto_start"`
	HalfSize      float64       `toml:"half_size"`
	MaxDrones     int           `toml:"max_drones"`
	MinSpeed      float64       `toml:"min_speed"`
	MaxSpeed      float64       `toml:"max_speed"`
	PerturbChance float64       `toml:"perturb_chance"`
}

type ThreatConfig struct {
	MinEngageScore   float64       `toml:"min_engage_score"`
	HighThreatScore  float64       `toml:"high_threat_score"`
	AlertScore       float64       `toml:"alert_score"`
	CoreFraction     float64       `toml:"core_fraction"`
	CoreHorizon      time.Duration `toml:"core_horizon"`
	ApproachFactor   float64       `toml:"approach_factor"`
	StrikeGridCells  int           `toml:"strike_grid_cells"`
	InterceptSpeed   float64       `toml:"intercept_speed"`
	MaxPriority      int           `toml:"max_priority"`
	PriorityInterval time.Duration `toml:"priority_interval"`
}

type WeaponConfig struct {
	Profile          string        `toml:"profile"`  // single | area
	Strategy         string        `toml:"strategy"` // threat | time
	AutoFire         bool          `toml:"auto_fire"`
	PollInterval     time.Duration `toml:"poll_interval"`
	TimeScoreFloor   float64       `toml:"time_score_floor"`
	UrgentHorizon    float64       `toml:"urgent_horizon"` // seconds
	Lead             time.Duration `toml:"lead"`
	FallbackMinScore float64       `toml:"fallback_min_score"`
}

type DataConfig struct {
	WeaponList string `toml:"weapon_list"`
	ScriptsDir string `toml:"scripts_dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Path returns the config path from the environment or the default.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load decodes path over the defaults. A missing file yields an error
// wrapping fs.ErrNotExist; callers may fall back to Defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

// Validate rejects values the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Server.TickRate <= 0:
		return fmt.Errorf("server.tick_rate must be positive")
	case c.Radar.ScanInterval <= 0:
		return fmt.Errorf("radar.scan_interval must be positive")
	case c.Radar.Radius <= 0:
		return fmt.Errorf("radar.radius must be positive")
	case c.Spawn.HalfSize <= 0:
		return fmt.Errorf("spawn.half_size must be positive")
	case c.Spawn.MinSpeed <= 0 || c.Spawn.MinSpeed > c.Spawn.MaxSpeed:
		return fmt.Errorf("spawn speed range %g-%g is invalid", c.Spawn.MinSpeed, c.Spawn.MaxSpeed)
	case c.Weapon.PollInterval <= 0:
		return fmt.Errorf("weapon.poll_interval must be positive")
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:          "radarsim",
			TickRate:      50 * time.Millisecond,
			StatsInterval: 30 * time.Second,
			StartTime:     time.Now().Unix(),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnectTimeout:  5 * time.Second,
			ApplicationName: "radarsim",
			FlushInterval:   2 * time.Second,
		},
		Network: NetworkConfig{
			ScanBind:          "0.0.0.0:12345",
			ControlBind:       "0.0.0.0:12347",
			Receivers:         []string{"127.0.0.1:12346"},
			InQueueSize:       128,
			MaxPacketsPerTick: 32,
		},
		Radar: RadarConfig{
			ScanInterval: time.Second,
			Radius:       800,
		},
		Spawn: SpawnConfig{
			Interval:      3 * time.Second,
			AutoStart:     true,
			HalfSize:      800,
			MaxDrones:     20,
			MinSpeed:      10,
			MaxSpeed:      150,
			PerturbChance: 0.045,
		},
		Threat: ThreatConfig{
			MinEngageScore:   50,
			HighThreatScore:  500,
			AlertScore:       1000,
			CoreFraction:     0.5,
			CoreHorizon:      10 * time.Second,
			ApproachFactor:   0.7,
			StrikeGridCells:  20,
			InterceptSpeed:   300,
			MaxPriority:      5,
			PriorityInterval: 500 * time.Millisecond,
		},
		Weapon: WeaponConfig{
			Profile:          "single",
			Strategy:         "threat",
			PollInterval:     100 * time.Millisecond,
			TimeScoreFloor:   3.0,
			UrgentHorizon:    20,
			Lead:             500 * time.Millisecond,
			FallbackMinScore: 0.5,
		},
		Data: DataConfig{
			WeaponList: "data/yaml/weapon_list.yaml",
			ScriptsDir: "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
