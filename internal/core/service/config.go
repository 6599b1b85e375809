package service

import (
	"fmt"
	"time"

	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
)

// Mode selects which tiers a run deploys.
type Mode string

const (
	// ModeFog runs the full fog topology with cloud fallback.
	ModeFog Mode = "fog"
	// ModeCloudOnly skips the fog tier and sends every task to the cloud.
	ModeCloudOnly Mode = "cloud_only"
)

// SimulationConfig is the engine's own configuration. The config package maps
// the loaded file onto this struct so the core never depends on viper.
type SimulationConfig struct {
	Mode         Mode          `mapstructure:"mode"`
	Seed         int64         `mapstructure:"seed"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	Duration     float64       `mapstructure:"duration"` // simulated seconds

	NumFogNodes   int     `mapstructure:"num_fog_nodes"`
	NumDevices    int     `mapstructure:"num_devices"`
	AreaSize      float64 `mapstructure:"area_size"`
	FogCapacity   Range   `mapstructure:"fog_capacity"`   // units/s per node
	CloudCapacity float64 `mapstructure:"cloud_capacity"` // units/s

	HighFraction     float64 `mapstructure:"high_fraction"`
	ModerateFraction float64 `mapstructure:"moderate_fraction"`

	GenerationRate Range `mapstructure:"generation_rate"` // tasks/s per device
	Complexity     Range `mapstructure:"complexity"`      // work units
	DataSize       Range `mapstructure:"data_size"`       // MB
	Deadline       Range `mapstructure:"deadline"`        // seconds from creation

	Policy     string            `mapstructure:"policy"`
	Thresholds OffloadThresholds `mapstructure:"thresholds"`

	BaseLatencyPerDistance float64 `mapstructure:"base_latency_per_distance"`
	CloudLatencyBase       float64 `mapstructure:"cloud_latency_base"`
	FogToCloudMultiplier   float64 `mapstructure:"fog_to_cloud_multiplier"`

	FailureRate     float64 `mapstructure:"failure_rate"` // failures/s, 0 disables
	FailureDuration Range   `mapstructure:"failure_duration"`

	MonitoringInterval float64 `mapstructure:"monitoring_interval"`
}

// DefaultSimulationConfig returns the stock parameters.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Mode:         ModeFog,
		Seed:         1,
		TickInterval: 100 * time.Millisecond,
		Duration:     60,

		NumFogNodes:   3,
		NumDevices:    10,
		AreaSize:      100,
		FogCapacity:   Range{Min: 2000, Max: 5000},
		CloudCapacity: 20000,

		HighFraction:     0.3,
		ModerateFraction: 0.4,

		GenerationRate: Range{Min: 0.1, Max: 0.3},
		Complexity:     Range{Min: 50, Max: 2000},
		DataSize:       Range{Min: 100, Max: 1000},
		Deadline:       Range{Min: 5, Max: 30},

		Policy:     PolicyDynamic,
		Thresholds: DefaultOffloadThresholds(),

		BaseLatencyPerDistance: 0.01,
		CloudLatencyBase:       5.0,
		FogToCloudMultiplier:   0.02,

		FailureRate:     0.1,
		FailureDuration: Range{Min: 5, Max: 15},

		MonitoringInterval: 1.0,
	}
}

// Validate rejects configurations the engine cannot run.
func (c SimulationConfig) Validate() error {
	switch c.Mode {
	case ModeFog, ModeCloudOnly:
	default:
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if c.Mode == ModeFog && c.NumFogNodes < 1 {
		return fmt.Errorf("fog mode needs at least one fog node, got %d", c.NumFogNodes)
	}
	if c.NumDevices < 1 {
		return fmt.Errorf("need at least one device, got %d", c.NumDevices)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	if c.CloudCapacity <= 0 {
		return fmt.Errorf("cloud capacity must be positive, got %g", c.CloudCapacity)
	}
	if c.Mode == ModeFog && c.FogCapacity.Min <= 0 {
		return fmt.Errorf("fog capacity must be positive, got %g", c.FogCapacity.Min)
	}
	for name, r := range map[string]Range{
		"generation_rate":  c.GenerationRate,
		"complexity":       c.Complexity,
		"data_size":        c.DataSize,
		"deadline":         c.Deadline,
		"failure_duration": c.FailureDuration,
	} {
		if r.Min < 0 || r.Max < r.Min {
			return fmt.Errorf("invalid %s range [%g, %g]", name, r.Min, r.Max)
		}
	}
	if c.GenerationRate.Min <= 0 {
		return fmt.Errorf("generation rate must be positive, got %g", c.GenerationRate.Min)
	}
	if c.HighFraction < 0 || c.ModerateFraction < 0 || c.HighFraction+c.ModerateFraction > 1 {
		return fmt.Errorf("invalid priority fractions high=%g moderate=%g", c.HighFraction, c.ModerateFraction)
	}
	if c.FailureRate < 0 {
		return fmt.Errorf("failure rate must not be negative, got %g", c.FailureRate)
	}
	if c.MonitoringInterval <= 0 {
		return fmt.Errorf("monitoring interval must be positive, got %g", c.MonitoringInterval)
	}
	if _, err := NewRoutingPolicy(c.Policy, c.Thresholds); err != nil {
		return err
	}
	return nil
}

// priorityFor assigns a device's traffic class from its index, splitting the
// fleet by the configured fractions.
func (c SimulationConfig) priorityFor(index int) domain.Priority {
	n := float64(c.NumDevices)
	switch {
	case float64(index) < n*c.HighFraction:
		return domain.PriorityHigh
	case float64(index) < n*(c.HighFraction+c.ModerateFraction):
		return domain.PriorityModerate
	default:
		return domain.PriorityLow
	}
}
