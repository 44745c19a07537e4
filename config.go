package junction

import "fmt"

// Default timing parameters, in seconds
const (
	DefaultMinGreen    = 10
	DefaultMaxGreen    = 60
	DefaultBaseGreen   = 20
	DefaultCycleBudget = DefaultBaseGreen * NumLanes
)

// Config holds the tunable constants of a controller. It is fixed for the
// lifetime of the controller it was used to build.
type Config struct {
	// MinGreen is the floor applied to every computed green time
	MinGreen int `json:"min_green" yaml:"min_green"`
	// MaxGreen is the ceiling applied to every computed green time
	MaxGreen int `json:"max_green" yaml:"max_green"`
	// BaseGreen is handed to every lane while the junction is empty
	BaseGreen int `json:"base_green" yaml:"base_green"`
	// CycleBudget is the number of seconds shared out proportionally
	CycleBudget int `json:"cycle_budget" yaml:"cycle_budget"`
	// LaneOrder is the rotation sequence. Empty means DefaultLaneOrder.
	LaneOrder []Lane `json:"lane_order,omitempty" yaml:"lane_order,omitempty"`
}

// DefaultConfig returns the reference timing parameters
func DefaultConfig() Config {
	return Config{
		MinGreen:    DefaultMinGreen,
		MaxGreen:    DefaultMaxGreen,
		BaseGreen:   DefaultBaseGreen,
		CycleBudget: DefaultCycleBudget,
	}
}

// Validate checks the configuration contract
func (c Config) Validate() error {
	if c.MinGreen < 0 {
		return NewConfigurationError("Config", fmt.Sprintf("min green %d must not be negative", c.MinGreen))
	}
	if c.MinGreen > c.MaxGreen {
		return NewConfigurationError("Config", fmt.Sprintf("min green %d exceeds max green %d", c.MinGreen, c.MaxGreen))
	}
	if c.BaseGreen < c.MinGreen || c.BaseGreen > c.MaxGreen {
		return NewConfigurationError("Config", fmt.Sprintf("base green %d outside [%d, %d]", c.BaseGreen, c.MinGreen, c.MaxGreen))
	}
	if c.CycleBudget <= 0 {
		return NewConfigurationError("Config", fmt.Sprintf("cycle budget %d must be positive", c.CycleBudget))
	}
	if len(c.LaneOrder) == 0 {
		return nil
	}
	if len(c.LaneOrder) != NumLanes {
		return NewConfigurationError("Config", fmt.Sprintf("lane order has %d lanes, want %d", len(c.LaneOrder), NumLanes))
	}
	var seen [NumLanes]bool
	for _, lane := range c.LaneOrder {
		if !lane.Valid() {
			return NewConfigurationError("Config", fmt.Sprintf("lane order contains unknown lane %s", lane))
		}
		if seen[lane] {
			return NewConfigurationError("Config", fmt.Sprintf("lane order repeats %s", lane))
		}
		seen[lane] = true
	}
	return nil
}

// GreenTime computes the green duration for a lane holding laneCount of
// total vehicles. An empty junction yields BaseGreen. Otherwise the
// proportional share of CycleBudget is truncated toward zero and then
// clamped into [MinGreen, MaxGreen].
func (c Config) GreenTime(laneCount, total int) int {
	if total == 0 {
		return c.BaseGreen
	}

	raw := float64(laneCount) / float64(total) * float64(c.CycleBudget)
	green := int(raw)

	if green < c.MinGreen {
		return c.MinGreen
	}
	if green > c.MaxGreen {
		return c.MaxGreen
	}
	return green
}

// order returns the effective rotation order
func (c Config) order() [NumLanes]Lane {
	if len(c.LaneOrder) != NumLanes {
		return DefaultLaneOrder
	}
	var order [NumLanes]Lane
	copy(order[:], c.LaneOrder)
	return order
}

// MaxVehicleCount is the largest count a single lane accepts. Junction and
// network totals built from counts in range cannot overflow an int.
const MaxVehicleCount = 1_000_000

// ClampVehicleCount maps raw sensor readings onto a valid vehicle count by
// raising negative values to zero and capping them at MaxVehicleCount.
// Hosts that prefer the lenient policy call it before SetVehicleCount.
func ClampVehicleCount(count int) int {
	return min(max(count, 0), MaxVehicleCount)
}
