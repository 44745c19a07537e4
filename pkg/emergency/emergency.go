// Package emergency lets priority vehicles take the green light at a
// junction for a fixed period without moving the controller's rotation.
package emergency

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anggasct/junction"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// VehicleType names a kind of priority vehicle
type VehicleType string

const (
	Ambulance VehicleType = "ambulance"
	FireTruck VehicleType = "fire_truck"
	Police    VehicleType = "police"
)

var (
	// ErrUnknownVehicle is returned for vehicle types without a profile
	ErrUnknownVehicle = errors.New("unknown emergency vehicle type")

	// ErrOverrideActive is returned when a detection does not outrank the
	// override already in place
	ErrOverrideActive = errors.New("emergency override already active")
)

// Profile describes how a vehicle type is treated. Lower Priority values
// win.
type Profile struct {
	Type     VehicleType   `json:"type"`
	Priority int           `json:"priority"`
	Duration time.Duration `json:"duration"`
	Color    string        `json:"color"`
}

// DefaultDuration is the override duration reported before any detection
const DefaultDuration = 30 * time.Second

var profiles = map[VehicleType]Profile{
	Ambulance: {Type: Ambulance, Priority: 1, Duration: 30 * time.Second, Color: "#FF6B6B"},
	FireTruck: {Type: FireTruck, Priority: 2, Duration: 40 * time.Second, Color: "#FF0000"},
	Police:    {Type: Police, Priority: 3, Duration: 25 * time.Second, Color: "#0066FF"},
}

var labels = map[VehicleType]string{
	Ambulance: "AMBULANCE",
	FireTruck: "FIRE TRUCK",
	Police:    "POLICE VEHICLE",
}

// Types returns every supported profile ordered by priority
func Types() []Profile {
	types := lo.Values(profiles)
	sort.Slice(types, func(i, j int) bool { return types[i].Priority < types[j].Priority })
	return types
}

// ParseVehicleType resolves a vehicle type name, ignoring case
func ParseVehicleType(name string) (VehicleType, error) {
	vt := VehicleType(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := profiles[vt]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVehicle, name)
	}
	return vt, nil
}

// Status reports the override state
type Status struct {
	Active    bool           `json:"active"`
	Lane      *junction.Lane `json:"lane"`
	Type      VehicleType    `json:"type,omitempty"`
	Elapsed   time.Duration  `json:"elapsed"`
	Duration  time.Duration  `json:"duration"`
	Remaining time.Duration  `json:"remaining"`
}

// Override overlays an emergency green on top of a controller. The
// controller's current lane and cycle are never changed, so the normal
// rotation resumes where it was once the override clears.
type Override struct {
	controller *junction.Controller
	logger     zerolog.Logger

	active   bool
	lane     junction.Lane
	profile  Profile
	elapsed  time.Duration
	duration time.Duration
	mutex    sync.RWMutex
}

// New creates an inactive override for controller
func New(controller *junction.Controller) *Override {
	return &Override{
		controller: controller,
		logger:     zerolog.Nop(),
		duration:   DefaultDuration,
	}
}

// SetLogger sets the logger used for detection and clearance messages
func (o *Override) SetLogger(logger zerolog.Logger) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.logger = logger
}

// Detect starts an override for a vehicle approaching on lane. A detection
// with a strictly higher priority than the active one replaces it.
func (o *Override) Detect(lane junction.Lane, vehicleType VehicleType) error {
	if !lane.Valid() {
		return junction.NewInvalidLaneError(lane.String())
	}
	profile, ok := profiles[vehicleType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVehicle, string(vehicleType))
	}

	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.active && profile.Priority >= o.profile.Priority {
		return fmt.Errorf("%w: %s on %s", ErrOverrideActive, o.profile.Type, o.lane)
	}

	o.active = true
	o.lane = lane
	o.profile = profile
	o.elapsed = 0
	o.duration = profile.Duration

	o.logger.Warn().
		Str("lane", lane.String()).
		Str("vehicle", string(vehicleType)).
		Dur("duration", profile.Duration).
		Msg("emergency override started")
	return nil
}

// Active reports whether an override is in place
func (o *Override) Active() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.active
}

// Update records the time elapsed since the detection and clears the
// override once its duration has run out
func (o *Override) Update(elapsed time.Duration) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if !o.active {
		return
	}
	o.elapsed = elapsed
	if elapsed >= o.profile.Duration {
		o.clear("expired")
	}
}

// Clear ends the override immediately
func (o *Override) Clear() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.active {
		o.clear("cleared")
	}
}

// clear resets the override; the caller holds the lock
func (o *Override) clear(reason string) {
	o.logger.Info().
		Str("lane", o.lane.String()).
		Str("vehicle", string(o.profile.Type)).
		Str("reason", reason).
		Msg("emergency override ended")

	o.active = false
	o.lane = 0
	o.profile = Profile{}
	o.elapsed = 0
}

// SignalState returns the controller's view with the emergency lane GREEN
// and every other lane RED while an override is active. Vehicle counts,
// green times and the cycle number come from the controller unchanged.
func (o *Override) SignalState() junction.Snapshot {
	snap := o.controller.SignalState()

	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if !o.active {
		return snap
	}
	snap.CurrentLane = o.lane
	for i := range snap.Lanes {
		if snap.Lanes[i].Lane == o.lane {
			snap.Lanes[i].Signal = junction.Green
		} else {
			snap.Lanes[i].Signal = junction.Red
		}
	}
	return snap
}

// Status returns the override state. While inactive it reports the
// duration of the most recent override, or DefaultDuration before the
// first one, with nothing remaining.
func (o *Override) Status() Status {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if !o.active {
		return Status{Duration: o.duration}
	}
	lane := o.lane
	return Status{
		Active:    true,
		Lane:      &lane,
		Type:      o.profile.Type,
		Elapsed:   o.elapsed,
		Duration:  o.profile.Duration,
		Remaining: max(0, o.profile.Duration-o.elapsed),
	}
}

// Color returns the display colour of the active vehicle type, or an empty
// string when no override is active
func (o *Override) Color() string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if !o.active {
		return ""
	}
	return o.profile.Color
}

// Alert returns a display message for the active override, or an empty
// string when there is none
func (o *Override) Alert() string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if !o.active {
		return ""
	}
	return fmt.Sprintf("%s DETECTED on %s lane - Override active", labels[o.profile.Type], o.lane)
}
