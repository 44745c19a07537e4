package junction

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Controller owns the per-lane vehicle counts of one junction and the
// rotation pointer that decides which lane shows GREEN. Green times and
// congestion labels are derived on read.
type Controller struct {
	config    Config
	rotation  *Rotation
	counts    [NumLanes]int
	current   Lane
	cycle     int
	observers *ObserverManager
	mutex     sync.RWMutex
}

// NewController validates cfg and creates a controller with every count at
// zero and the first lane of the rotation green.
func NewController(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.LaneOrder = append([]Lane(nil), cfg.LaneOrder...)
	rotation := NewRotation(cfg.order())

	return &Controller{
		config:    cfg,
		rotation:  rotation,
		current:   rotation.First(),
		observers: NewObserverManager(),
	}, nil
}

// New creates a controller with DefaultConfig
func New() *Controller {
	c, err := NewController(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return c
}

// Config returns the controller configuration
func (c *Controller) Config() Config {
	cfg := c.config
	cfg.LaneOrder = append([]Lane(nil), c.config.LaneOrder...)
	return cfg
}

// Rotation returns the rotation the controller advances through
func (c *Controller) Rotation() *Rotation {
	return c.rotation
}

// AddObserver registers an observer
func (c *Controller) AddObserver(observer Observer) {
	c.observers.AddObserver(observer)
}

// RemoveObserver unregisters an observer
func (c *Controller) RemoveObserver(observer Observer) {
	c.observers.RemoveObserver(observer)
}

// SetVehicleCount overwrites the stored vehicle count of a lane. Unknown
// lanes, negative counts and counts above MaxVehicleCount are rejected and
// leave the state untouched.
func (c *Controller) SetVehicleCount(lane Lane, count int) error {
	if err := c.checkCount(lane, count); err != nil {
		return err
	}

	c.mutex.Lock()
	previous := c.counts[lane]
	c.counts[lane] = count
	cycle := c.cycle
	c.mutex.Unlock()

	c.observers.NotifyVehicleCount(lane, previous, count, NewEvent(EventVehicleCount, lane, cycle, count))
	return nil
}

// SetVehicleCounts applies several counts at once. Either every entry is
// applied or, on the first invalid entry, none is.
func (c *Controller) SetVehicleCounts(counts map[Lane]int) error {
	for _, lane := range c.rotation.Order() {
		if count, ok := counts[lane]; ok {
			if err := c.checkCount(lane, count); err != nil {
				return err
			}
		}
	}
	for lane, count := range counts {
		if !lane.Valid() {
			return c.checkCount(lane, count)
		}
	}

	type change struct {
		lane     Lane
		previous int
		current  int
	}
	changes := make([]change, 0, len(counts))

	c.mutex.Lock()
	for _, lane := range c.rotation.Order() {
		if count, ok := counts[lane]; ok {
			changes = append(changes, change{lane: lane, previous: c.counts[lane], current: count})
			c.counts[lane] = count
		}
	}
	cycle := c.cycle
	c.mutex.Unlock()

	for _, ch := range changes {
		c.observers.NotifyVehicleCount(ch.lane, ch.previous, ch.current, NewEvent(EventVehicleCount, ch.lane, cycle, ch.current))
	}
	return nil
}

func (c *Controller) checkCount(lane Lane, count int) error {
	var err error
	switch {
	case !lane.Valid():
		err = NewInvalidLaneError(lane.String())
	case count < 0:
		err = NewNegativeCountError(lane, count)
	case count > MaxVehicleCount:
		err = NewCountTooLargeError(lane, count)
	default:
		return nil
	}
	c.observers.NotifyRejected(NewEvent(EventRejected, lane, c.Cycle(), count), err)
	return err
}

// VehicleCount returns the stored count of a lane
func (c *Controller) VehicleCount(lane Lane) (int, error) {
	if !lane.Valid() {
		return 0, NewInvalidLaneError(lane.String())
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.counts[lane], nil
}

// VehicleCounts returns a copy of every lane's count
func (c *Controller) VehicleCounts() map[Lane]int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	counts := make(map[Lane]int, NumLanes)
	for _, lane := range c.rotation.Order() {
		counts[lane] = c.counts[lane]
	}
	return counts
}

// CalculateGreenTime applies the controller's timing parameters to a lane
// count and the junction total
func (c *Controller) CalculateGreenTime(laneCount, total int) int {
	return c.config.GreenTime(laneCount, total)
}

// NextLane returns the lane that follows lane in the rotation
func (c *Controller) NextLane(lane Lane) (Lane, error) {
	if !lane.Valid() {
		return 0, NewInvalidLaneError(lane.String())
	}
	return c.rotation.Next(lane), nil
}

// CurrentLane returns the lane currently showing GREEN
func (c *Controller) CurrentLane() Lane {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.current
}

// Cycle returns the number of rotation steps taken since the last reset
func (c *Controller) Cycle() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.cycle
}

// Advance turns the current lane RED, hands GREEN to the next lane in the
// rotation and increments the cycle counter. Elapsed time is the caller's
// concern.
func (c *Controller) Advance() {
	c.mutex.Lock()
	from := c.current
	to := c.rotation.Next(from)
	c.current = to
	c.cycle++
	cycle := c.cycle
	c.mutex.Unlock()

	c.observers.NotifyAdvance(from, to, NewEvent(EventAdvance, to, cycle, nil))
}

// MostCongestedLane returns the lane with the highest count. Ties go to the
// lane that comes first in the rotation.
func (c *Controller) MostCongestedLane() (Lane, int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.mostCongested()
}

func (c *Controller) mostCongested() (Lane, int) {
	order := c.rotation.Order()
	best := order[0]
	for _, lane := range order[1:] {
		if c.counts[lane] > c.counts[best] {
			best = lane
		}
	}
	return best, c.counts[best]
}

func (c *Controller) total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// SignalState derives the full per-lane view from the stored counts
func (c *Controller) SignalState() Snapshot {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	total := c.total()
	snap := Snapshot{
		CurrentLane:   c.current,
		Cycle:         c.cycle,
		TotalVehicles: total,
	}
	for i, lane := range c.rotation.Order() {
		vehicles := c.counts[lane]
		signal := Red
		if lane == c.current {
			signal = Green
		}
		snap.Lanes[i] = LaneState{
			Lane:       lane,
			Vehicles:   vehicles,
			Signal:     signal,
			GreenTime:  c.config.GreenTime(vehicles, total),
			Congestion: ClassifyCongestion(vehicles),
		}
	}
	return snap
}

// Statistics summarises the current counts and rotation position
func (c *Controller) Statistics() Statistics {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	total := c.total()
	lane, most := c.mostCongested()
	return Statistics{
		TotalVehicles:     total,
		AveragePerLane:    float64(total) / NumLanes,
		MostCongestedLane: lane,
		MaxVehicles:       most,
		CurrentGreenLane:  c.current,
		CycleNumber:       c.cycle,
	}
}

// Reset zeroes every count, returns GREEN to the first lane of the
// rotation and zeroes the cycle counter
func (c *Controller) Reset() {
	c.mutex.Lock()
	c.counts = [NumLanes]int{}
	c.current = c.rotation.First()
	c.cycle = 0
	first := c.current
	c.mutex.Unlock()

	c.observers.NotifyReset(NewEvent(EventReset, first, 0, nil))
}

type controllerJSON struct {
	Config  Config       `json:"config"`
	Counts  map[Lane]int `json:"counts"`
	Current Lane         `json:"current_green_lane"`
	Cycle   int          `json:"cycle_number"`
}

// MarshalJSON serializes the controller state
func (c *Controller) MarshalJSON() ([]byte, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	counts := make(map[Lane]int, NumLanes)
	for lane, n := range c.counts {
		counts[Lane(lane)] = n
	}
	return json.Marshal(controllerJSON{
		Config:  c.config,
		Counts:  counts,
		Current: c.current,
		Cycle:   c.cycle,
	})
}

// UnmarshalJSON restores a controller serialized by MarshalJSON. The
// configuration and counts are validated before anything is replaced.
// It must not run concurrently with other calls on the same controller.
func (c *Controller) UnmarshalJSON(data []byte) error {
	var state controllerJSON
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	if err := state.Config.Validate(); err != nil {
		return err
	}
	if !state.Current.Valid() {
		return NewInvalidLaneError(state.Current.String())
	}
	if state.Cycle < 0 {
		return NewInputError("cycle_number", state.Cycle, "cycle counter must not be negative")
	}

	var counts [NumLanes]int
	for lane, n := range state.Counts {
		if !lane.Valid() {
			return NewInvalidLaneError(lane.String())
		}
		if n < 0 {
			return NewNegativeCountError(lane, n)
		}
		if n > MaxVehicleCount {
			return NewCountTooLargeError(lane, n)
		}
		counts[lane] = n
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.config = state.Config
	c.rotation = NewRotation(state.Config.order())
	c.counts = counts
	c.current = state.Current
	c.cycle = state.Cycle
	if c.observers == nil {
		c.observers = NewObserverManager()
	}
	return nil
}

// String returns a one-line summary
func (c *Controller) String() string {
	stats := c.Statistics()
	return fmt.Sprintf("junction[green=%s cycle=%d vehicles=%d]", stats.CurrentGreenLane, stats.CycleNumber, stats.TotalVehicles)
}
