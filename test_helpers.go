package junction

import (
	"sync"
	"testing"
)

// TestObserver is a mock observer for testing that captures all observer events
type TestObserver struct {
	mutex    sync.RWMutex
	Advances []AdvanceEvent
	Counts   []CountEvent
	Resets   []Event
	Rejects  []RejectEvent
	Errors   []error
}

type AdvanceEvent struct {
	From  Lane
	To    Lane
	Event Event
}

type CountEvent struct {
	Lane     Lane
	Previous int
	Current  int
	Event    Event
}

type RejectEvent struct {
	Event Event
	Err   error
}

// NewTestObserver creates a new test observer
func NewTestObserver() *TestObserver {
	return &TestObserver{}
}

// Observer interface implementations
func (o *TestObserver) OnAdvance(from Lane, to Lane, event Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Advances = append(o.Advances, AdvanceEvent{From: from, To: to, Event: event})
}

func (o *TestObserver) OnVehicleCount(lane Lane, previous int, current int, event Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Counts = append(o.Counts, CountEvent{Lane: lane, Previous: previous, Current: current, Event: event})
}

// ExtendedObserver interface implementations
func (o *TestObserver) OnReset(event Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Resets = append(o.Resets, event)
}

func (o *TestObserver) OnRejected(event Event, err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Rejects = append(o.Rejects, RejectEvent{Event: event, Err: err})
}

func (o *TestObserver) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Errors = append(o.Errors, err)
}

// Helper methods for test assertions
func (o *TestObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Advances = nil
	o.Counts = nil
	o.Resets = nil
	o.Rejects = nil
	o.Errors = nil
}

func (o *TestObserver) AdvanceCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.Advances)
}

func (o *TestObserver) RejectCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.Rejects)
}

func (o *TestObserver) LastAdvance() *AdvanceEvent {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	if len(o.Advances) == 0 {
		return nil
	}
	return &o.Advances[len(o.Advances)-1]
}

// Test controller builders - common junction configurations for testing

// CreateCanonicalController creates a default controller loaded with
// North 40, East 10, South 20, West 30
func CreateCanonicalController() *Controller {
	c := New()
	_ = c.SetVehicleCounts(map[Lane]int{North: 40, East: 10, South: 20, West: 30})
	return c
}

// Test assertions and utilities

// AssertGreen checks which lane shows GREEN and that it is the only one
func AssertGreen(t *testing.T, c *Controller, expected Lane) {
	t.Helper()
	snap := c.SignalState()
	if snap.CurrentLane != expected {
		t.Errorf("Expected %s to be green, got %s", expected, snap.CurrentLane)
	}
	if n := snap.GreenCount(); n != 1 {
		t.Errorf("Expected exactly one green lane, got %d", n)
	}
	if snap.Lane(expected).Signal != Green {
		t.Errorf("Expected %s signal to be GREEN, got %s", expected, snap.Lane(expected).Signal)
	}
}

// AssertCycle checks the cycle counter
func AssertCycle(t *testing.T, c *Controller, expected int) {
	t.Helper()
	if got := c.Cycle(); got != expected {
		t.Errorf("Expected cycle %d, got %d", expected, got)
	}
}

// AssertGreenTimes checks the green time of each listed lane
func AssertGreenTimes(t *testing.T, c *Controller, expected map[Lane]int) {
	t.Helper()
	snap := c.SignalState()
	for lane, want := range expected {
		if got := snap.Lane(lane).GreenTime; got != want {
			t.Errorf("Expected %s green time %d, got %d", lane, want, got)
		}
	}
}

// AssertRotation advances the controller once per expected lane and checks
// that each step lands on the next one
func AssertRotation(t *testing.T, c *Controller, expected []Lane) {
	t.Helper()
	start := c.Cycle()
	for i, lane := range expected {
		c.Advance()
		if got := c.CurrentLane(); got != lane {
			t.Errorf("Step %d: expected %s, got %s", i+1, lane, got)
		}
		if got := c.Cycle(); got != start+i+1 {
			t.Errorf("Step %d: expected cycle %d, got %d", i+1, start+i+1, got)
		}
	}
}

// ConcurrentAdvancer advances the controller count times and signals done
func ConcurrentAdvancer(c *Controller, count int, done chan bool) {
	for i := 0; i < count; i++ {
		c.Advance()
	}
	done <- true
}
