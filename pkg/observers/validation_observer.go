package observers

import (
	"fmt"
	"sync"

	"github.com/anggasct/junction"
)

// ValidationObserver checks that a controller only ever moves forward
// through its rotation, one step and one cycle at a time
type ValidationObserver struct {
	junction.BaseObserver

	allowed       map[junction.Lane]junction.Lane
	visited       map[junction.Lane]bool
	expectedCycle int
	violations    []string
	mutex         sync.RWMutex
}

// NewValidationObserver creates a validation observer for the given rotation
func NewValidationObserver(rotation *junction.Rotation) *ValidationObserver {
	o := &ValidationObserver{
		allowed: make(map[junction.Lane]junction.Lane, junction.NumLanes),
		visited: map[junction.Lane]bool{rotation.First(): true},
	}
	for _, t := range rotation.Transitions() {
		o.allowed[t.SourceLane] = t.TargetLane
	}
	return o
}

// addViolation adds a violation; the caller holds the lock
func (o *ValidationObserver) addViolation(format string, args ...any) {
	o.violations = append(o.violations, fmt.Sprintf(format, args...))
}

// OnAdvance validates rotation steps
func (o *ValidationObserver) OnAdvance(from junction.Lane, to junction.Lane, event junction.Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if want, ok := o.allowed[from]; !ok || want != to {
		o.addViolation("rotation step %s -> %s is not in the rotation", from, to)
	}
	o.expectedCycle++
	if event.Cycle != o.expectedCycle {
		o.addViolation("cycle %d after advance to %s, expected %d", event.Cycle, to, o.expectedCycle)
		o.expectedCycle = event.Cycle
	}
	o.visited[to] = true
}

// OnVehicleCount validates count updates
func (o *ValidationObserver) OnVehicleCount(lane junction.Lane, previous int, current int, event junction.Event) {
	if current < 0 {
		o.mutex.Lock()
		defer o.mutex.Unlock()
		o.addViolation("negative count %d accepted for %s", current, lane)
	}
}

// OnReset restarts cycle tracking
func (o *ValidationObserver) OnReset(event junction.Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.expectedCycle = 0
	if event.Cycle != 0 {
		o.addViolation("reset left cycle at %d", event.Cycle)
	}
}

// IsValid returns true if there are no violations
func (o *ValidationObserver) IsValid() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.violations) == 0
}

// GetViolations returns all violations
func (o *ValidationObserver) GetViolations() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make([]string, len(o.violations))
	copy(result, o.violations)
	return result
}

// AllLanesVisited reports whether every lane has been green at least once
func (o *ValidationObserver) AllLanesVisited() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.visited) == junction.NumLanes
}

// Reset clears all violations and visit tracking
func (o *ValidationObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.violations = nil
	o.expectedCycle = 0
	for lane := range o.visited {
		delete(o.visited, lane)
	}
}
