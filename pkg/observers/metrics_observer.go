package observers

import (
	"sync"
	"time"

	"github.com/anggasct/junction"
)

// MetricsObserver collects metrics about controller activity
type MetricsObserver struct {
	junction.BaseObserver

	greenVisits      map[junction.Lane]int
	countUpdates     map[junction.Lane]int
	transitionCounts map[string]int
	lastGreen        map[junction.Lane]time.Time
	advances         int
	resets           int
	rejections       int
	errorCount       int
	now              func() time.Time
	mutex            sync.RWMutex
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	o := &MetricsObserver{now: time.Now}
	o.Reset()
	return o
}

// OnAdvance records rotation metrics
func (o *MetricsObserver) OnAdvance(from junction.Lane, to junction.Lane, event junction.Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.advances++
	o.greenVisits[to]++
	o.transitionCounts[from.String()+"->"+to.String()]++
	o.lastGreen[to] = o.now()
}

// OnVehicleCount records count updates
func (o *MetricsObserver) OnVehicleCount(lane junction.Lane, previous int, current int, event junction.Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.countUpdates[lane]++
}

// OnReset records resets
func (o *MetricsObserver) OnReset(event junction.Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.resets++
	o.lastGreen[event.Lane] = o.now()
}

// OnRejected records refused input
func (o *MetricsObserver) OnRejected(event junction.Event, err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.rejections++
}

// OnError records observer failures
func (o *MetricsObserver) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.errorCount++
}

// GetGreenVisits returns how many times each lane received the green light
func (o *MetricsObserver) GetGreenVisits() map[junction.Lane]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[junction.Lane]int, len(o.greenVisits))
	for lane, n := range o.greenVisits {
		result[lane] = n
	}
	return result
}

// GetCountUpdates returns how many count updates each lane received
func (o *MetricsObserver) GetCountUpdates() map[junction.Lane]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[junction.Lane]int, len(o.countUpdates))
	for lane, n := range o.countUpdates {
		result[lane] = n
	}
	return result
}

// GetTransitionCounts returns the number of times each rotation step occurred
func (o *MetricsObserver) GetTransitionCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[string]int, len(o.transitionCounts))
	for transition, n := range o.transitionCounts {
		result[transition] = n
	}
	return result
}

// GetAdvanceCount returns the number of rotation steps
func (o *MetricsObserver) GetAdvanceCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.advances
}

// GetResetCount returns the number of resets
func (o *MetricsObserver) GetResetCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.resets
}

// GetRejectionCount returns the number of refused inputs
func (o *MetricsObserver) GetRejectionCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.rejections
}

// GetErrorCount returns the number of observer errors
func (o *MetricsObserver) GetErrorCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.errorCount
}

// TimeSinceGreen returns how long ago lane last received the green light.
// The second result is false if it never did since the observer started.
func (o *MetricsObserver) TimeSinceGreen(lane junction.Lane) (time.Duration, bool) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	at, ok := o.lastGreen[lane]
	if !ok {
		return 0, false
	}
	return o.now().Sub(at), true
}

// Reset resets all metrics
func (o *MetricsObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.greenVisits = make(map[junction.Lane]int)
	o.countUpdates = make(map[junction.Lane]int)
	o.transitionCounts = make(map[string]int)
	o.lastGreen = make(map[junction.Lane]time.Time)
	o.advances = 0
	o.resets = 0
	o.rejections = 0
	o.errorCount = 0
}
