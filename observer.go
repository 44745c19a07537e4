package junction

import (
	"fmt"
	"sync"
)

// Observer represents an entity that observes a controller
type Observer interface {
	// OnAdvance is called after the green light moved from one lane to the next
	OnAdvance(from Lane, to Lane, event Event)

	// OnVehicleCount is called after a lane's vehicle count was overwritten
	OnVehicleCount(lane Lane, previous int, current int, event Event)
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver interface {
	Observer

	// OnReset is called after the controller returned to its initial state
	OnReset(event Event)

	// OnRejected is called when input was refused
	OnRejected(event Event, err error)

	// OnError is called when an observer panicked
	OnError(err error)
}

// BaseObserver provides a default implementation with no-op methods
type BaseObserver struct{}

// OnAdvance implements the required Observer method
func (o *BaseObserver) OnAdvance(from Lane, to Lane, event Event) {}

// OnVehicleCount implements the required Observer method
func (o *BaseObserver) OnVehicleCount(lane Lane, previous int, current int, event Event) {}

// OnReset implements the optional ExtendedObserver method
func (o *BaseObserver) OnReset(event Event) {}

// OnRejected implements the optional ExtendedObserver method
func (o *BaseObserver) OnRejected(event Event, err error) {}

// OnError implements the optional ExtendedObserver method
func (o *BaseObserver) OnError(err error) {}

// ObserverManager manages a collection of observers
type ObserverManager struct {
	observers []Observer
	mutex     sync.RWMutex
}

// NewObserverManager creates a new observer manager
func NewObserverManager() *ObserverManager {
	return &ObserverManager{
		observers: make([]Observer, 0),
	}
}

// AddObserver adds an observer to the manager
func (om *ObserverManager) AddObserver(observer Observer) {
	om.mutex.Lock()
	defer om.mutex.Unlock()
	om.observers = append(om.observers, observer)
}

// RemoveObserver removes an observer from the manager
func (om *ObserverManager) RemoveObserver(observer Observer) {
	om.mutex.Lock()
	defer om.mutex.Unlock()
	for i, obs := range om.observers {
		if obs == observer {
			om.observers = append(om.observers[:i], om.observers[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered observers
func (om *ObserverManager) Len() int {
	om.mutex.RLock()
	defer om.mutex.RUnlock()
	return len(om.observers)
}

// snapshot copies the observer list so callbacks may add or remove observers
func (om *ObserverManager) snapshot() []Observer {
	om.mutex.RLock()
	defer om.mutex.RUnlock()
	observers := make([]Observer, len(om.observers))
	copy(observers, om.observers)
	return observers
}

// guard runs fn and reports a panic to the observer's OnError, if it has one
func guard(observer Observer, hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if extObs, ok := observer.(ExtendedObserver); ok {
				func() {
					defer func() { recover() }()
					extObs.OnError(fmt.Errorf("observer panic in %s: %v", hook, r))
				}()
			}
		}
	}()
	fn()
}

// NotifyAdvance notifies all observers of a rotation step
func (om *ObserverManager) NotifyAdvance(from Lane, to Lane, event Event) {
	for _, observer := range om.snapshot() {
		observer := observer
		guard(observer, "OnAdvance", func() { observer.OnAdvance(from, to, event) })
	}
}

// NotifyVehicleCount notifies all observers of a count update
func (om *ObserverManager) NotifyVehicleCount(lane Lane, previous int, current int, event Event) {
	for _, observer := range om.snapshot() {
		observer := observer
		guard(observer, "OnVehicleCount", func() { observer.OnVehicleCount(lane, previous, current, event) })
	}
}

// NotifyReset notifies all extended observers of a reset
func (om *ObserverManager) NotifyReset(event Event) {
	for _, observer := range om.snapshot() {
		if extObs, ok := observer.(ExtendedObserver); ok {
			guard(observer, "OnReset", func() { extObs.OnReset(event) })
		}
	}
}

// NotifyRejected notifies all extended observers of refused input
func (om *ObserverManager) NotifyRejected(event Event, err error) {
	for _, observer := range om.snapshot() {
		if extObs, ok := observer.(ExtendedObserver); ok {
			guard(observer, "OnRejected", func() { extObs.OnRejected(event, err) })
		}
	}
}
