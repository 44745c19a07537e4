// Package scheduler drives a controller in real time: each green phase
// lasts the lane's computed green time before the rotation advances.
package scheduler

import (
	"context"
	"time"

	"github.com/anggasct/junction"
	"github.com/rs/zerolog"
)

// Clock abstracts waiting so runs can be driven by tests
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock is the wall clock
var RealClock Clock = realClock{}

// Tick reports one completed green phase
type Tick struct {
	Cycle     int           `json:"cycle"`
	Lane      junction.Lane `json:"lane"`
	GreenTime int           `json:"green_time"`
	Next      junction.Lane `json:"next"`
	At        time.Time     `json:"at"`
}

// Runner advances a controller every time the current green phase ends
type Runner struct {
	Controller *junction.Controller

	// Clock defaults to RealClock
	Clock Clock

	// OnTick, if set, is called after every advance
	OnTick func(Tick)

	// TimeScale shortens or stretches each phase; 0 means 1
	TimeScale float64

	// MaxCycles stops the run after that many advances; 0 runs until the
	// context is cancelled
	MaxCycles int

	// Logger defaults to a no-op logger
	Logger *zerolog.Logger
}

func (r *Runner) phase(seconds int) time.Duration {
	scale := r.TimeScale
	if scale <= 0 {
		scale = 1
	}
	return time.Duration(float64(junction.GreenDuration(seconds)) * scale)
}

// Run blocks until ctx is done or MaxCycles phases have completed. Green
// times are read at the start of each phase, so count updates made during
// a phase apply from the next one. It returns ctx.Err() on cancellation and
// nil when MaxCycles is reached.
func (r *Runner) Run(ctx context.Context) error {
	clock := r.Clock
	if clock == nil {
		clock = RealClock
	}
	logger := zerolog.Nop()
	if r.Logger != nil {
		logger = *r.Logger
	}

	for done := 0; r.MaxCycles == 0 || done < r.MaxCycles; done++ {
		snap := r.Controller.SignalState()
		lane := snap.CurrentLane
		green := snap.Lane(lane).GreenTime

		logger.Debug().
			Str("lane", lane.String()).
			Int("green_time", green).
			Int("cycle", snap.Cycle).
			Msg("green phase started")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(r.phase(green)):
		}

		r.Controller.Advance()
		tick := Tick{
			Cycle:     r.Controller.Cycle(),
			Lane:      lane,
			GreenTime: green,
			Next:      r.Controller.CurrentLane(),
			At:        clock.Now(),
		}
		if r.OnTick != nil {
			r.OnTick(tick)
		}
	}
	return nil
}
