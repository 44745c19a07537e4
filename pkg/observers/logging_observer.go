// Package observers provides observers for monitoring junction controllers
package observers

import (
	"sync"

	"github.com/anggasct/junction"
	"github.com/rs/zerolog"
)

// LogLevel represents the logging level
type LogLevel int

const (
	// LogError logs only errors
	LogError LogLevel = iota
	// LogWarning logs errors and warnings
	LogWarning
	// LogInfo logs errors, warnings, and info
	LogInfo
	// LogDebug logs errors, warnings, info, and debug
	LogDebug
)

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogError:
		return zerolog.ErrorLevel
	case LogWarning:
		return zerolog.WarnLevel
	case LogDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// LoggingObserver writes controller events to a zerolog logger
type LoggingObserver struct {
	junction.BaseObserver

	level  LogLevel
	prefix string
	logger zerolog.Logger
	mutex  sync.RWMutex
}

// NewLoggingObserver creates a new logging observer. The prefix is attached
// to every line as the "junction" field.
func NewLoggingObserver(logger zerolog.Logger, level LogLevel, prefix string) *LoggingObserver {
	return &LoggingObserver{
		level:  level,
		prefix: prefix,
		logger: logger,
	}
}

// SetLevel changes the verbosity
func (o *LoggingObserver) SetLevel(level LogLevel) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.level = level
}

// event starts a log entry at the given level, or returns nil when the
// level is filtered out
func (o *LoggingObserver) event(level LogLevel) *zerolog.Event {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if level > o.level {
		return nil
	}

	e := o.logger.WithLevel(level.zerolog())
	if o.prefix != "" {
		e = e.Str("junction", o.prefix)
	}
	return e
}

// OnAdvance logs rotation steps
func (o *LoggingObserver) OnAdvance(from junction.Lane, to junction.Lane, event junction.Event) {
	if e := o.event(LogInfo); e != nil {
		e.Str("from", from.String()).
			Str("to", to.String()).
			Int("cycle", event.Cycle).
			Msg("signal advanced")
	}
}

// OnVehicleCount logs count updates
func (o *LoggingObserver) OnVehicleCount(lane junction.Lane, previous int, current int, event junction.Event) {
	if e := o.event(LogDebug); e != nil {
		e.Str("lane", lane.String()).
			Int("previous", previous).
			Int("vehicles", current).
			Msg("vehicle count updated")
	}
}

// OnReset logs resets
func (o *LoggingObserver) OnReset(event junction.Event) {
	if e := o.event(LogInfo); e != nil {
		e.Str("green", event.Lane.String()).Msg("controller reset")
	}
}

// OnRejected logs refused input
func (o *LoggingObserver) OnRejected(event junction.Event, err error) {
	if e := o.event(LogWarning); e != nil {
		e.Err(err).Str("lane", event.Lane.String()).Msg("input rejected")
	}
}

// OnError logs observer failures
func (o *LoggingObserver) OnError(err error) {
	if e := o.event(LogError); e != nil {
		e.Err(err).Msg("observer error")
	}
}
