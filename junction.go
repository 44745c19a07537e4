// Package junction simulates a single four-way traffic junction. It turns
// per-lane vehicle counts into bounded, proportionally fair green-light
// durations and cycles the green light through the lanes in a fixed
// round-robin order.
//
// A Controller performs no I/O and starts no goroutines. Hosts own one
// controller per session and drive it by calling SetVehicleCount when
// sensor input arrives and Advance once the current lane's green time has
// elapsed.
package junction

import "time"

// GreenDuration converts a green time in seconds to a time.Duration
func GreenDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
