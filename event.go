package junction

import (
	"time"

	"github.com/google/uuid"
)

// Event names reported to observers
const (
	EventVehicleCount = "vehicle_count"
	EventReset        = "reset"
	EventRejected     = "rejected"
)

// Event describes something that happened on a controller
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Lane      Lane      `json:"lane"`
	Cycle     int       `json:"cycle"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates a new event with a fresh identifier
func NewEvent(name string, lane Lane, cycle int, data any) Event {
	return Event{
		ID:        uuid.New().String(),
		Name:      name,
		Lane:      lane,
		Cycle:     cycle,
		Data:      data,
		Timestamp: time.Now(),
	}
}
