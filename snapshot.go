package junction

// LaneState is the derived view of one lane
type LaneState struct {
	Lane       Lane       `json:"lane"`
	Vehicles   int        `json:"vehicles"`
	Signal     Signal     `json:"signal"`
	GreenTime  int        `json:"green_time"`
	Congestion Congestion `json:"congestion"`
}

// Snapshot is a point-in-time view of every lane, in rotation order
type Snapshot struct {
	Lanes         [NumLanes]LaneState `json:"lanes"`
	CurrentLane   Lane                `json:"current_green_lane"`
	Cycle         int                 `json:"cycle_number"`
	TotalVehicles int                 `json:"total_vehicles"`
}

// Lane returns the state of a single lane
func (s Snapshot) Lane(lane Lane) LaneState {
	for _, ls := range s.Lanes {
		if ls.Lane == lane {
			return ls
		}
	}
	return LaneState{Lane: lane}
}

// Map returns the lane states keyed by lane
func (s Snapshot) Map() map[Lane]LaneState {
	m := make(map[Lane]LaneState, NumLanes)
	for _, ls := range s.Lanes {
		m[ls.Lane] = ls
	}
	return m
}

// GreenCount returns how many lanes show GREEN
func (s Snapshot) GreenCount() int {
	n := 0
	for _, ls := range s.Lanes {
		if ls.Signal == Green {
			n++
		}
	}
	return n
}

// Statistics summarises the controller state
type Statistics struct {
	TotalVehicles     int     `json:"total_vehicles"`
	AveragePerLane    float64 `json:"average_vehicles_per_lane"`
	MostCongestedLane Lane    `json:"most_congested_lane"`
	MaxVehicles       int     `json:"max_vehicles"`
	CurrentGreenLane  Lane    `json:"current_green_lane"`
	CycleNumber       int     `json:"cycle_number"`
}
