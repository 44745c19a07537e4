package junction

// EventAdvance is the event name carried by every rotation transition
const EventAdvance = "advance"

// Transition is one step of the rotation: the green light moves from
// SourceLane to TargetLane when the advance event fires.
type Transition struct {
	SourceLane Lane
	TargetLane Lane
	EventName  string
}

// Rotation is the fixed cyclic order in which lanes receive the green light
type Rotation struct {
	order    [NumLanes]Lane
	position [NumLanes]int
}

// NewRotation builds a rotation over the given order. The order must be a
// permutation of the four lanes; callers validate through Config.
func NewRotation(order [NumLanes]Lane) *Rotation {
	r := &Rotation{order: order}
	for i, lane := range order {
		r.position[lane] = i
	}
	return r
}

// First returns the lane that holds the green light after a reset
func (r *Rotation) First() Lane {
	return r.order[0]
}

// Order returns the rotation sequence
func (r *Rotation) Order() [NumLanes]Lane {
	return r.order
}

// Position returns the index of lane in the rotation sequence, or -1 for
// an unknown lane
func (r *Rotation) Position(lane Lane) int {
	if !lane.Valid() {
		return -1
	}
	return r.position[lane]
}

// Next returns the lane immediately after lane, wrapping from the last
// lane back to the first. Load never reorders the sequence. An unknown
// lane is returned unchanged.
func (r *Rotation) Next(lane Lane) Lane {
	if !lane.Valid() {
		return lane
	}
	return r.order[(r.position[lane]+1)%NumLanes]
}

// Transitions lists every step of the cycle in rotation order
func (r *Rotation) Transitions() []Transition {
	transitions := make([]Transition, 0, NumLanes)
	for _, lane := range r.order {
		transitions = append(transitions, Transition{
			SourceLane: lane,
			TargetLane: r.Next(lane),
			EventName:  EventAdvance,
		})
	}
	return transitions
}
